package jobproc

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"time"
)

type LotteryResponse struct {
	Date    string `json:"date"`
	Numbers []int  `json:"numbers"`
}

// Lottery simulates a slow draw of five numbers out of 48, seeded by the
// draw date (three days back) so every poll of the same draw agrees.
type Lottery struct {
	Delay time.Duration
}

func (p *Lottery) Run(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
	if err := sleep(ctx, p.Delay); err != nil {
		return nil, err
	}

	date := time.Now().UTC().AddDate(0, 0, -3).Format("2006-01-02")
	rng := rand.New(rand.NewSource(seed(date)))

	numbers := rng.Perm(48)[:5]
	for i := range numbers {
		numbers[i]++
	}
	sort.Ints(numbers)

	return json.Marshal(LotteryResponse{Date: date, Numbers: numbers})
}
