package jobproc

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"math/rand"
	"time"
)

type WeatherRequest struct {
	City string `json:"city"`
	Date string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

type WeatherResponse struct {
	City         string `json:"city"`
	Date         string `json:"date"`
	TemperatureC int    `json:"temperatureC"`
	Summary      string `json:"summary"`
}

var summaries = []string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild",
	"Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

// Weather simulates a slow forecast computation. The result is deterministic
// for a given city and date so repeated submissions agree.
type Weather struct {
	Delay time.Duration
}

func (p *Weather) Run(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var req WeatherRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, err
	}
	if req.City == "" {
		return nil, errors.New("city is required")
	}

	date := req.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, errors.New("date must be YYYY-MM-DD")
	}

	if err := sleep(ctx, p.Delay); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed(req.City, date)))
	resp := WeatherResponse{
		City:         req.City,
		Date:         date,
		TemperatureC: rng.Intn(46) - 10, // -10..35
		Summary:      "The weather will be " + summaries[rng.Intn(len(summaries))],
	}
	return json.Marshal(resp)
}

func seed(parts ...string) int64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
	}
	return int64(h.Sum64())
}
