package jobproc

import (
	"context"
	"encoding/json"
	"time"
)

// Echo returns its input unchanged after the simulated delay.
type Echo struct {
	Delay time.Duration
}

func (p *Echo) Run(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	if err := sleep(ctx, p.Delay); err != nil {
		return nil, err
	}
	if len(input) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return input, nil
}
