// Package jobproc holds the units of work the service can run. A Processor
// is an opaque async function: it gets a request payload and a cancellation
// signal, and either produces a result or fails. It never touches the job
// store.
package jobproc

import (
	"context"
	"encoding/json"
	"time"
)

type Processor interface {
	Run(ctx context.Context, input json.RawMessage) (json.RawMessage, error)
}

// sleep simulates slow work, aborting promptly on cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
