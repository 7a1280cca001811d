package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"scenario-engine/internal/simulation"
)

// AsyncSaver saves scenarios without making the caller wait. Failures are
// logged; nothing is retried. Close waits for in-flight saves.
type AsyncSaver struct {
	store   Store
	timeout time.Duration
	wg      sync.WaitGroup

	// OnError, when set, is called after a failed save has been logged.
	OnError func(ownerID string, err error)
}

// NewAsyncSaver wraps a store. Each save gets its own timeout.
func NewAsyncSaver(s Store, timeout time.Duration) *AsyncSaver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AsyncSaver{store: s, timeout: timeout}
}

// SaveAsync starts the save and returns immediately. The save does not inherit
// the caller's context, so it outlives the request that triggered it.
func (a *AsyncSaver) SaveAsync(ownerID string, input simulation.ScenarioInput) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.store.Save(ctx, ownerID, input); err != nil {
			log.Error().Err(err).Str("owner_id", ownerID).Msg("async scenario save failed")
			if a.OnError != nil {
				a.OnError(ownerID, err)
			}
			return
		}
		log.Debug().Str("owner_id", ownerID).Msg("scenario saved")
	}()
}

// Close blocks until pending saves finish or ctx is done.
func (a *AsyncSaver) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
