package breaker

import (
	"context"
	"errors"
	"sync"

	"fundrouter/internal/metrics"
	"fundrouter/internal/repository"

	"github.com/sirupsen/logrus"
)

var (
	// ErrAlreadyPaused is returned when pausing a breaker that is paused.
	ErrAlreadyPaused = errors.New("circuit breaker already paused")
	// ErrNotPaused is returned when resuming a breaker that is running.
	ErrNotPaused = errors.New("circuit breaker not paused")
)

// Breaker is the two-state circuit breaker gating fund movement. The state
// is held in memory for cheap reads and persisted through the config
// repository so it survives restarts.
type Breaker struct {
	mu     sync.RWMutex
	paused bool
	repo   repository.ConfigRepository
}

// New creates a Breaker in the normal state. Call Load to restore the
// persisted state before serving traffic.
func New(repo repository.ConfigRepository) *Breaker {
	return &Breaker{repo: repo}
}

// Load restores the persisted breaker state.
func (b *Breaker) Load(ctx context.Context) error {
	paused, err := b.repo.GetEmergencyMode(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.paused = paused
	b.mu.Unlock()
	setStateGauge(paused)
	if paused {
		logrus.Warn("circuit breaker restored in PAUSED state")
	}
	return nil
}

func setStateGauge(paused bool) {
	if paused {
		metrics.BreakerState.Set(1)
		return
	}
	metrics.BreakerState.Set(0)
}

// Paused reports whether fund movement is currently halted.
func (b *Breaker) Paused() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.paused
}

// Pause halts fund movement. Pausing twice is an error so that operators
// notice a stale view of the breaker state.
func (b *Breaker) Pause(ctx context.Context, updatedBy string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.paused {
		return ErrAlreadyPaused
	}
	if err := b.repo.SetEmergencyMode(ctx, true, updatedBy); err != nil {
		return err
	}
	b.paused = true
	setStateGauge(true)
	logrus.WithField("by", updatedBy).Warn("circuit breaker PAUSED")
	return nil
}

// Resume restores normal operation.
func (b *Breaker) Resume(ctx context.Context, updatedBy string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.paused {
		return ErrNotPaused
	}
	if err := b.repo.SetEmergencyMode(ctx, false, updatedBy); err != nil {
		return err
	}
	b.paused = false
	setStateGauge(false)
	logrus.WithField("by", updatedBy).Info("circuit breaker resumed")
	return nil
}
