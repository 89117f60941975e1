package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"zaidev/internal/domain/models/generation"
	genSvc "zaidev/internal/domain/services/generation"
)

const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// BreakerConfig configures the circuit breakers around model backends.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a half-open probe.
	Timeout time.Duration
	// Interval clears failure counts while closed. Zero keeps the default.
	Interval time.Duration
}

func newBreaker[T any](name string, cfg BreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[T] {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		// a caller giving up is not a backend failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

func breakerErr(backend string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("backend %q unavailable: %w", backend, err)
	}
	return err
}

// BreakerText guards a text backend with a circuit breaker.
type BreakerText struct {
	inner   genSvc.TextBackend
	breaker *gobreaker.CircuitBreaker[json.RawMessage]
}

func NewBreakerText(inner genSvc.TextBackend, cfg BreakerConfig, logger *slog.Logger) *BreakerText {
	return &BreakerText{
		inner:   inner,
		breaker: newBreaker[json.RawMessage]("text:"+inner.Name(), cfg, logger),
	}
}

func (b *BreakerText) Name() string { return b.inner.Name() }

func (b *BreakerText) GenerateJSON(ctx context.Context, req genSvc.JSONRequest) (json.RawMessage, error) {
	out, err := b.breaker.Execute(func() (json.RawMessage, error) {
		return b.inner.GenerateJSON(ctx, req)
	})
	if err != nil {
		return nil, breakerErr(b.inner.Name(), err)
	}
	return out, nil
}

// State returns the breaker state for health reporting.
func (b *BreakerText) State() gobreaker.State { return b.breaker.State() }

// BreakerImage guards an image backend. Generation and editing share one
// circuit because they hit the same provider.
type BreakerImage struct {
	inner   genSvc.ImageBackend
	breaker *gobreaker.CircuitBreaker[generation.Media]
}

func NewBreakerImage(inner genSvc.ImageBackend, cfg BreakerConfig, logger *slog.Logger) *BreakerImage {
	return &BreakerImage{
		inner:   inner,
		breaker: newBreaker[generation.Media]("image:"+inner.Name(), cfg, logger),
	}
}

func (b *BreakerImage) Name() string { return b.inner.Name() }

func (b *BreakerImage) GenerateImage(ctx context.Context, model, prompt string) (generation.Media, error) {
	out, err := b.breaker.Execute(func() (generation.Media, error) {
		return b.inner.GenerateImage(ctx, model, prompt)
	})
	if err != nil {
		return generation.Media{}, breakerErr(b.inner.Name(), err)
	}
	return out, nil
}

func (b *BreakerImage) EditImage(ctx context.Context, model string, image generation.Media, prompt string) (generation.Media, error) {
	out, err := b.breaker.Execute(func() (generation.Media, error) {
		return b.inner.EditImage(ctx, model, image, prompt)
	})
	if err != nil {
		return generation.Media{}, breakerErr(b.inner.Name(), err)
	}
	return out, nil
}

func (b *BreakerImage) State() gobreaker.State { return b.breaker.State() }

// BreakerSpeech guards a speech backend.
type BreakerSpeech struct {
	inner   genSvc.SpeechBackend
	breaker *gobreaker.CircuitBreaker[generation.Media]
}

func NewBreakerSpeech(inner genSvc.SpeechBackend, cfg BreakerConfig, logger *slog.Logger) *BreakerSpeech {
	return &BreakerSpeech{
		inner:   inner,
		breaker: newBreaker[generation.Media]("speech:"+inner.Name(), cfg, logger),
	}
}

func (b *BreakerSpeech) Name() string { return b.inner.Name() }

func (b *BreakerSpeech) Synthesize(ctx context.Context, model, text string) (generation.Media, error) {
	out, err := b.breaker.Execute(func() (generation.Media, error) {
		return b.inner.Synthesize(ctx, model, text)
	})
	if err != nil {
		return generation.Media{}, breakerErr(b.inner.Name(), err)
	}
	return out, nil
}

func (b *BreakerSpeech) State() gobreaker.State { return b.breaker.State() }

var (
	_ genSvc.TextBackend   = (*BreakerText)(nil)
	_ genSvc.ImageBackend  = (*BreakerImage)(nil)
	_ genSvc.SpeechBackend = (*BreakerSpeech)(nil)
)
