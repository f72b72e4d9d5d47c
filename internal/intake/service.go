// Package intake runs user records through validation and into the database.
//
// Service is shared by the CLI and the HTTP server. Validation always runs
// before the connection is touched, and the Limiter keeps the single
// provisioner connection to one submission at a time.
package intake

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/userdata/internal/core"
	"github.com/JonMunkholm/userdata/internal/logging"
	"github.com/JonMunkholm/userdata/internal/metrics"
)

// Inserter persists a validated user and returns the new row ID.
// *database.Provisioner satisfies it.
type Inserter interface {
	Insert(ctx context.Context, user core.ValidatedUser) (int64, error)
	Stage() core.Stage
}

// Receipt describes a saved record.
type Receipt struct {
	ID       int64              `json:"id"`
	User     core.ValidatedUser `json:"user"`
	Duration time.Duration      `json:"-"`
}

// DefaultInsertTimeout bounds a single insert once it has the connection.
const DefaultInsertTimeout = 10 * time.Second

// Service processes submissions.
type Service struct {
	store         Inserter
	limiter       *Limiter
	metrics       *metrics.Metrics
	insertTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithInsertTimeout sets how long an insert may run. Non-positive values
// keep the default.
func WithInsertTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.insertTimeout = d
		}
	}
}

// NewService creates a Service. A nil limiter gets a single slot with the
// default wait time. m may be nil.
func NewService(store Inserter, limiter *Limiter, m *metrics.Metrics, opts ...Option) *Service {
	if limiter == nil {
		limiter = NewLimiter(DefaultCapacity, DefaultMaxWaitTime)
	}
	s := &Service{
		store:         store,
		limiter:       limiter,
		metrics:       m,
		insertTimeout: DefaultInsertTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Limiter returns the limiter guarding the connection.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// Stage reports the store's lifecycle stage.
func (s *Service) Stage() core.Stage {
	return s.store.Stage()
}

// Submit validates raw and saves the result.
// A *core.ValidationError is returned without touching the database.
func (s *Service) Submit(ctx context.Context, raw core.RawRecord) (Receipt, error) {
	user, err := core.Validate(raw)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			s.metrics.IncrementValidationFailure(string(verr.Field))
			logging.WithFields(ctx, "field", verr.Field, "kind", kindName(verr.Kind)).
				Info("submission rejected", "error", verr.Message)
		}
		s.metrics.IncrementOutcome(metrics.OutcomeInvalid)
		return Receipt{}, err
	}

	return s.Save(ctx, user)
}

// Save inserts an already validated user.
//
// ctx bounds the wait for the connection. Once the insert starts it runs on
// a detached context limited by the insert timeout, so a caller that goes
// away mid-query does not take the shared connection down with it.
func (s *Service) Save(ctx context.Context, user core.ValidatedUser) (Receipt, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	if err := s.limiter.Acquire(ctx); err != nil {
		s.metrics.IncrementOutcome(outcomeFor(err))
		logger.Warn("submission not admitted", "error", err)
		return Receipt{}, err
	}
	s.metrics.ObserveQueueWait(time.Since(start))
	s.metrics.SetActive(s.limiter.ActiveCount())
	defer func() {
		s.limiter.Release()
		s.metrics.SetActive(s.limiter.ActiveCount())
	}()

	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.insertTimeout)
	defer cancel()

	insertStart := time.Now()
	id, err := s.store.Insert(insertCtx, user)
	s.metrics.ObserveInsertLatency(time.Since(insertStart))
	if err != nil {
		s.metrics.IncrementOutcome(outcomeFor(err))
		logger.Error("insert failed", "error", err, "code", core.MapError(err).Code)
		return Receipt{}, err
	}

	receipt := Receipt{ID: id, User: user, Duration: time.Since(start)}
	s.metrics.IncrementOutcome(metrics.OutcomeSaved)
	logger.Info("user saved", "id", id, "duration_ms", receipt.Duration.Milliseconds())

	return receipt, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrBusy):
		return metrics.OutcomeBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCancelled
	default:
		return metrics.OutcomeFailed
	}
}

func kindName(k core.ValidationKind) string {
	if k == core.KindMissing {
		return "missing"
	}
	return "invalid"
}
