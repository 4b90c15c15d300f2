// Package sweeper periodically expires orders no restaurant answered in time.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/metrics"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/notify"

	"github.com/sirupsen/logrus"
)

const (
	DefaultInterval      = time.Minute
	DefaultMaxAge        = 5 * time.Minute
	DefaultNotifyTimeout = 5 * time.Second
)

// Store is the single operation the sweeper needs from the order store.
type Store interface {
	SweepExpired(ctx context.Context, cutoff, at time.Time) ([]models.Order, error)
}

type Config struct {
	Interval time.Duration
	MaxAge   time.Duration
	// NotifyTimeout bounds each status change delivery.
	NotifyTimeout time.Duration
	Now           func() time.Time
}

type Sweeper struct {
	store    Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	cfg      Config

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a sweeper. notifier and m may be nil.
func New(s Store, notifier notify.Notifier, m *metrics.Metrics, logger *logrus.Logger, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = DefaultNotifyTimeout
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Sweeper{store: s, notifier: notifier, metrics: m, logger: logger, cfg: cfg}
}

// SweepOnce expires every order still awaiting confirmation after MaxAge
// and returns how many it moved. Running it again right away returns 0.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.cfg.Now()
	swept, err := s.store.SweepExpired(ctx, now.Add(-s.cfg.MaxAge), now)
	if err != nil {
		s.observe("error", 0)
		s.logger.WithError(err).Error("Expiry sweep failed")
		return 0, err
	}
	s.observe("ok", len(swept))

	for _, o := range swept {
		s.notify(ctx, o, now)
	}
	if len(swept) > 0 {
		s.logger.WithField("count", len(swept)).Info("Expired unanswered orders")
	}
	return len(swept), nil
}

func (s *Sweeper) notify(ctx context.Context, o models.Order, at time.Time) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()
	err := s.notifier.Notify(ctx, notify.StatusChange{
		OrderID:      o.ID,
		RestaurantID: o.RestaurantID,
		CustomerID:   o.CustomerID,
		From:         models.StatusAwaitingConfirmation,
		To:           models.StatusExpired,
		Actor:        models.ActorSystem,
		At:           at,
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", o.ID).Warn("Failed to notify expired order")
	}
}

// Start runs a sweep immediately and then every Interval until ctx is
// cancelled or Stop is called. Calling Start twice is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)

	s.logger.WithFields(logrus.Fields{
		"interval": s.cfg.Interval.String(),
		"max_age":  s.cfg.MaxAge.String(),
	}).Info("Expiry sweeper started")
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("Expiry sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		// errors are logged by SweepOnce; the next tick retries
		_, _ = s.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) observe(result string, expired int) {
	if s.metrics == nil {
		return
	}
	s.metrics.SweepRuns.WithLabelValues(result).Inc()
	s.metrics.Expired.Add(float64(expired))
}
