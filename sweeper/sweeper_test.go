package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/metrics"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/notify"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/store"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/testutil"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu  sync.Mutex
	got []notify.StatusChange
}

func (r *recorder) Notify(_ context.Context, c notify.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, c)
	return nil
}

func (r *recorder) changes() []notify.StatusChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.StatusChange(nil), r.got...)
}

type failingStore struct{}

func (failingStore) SweepExpired(context.Context, time.Time, time.Time) ([]models.Order, error) {
	return nil, errors.New("connection reset")
}

type fixedStore []models.Order

func (f fixedStore) SweepExpired(context.Context, time.Time, time.Time) ([]models.Order, error) {
	return f, nil
}

// stuckNotifier blocks until its context ends.
type stuckNotifier struct {
	mu   sync.Mutex
	errs []error
}

func (n *stuckNotifier) Notify(ctx context.Context, _ notify.StatusChange) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	<-ctx.Done()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, ctx.Err())
	return ctx.Err()
}

func seedOrder(t *testing.T, s *store.OrderStore, f testutil.Fixtures, at time.Time, status models.OrderStatus) *models.Order {
	t.Helper()
	o := &models.Order{
		CustomerID:      f.Customer.ID,
		RestaurantID:    f.Restaurant.ID,
		Total:           decimal.RequireFromString("10.00"),
		DeliveryAddress: "Av. Paulista, 1000",
		DeliveryMethod:  "delivery",
		PaymentMethod:   "pix",
		Status:          status,
		CreatedAt:       at,
		Items:           []models.OrderItem{{ProductID: f.Burger.ID, Quantity: 1, UnitPrice: f.Burger.Price}},
	}
	require.NoError(t, s.Create(context.Background(), o, models.ActorCustomer, func() string { return "4821" }))
	return o
}

func statusOf(t *testing.T, s *store.OrderStore, id uint) models.OrderStatus {
	t.Helper()
	o, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	return o.Status
}

func TestSweepOnce(t *testing.T) {
	t.Parallel()
	db := testutil.NewDB(t)
	f := testutil.Seed(t, db)
	s := store.NewOrderStore(db)
	logger, _ := testutil.NewLogger()
	m := metrics.New(prometheus.NewRegistry())
	notes := &recorder{}

	stale := seedOrder(t, s, f, testutil.Epoch, models.StatusAwaitingConfirmation)
	boundary := seedOrder(t, s, f, testutil.Epoch.Add(time.Second), models.StatusAwaitingConfirmation)
	fresh := seedOrder(t, s, f, testutil.Epoch.Add(4*time.Minute), models.StatusAwaitingConfirmation)
	confirmed := seedOrder(t, s, f, testutil.Epoch, models.StatusConfirmed)

	clock := testutil.NewClock(testutil.Epoch.Add(5*time.Minute + time.Second))
	sw := New(s, notes, m, logger, Config{Now: clock.Now})

	n, err := sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, models.StatusExpired, statusOf(t, s, stale.ID))
	// exactly MaxAge old is not older than MaxAge
	assert.Equal(t, models.StatusAwaitingConfirmation, statusOf(t, s, boundary.ID))
	assert.Equal(t, models.StatusAwaitingConfirmation, statusOf(t, s, fresh.ID))
	assert.Equal(t, models.StatusConfirmed, statusOf(t, s, confirmed.ID))

	history, err := s.History(context.Background(), stale.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StatusExpired, history[1].Status)
	assert.Equal(t, models.ActorSystem, history[1].Actor)

	changes := notes.changes()
	require.Len(t, changes, 1)
	assert.Equal(t, stale.ID, changes[0].OrderID)
	assert.Equal(t, f.Restaurant.ID, changes[0].RestaurantID)
	assert.Equal(t, models.StatusExpired, changes[0].To)

	n, err = sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, notes.changes(), 1)

	assert.Equal(t, 2.0, promtest.ToFloat64(m.SweepRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Expired))
}

func TestSweepOnceReportsStoreErrors(t *testing.T) {
	t.Parallel()
	logger, hook := testutil.NewLogger()
	m := metrics.New(prometheus.NewRegistry())
	sw := New(failingStore{}, nil, m, logger, Config{})

	n, err := sw.SweepOnce(context.Background())
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.SweepRuns.WithLabelValues("error")))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Expiry sweep failed", hook.LastEntry().Message)
}

func TestStartAndStop(t *testing.T) {
	t.Parallel()
	db := testutil.NewDB(t)
	f := testutil.Seed(t, db)
	s := store.NewOrderStore(db)
	logger, _ := testutil.NewLogger()

	order := seedOrder(t, s, f, testutil.Epoch, models.StatusAwaitingConfirmation)
	now := testutil.Epoch.Add(10 * time.Minute)
	sw := New(s, nil, nil, logger, Config{
		Interval: 10 * time.Millisecond,
		Now:      func() time.Time { return now },
	})

	sw.Start(context.Background())
	sw.Start(context.Background())
	assert.Eventually(t, func() bool {
		o, err := s.Get(context.Background(), order.ID)
		return err == nil && o.Status == models.StatusExpired
	}, 2*time.Second, 10*time.Millisecond)

	sw.Stop()
	sw.Stop()
}

func TestSweepOnceBoundsEachNotification(t *testing.T) {
	t.Parallel()
	logger, hook := testutil.NewLogger()
	notes := &stuckNotifier{}
	orders := fixedStore{{ID: 1, RestaurantID: 1}, {ID: 2, RestaurantID: 1}}
	sw := New(orders, notes, nil, logger, Config{NotifyTimeout: 20 * time.Millisecond})

	start := time.Now()
	n, err := sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Less(t, time.Since(start), 2*time.Second)

	notes.mu.Lock()
	defer notes.mu.Unlock()
	require.Len(t, notes.errs, 2)
	for _, e := range notes.errs {
		assert.ErrorIs(t, e, context.DeadlineExceeded)
	}

	warned := 0
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Failed to notify expired order" {
			warned++
		}
	}
	assert.Equal(t, 2, warned)
}
