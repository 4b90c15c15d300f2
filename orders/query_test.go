package orders

import (
	"context"
	"testing"
	"time"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(orders []models.Order) []uint {
	out := make([]uint, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func TestPendingOnlyListsOrdersInsideWindow(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	old := e.place(t, testutil.Epoch)
	recent := e.place(t, testutil.Epoch.Add(2*time.Minute))
	newest := e.place(t, testutil.Epoch.Add(3*time.Minute))
	_, err := e.engine.Reject(ctx, newest.ID, e.f.Restaurant.ID)
	require.NoError(t, err)

	e.clock.T = testutil.Epoch.Add(6 * time.Minute)
	pending, err := e.query.ForRestaurantPending(ctx, e.f.Restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{recent.ID}, ids(pending))
	assert.NotContains(t, ids(pending), old.ID)

	other, err := e.query.ForRestaurantPending(ctx, e.f.Other.ID)
	require.NoError(t, err)
	assert.NotNil(t, other)
	assert.Empty(t, other)
}

func TestAcceptedAndFinalizedBoards(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	rid := e.f.Restaurant.ID

	confirmed := e.place(t, testutil.Epoch)
	preparing := e.place(t, testutil.Epoch.Add(time.Minute))
	rejected := e.place(t, testutil.Epoch.Add(2*time.Minute))
	dispatched := e.place(t, testutil.Epoch.Add(3*time.Minute))
	awaiting := e.place(t, testutil.Epoch.Add(4*time.Minute))

	_, err := e.engine.Accept(ctx, confirmed.ID, rid)
	require.NoError(t, err)
	_, err = e.engine.Accept(ctx, preparing.ID, rid)
	require.NoError(t, err)
	_, err = e.engine.StartPreparing(ctx, preparing.ID, rid)
	require.NoError(t, err)
	_, err = e.engine.Reject(ctx, rejected.ID, rid)
	require.NoError(t, err)
	_, err = e.engine.Accept(ctx, dispatched.ID, rid)
	require.NoError(t, err)
	_, err = e.engine.Dispatch(ctx, dispatched.ID, rid)
	require.NoError(t, err)

	accepted, err := e.query.ForRestaurantAccepted(ctx, rid)
	require.NoError(t, err)
	assert.Equal(t, []uint{preparing.ID, confirmed.ID}, ids(accepted))

	finalized, err := e.query.ForRestaurantFinalized(ctx, rid, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{dispatched.ID, rejected.ID}, ids(finalized))
	assert.NotContains(t, ids(finalized), awaiting.ID)

	limited, err := e.query.ForRestaurantFinalized(ctx, rid, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{dispatched.ID}, ids(limited))
}

func TestForUserNewestFirst(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	first := e.place(t, testutil.Epoch)
	second := e.place(t, testutil.Epoch.Add(time.Minute))

	list, err := e.query.ForUser(ctx, e.f.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID, first.ID}, ids(list))
	require.NotNil(t, list[0].Restaurant)
	assert.Equal(t, "Cantina da Vila", list[0].Restaurant.Name)

	none, err := e.query.ForUser(ctx, 999)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMissingRestaurantGetsDefaultLabel(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	in := e.input()
	in.RestaurantID = 777
	order, _, err := e.engine.Create(ctx, in)
	require.NoError(t, err)

	got, err := e.query.ByIDWithDetails(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Restaurant)
	assert.Equal(t, DefaultRestaurantName, got.Restaurant.Name)
	assert.Equal(t, uint(777), got.Restaurant.ID)
}

func TestHistoryEndsWithCurrentStatus(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	order := e.place(t, testutil.Epoch)
	_, err := e.engine.Accept(ctx, order.ID, e.f.Restaurant.ID)
	require.NoError(t, err)
	_, err = e.engine.Dispatch(ctx, order.ID, e.f.Restaurant.ID)
	require.NoError(t, err)

	history, err := e.query.History(ctx, order.ID)
	require.NoError(t, err)
	statuses := make([]models.OrderStatus, 0, len(history))
	for _, ev := range history {
		statuses = append(statuses, ev.Status)
	}
	assert.Equal(t, []models.OrderStatus{
		models.StatusAwaitingConfirmation, models.StatusConfirmed, models.StatusDispatched,
	}, statuses)
	assert.Equal(t, e.status(t, order.ID), statuses[len(statuses)-1])

	_, err = e.query.History(ctx, 4040)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.query.ByIDWithDetails(ctx, 4040)
	assert.ErrorIs(t, err, ErrNotFound)
}

type limitRecorder struct {
	Reader
	limits []int
}

func (r *limitRecorder) ListFinalizedForRestaurant(_ context.Context, _ uint, limit int) ([]models.Order, error) {
	r.limits = append(r.limits, limit)
	return nil, nil
}

func TestFinalizedLimitIsBounded(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		configured int
		requested  int
		want       int
	}{
		{"default", 0, 0, DefaultFinalizedLimit},
		{"configured", 20, 0, 20},
		{"requested", 20, 7, 7},
		{"requested above max", 20, 1_000_000, MaxFinalizedLimit},
		{"configured above max", 10_000, 0, MaxFinalizedLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := &limitRecorder{}
			q := NewQueryService(r, QueryConfig{FinalizedLimit: tt.configured})
			got, err := q.ForRestaurantFinalized(context.Background(), 1, tt.requested)
			require.NoError(t, err)
			assert.Empty(t, got)
			assert.Equal(t, []int{tt.want}, r.limits)
		})
	}
}

func TestByIDLoadsBareOrder(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	order := e.place(t, testutil.Epoch)
	got, err := e.query.ByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, e.f.Customer.ID, got.CustomerID)

	_, err = e.query.ByID(context.Background(), 4040)
	assert.ErrorIs(t, err, ErrNotFound)
}
