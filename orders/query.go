package orders

import (
	"context"
	"time"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"
)

const (
	DefaultFinalizedLimit = 50
	// MaxFinalizedLimit bounds any requested finalized board size.
	MaxFinalizedLimit = 500
	// DefaultRestaurantName labels orders whose restaurant row is gone.
	DefaultRestaurantName = "Restaurant"
)

// Reader is the part of the order store the query service reads from.
type Reader interface {
	Get(ctx context.Context, id uint) (*models.Order, error)
	GetWithDetails(ctx context.Context, id uint) (*models.Order, error)
	History(ctx context.Context, id uint) ([]models.OrderStatusEvent, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
	ListPendingForRestaurant(ctx context.Context, restaurantID uint, since time.Time) ([]models.Order, error)
	ListAcceptedForRestaurant(ctx context.Context, restaurantID uint) ([]models.Order, error)
	ListFinalizedForRestaurant(ctx context.Context, restaurantID uint, limit int) ([]models.Order, error)
}

type QueryConfig struct {
	Now            func() time.Time
	PendingWindow  time.Duration
	FinalizedLimit int
}

// QueryService serves the read views. Every list is newest first.
type QueryService struct {
	store Reader
	cfg   QueryConfig
}

func NewQueryService(s Reader, cfg QueryConfig) *QueryService {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.PendingWindow <= 0 {
		cfg.PendingWindow = DefaultAcceptWindow
	}
	if cfg.FinalizedLimit <= 0 {
		cfg.FinalizedLimit = DefaultFinalizedLimit
	}
	cfg.FinalizedLimit = min(cfg.FinalizedLimit, MaxFinalizedLimit)
	return &QueryService{store: s, cfg: cfg}
}

// ByID loads the bare order row, without joins.
func (q *QueryService) ByID(ctx context.Context, id uint) (*models.Order, error) {
	order, err := q.store.Get(ctx, id)
	if err != nil {
		return nil, translate(err, id)
	}
	return order, nil
}

func (q *QueryService) ByIDWithDetails(ctx context.Context, id uint) (*models.Order, error) {
	order, err := q.store.GetWithDetails(ctx, id)
	if err != nil {
		return nil, translate(err, id)
	}
	labelRestaurant(order)
	return order, nil
}

func (q *QueryService) History(ctx context.Context, id uint) ([]models.OrderStatusEvent, error) {
	events, err := q.store.History(ctx, id)
	if err != nil {
		return nil, translate(err, id)
	}
	return events, nil
}

func (q *QueryService) ForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return q.list(q.store.ListByUser(ctx, userID))
}

// ForRestaurantPending lists orders the restaurant can still accept.
func (q *QueryService) ForRestaurantPending(ctx context.Context, restaurantID uint) ([]models.Order, error) {
	since := q.cfg.Now().Add(-q.cfg.PendingWindow)
	return q.list(q.store.ListPendingForRestaurant(ctx, restaurantID, since))
}

func (q *QueryService) ForRestaurantAccepted(ctx context.Context, restaurantID uint) ([]models.Order, error) {
	return q.list(q.store.ListAcceptedForRestaurant(ctx, restaurantID))
}

// ForRestaurantFinalized returns at most limit closed orders; a
// non-positive limit uses the configured default and anything above
// MaxFinalizedLimit is capped.
func (q *QueryService) ForRestaurantFinalized(ctx context.Context, restaurantID uint, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = q.cfg.FinalizedLimit
	}
	limit = min(limit, MaxFinalizedLimit)
	return q.list(q.store.ListFinalizedForRestaurant(ctx, restaurantID, limit))
}

func (q *QueryService) list(orders []models.Order, err error) ([]models.Order, error) {
	if err != nil {
		return nil, translate(err, 0)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	for i := range orders {
		labelRestaurant(&orders[i])
	}
	return orders, nil
}

func labelRestaurant(o *models.Order) {
	if o.Restaurant == nil {
		o.Restaurant = &models.Restaurant{ID: o.RestaurantID}
	}
	if o.Restaurant.Name == "" {
		o.Restaurant.Name = DefaultRestaurantName
	}
}
