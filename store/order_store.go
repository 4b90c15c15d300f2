// Package store persists orders, their line items and their status history.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStale means the conditional update matched no row: the order left
	// the expected state (or never was in it) before the write applied.
	ErrStale = errors.New("order is no longer in the expected state")
)

type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Create inserts the order, its items and the seed status event in one
// transaction. newCode draws confirmation codes; a code equal to the id the
// database assigned is redrawn before commit.
func (s *OrderStore) Create(ctx context.Context, order *models.Order, actor models.Actor, newCode func() string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order.ConfirmationCode = newCode()
		order.StatusHistory = nil
		if err := tx.Omit("Customer", "Restaurant").Create(order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		id := strconv.FormatUint(uint64(order.ID), 10)
		if order.ConfirmationCode == id {
			for order.ConfirmationCode == id {
				order.ConfirmationCode = newCode()
			}
			err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
				Update("confirmation_code", order.ConfirmationCode).Error
			if err != nil {
				return fmt.Errorf("update confirmation code: %w", err)
			}
		}

		event := models.OrderStatusEvent{
			OrderID:   order.ID,
			Status:    order.Status,
			Actor:     actor,
			CreatedAt: order.CreatedAt,
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("insert status event: %w", err)
		}
		order.StatusHistory = []models.OrderStatusEvent{event}
		return nil
	})
}

func (s *OrderStore) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// GetWithDetails joins the customer, the restaurant, the items with their
// products and the status history.
func (s *OrderStore) GetWithDetails(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.detailed(ctx).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (s *OrderStore) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("idempotency_key = ?", key).First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// Transition describes a compare-and-set status change.
type Transition struct {
	OrderID uint
	From    []models.OrderStatus
	To      models.OrderStatus
	Actor   models.Actor
	At      time.Time

	// RestaurantID, when non-zero, must own the order.
	RestaurantID uint
	// CreatedAfter, when set, is the oldest creation time still allowed.
	CreatedAfter time.Time
}

// Transition applies tr as a single conditional update plus one appended
// status event. ErrStale is returned when no row matched the guard.
func (s *OrderStore) Transition(ctx context.Context, tr Transition) (*models.OrderStatusEvent, error) {
	if len(tr.From) == 0 {
		return nil, fmt.Errorf("transition to %q has no source states", tr.To)
	}

	var event models.OrderStatusEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Order{}).Where("id = ? AND status IN ?", tr.OrderID, tr.From)
		if tr.RestaurantID != 0 {
			q = q.Where("restaurant_id = ?", tr.RestaurantID)
		}
		if !tr.CreatedAfter.IsZero() {
			q = q.Where("created_at >= ?", tr.CreatedAfter)
		}
		res := q.Update("status", tr.To)
		if res.Error != nil {
			return fmt.Errorf("update status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStale
		}

		event = models.OrderStatusEvent{OrderID: tr.OrderID, Status: tr.To, Actor: tr.Actor, CreatedAt: tr.At}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("insert status event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// SetStatus writes status without any guard. Only administrative overrides
// use it; lifecycle actions go through Transition.
func (s *OrderStore) SetStatus(ctx context.Context, id uint, status models.OrderStatus, actor models.Actor, at time.Time) (*models.OrderStatusEvent, error) {
	var event models.OrderStatusEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
		if res.Error != nil {
			return fmt.Errorf("update status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		event = models.OrderStatusEvent{OrderID: id, Status: status, Actor: actor, CreatedAt: at}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("insert status event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// History returns the status events of an order, oldest first.
func (s *OrderStore) History(ctx context.Context, id uint) ([]models.OrderStatusEvent, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	var events []models.OrderStatusEvent
	err := s.db.WithContext(ctx).Where("order_id = ?", id).Order("id ASC").Find(&events).Error
	return events, err
}

func (s *OrderStore) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.detailed(ctx).
		Where("customer_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

// ListPendingForRestaurant returns orders still awaiting confirmation that
// were created at or after since.
func (s *OrderStore) ListPendingForRestaurant(ctx context.Context, restaurantID uint, since time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.detailed(ctx).
		Where("restaurant_id = ? AND status = ? AND created_at >= ?", restaurantID, models.StatusAwaitingConfirmation, since).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

func (s *OrderStore) ListAcceptedForRestaurant(ctx context.Context, restaurantID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.detailed(ctx).
		Where("restaurant_id = ? AND status IN ?", restaurantID, models.AcceptedStatuses).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

func (s *OrderStore) ListFinalizedForRestaurant(ctx context.Context, restaurantID uint, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.detailed(ctx).
		Where("restaurant_id = ? AND status IN ?", restaurantID, models.FinalizedStatuses).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// SweepExpired moves every order still awaiting confirmation and created
// before cutoff to StatusExpired, appending one event per order, in one
// transaction. Each row is re-checked by the update itself, so an order
// accepted concurrently is skipped rather than transitioned twice.
func (s *OrderStore) SweepExpired(ctx context.Context, cutoff, at time.Time) ([]models.Order, error) {
	var swept []models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		swept = swept[:0]

		var candidates []models.Order
		q := tx.Select("id", "customer_id", "restaurant_id", "status", "created_at").
			Where("status = ? AND created_at < ?", models.StatusAwaitingConfirmation, cutoff).
			Order("id")
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := q.Find(&candidates).Error; err != nil {
			return fmt.Errorf("select expired orders: %w", err)
		}

		for _, o := range candidates {
			res := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", o.ID, models.StatusAwaitingConfirmation).
				Update("status", models.StatusExpired)
			if res.Error != nil {
				return fmt.Errorf("expire order %d: %w", o.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				continue
			}
			event := models.OrderStatusEvent{OrderID: o.ID, Status: models.StatusExpired, Actor: models.ActorSystem, CreatedAt: at}
			if err := tx.Create(&event).Error; err != nil {
				return fmt.Errorf("insert status event for order %d: %w", o.ID, err)
			}
			o.Status = models.StatusExpired
			swept = append(swept, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return swept, nil
}

func (s *OrderStore) detailed(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Restaurant").
		Preload("Items.Product")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
