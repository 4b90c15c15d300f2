// Package orders implements the order lifecycle: creation, restaurant
// actions, delivery confirmation and the read views used by dashboards.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/metrics"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/notify"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/statemachine"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultAcceptWindow is how long a restaurant has to accept a new order.
const DefaultAcceptWindow = 5 * time.Minute

const notifyTimeout = 5 * time.Second

// Writer is the part of the order store the engine mutates through.
type Writer interface {
	Create(ctx context.Context, order *models.Order, actor models.Actor, newCode func() string) error
	Get(ctx context.Context, id uint) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	Transition(ctx context.Context, tr store.Transition) (*models.OrderStatusEvent, error)
	SetStatus(ctx context.Context, id uint, status models.OrderStatus, actor models.Actor, at time.Time) (*models.OrderStatusEvent, error)
}

type Engine struct {
	store        Writer
	logger       *logrus.Logger
	notifier     notify.Notifier
	metrics      *metrics.Metrics
	now          func() time.Time
	newCode      func() string
	acceptWindow time.Duration
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithCodeGenerator(gen func() string) Option { return func(e *Engine) { e.newCode = gen } }

func WithNotifier(n notify.Notifier) Option { return func(e *Engine) { e.notifier = n } }

func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

func WithAcceptWindow(d time.Duration) Option { return func(e *Engine) { e.acceptWindow = d } }

func NewEngine(s Writer, logger *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:        s,
		logger:       logger,
		notifier:     notify.Nop{},
		now:          func() time.Time { return time.Now().UTC() },
		newCode:      NewConfirmationCode,
		acceptWindow: DefaultAcceptWindow,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type LineItemInput struct {
	ProductID uint
	Quantity  int
	UnitPrice decimal.Decimal
}

type CreateOrderInput struct {
	CustomerID      uint
	RestaurantID    uint
	Total           decimal.Decimal // zero means the item subtotal
	DeliveryAddress string
	DeliveryMethod  string
	PaymentMethod   string
	ChangeDue       decimal.NullDecimal
	Items           []LineItemInput
	IdempotencyKey  string
}

func (in CreateOrderInput) validate() (decimal.Decimal, error) {
	var missing []string
	if in.CustomerID == 0 {
		missing = append(missing, "usuario_id")
	}
	if in.RestaurantID == 0 {
		missing = append(missing, "restaurante_id")
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		missing = append(missing, "endereco_entrega")
	}
	if strings.TrimSpace(in.DeliveryMethod) == "" {
		missing = append(missing, "metodo_entrega")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		missing = append(missing, "metodo_pagamento")
	}
	if len(missing) > 0 {
		return decimal.Zero, fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if len(in.Items) == 0 {
		return decimal.Zero, fmt.Errorf("%w: an order needs at least one item", ErrInvalidInput)
	}

	subtotal := decimal.Zero
	for i, it := range in.Items {
		if it.ProductID == 0 {
			return decimal.Zero, fmt.Errorf("%w: item %d has no product", ErrInvalidInput, i)
		}
		if it.Quantity < 1 {
			return decimal.Zero, fmt.Errorf("%w: item %d quantity must be at least 1", ErrInvalidInput, i)
		}
		if !it.UnitPrice.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: item %d unit price must be positive", ErrInvalidInput, i)
		}
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	total := in.Total
	if total.IsZero() {
		total = subtotal
	}
	if !total.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: total must be positive", ErrInvalidInput)
	}
	if in.ChangeDue.Valid && in.ChangeDue.Decimal.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: change due cannot be negative", ErrInvalidInput)
	}
	return total, nil
}

// Create places a new order awaiting confirmation. When the input carries an
// idempotency key already used by the same customer, the existing order is
// returned with created=false.
func (e *Engine) Create(ctx context.Context, in CreateOrderInput) (order *models.Order, created bool, err error) {
	total, err := in.validate()
	if err != nil {
		return nil, false, err
	}

	var key *string
	if k := strings.TrimSpace(in.IdempotencyKey); k != "" {
		scoped := fmt.Sprintf("%d:%s", in.CustomerID, k)
		existing, err := e.store.FindByIdempotencyKey(ctx, scoped)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, false, translate(err, 0)
		}
		key = &scoped
	}

	order = &models.Order{
		CustomerID:      in.CustomerID,
		RestaurantID:    in.RestaurantID,
		Total:           total,
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
		DeliveryMethod:  in.DeliveryMethod,
		PaymentMethod:   in.PaymentMethod,
		ChangeDue:       in.ChangeDue,
		Status:          models.StatusAwaitingConfirmation,
		IdempotencyKey:  key,
		CreatedAt:       e.now(),
	}
	for _, it := range in.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	if err := e.store.Create(ctx, order, models.ActorCustomer, e.newCode); err != nil {
		// lost a race with a concurrent retry carrying the same key
		if key != nil {
			if existing, ferr := e.store.FindByIdempotencyKey(ctx, *key); ferr == nil {
				return existing, false, nil
			}
		}
		e.logger.WithError(err).WithField("restaurant_id", in.RestaurantID).Error("Failed to create order")
		return nil, false, translate(err, 0)
	}

	e.committed(ctx, order, "", models.ActorCustomer, order.CreatedAt)
	return order, true, nil
}

// Accept confirms an order. It is only allowed while the order awaits
// confirmation and is at most acceptWindow old.
func (e *Engine) Accept(ctx context.Context, id, restaurantID uint) (*models.Order, error) {
	now := e.now()
	order, err := e.owned(ctx, id, restaurantID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusAwaitingConfirmation {
		return nil, fmt.Errorf("%w: order %d is %q", ErrStaleTransition, id, order.Status)
	}
	if now.Sub(order.CreatedAt) > e.acceptWindow {
		return nil, fmt.Errorf("%w: order %d can only be accepted within %s", ErrExpired, id, e.acceptWindow)
	}
	return e.apply(ctx, order, models.StatusConfirmed, models.ActorRestaurant, restaurantID, now, now.Add(-e.acceptWindow))
}

func (e *Engine) Reject(ctx context.Context, id, restaurantID uint) (*models.Order, error) {
	return e.restaurantAction(ctx, id, restaurantID, models.StatusRejected)
}

func (e *Engine) Cancel(ctx context.Context, id, restaurantID uint) (*models.Order, error) {
	return e.restaurantAction(ctx, id, restaurantID, models.StatusCancelled)
}

func (e *Engine) StartPreparing(ctx context.Context, id, restaurantID uint) (*models.Order, error) {
	return e.restaurantAction(ctx, id, restaurantID, models.StatusPreparing)
}

func (e *Engine) MarkReady(ctx context.Context, id, restaurantID uint) (*models.Order, error) {
	return e.restaurantAction(ctx, id, restaurantID, models.StatusReady)
}

// Dispatch marks the order as out for delivery.
func (e *Engine) Dispatch(ctx context.Context, id, restaurantID uint) (*models.Order, error) {
	return e.restaurantAction(ctx, id, restaurantID, models.StatusDispatched)
}

// Finalize marks the order delivered when code matches the stored
// confirmation code exactly. A customer may only confirm their own order;
// customerID is ignored for couriers.
func (e *Engine) Finalize(ctx context.Context, id uint, code string, actor models.Actor, customerID uint) (*models.Order, error) {
	if actor != models.ActorCustomer && actor != models.ActorCourier {
		return nil, fmt.Errorf("%w: %s cannot confirm a delivery", ErrInvalidInput, actor)
	}
	now := e.now()
	order, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, translate(err, id)
	}
	// ownership first so a foreign order never answers code guesses
	if actor == models.ActorCustomer && order.CustomerID != customerID {
		return nil, fmt.Errorf("%w: order %d belongs to another customer", ErrForbidden, id)
	}
	if code != order.ConfirmationCode {
		return nil, fmt.Errorf("%w: order %d", ErrConfirmationMismatch, id)
	}
	return e.apply(ctx, order, models.StatusDelivered, actor, 0, now, time.Time{})
}

// ForceStatus overwrites the status without lifecycle checks.
func (e *Engine) ForceStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	now := e.now()
	order, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, translate(err, id)
	}
	if _, err := e.store.SetStatus(ctx, id, status, models.ActorAdmin, now); err != nil {
		return nil, translate(err, id)
	}
	prev := order.Status
	order.Status = status
	e.logger.WithFields(logrus.Fields{"order_id": id, "from": prev, "to": status}).Warn("Order status overridden by admin")
	e.committed(ctx, order, prev, models.ActorAdmin, now)
	return order, nil
}

func (e *Engine) restaurantAction(ctx context.Context, id, restaurantID uint, to models.OrderStatus) (*models.Order, error) {
	now := e.now()
	order, err := e.owned(ctx, id, restaurantID)
	if err != nil {
		return nil, err
	}
	return e.apply(ctx, order, to, models.ActorRestaurant, restaurantID, now, time.Time{})
}

// owned loads the order and checks that restaurantID owns it.
func (e *Engine) owned(ctx context.Context, id, restaurantID uint) (*models.Order, error) {
	order, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, translate(err, id)
	}
	if order.RestaurantID != restaurantID {
		return nil, fmt.Errorf("%w: order %d belongs to another restaurant", ErrForbidden, id)
	}
	return order, nil
}

// apply performs the transition as one conditional update. The status read
// in order only shapes the error message; the write re-checks everything.
func (e *Engine) apply(ctx context.Context, order *models.Order, to models.OrderStatus, actor models.Actor,
	restaurantID uint, now, createdAfter time.Time) (*models.Order, error) {
	if err := statemachine.CanTransition(order.Status, to, actor); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStaleTransition, err)
	}

	_, err := e.store.Transition(ctx, store.Transition{
		OrderID:      order.ID,
		From:         statemachine.Sources(to, actor),
		To:           to,
		Actor:        actor,
		At:           now,
		RestaurantID: restaurantID,
		CreatedAfter: createdAfter,
	})
	if err != nil {
		if errors.Is(err, store.ErrStale) {
			e.logger.WithFields(logrus.Fields{"order_id": order.ID, "to": to}).Info("Transition lost a concurrent update")
		}
		return nil, translate(err, order.ID)
	}

	prev := order.Status
	order.Status = to
	e.committed(ctx, order, prev, actor, now)
	return order, nil
}

// committed runs the side effects of a committed status change. Failures
// here never undo the change.
func (e *Engine) committed(ctx context.Context, order *models.Order, from models.OrderStatus, actor models.Actor, at time.Time) {
	if e.metrics != nil {
		e.metrics.Transitions.WithLabelValues(string(order.Status)).Inc()
	}
	e.logger.WithFields(logrus.Fields{
		"order_id":      order.ID,
		"restaurant_id": order.RestaurantID,
		"from":          from,
		"to":            order.Status,
		"actor":         actor,
	}).Info("Order status changed")

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	err := e.notifier.Notify(nctx, notify.StatusChange{
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		CustomerID:   order.CustomerID,
		From:         from,
		To:           order.Status,
		Actor:        actor,
		At:           at,
	})
	if err != nil {
		e.logger.WithError(err).WithField("order_id", order.ID).Warn("Failed to notify status change")
	}
}
