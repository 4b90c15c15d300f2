// Package notify fans order status changes out to Kafka and to restaurant
// dashboards connected over websocket.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"
)

type StatusChange struct {
	OrderID      uint               `json:"order_id"`
	RestaurantID uint               `json:"restaurant_id"`
	CustomerID   uint               `json:"customer_id"`
	From         models.OrderStatus `json:"from,omitempty"`
	To           models.OrderStatus `json:"to"`
	Actor        models.Actor       `json:"actor"`
	At           time.Time          `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, change StatusChange) error
}

// Nop drops every change.
type Nop struct{}

func (Nop) Notify(context.Context, StatusChange) error { return nil }

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, change StatusChange) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
