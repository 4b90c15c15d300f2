package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is persisted and returned verbatim, so the values must never change.
type OrderStatus string

const (
	StatusAwaitingConfirmation OrderStatus = "Aguardando Confirmação"
	StatusConfirmed            OrderStatus = "Confirmado"
	StatusPreparing            OrderStatus = "Preparando"
	StatusReady                OrderStatus = "Pronto"
	StatusDispatched           OrderStatus = "Saiu para Entrega"
	StatusDelivered            OrderStatus = "Entregue"
	StatusCancelled            OrderStatus = "Cancelado"
	StatusRejected             OrderStatus = "Recusado"
	StatusExpired              OrderStatus = "Não Aceito"
)

// AcceptedStatuses are shown on the restaurant's "in progress" board.
var AcceptedStatuses = []OrderStatus{StatusConfirmed, StatusPreparing, StatusReady}

// FinalizedStatuses are shown on the restaurant's history board.
var FinalizedStatuses = []OrderStatus{
	StatusDelivered, StatusDispatched, StatusCancelled, StatusRejected, StatusExpired,
}

// AllStatuses lists the whole vocabulary in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusAwaitingConfirmation, StatusConfirmed, StatusPreparing, StatusReady,
	StatusDispatched, StatusDelivered, StatusCancelled, StatusRejected, StatusExpired,
}

// IsTerminal reports whether no further transition may leave s.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Valid reports whether s belongs to the vocabulary.
func (s OrderStatus) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Actor identifies who triggered a status change.
type Actor string

const (
	ActorCustomer   Actor = "customer"
	ActorRestaurant Actor = "restaurant"
	ActorCourier    Actor = "courier"
	ActorSystem     Actor = "system"
	ActorAdmin      Actor = "admin"
)

type Order struct {
	ID               uint                `json:"id" gorm:"primaryKey"`
	CustomerID       uint                `json:"usuario_id" gorm:"not null;index"`
	Customer         *User               `json:"usuario,omitempty" gorm:"foreignKey:CustomerID"`
	RestaurantID     uint                `json:"restaurante_id" gorm:"not null;index"`
	Restaurant       *Restaurant         `json:"restaurante,omitempty" gorm:"foreignKey:RestaurantID"`
	Total            decimal.Decimal     `json:"valor_total" gorm:"type:numeric(10,2);not null"`
	DeliveryAddress  string              `json:"endereco_entrega" gorm:"not null"`
	DeliveryMethod   string              `json:"metodo_entrega"`
	PaymentMethod    string              `json:"metodo_pagamento"`
	ChangeDue        decimal.NullDecimal `json:"troco" gorm:"type:numeric(10,2)"`
	ConfirmationCode string              `json:"codigo_confirmacao" gorm:"size:4;not null"`
	Status           OrderStatus         `json:"status" gorm:"not null;index"`
	IdempotencyKey   *string             `json:"-" gorm:"uniqueIndex"`
	Items            []OrderItem         `json:"itens,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory    []OrderStatusEvent  `json:"historico,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time           `json:"data_pedido" gorm:"index"`
}

type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"pedido_id" gorm:"not null;index"`
	ProductID uint            `json:"produto_id" gorm:"not null"`
	Product   *Product        `json:"produto,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int             `json:"quantidade" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"preco_unitario" gorm:"type:numeric(10,2);not null"` // snapshot at order time
}

// Subtotal is quantity times the captured unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderStatusEvent is one append-only audit row per status change.
type OrderStatusEvent struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	OrderID   uint        `json:"pedido_id" gorm:"not null;index"`
	Status    OrderStatus `json:"status" gorm:"not null"`
	Actor     Actor       `json:"ator"`
	CreatedAt time.Time   `json:"data"`
}
