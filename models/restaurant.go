package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Restaurant and Product belong to the catalog service. This service reads
// them for display joins and price snapshots and never writes them.
type Restaurant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OwnerID   uint      `json:"-" gorm:"not null"`
	Name      string    `json:"nome"`
	LogoURL   string    `json:"logo"`
	IsOpen    bool      `json:"aberto"`
	CreatedAt time.Time `json:"-"`
}

type Product struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	RestaurantID uint            `json:"restaurante_id" gorm:"not null;index"`
	Name         string          `json:"nome" gorm:"not null"`
	Price        decimal.Decimal `json:"preco" gorm:"type:numeric(10,2);not null"`
	IsAvailable  bool            `json:"disponivel"`
	CreatedAt    time.Time       `json:"-"`
}
