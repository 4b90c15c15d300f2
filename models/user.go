package models

import (
	"time"
)

// UserRole defines the roles carried in access tokens
type UserRole string

const (
	RoleCustomer   UserRole = "customer"
	RoleRestaurant UserRole = "restaurant"
	RoleCourier    UserRole = "courier"
	RoleAdmin      UserRole = "admin"
)

// User is owned by the accounts service; orders only read name and phone.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"nome" gorm:"not null"`
	Email     string    `json:"email,omitempty" gorm:"uniqueIndex;not null"`
	Phone     string    `json:"telefone"`
	Role      UserRole  `json:"-" gorm:"not null;default:'customer'"`
	CreatedAt time.Time `json:"-"`
}
