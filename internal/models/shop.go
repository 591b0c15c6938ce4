package models

import (
	"time"
)

// Product represents an item of the catalog
type Product struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Image       string    `json:"image" db:"image"`
	ImageID     string    `json:"imageId,omitempty" db:"image_id"`
	Category    string    `json:"category" db:"category"`
	Unit        string    `json:"unit" db:"unit"`
	InStock     bool      `json:"inStock" db:"in_stock"`
	MaxQuantity float64   `json:"maxQuantity" db:"max_quantity"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Order is a customer order; Items keep the cart order
type Order struct {
	ID           int64       `json:"id" db:"id"`
	OrderNumber  string      `json:"orderNumber" db:"order_number"`
	CustomerName string      `json:"customerName" db:"customer_name"`
	Phone        string      `json:"phone" db:"phone"`
	Email        string      `json:"email" db:"email"`
	Items        []OrderItem `json:"items"`
	TotalAmount  float64     `json:"totalAmount" db:"total_amount"`
	Status       string      `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a snapshot of a product taken when the order was placed
type OrderItem struct {
	ProductID int64   `json:"product" db:"product_id"`
	Name      string  `json:"name" db:"name"`
	Price     float64 `json:"price" db:"price"`
	Quantity  float64 `json:"quantity" db:"quantity"`
	Unit      string  `json:"unit" db:"unit"`
	Image     string  `json:"image" db:"image"`
}

// User is a staff member allowed into the admin area
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// OrderStatuses lists every status in lifecycle order
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// Units of measurement
const (
	UnitKg     = "kg"
	UnitGram   = "gm"
	UnitLiter  = "liter"
	UnitMl     = "ml"
	UnitPiece  = "piece"
	UnitDozen  = "dozen"
	UnitPacket = "packet"
)

var Units = []string{UnitKg, UnitGram, UnitLiter, UnitMl, UnitPiece, UnitDozen, UnitPacket}

// Staff roles
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

func IsValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsValidUnit(unit string) bool {
	for _, u := range Units {
		if u == unit {
			return true
		}
	}
	return false
}

func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}
