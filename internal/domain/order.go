package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

type ShippingAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// Order is an immutable record of a completed checkout.
type Order struct {
	ID              string          `json:"id"`
	Date            time.Time       `json:"date"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Items           []LineItem      `json:"items"`
	Total           decimal.Decimal `json:"total"`
}
