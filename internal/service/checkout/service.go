package checkout

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"storefront/internal/domain"
	orderrepo "storefront/internal/repository/order"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ErrEmptyCart is returned when checkout is attempted with nothing in the cart.
var ErrEmptyCart = errors.New("cart is empty")

// Input is the checkout form. Card fields are only required when paying by card.
type Input struct {
	Name          string `json:"name" validate:"required"`
	Address       string `json:"address" validate:"required"`
	State         string `json:"state" validate:"required"`
	ZipCode       string `json:"zipCode" validate:"required"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cash card"`
	CardNumber    string `json:"cardNumber" validate:"required_if=PaymentMethod card"`
	ExpiryDate    string `json:"expiryDate" validate:"required_if=PaymentMethod card"`
	CVV           string `json:"cvv" validate:"required_if=PaymentMethod card"`
}

// ValidationError maps form fields (by their json name) to a message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "invalid checkout form: " + strings.Join(parts, "; ")
}

type cartSettler interface {
	Settle(ctx context.Context, fn func(domain.Cart) error) error
}

type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	cart     cartSettler
	orders   orderrepo.Repository
	validate *validator.Validate
	now      func() time.Time
	logger   logrus.FieldLogger

	// lastOrderMs is the timestamp in the most recent order ID. Only
	// touched inside Settle, which serializes checkouts.
	lastOrderMs int64
}

func New(cart cartSettler, orders orderrepo.Repository, logger logrus.FieldLogger, opts ...Option) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	s := &Service{cart: cart, orders: orders, validate: v, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder validates the form, records an order built from the current
// cart and empties the cart. The cart is left untouched when anything fails.
func (s *Service) PlaceOrder(ctx context.Context, in Input) (*domain.Order, error) {
	in = trimInput(in)
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	var placed *domain.Order
	err := s.cart.Settle(ctx, func(c domain.Cart) error {
		if len(c.Items) == 0 {
			return ErrEmptyCart
		}
		now := s.now().UTC()
		ms := now.UnixMilli()
		if ms <= s.lastOrderMs {
			ms = s.lastOrderMs + 1
		}
		order := domain.Order{
			ID:   fmt.Sprintf("ORD-%d", ms),
			Date: now,
			ShippingAddress: domain.ShippingAddress{
				Name:    in.Name,
				Address: in.Address,
				State:   in.State,
				ZipCode: in.ZipCode,
			},
			PaymentMethod: domain.PaymentMethod(in.PaymentMethod),
			Items:         c.Items,
			Total:         c.Total,
		}
		if err := s.orders.Append(ctx, order); err != nil {
			return fmt.Errorf("record order: %w", err)
		}
		s.lastOrderMs = ms
		placed = &order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": placed.ID,
		"items":    len(placed.Items),
		"total":    placed.Total.StringFixed(2),
	}).Info("checkout: order placed")
	return placed, nil
}

// Orders lists past orders, oldest first.
func (s *Service) Orders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

// Validate checks the form without touching the cart.
func (s *Service) Validate(in Input) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func trimInput(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.State = strings.TrimSpace(in.State)
	in.ZipCode = strings.TrimSpace(in.ZipCode)
	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	in.CardNumber = strings.TrimSpace(in.CardNumber)
	in.ExpiryDate = strings.TrimSpace(in.ExpiryDate)
	in.CVV = strings.TrimSpace(in.CVV)
	return in
}
