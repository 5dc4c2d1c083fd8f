package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/shopnest/internal/validation"
)

// OrderStatus описывает статус выполнения заказа.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

var (
	// ErrAlreadyDelivered возвращается при попытке изменить статус доставленного заказа.
	ErrAlreadyDelivered = errors.New("order already delivered")
	// ErrUnknownStatus возвращается для статуса вне перечисления.
	ErrUnknownStatus = errors.New("unknown order status")
)

// Valid сообщает, входит ли статус в перечисление.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// Terminal сообщает, запрещены ли дальнейшие переходы из статуса.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered
}

// CheckTransition проверяет переход статуса заказа. Из Delivered переходов нет,
// остальные переходы между известными статусами разрешены, в том числе назад и с пропуском.
func CheckTransition(from, to OrderStatus) error {
	if from.Terminal() {
		return ErrAlreadyDelivered
	}
	if !to.Valid() {
		return ErrUnknownStatus
	}
	return nil
}

// ShippingInfo содержит адрес доставки.
type ShippingInfo struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Country string `json:"country" validate:"required"`
	PinCode string `json:"pinCode" validate:"required"`
	PhoneNo string `json:"phoneNo" validate:"required"`
}

// PaymentInfo содержит данные платёжной системы.
type PaymentInfo struct {
	ID     string `json:"id" validate:"required"`
	Status string `json:"status" validate:"required"`
}

// OrderItem описывает позицию заказа. Цена и количество фиксируются при создании заказа.
type OrderItem struct {
	Name      string          `json:"name" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	Image     string          `json:"image"`
	ProductID uuid.UUID       `json:"product" validate:"required"`
}

// Prices содержит разбивку стоимости заказа.
type Prices struct {
	ItemsPrice    decimal.Decimal `json:"itemsPrice" validate:"gte=0"`
	TaxPrice      decimal.Decimal `json:"taxPrice" validate:"gte=0"`
	ShippingPrice decimal.Decimal `json:"shippingPrice" validate:"gte=0"`
	TotalPrice    decimal.Decimal `json:"totalPrice" validate:"gte=0"`
}

// Order описывает заказ покупателя.
type Order struct {
	ID           uuid.UUID    `json:"_id"`
	ShippingInfo ShippingInfo `json:"shippingInfo"`
	OrderItems   []OrderItem  `json:"orderItems" validate:"required,min=1,dive"`
	UserID       uuid.UUID    `json:"user" validate:"required"`
	PaymentInfo  PaymentInfo  `json:"paymentInfo"`
	PaidAt       time.Time    `json:"paidAt" validate:"required"`
	Prices
	OrderStatus OrderStatus `json:"orderStatus" validate:"required"`
	DeliveredAt *time.Time  `json:"deliveredAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Validate проверяет заказ перед сохранением.
func (o *Order) Validate() error {
	if err := validation.Struct(o); err != nil {
		return err
	}
	if !o.OrderStatus.Valid() {
		return validation.Fail("orderStatus", "must be one of: Processing Shipped Delivered")
	}
	return nil
}

// ApplyStatus переводит заказ в новый статус. deliveredAt выставляется только при переходе в Delivered.
func (o *Order) ApplyStatus(to OrderStatus, now time.Time) error {
	if err := CheckTransition(o.OrderStatus, to); err != nil {
		return err
	}
	o.OrderStatus = to
	if to == OrderStatusDelivered {
		o.DeliveredAt = &now
	}
	return nil
}

// Clone возвращает независимую копию заказа.
func (o *Order) Clone() *Order {
	c := *o
	c.OrderItems = append([]OrderItem(nil), o.OrderItems...)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		c.DeliveredAt = &t
	}
	return &c
}

// TotalAmount суммирует totalPrice по заказам.
func TotalAmount(orders []Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.TotalPrice)
	}
	return total
}
