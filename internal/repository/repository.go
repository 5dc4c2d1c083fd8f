package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound возвращается, если документ с указанным идентификатором отсутствует.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate возвращается при нарушении уникальности (например, email пользователя).
	ErrDuplicate = errors.New("duplicate key")
	// ErrStaleDocument возвращается, если документ изменён после чтения: версия в хранилище уже другая.
	ErrStaleDocument = errors.New("document was modified concurrently")
)

// SaveOptions управляет сохранением изменённого документа.
type SaveOptions struct {
	// Validate включает полную проверку документа перед записью.
	Validate bool
}

// Validated включает сохранение с полной проверкой документа.
var Validated = SaveOptions{Validate: true}

// Relaxed включает сохранение без проверки документа.
var Relaxed = SaveOptions{Validate: false}

// ProductFilter задаёт выборку товаров.
type ProductFilter struct {
	Keyword  string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Limit    int
	Offset   int
}

// OrderFilter задаёт выборку заказов. Пустой фильтр выбирает все заказы.
type OrderFilter struct {
	UserID *uuid.UUID
}
