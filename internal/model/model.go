// Package model содержит доменные сущности витрины: товары, отзывы, заказы и пользователей.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/shopnest/internal/validation"
)

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Image описывает загруженное изображение товара или аватар пользователя.
type Image struct {
	PublicID string `json:"public_id" validate:"required"`
	URL      string `json:"url" validate:"required"`
}

// User представляет зарегистрированного покупателя или администратора.
type User struct {
	ID                  uuid.UUID  `json:"_id"`
	Name                string     `json:"name" validate:"required,min=4,max=30"`
	Email               string     `json:"email" validate:"required,email"`
	PasswordHash        []byte     `json:"-" validate:"required"`
	Avatar              Image      `json:"avatar"`
	Role                string     `json:"role" validate:"oneof=user admin"`
	ResetPasswordToken  string     `json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// Validate проверяет пользователя перед сохранением.
func (u *User) Validate() error {
	return validation.Struct(u)
}

// ClearResetToken сбрасывает данные восстановления пароля.
func (u *User) ClearResetToken() {
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
}

// Product описывает товар каталога вместе со встроенными отзывами.
type Product struct {
	ID           uuid.UUID       `json:"_id"`
	Name         string          `json:"name" validate:"required,max=100"`
	Description  string          `json:"description" validate:"required"`
	Price        decimal.Decimal `json:"price" validate:"gte=0,lte=99999999"`
	Category     string          `json:"category" validate:"required"`
	Stock        int             `json:"stock" validate:"lte=9999"`
	Images       []Image         `json:"images" validate:"dive"`
	Ratings      float64         `json:"ratings" validate:"gte=0,lte=5"`
	NumOfReviews int             `json:"numOfReviews" validate:"gte=0"`
	Reviews      Reviews         `json:"reviews"`
	UserID       uuid.UUID       `json:"user"`
	Version      int             `json:"-"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Validate проверяет товар перед сохранением: теги полей, каждый отзыв и согласованность агрегатов.
// CheckStockInput проверяет остаток, заданный администратором. Сохранённый товар
// может иметь отрицательный остаток после списания, поэтому Validate его не ограничивает снизу.
func CheckStockInput(stock int) error {
	if stock < 0 {
		return validation.Fail("stock", "must be greater than or equal to 0")
	}
	return nil
}

func (p *Product) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}

	for _, r := range p.Reviews.All() {
		if err := validation.Struct(r); err != nil {
			return err
		}
	}

	ratings, num := Aggregate(p.Reviews.All())
	if p.NumOfReviews != num {
		return validation.Fail("numOfReviews", "must equal the number of reviews")
	}
	if p.Ratings != ratings {
		return validation.Fail("ratings", "must equal the mean review rating")
	}

	return nil
}

// Recalculate пересчитывает ratings и numOfReviews по текущему набору отзывов.
// Оба поля меняются только вместе.
func (p *Product) Recalculate() {
	p.Ratings, p.NumOfReviews = Aggregate(p.Reviews.All())
}

// Clone возвращает независимую копию товара.
func (p *Product) Clone() *Product {
	c := *p
	c.Images = append([]Image(nil), p.Images...)
	c.Reviews = p.Reviews.Clone()
	return &c
}
