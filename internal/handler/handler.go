// Package handler содержит HTTP-обработчики API витрины.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/shopnest/internal/apperror"
	"github.com/mmeshcher/shopnest/internal/middleware"
	"github.com/mmeshcher/shopnest/internal/model"
	"github.com/mmeshcher/shopnest/internal/service"
	"github.com/mmeshcher/shopnest/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	SubmitReview(ctx context.Context, in service.ReviewInput) (*model.Product, error)
	ListReviews(ctx context.Context, productID uuid.UUID) ([]model.Review, error)
	DeleteReview(ctx context.Context, productID, reviewID uuid.UUID) (*model.Product, error)

	CreateOrder(ctx context.Context, userID uuid.UUID, in service.OrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*service.OrderDetails, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListAllOrders(ctx context.Context) ([]model.Order, decimal.Decimal, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, creatorID uuid.UUID, in service.ProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, q service.ProductQuery) (*service.ProductPage, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, patch service.ProductPatch) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	RegisterUser(ctx context.Context, in service.RegisterInput) (*model.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*model.User, error)
	ForgotPassword(ctx context.Context, email, resetURLBase string) error
	ResetPassword(ctx context.Context, rawToken, password, confirm string) (*model.User, error)
	GetUserDetails(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword, confirm string) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in service.ProfileInput) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, in service.RoleInput) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// Handler реализует HTTP-обработчики API витрины.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

// envelope описывает тело успешного ответа. Поле success добавляется автоматически.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["success"] = true

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// fail пишет ошибку клиенту. Внутренние ошибки дополнительно логируются.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperror.Status(err) >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Error(err),
		)
	}
	apperror.Write(w, err)
}

// decodeJSON читает тело запроса в dst и проверяет его по тегам validate.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Validation("Request body is empty")
		}
		return apperror.Validation("Invalid request body")
	}

	if err := validation.Struct(dst); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return apperror.FromValidation(verr)
		}
		return apperror.Internal("Failed to validate request", err)
	}
	return nil
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation("Resource not found. Invalid: " + field)
	}
	return id, nil
}

func principal(r *http.Request) (middleware.Principal, error) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return middleware.Principal{}, apperror.Unauthorized("Please login to access this resource")
	}
	return p, nil
}
