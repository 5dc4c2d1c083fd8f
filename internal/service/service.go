// Package service реализует бизнес-логику витрины: отзывы, заказы, каталог и учётные записи.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/shopnest/internal/apperror"
	"github.com/mmeshcher/shopnest/internal/mailer"
	"github.com/mmeshcher/shopnest/internal/model"
	"github.com/mmeshcher/shopnest/internal/repository"
	"github.com/mmeshcher/shopnest/internal/validation"
)

// maxWriteAttempts ограничивает число попыток чтения-изменения-записи товара при конфликте версий.
const maxWriteAttempts = 5

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	SaveProduct(ctx context.Context, p *model.Product, opts repository.SaveOptions) error
	ListProducts(ctx context.Context, f repository.ProductFilter) ([]model.Product, int, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error)

	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	SaveOrder(ctx context.Context, o *model.Order, opts repository.SaveOptions) error
	ListOrders(ctx context.Context, f repository.OrderFilter) ([]model.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error)

	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	SaveUser(ctx context.Context, u *model.User, opts repository.SaveOptions) error
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (int64, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// StockMode определяет порядок списания остатков при смене статуса заказа.
type StockMode string

const (
	// StockSequential списывает товары по одному. Ошибка на позиции K оставляет позиции до K списанными.
	StockSequential StockMode = "sequential"
	// StockTwoPhase сначала проверяет все позиции и только затем списывает.
	StockTwoPhase StockMode = "two-phase"
)

// Options задаёт параметры сервиса.
type Options struct {
	StockMode            StockMode
	ResetTokenTTL        time.Duration
	ResetCleanupInterval time.Duration
}

// Service содержит бизнес-логику витрины.
type Service struct {
	repo   Repository
	mailer mailer.Sender
	logger *zap.Logger
	opts   Options
	now    func() time.Time

	// beforeSave вызывается между чтением и записью товара; используется в тестах.
	beforeSave func(id uuid.UUID)
}

// NewService создаёт сервис с указанным хранилищем и отправителем писем.
func NewService(repo Repository, sender mailer.Sender, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.StockMode == "" {
		opts.StockMode = StockSequential
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = 15 * time.Minute
	}
	if opts.ResetCleanupInterval <= 0 {
		opts.ResetCleanupInterval = time.Minute
	}

	return &Service{
		repo:   repo,
		mailer: sender,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// mutateProduct выполняет чтение-изменение-запись товара. При конфликте версий товар
// перечитывается и изменение применяется заново, не более maxWriteAttempts раз.
func (s *Service) mutateProduct(ctx context.Context, id uuid.UUID, opts repository.SaveOptions, mutate func(p *model.Product) error) (*model.Product, error) {
	var lastErr error

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		p, err := s.repo.GetProduct(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperror.NotFound("Product not found")
			}
			return nil, apperror.Internal("Failed to load product", fmt.Errorf("get product: %w", err))
		}

		if err := mutate(p); err != nil {
			return nil, err
		}

		if s.beforeSave != nil {
			s.beforeSave(id)
		}

		err = s.repo.SaveProduct(ctx, p, opts)
		if err == nil {
			return p, nil
		}

		if !errors.Is(err, repository.ErrStaleDocument) {
			return nil, mapStoreError(err, "Product not found", "Failed to save product")
		}

		lastErr = err
		staleRetries.WithLabelValues("product").Inc()
		s.logger.Debug("product version conflict, retrying",
			zap.String("product_id", id.String()),
			zap.Int("attempt", attempt),
		)
	}

	return nil, apperror.StaleWrite("Product was modified concurrently, please retry", lastErr)
}

// mapStoreError переводит ошибки хранилища в прикладные ошибки.
func mapStoreError(err error, notFoundMsg, internalMsg string) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return apperror.FromValidation(verr)
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound(notFoundMsg)
	default:
		return apperror.Internal(internalMsg, err)
	}
}
