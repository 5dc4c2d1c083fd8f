package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/mmeshcher/shopnest/internal/apperror"
	"github.com/mmeshcher/shopnest/internal/model"
	"github.com/mmeshcher/shopnest/internal/repository"
)

// ReviewInput описывает отзыв, присланный пользователем.
type ReviewInput struct {
	ProductID uuid.UUID
	UserID    uuid.UUID
	UserName  string
	Rating    int
	Comment   string
}

// SubmitReview добавляет отзыв пользователя или обновляет его оценку и комментарий,
// если отзыв уже есть. Оценка и комментарий проверяются до чтения товара,
// сам товар сохраняется без полной проверки.
func (s *Service) SubmitReview(ctx context.Context, in ReviewInput) (*model.Product, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperror.Validation("Rating must be between 1 and 5")
	}
	if strings.TrimSpace(in.Comment) == "" {
		return nil, apperror.Validation("Please enter a review comment")
	}

	p, err := s.mutateProduct(ctx, in.ProductID, repository.Relaxed, func(p *model.Product) error {
		p.Reviews.Upsert(model.Review{
			ID:      uuid.New(),
			UserID:  in.UserID,
			Name:    in.UserName,
			Rating:  in.Rating,
			Comment: in.Comment,
		})
		p.Recalculate()
		return nil
	})
	if err != nil {
		return nil, err
	}

	reviewsSubmitted.Inc()
	return p, nil
}

// ListReviews возвращает отзывы товара.
func (s *Service) ListReviews(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, mapStoreError(err, "Product not found", "Failed to load product")
	}
	return p.Reviews.All(), nil
}

// DeleteReview удаляет отзыв, пересчитывает агрегаты и сохраняет товар с полной проверкой.
// Отсутствующий отзыв ошибкой не считается.
func (s *Service) DeleteReview(ctx context.Context, productID, reviewID uuid.UUID) (*model.Product, error) {
	return s.mutateProduct(ctx, productID, repository.Validated, func(p *model.Product) error {
		p.Reviews.Remove(reviewID)
		p.Recalculate()
		return nil
	})
}
