package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/shopnest/internal/apperror"
	"github.com/mmeshcher/shopnest/internal/model"
	"github.com/mmeshcher/shopnest/internal/repository"
)

// OrderInput содержит данные нового заказа.
type OrderInput struct {
	ShippingInfo model.ShippingInfo
	OrderItems   []model.OrderItem
	PaymentInfo  model.PaymentInfo
	Prices       model.Prices
}

// OrderDetails содержит заказ вместе с именем и email владельца.
type OrderDetails struct {
	Order     *model.Order
	UserName  string
	UserEmail string
}

// CreateOrder оформляет заказ. Остатки товаров при оформлении не меняются.
func (s *Service) CreateOrder(ctx context.Context, userID uuid.UUID, in OrderInput) (*model.Order, error) {
	now := s.now()
	o := &model.Order{
		ID:           uuid.New(),
		ShippingInfo: in.ShippingInfo,
		OrderItems:   in.OrderItems,
		UserID:       userID,
		PaymentInfo:  in.PaymentInfo,
		PaidAt:       now,
		Prices:       in.Prices,
		OrderStatus:  model.OrderStatusProcessing,
		CreatedAt:    now,
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, mapStoreError(err, "Order not found", "Failed to create order")
	}

	return o, nil
}

// GetOrder возвращает заказ с данными владельца.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDetails, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "Order not found with this Id", "Failed to load order")
	}

	d := &OrderDetails{Order: o}
	u, err := s.repo.GetUserByID(ctx, o.UserID)
	switch {
	case err == nil:
		d.UserName = u.Name
		d.UserEmail = u.Email
	case errors.Is(err, repository.ErrNotFound):
		// владелец удалён, заказ отдаётся без его данных
	default:
		return nil, apperror.Internal("Failed to load order owner", err)
	}

	return d, nil
}

// ListOrders возвращает заказы пользователя.
func (s *Service) ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.repo.ListOrders(ctx, repository.OrderFilter{UserID: &userID})
	if err != nil {
		return nil, apperror.Internal("Failed to load orders", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// ListAllOrders возвращает все заказы и сумму их totalPrice.
func (s *Service) ListAllOrders(ctx context.Context) ([]model.Order, decimal.Decimal, error) {
	orders, err := s.repo.ListOrders(ctx, repository.OrderFilter{})
	if err != nil {
		return nil, decimal.Zero, apperror.Internal("Failed to load orders", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, model.TotalAmount(orders), nil
}

// UpdateOrderStatus меняет статус заказа и списывает остатки товаров по позициям заказа.
// Переход проверяется до любых изменений остатков: доставленный заказ не списывает повторно.
func (s *Service) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "Order not found with this Id", "Failed to load order")
	}

	if err := model.CheckTransition(o.OrderStatus, status); err != nil {
		if errors.Is(err, model.ErrAlreadyDelivered) {
			return nil, apperror.Conflict("You have already delivered this order")
		}
		return nil, apperror.Validation("Unknown order status: " + string(status))
	}

	if s.opts.StockMode == StockTwoPhase {
		err = s.decrementAll(ctx, o.OrderItems)
	} else {
		err = s.decrementSequential(ctx, o.OrderItems)
	}
	if err != nil {
		return nil, err
	}

	if err := o.ApplyStatus(status, s.now()); err != nil {
		return nil, apperror.Internal("Failed to apply order status", err)
	}

	if err := s.repo.SaveOrder(ctx, o, repository.Relaxed); err != nil {
		return nil, mapStoreError(err, "Order not found with this Id", "Failed to save order")
	}

	orderStatusUpdates.WithLabelValues(string(status)).Inc()
	s.logger.Info("order status updated",
		zap.String("order_id", o.ID.String()),
		zap.String("status", string(status)),
	)

	return o, nil
}

func (s *Service) decrementStock(ctx context.Context, item model.OrderItem) error {
	_, err := s.mutateProduct(ctx, item.ProductID, repository.Relaxed, func(p *model.Product) error {
		p.Stock -= item.Quantity
		return nil
	})
	if err != nil {
		return err
	}
	stockDecrements.Inc()
	return nil
}

// decrementSequential списывает позиции по очереди. Первая ошибка прерывает цикл,
// уже списанные позиции не восстанавливаются.
func (s *Service) decrementSequential(ctx context.Context, items []model.OrderItem) error {
	for _, item := range items {
		if err := s.decrementStock(ctx, item); err != nil {
			s.logger.Warn("stock decrement stopped",
				zap.String("product_id", item.ProductID.String()),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

// decrementAll проверяет наличие всех товаров и достаточность остатков, затем списывает.
func (s *Service) decrementAll(ctx context.Context, items []model.OrderItem) error {
	need := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		need[item.ProductID] += item.Quantity
	}

	for _, item := range items {
		p, err := s.repo.GetProduct(ctx, item.ProductID)
		if err != nil {
			return mapStoreError(err, "Product not found", "Failed to load product")
		}
		if p.Stock < need[item.ProductID] {
			return apperror.Conflict("Insufficient stock for product: " + p.Name)
		}
	}

	return s.decrementSequential(ctx, items)
}

// DeleteOrder удаляет заказ.
func (s *Service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.DeleteOrder(ctx, id)
	if err != nil {
		return apperror.Internal("Failed to delete order", err)
	}
	if n == 0 {
		return apperror.NotFound("Order not found with this Id")
	}
	return nil
}
