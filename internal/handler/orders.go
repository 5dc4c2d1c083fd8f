package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/shopnest/internal/model"
	"github.com/mmeshcher/shopnest/internal/service"
)

type orderRequest struct {
	ShippingInfo model.ShippingInfo `json:"shippingInfo"`
	OrderItems   []model.OrderItem  `json:"orderItems"`
	PaymentInfo  model.PaymentInfo  `json:"paymentInfo"`
	model.Prices
}

type statusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required"`
}

type orderOwner struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// orderView отдаёт заказ с данными владельца вместо голого идентификатора.
type orderView struct {
	*model.Order
	User orderOwner `json:"user"`
}

// CreateOrder обрабатывает POST /api/v1/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Содержимое заказа проверяется целиком при создании документа.
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), p.ID, service.OrderInput{
		ShippingInfo: req.ShippingInfo,
		OrderItems:   req.OrderItems,
		PaymentInfo:  req.PaymentInfo,
		Prices:       req.Prices,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{"order": order})
}

// GetOrder обрабатывает GET /api/v1/orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	details, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"order": orderView{
		Order: details.Order,
		User: orderOwner{
			ID:    details.Order.UserID.String(),
			Name:  details.UserName,
			Email: details.UserEmail,
		},
	}})
}

// MyOrders обрабатывает GET /api/v1/orders/me.
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), p.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"orders": orders})
}

// AllOrders обрабатывает GET /api/v1/admin/orders.
func (h *Handler) AllOrders(w http.ResponseWriter, r *http.Request) {
	orders, total, err := h.service.ListAllOrders(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"orders": orders, "totalAmount": total})
}

// UpdateOrderStatus обрабатывает PUT /api/v1/admin/orders/{id}.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if _, err := h.service.UpdateOrderStatus(r.Context(), id, req.Status); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

// DeleteOrder обрабатывает DELETE /api/v1/admin/orders/{id}.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}
