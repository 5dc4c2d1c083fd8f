package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mmeshcher/shopnest/internal/service"
)

type reviewRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Rating    int       `json:"rating" validate:"gte=1,lte=5"`
	Comment   string    `json:"comment" validate:"required"`
}

// SubmitReview обрабатывает POST /api/v1/reviews.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	// В токене только id и роль, имя автора берётся из профиля.
	author, err := h.service.GetUserDetails(r.Context(), p.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	_, err = h.service.SubmitReview(r.Context(), service.ReviewInput{
		ProductID: req.ProductID,
		UserID:    p.ID,
		UserName:  author.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

// ListReviews обрабатывает GET /api/v1/reviews?id=.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := parseID(r.URL.Query().Get("id"), "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), productID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"reviews": reviews})
}

// DeleteReview обрабатывает DELETE /api/v1/reviews?productId=&id=.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	productID, err := parseID(q.Get("productId"), "productId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	reviewID, err := parseID(q.Get("id"), "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if _, err := h.service.DeleteReview(r.Context(), productID, reviewID); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"message": "Review deleted successfully"})
}
