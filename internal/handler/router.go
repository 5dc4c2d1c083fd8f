package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmeshcher/shopnest/internal/apperror"
	custommiddleware "github.com/mmeshcher/shopnest/internal/middleware"
	"github.com/mmeshcher/shopnest/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware витрины.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.Recoverer(h.logger))
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, nil)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(custommiddleware.GzipMiddleware)

		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/reviews", h.ListReviews)

		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/logout", h.Logout)
		r.Post("/password/forgot", h.ForgotPassword)
		r.Put("/password/reset/{token}", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/me", h.Me)
			r.Put("/me/update", h.UpdateProfile)
			r.Put("/password/update", h.UpdatePassword)

			r.Post("/reviews", h.SubmitReview)
			r.Delete("/reviews", h.DeleteReview)

			r.Post("/orders", h.CreateOrder)
			r.Get("/orders/me", h.MyOrders)
			r.Get("/orders/{id}", h.GetOrder)

			r.Route("/admin", func(r chi.Router) {
				r.Use(custommiddleware.RequireRole(model.RoleAdmin))

				r.Get("/orders", h.AllOrders)
				r.Put("/orders/{id}", h.UpdateOrderStatus)
				r.Delete("/orders/{id}", h.DeleteOrder)

				r.Post("/products", h.CreateProduct)
				r.Put("/products/{id}", h.UpdateProduct)
				r.Delete("/products/{id}", h.DeleteProduct)

				r.Get("/users", h.ListUsers)
				r.Get("/users/{id}", h.GetUser)
				r.Put("/users/{id}", h.UpdateUserRole)
				r.Delete("/users/{id}", h.DeleteUser)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperror.Write(w, apperror.NotFound("Route not found: "+r.URL.Path))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apperror.Write(w, &apperror.Error{
			Kind:    apperror.KindValidationFailed,
			Message: "Method not allowed: " + r.Method,
			Status:  http.StatusMethodNotAllowed,
		})
	})

	return r
}
