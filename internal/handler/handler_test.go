package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/shopnest/internal/apperror"
	"github.com/mmeshcher/shopnest/internal/middleware"
	"github.com/mmeshcher/shopnest/internal/model"
	"github.com/mmeshcher/shopnest/internal/service"
)

// stubService реализует только методы, нужные тестам. Вызов остальных паникует.
type stubService struct {
	Service

	user    *model.User
	userErr error

	authUser *model.User
	authErr  error

	gotReview service.ReviewInput
	reviewErr error

	reviews []model.Review

	orderDetails *service.OrderDetails
	orders       []model.Order
	ordersTotal  decimal.Decimal
	statusErr    error

	gotQuery service.ProductQuery
	page     *service.ProductPage

	gotResetBase string

	knownProducts map[uuid.UUID]bool
	gotReviewID   uuid.UUID

	gotOrderUser  uuid.UUID
	gotOrderInput service.OrderInput
	gotListUser   uuid.UUID
	liveOrders    map[uuid.UUID]bool
}

func (s *stubService) RegisterUser(ctx context.Context, in service.RegisterInput) (*model.User, error) {
	return &model.User{ID: uuid.New(), Name: in.Name, Email: in.Email, Role: model.RoleUser}, nil
}

func (s *stubService) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	return s.authUser, s.authErr
}

func (s *stubService) GetUserDetails(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	s.gotResetBase = resetURLBase
	return nil
}

func (s *stubService) SubmitReview(ctx context.Context, in service.ReviewInput) (*model.Product, error) {
	s.gotReview = in
	return &model.Product{ID: in.ProductID}, s.reviewErr
}

func (s *stubService) ListReviews(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	return s.reviews, nil
}

func (s *stubService) DeleteReview(ctx context.Context, productID, reviewID uuid.UUID) (*model.Product, error) {
	if !s.knownProducts[productID] {
		return nil, apperror.NotFound("Product not found")
	}
	s.gotReviewID = reviewID
	return &model.Product{ID: productID}, nil
}

func (s *stubService) CreateOrder(ctx context.Context, userID uuid.UUID, in service.OrderInput) (*model.Order, error) {
	s.gotOrderUser = userID
	s.gotOrderInput = in
	return &model.Order{
		ID:          uuid.New(),
		UserID:      userID,
		OrderItems:  in.OrderItems,
		Prices:      in.Prices,
		OrderStatus: model.OrderStatusProcessing,
	}, nil
}

func (s *stubService) ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	s.gotListUser = userID
	return []model.Order{{ID: uuid.New(), UserID: userID, OrderStatus: model.OrderStatusShipped}}, nil
}

func (s *stubService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if !s.liveOrders[id] {
		return apperror.NotFound("Order not found with this Id")
	}
	delete(s.liveOrders, id)
	return nil
}

func (s *stubService) GetOrder(ctx context.Context, id uuid.UUID) (*service.OrderDetails, error) {
	return s.orderDetails, nil
}

func (s *stubService) ListAllOrders(ctx context.Context) ([]model.Order, decimal.Decimal, error) {
	return s.orders, s.ordersTotal, nil
}

func (s *stubService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	return nil, s.statusErr
}

func (s *stubService) ListProducts(ctx context.Context, q service.ProductQuery) (*service.ProductPage, error) {
	s.gotQuery = q
	return s.page, nil
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret", time.Hour)

	return NewHandler(svc, logger, auth)
}

func authCookie(t *testing.T, h *Handler, userID uuid.UUID, role string) *http.Cookie {
	t.Helper()

	token, err := h.authMiddleware.IssueToken(userID, role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return &http.Cookie{Name: middleware.AuthCookieName, Value: token}
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestRegister_Success(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	body, _ := json.Marshal(registerRequest{
		Name:     "Alice Doe",
		Email:    "alice@example.com",
		Password: "password123",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/register", bytes.NewReader(body))
	rec := serve(h, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Name != middleware.AuthCookieName {
		t.Fatalf("auth cookie not set: %v", cookies)
	}

	got := decodeBody(t, rec)
	if got["success"] != true {
		t.Fatalf("success = %v, want true", got["success"])
	}
	if got["token"] != cookies[0].Value {
		t.Fatalf("token in body does not match cookie")
	}
}

func TestLogin_UnauthorizedOnError(t *testing.T) {
	svc := &stubService{
		authErr: apperror.Unauthorized("Invalid Email or Password"),
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(loginRequest{Email: "alice@example.com", Password: "wrong"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewReader(body))
	rec := serve(h, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	got := decodeBody(t, rec)
	if got["kind"] != string(apperror.KindUnauthorized) {
		t.Fatalf("kind = %v, want %s", got["kind"], apperror.KindUnauthorized)
	}
}

func TestLogin_InvalidBody(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/login", strings.NewReader("{"))
	rec := serve(h, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSubmitReview_UsesProfileName(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	svc := &stubService{
		user: &model.User{ID: userID, Name: "Alice Doe"},
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(reviewRequest{ProductID: productID, Rating: 4, Comment: "solid"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewReader(body))
	req.AddCookie(authCookie(t, h, userID, model.RoleUser))
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	want := service.ReviewInput{
		ProductID: productID,
		UserID:    userID,
		UserName:  "Alice Doe",
		Rating:    4,
		Comment:   "solid",
	}
	if svc.gotReview != want {
		t.Fatalf("review input = %+v, want %+v", svc.gotReview, want)
	}
}

func TestSubmitReview_ProductNotFound(t *testing.T) {
	userID := uuid.New()
	svc := &stubService{
		user:      &model.User{ID: userID, Name: "Alice Doe"},
		reviewErr: apperror.NotFound("Product not found"),
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(reviewRequest{ProductID: uuid.New(), Rating: 5, Comment: "great"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewReader(body))
	req.AddCookie(authCookie(t, h, userID, model.RoleUser))
	rec := serve(h, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSubmitReview_RequiresAuth(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", strings.NewReader(`{}`))
	rec := serve(h, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestListReviews(t *testing.T) {
	svc := &stubService{
		reviews: []model.Review{{ID: uuid.New(), UserID: uuid.New(), Name: "Bob", Rating: 3, Comment: "ok"}},
	}
	h := newTestHandler(t, svc)

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "valid id", query: "?id=" + uuid.NewString(), wantStatus: http.StatusOK},
		{name: "malformed id", query: "?id=42", wantStatus: http.StatusBadRequest},
		{name: "missing id", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews"+tt.query, nil)
			rec := serve(h, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			got := decodeBody(t, rec)
			reviews, ok := got["reviews"].([]any)
			if !ok || len(reviews) != 1 {
				t.Fatalf("reviews = %v, want one entry", got["reviews"])
			}
		})
	}
}

func TestAdminRoutes_RoleCheck(t *testing.T) {
	svc := &stubService{
		orders:      []model.Order{},
		ordersTotal: decimal.RequireFromString("12.5"),
	}
	h := newTestHandler(t, svc)

	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{name: "admin", role: model.RoleAdmin, wantStatus: http.StatusOK},
		{name: "user", role: model.RoleUser, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
			req.AddCookie(authCookie(t, h, uuid.New(), tt.role))
			rec := serve(h, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && !strings.Contains(rec.Body.String(), `"totalAmount":"12.5"`) {
				t.Fatalf("body = %s, want totalAmount 12.5", rec.Body.String())
			}
		})
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		statusErr  error
		wantStatus int
		wantKind   apperror.Kind
	}{
		{name: "accepted", body: `{"status":"Shipped"}`, wantStatus: http.StatusOK},
		{
			name:       "already delivered",
			body:       `{"status":"Delivered"}`,
			statusErr:  apperror.Conflict("You have already delivered this order"),
			wantStatus: http.StatusBadRequest,
			wantKind:   apperror.KindConflict,
		},
		{
			name:       "order not found",
			body:       `{"status":"Delivered"}`,
			statusErr:  apperror.NotFound("Order not found with this Id"),
			wantStatus: http.StatusNotFound,
			wantKind:   apperror.KindNotFound,
		},
		{
			name:       "stale write",
			body:       `{"status":"Delivered"}`,
			statusErr:  apperror.StaleWrite("Product was modified concurrently, try again", nil),
			wantStatus: http.StatusConflict,
			wantKind:   apperror.KindConflict,
		},
		{name: "missing status", body: `{}`, wantStatus: http.StatusBadRequest, wantKind: apperror.KindValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{statusErr: tt.statusErr})

			req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/orders/"+uuid.NewString(), strings.NewReader(tt.body))
			req.AddCookie(authCookie(t, h, uuid.New(), model.RoleAdmin))
			rec := serve(h, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantKind != "" {
				got := decodeBody(t, rec)
				if got["kind"] != string(tt.wantKind) {
					t.Fatalf("kind = %v, want %s", got["kind"], tt.wantKind)
				}
			}
		})
	}
}

func TestGetOrder_IncludesOwner(t *testing.T) {
	userID := uuid.New()
	svc := &stubService{
		orderDetails: &service.OrderDetails{
			Order: &model.Order{
				ID:          uuid.New(),
				UserID:      userID,
				OrderStatus: model.OrderStatusProcessing,
			},
			UserName:  "Alice Doe",
			UserEmail: "alice@example.com",
		},
	}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	req.AddCookie(authCookie(t, h, userID, model.RoleUser))
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	got := decodeBody(t, rec)
	order, _ := got["order"].(map[string]any)
	owner, _ := order["user"].(map[string]any)
	if owner["name"] != "Alice Doe" || owner["email"] != "alice@example.com" || owner["_id"] != userID.String() {
		t.Fatalf("order.user = %v", owner)
	}
	if order["orderStatus"] != "Processing" {
		t.Fatalf("orderStatus = %v, want Processing", order["orderStatus"])
	}
}

func TestListProducts_ParsesQuery(t *testing.T) {
	svc := &stubService{
		page: &service.ProductPage{Products: []model.Product{}, ProductCount: 0, PerPage: service.ProductsPerPage},
	}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?keyword=kettle&category=Kitchen&price[gte]=10&page=2", nil)
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	q := svc.gotQuery
	if q.Keyword != "kettle" || q.Category != "Kitchen" || q.Page != 2 {
		t.Fatalf("query = %+v", q)
	}
	if q.MinPrice == nil || !q.MinPrice.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("min price = %v, want 10", q.MinPrice)
	}
	if q.MaxPrice != nil {
		t.Fatalf("max price = %v, want nil", q.MaxPrice)
	}

	got := decodeBody(t, rec)
	if got["resultPerPage"] != float64(service.ProductsPerPage) {
		t.Fatalf("resultPerPage = %v", got["resultPerPage"])
	}
}

func TestListProducts_InvalidQuery(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	for _, query := range []string{"?page=0", "?page=abc", "?price[lte]=cheap"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products"+query, nil)
		rec := serve(h, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want %d", query, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestForgotPassword_ResetURLFromHost(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/password/forgot", strings.NewReader(`{"email":"alice@example.com"}`))
	req.Host = "shop.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if want := "https://shop.example.com/api/v1/password/reset"; svc.gotResetBase != want {
		t.Fatalf("reset base = %q, want %q", svc.gotResetBase, want)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/logout", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %v", cookies)
	}
}

func TestRouter_NotFoundAndHealth(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := decodeBody(t, rec); got["kind"] != string(apperror.KindNotFound) {
		t.Fatalf("kind = %v, want NotFound", got["kind"])
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestSubmitReview_RejectsInvalidBody(t *testing.T) {
	userID := uuid.New()
	productID := uuid.NewString()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing comment", body: `{"productId":"` + productID + `","rating":4}`, field: "comment"},
		{name: "empty comment", body: `{"productId":"` + productID + `","rating":4,"comment":""}`, field: "comment"},
		{name: "rating out of range", body: `{"productId":"` + productID + `","rating":6,"comment":"ok"}`, field: "rating"},
		{name: "missing rating", body: `{"productId":"` + productID + `","comment":"ok"}`, field: "rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			h := newTestHandler(t, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", strings.NewReader(tt.body))
			req.AddCookie(authCookie(t, h, userID, model.RoleUser))
			rec := serve(h, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
			if svc.gotReview != (service.ReviewInput{}) {
				t.Fatalf("service called with %+v", svc.gotReview)
			}

			got := decodeBody(t, rec)
			fields, _ := got["fields"].([]any)
			if len(fields) != 1 {
				t.Fatalf("fields = %v, want one entry", got["fields"])
			}
			if f, _ := fields[0].(map[string]any); f["field"] != tt.field {
				t.Fatalf("field = %v, want %s", f["field"], tt.field)
			}
		})
	}
}

func TestDeleteReview(t *testing.T) {
	productID := uuid.New()
	reviewID := uuid.New()

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "deleted", query: "?productId=" + productID.String() + "&id=" + reviewID.String(), wantStatus: http.StatusOK},
		{name: "product not found", query: "?productId=" + uuid.NewString() + "&id=" + reviewID.String(), wantStatus: http.StatusNotFound},
		{name: "malformed review id", query: "?productId=" + productID.String() + "&id=x", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{knownProducts: map[uuid.UUID]bool{productID: true}}
			h := newTestHandler(t, svc)

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews"+tt.query, nil)
			req.AddCookie(authCookie(t, h, uuid.New(), model.RoleUser))
			rec := serve(h, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			if svc.gotReviewID != reviewID {
				t.Fatalf("review id = %s, want %s", svc.gotReviewID, reviewID)
			}
			if got := decodeBody(t, rec); got["message"] != "Review deleted successfully" {
				t.Fatalf("message = %v", got["message"])
			}
		})
	}
}

func TestCreateOrder_Created(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	svc := &stubService{}
	h := newTestHandler(t, svc)

	body := `{
		"shippingInfo": {"address": "1 Main St", "city": "Springfield", "state": "IL", "country": "US", "pinCode": "62701", "phoneNo": "5550100"},
		"orderItems": [{"name": "Kettle", "price": "25.50", "quantity": 2, "image": "k.jpg", "product": "` + productID.String() + `"}],
		"paymentInfo": {"id": "pi_1", "status": "succeeded"},
		"itemsPrice": "51.00", "taxPrice": "0", "shippingPrice": "0", "totalPrice": "51.00"
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.AddCookie(authCookie(t, h, userID, model.RoleUser))
	rec := serve(h, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if svc.gotOrderUser != userID {
		t.Fatalf("order user = %s, want %s", svc.gotOrderUser, userID)
	}
	items := svc.gotOrderInput.OrderItems
	if len(items) != 1 || items[0].ProductID != productID || items[0].Quantity != 2 {
		t.Fatalf("order items = %+v", items)
	}
	if !svc.gotOrderInput.Prices.TotalPrice.Equal(decimal.RequireFromString("51")) {
		t.Fatalf("total price = %s, want 51", svc.gotOrderInput.Prices.TotalPrice)
	}

	got := decodeBody(t, rec)
	order, ok := got["order"].(map[string]any)
	if !ok || order["orderStatus"] != "Processing" {
		t.Fatalf("order = %v", got["order"])
	}
}

func TestCreateOrder_MissingShippingInfo(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"orderItems": []}`))
	req.AddCookie(authCookie(t, h, uuid.New(), model.RoleUser))
	rec := serve(h, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestMyOrders_NotCaughtByOrderID(t *testing.T) {
	userID := uuid.New()
	svc := &stubService{}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/me", nil)
	req.AddCookie(authCookie(t, h, userID, model.RoleUser))
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if svc.gotListUser != userID {
		t.Fatalf("listed orders of %s, want %s", svc.gotListUser, userID)
	}

	got := decodeBody(t, rec)
	orders, ok := got["orders"].([]any)
	if !ok || len(orders) != 1 {
		t.Fatalf("orders = %v, want one entry", got["orders"])
	}
}

func TestDeleteOrder(t *testing.T) {
	orderID := uuid.New()
	svc := &stubService{liveOrders: map[uuid.UUID]bool{orderID: true}}
	h := newTestHandler(t, svc)
	cookie := authCookie(t, h, uuid.New(), model.RoleAdmin)

	tests := []struct {
		name       string
		wantStatus int
		wantKind   apperror.Kind
	}{
		{name: "deleted", wantStatus: http.StatusOK},
		{name: "repeat delete", wantStatus: http.StatusNotFound, wantKind: apperror.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/orders/"+orderID.String(), nil)
			req.AddCookie(cookie)
			rec := serve(h, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			got := decodeBody(t, rec)
			if tt.wantKind != "" && got["kind"] != string(tt.wantKind) {
				t.Fatalf("kind = %v, want %s", got["kind"], tt.wantKind)
			}
			if tt.wantKind == "" && got["success"] != true {
				t.Fatalf("success = %v, want true", got["success"])
			}
		})
	}
}
