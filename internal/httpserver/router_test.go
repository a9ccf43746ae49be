package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/logging"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	"storefront/internal/storage"
	"storefront/internal/transport"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type stubProductService struct {
	page      domain.ProductPage
	product   domain.Product
	err       error
	lastLimit int
	lastSkip  int
	lastQuery string
}

func (s *stubProductService) List(_ context.Context, limit, skip int) (domain.ProductPage, error) {
	s.lastLimit, s.lastSkip = limit, skip
	return s.page, s.err
}

func (s *stubProductService) Featured(_ context.Context, limit int) ([]domain.Product, error) {
	s.lastLimit = limit
	return s.page.Products, s.err
}

func (s *stubProductService) ByCategory(_ context.Context, slug string) ([]domain.Product, error) {
	s.lastQuery = slug
	return s.page.Products, s.err
}

func (s *stubProductService) Get(_ context.Context, id int) (domain.Product, error) {
	if id <= 0 {
		return domain.Product{}, domain.ErrNotFound
	}
	return s.product, s.err
}

func (s *stubProductService) Search(_ context.Context, q string, limit, skip int) (domain.ProductPage, error) {
	s.lastQuery, s.lastLimit, s.lastSkip = q, limit, skip
	return s.page, s.err
}

type stubCategoryService struct {
	slugs []string
	err   error
}

func (s *stubCategoryService) List(context.Context) ([]string, error) {
	return s.slugs, s.err
}

type stubAuthService struct {
	loginErr  error
	loggedOut bool
	session   authsvc.Session
	signedUp  domain.User
}

func (s *stubAuthService) Login(context.Context, string, string) (domain.Credential, error) {
	if s.loginErr != nil {
		return domain.Credential{}, s.loginErr
	}
	s.session = authsvc.Session{Authenticated: true, UserID: "1"}
	return domain.Credential{AccessToken: "a"}, nil
}

func (s *stubAuthService) Signup(_ context.Context, u domain.User) (domain.User, error) {
	s.signedUp = u
	u.ID = 209
	u.Password = ""
	return u, nil
}

func (s *stubAuthService) Logout(context.Context) error {
	s.loggedOut = true
	return nil
}

func (s *stubAuthService) Session(context.Context) (authsvc.Session, error) {
	return s.session, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

type testEnv struct {
	router   *gin.Engine
	products *stubProductService
	auth     *stubAuthService
	cart     *cartsvc.Store
	orders   orderrepo.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slots := storage.NewMemory()
	logger := logging.Discard()
	store := cartsvc.Open(context.Background(), cartrepo.NewSlots(slots), logger)
	orders := orderrepo.NewSlots(slots)
	env := &testEnv{
		products: &stubProductService{},
		auth:     &stubAuthService{},
		cart:     store,
		orders:   orders,
	}
	env.router = buildRouter(logger, slots, Deps{
		ProductSvc:  env.products,
		CategorySvc: &stubCategoryService{slugs: []string{"beauty", "laptops"}},
		CartSvc:     store,
		CheckoutSvc: checkout.New(store, orders, logger),
		AuthSvc:     env.auth,
	}, Options{LoginPath: "/login", AllowedOrigins: []string{"http://localhost:5173"}})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from readyz, got %d", rec.Code)
	}

	router := buildRouter(logging.Discard(), failingPinger{}, Deps{}, Options{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when storage is down, got %d", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}

func TestProductsPaging(t *testing.T) {
	env := newTestEnv(t)
	env.products.page = domain.ProductPage{Products: []domain.Product{{ID: 1, Title: "Mascara"}}, Total: 194, Limit: 10, Skip: 20}

	rec := env.do(t, http.MethodGet, "/api/products?limit=10&skip=20", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.products.lastLimit != 10 || env.products.lastSkip != 20 {
		t.Fatalf("expected paging to be forwarded, got limit=%d skip=%d", env.products.lastLimit, env.products.lastSkip)
	}
	var page domain.ProductPage
	decode(t, rec, &page)
	if page.Total != 194 || len(page.Products) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	if rec := env.do(t, http.MethodGet, "/api/products?limit=abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestProductNotFound(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/api/products/abc", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non-numeric id, got %d", rec.Code)
	}

	env.products.err = &transport.StatusError{StatusCode: http.StatusNotFound}
	if rec := env.do(t, http.MethodGet, "/api/products/9999", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected upstream 404 to map to 404, got %d", rec.Code)
	}
}

func TestUpstreamFailureIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	env.products.err = &transport.StatusError{StatusCode: http.StatusInternalServerError}

	rec := env.do(t, http.MethodGet, "/api/products/search?q=phone", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var body errorResponse
	decode(t, rec, &body)
	if !body.Retryable {
		t.Fatalf("expected retryable flag")
	}

	env.products.err = &url.Error{Op: "Get", URL: "http://upstream", Err: errors.New("connection refused")}
	if rec := env.do(t, http.MethodGet, "/api/products", ""); rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for network error, got %d", rec.Code)
	}
}

func TestAuthRequiredRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)
	env.products.err = errors.Join(transport.ErrRefreshFailed, errors.New("refresh: 401"))

	rec := env.do(t, http.MethodGet, "/api/products", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body errorResponse
	decode(t, rec, &body)
	if body.Redirect != "/login" {
		t.Fatalf("expected redirect to /login, got %q", body.Redirect)
	}
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/categories", "")
	var body struct {
		Categories []string `json:"categories"`
	}
	decode(t, rec, &body)
	if len(body.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %v", body.Categories)
	}

	env.do(t, http.MethodGet, "/api/categories/laptops/products", "")
	if env.products.lastQuery != "laptops" {
		t.Fatalf("expected slug to be forwarded, got %q", env.products.lastQuery)
	}
}

func TestCartAddMergesAndTotals(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/cart/items", `{"productId":5,"title":"Lamp","price":10,"quantity":2}`)
	rec := env.do(t, http.MethodPost, "/api/cart/items", `{"productId":5,"title":"Lamp","price":"10","quantity":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var cart domain.Cart
	decode(t, rec, &cart)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("expected one merged line of 5, got %+v", cart.Items)
	}
	if !cart.Total.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected total 50, got %s", cart.Total)
	}
	if cart.Items[0].Name != "Lamp" {
		t.Fatalf("expected name to default to title, got %q", cart.Items[0].Name)
	}
}

func TestCartAddValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/cart/items", `{"productId":5,"price":10,"quantity":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body errorResponse
	decode(t, rec, &body)
	if _, ok := body.Fields["quantity"]; !ok {
		t.Fatalf("expected quantity field error, got %+v", body.Fields)
	}

	rec = env.do(t, http.MethodPost, "/api/cart/items", `{"productId":5,"price":-1,"quantity":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative price, got %d", rec.Code)
	}
	if len(env.cart.Snapshot().Items) != 0 {
		t.Fatalf("expected rejected items to stay out of the cart")
	}
}

func TestCartQuantityAndRemove(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", `{"productId":1,"price":2,"quantity":1}`)

	if rec := env.do(t, http.MethodPatch, "/api/cart/items/1", `{"quantity":0}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for quantity 0, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPatch, "/api/cart/items/1", `{"quantity":4}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := env.cart.Snapshot().Items[0].Quantity; got != 4 {
		t.Fatalf("expected quantity 4, got %d", got)
	}

	env.do(t, http.MethodDelete, "/api/cart/items/1", "")
	rec := env.do(t, http.MethodDelete, "/api/cart/items/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected removing a missing item to succeed, got %d", rec.Code)
	}
	if len(env.cart.Snapshot().Items) != 0 {
		t.Fatalf("expected empty cart")
	}
}

func TestCartReplaceSummaryAndClear(t *testing.T) {
	env := newTestEnv(t)

	body := `{"products":[{"productId":1,"name":"a","price":"1.50","quantity":2},{"productId":2,"name":"b","price":"3","quantity":1}],"total":999,"discountedTotal":5}`
	rec := env.do(t, http.MethodPut, "/api/cart", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var cart domain.Cart
	decode(t, rec, &cart)
	if !cart.Total.Equal(decimal.NewFromInt(6)) || cart.Units != 3 {
		t.Fatalf("expected totals to be recomputed, got total=%s units=%d", cart.Total, cart.Units)
	}

	rec = env.do(t, http.MethodGet, "/api/cart/summary", "")
	var summary cartsvc.Summary
	decode(t, rec, &summary)
	if summary.Count != 2 {
		t.Fatalf("expected 2 lines in summary, got %d", summary.Count)
	}

	env.do(t, http.MethodDelete, "/api/cart", "")
	rec = env.do(t, http.MethodGet, "/api/cart", "")
	decode(t, rec, &cart)
	if len(cart.Items) != 0 || !cart.Total.IsZero() {
		t.Fatalf("expected empty cart after clear, got %+v", cart)
	}
}

func TestCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)

	form := `{"name":"Ada","address":"1 Loop St","state":"CA","zipCode":"94000","paymentMethod":"cash"}`
	if rec := env.do(t, http.MethodPost, "/api/checkout", form); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for empty cart, got %d", rec.Code)
	}

	env.do(t, http.MethodPost, "/api/cart/items", `{"productId":1,"price":"9.99","quantity":2}`)

	rec := env.do(t, http.MethodPost, "/api/checkout", `{"paymentMethod":"card","name":"Ada"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete card form, got %d", rec.Code)
	}
	var verr errorResponse
	decode(t, rec, &verr)
	if verr.Fields["cardNumber"] == "" || verr.Fields["zipCode"] == "" {
		t.Fatalf("expected inline field errors, got %+v", verr.Fields)
	}

	rec = env.do(t, http.MethodPost, "/api/checkout", form)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var order domain.Order
	decode(t, rec, &order)
	if !strings.HasPrefix(order.ID, "ORD-") || !order.Total.Equal(decimal.RequireFromString("19.98")) {
		t.Fatalf("unexpected order %+v", order)
	}
	if order.Date.Location() != time.UTC {
		t.Fatalf("expected UTC order date, got %s", order.Date)
	}
	if len(env.cart.Snapshot().Items) != 0 {
		t.Fatalf("expected cart to be cleared after checkout")
	}

	rec = env.do(t, http.MethodGet, "/api/orders", "")
	var body struct {
		Orders []domain.Order `json:"orders"`
	}
	decode(t, rec, &body)
	if len(body.Orders) != 1 || body.Orders[0].ID != order.ID {
		t.Fatalf("expected the placed order in history, got %+v", body.Orders)
	}
}

func TestLoginAndLogout(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodPost, "/api/auth/login", `{"username":"emilys"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without password, got %d", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/auth/login", `{"username":"emilys","password":"emilyspass"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var s authsvc.Session
	decode(t, rec, &s)
	if !s.Authenticated {
		t.Fatalf("expected authenticated session")
	}

	if rec := env.do(t, http.MethodPost, "/api/auth/logout", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !env.auth.loggedOut {
		t.Fatalf("expected logout to reach the service")
	}
}

func TestLoginRejected(t *testing.T) {
	env := newTestEnv(t)
	env.auth.loginErr = authsvc.ErrInvalidCredentials

	rec := env.do(t, http.MethodPost, "/api/auth/login", `{"username":"emilys","password":"nope"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body errorResponse
	decode(t, rec, &body)
	if body.Redirect != "" {
		t.Fatalf("did not expect a redirect for bad credentials")
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/signup", `{"username":"n","email":"not-an-email","password":"123"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body errorResponse
	decode(t, rec, &body)
	if body.Fields["email"] == "" || body.Fields["password"] == "" {
		t.Fatalf("expected email and password errors, got %+v", body.Fields)
	}

	rec = env.do(t, http.MethodPost, "/api/auth/signup", `{"username":"newbie","email":"n@example.com","password":"secret1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if env.auth.signedUp.Email != "n@example.com" {
		t.Fatalf("expected signup to reach the service, got %+v", env.auth.signedUp)
	}
}
