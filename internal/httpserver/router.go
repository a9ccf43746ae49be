package httpserver

import (
	"context"
	"reflect"
	"strings"
	"time"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/checkout"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type ProductService interface {
	List(ctx context.Context, limit, skip int) (domain.ProductPage, error)
	Featured(ctx context.Context, limit int) ([]domain.Product, error)
	ByCategory(ctx context.Context, slug string) ([]domain.Product, error)
	Get(ctx context.Context, id int) (domain.Product, error)
	Search(ctx context.Context, query string, limit, skip int) (domain.ProductPage, error)
}

type CategoryService interface {
	List(ctx context.Context) ([]string, error)
}

type CartService interface {
	Snapshot() domain.Cart
	Summary() cartsvc.Summary
	Replace(ctx context.Context, next domain.Cart) domain.Cart
	Add(ctx context.Context, item domain.LineItem) domain.Cart
	Remove(ctx context.Context, productID int) domain.Cart
	SetQuantity(ctx context.Context, productID, quantity int) domain.Cart
	Clear(ctx context.Context) domain.Cart
}

type CheckoutService interface {
	PlaceOrder(ctx context.Context, in checkout.Input) (*domain.Order, error)
	Orders(ctx context.Context) ([]domain.Order, error)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (domain.Credential, error)
	Signup(ctx context.Context, user domain.User) (domain.User, error)
	Logout(ctx context.Context) error
	Session(ctx context.Context) (authsvc.Session, error)
}

// Deps groups the services the handlers call into.
type Deps struct {
	ProductSvc  ProductService
	CategorySvc CategoryService
	CartSvc     CartService
	CheckoutSvc CheckoutService
	AuthSvc     AuthService
}

// Options tunes the boundary behaviour.
type Options struct {
	// LoginPath is returned as the redirect target when the user must log in again.
	LoginPath      string
	AllowedOrigins []string
}

type handler struct {
	deps      Deps
	logger    logrus.FieldLogger
	loginPath string
}

// buildRouter wires routes for the API.
func buildRouter(logger logrus.FieldLogger, store Pinger, deps Deps, opts Options) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	registerJSONFieldNames()

	router := gin.New()
	router.Use(requestID(), accessLog(logger), gin.Recovery())
	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(store))

	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}
	h := &handler{deps: deps, logger: logger, loginPath: loginPath}

	api := router.Group("/api")

	products := api.Group("/products")
	products.GET("", h.listProducts)
	products.GET("/featured", h.featuredProducts)
	products.GET("/search", h.searchProducts)
	products.GET("/:id", h.getProduct)

	api.GET("/categories", h.listCategories)
	api.GET("/categories/:slug/products", h.categoryProducts)

	cart := api.Group("/cart")
	cart.GET("", h.getCart)
	cart.GET("/summary", h.cartSummary)
	cart.PUT("", h.replaceCart)
	cart.DELETE("", h.clearCart)
	cart.POST("/items", h.addCartItem)
	cart.PATCH("/items/:productId", h.setCartItemQuantity)
	cart.DELETE("/items/:productId", h.removeCartItem)

	api.POST("/checkout", h.placeOrder)
	api.GET("/orders", h.listOrders)

	auth := api.Group("/auth")
	auth.POST("/login", h.login)
	auth.POST("/signup", h.signup)
	auth.POST("/logout", h.logout)
	auth.GET("/session", h.session)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// registerJSONFieldNames makes binding errors report json field names.
func registerJSONFieldNames() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	}
}
