package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"univendor/internal/api"
	"univendor/internal/domain"
	authsvc "univendor/internal/service/auth"
	cartsvc "univendor/internal/service/cart"
)

type AuthService interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*authsvc.Result, error)
	Register(ctx context.Context, in authsvc.RegisterInput) (*authsvc.Result, error)
	LoginWithEmail(ctx context.Context, email string) (*authsvc.Result, error)
	Authenticate(ctx context.Context, token string) (*authsvc.Principal, error)
	Impersonate(ctx context.Context, token string, actor domain.User, targetID string) (*domain.User, error)
	StopImpersonating(ctx context.Context, token string) error
	Logout(ctx context.Context, token string) error
	SessionTTL() time.Duration
}

type CartService interface {
	List(ctx context.Context, userID string) ([]domain.CartItem, error)
	Add(ctx context.Context, userID string, in cartsvc.AddInput) (*domain.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, id string, quantity int) (*domain.CartItem, error)
	Remove(ctx context.Context, userID, id string) error
}

type OrderService interface {
	Place(ctx context.Context, userID string, addr domain.ShippingAddress) (*domain.Order, error)
	History(ctx context.Context, userID string) ([]domain.Order, error)
	Get(ctx context.Context, u domain.User, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, u domain.User, id string, status string) (*domain.Order, error)
}

type ProductService interface {
	List(ctx context.Context, vendorKey string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

// Deps are the services the router dispatches to.
type Deps struct {
	Auth     AuthService
	Cart     CartService
	Orders   OrderService
	Products ProductService
}

type handlers struct {
	deps   Deps
	opts   Options
	logger *zap.Logger
}

// buildRouter wires routes for the API. Every route is served both at the
// root and under /api.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps, opts Options) (*gin.Engine, error) {
	if deps.Auth == nil || deps.Cart == nil || deps.Orders == nil || deps.Products == nil {
		return nil, errors.New("httpserver: all services are required")
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestLogger(logger), recovery(logger))
	if opts.ClientURL != "" {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     []string{opts.ClientURL},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.Use(sessionMiddleware(deps.Auth, logger))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, opts: opts, logger: logger}
	h.routes(router)
	h.routes(router.Group(api.Prefix))

	router.NoRoute(func(c *gin.Context) {
		writeError(c, logger, domain.ErrNotFound)
	})
	return router, nil
}

func (h *handlers) routes(r gin.IRouter) {
	auth := r.Group(api.Auth)
	auth.POST("/send-otp", h.sendOTP)
	auth.POST("/verify-otp", h.verifyOTP)
	auth.POST("/register", h.registerUser)
	auth.POST("/login", h.login)
	auth.POST("/logout", h.logout)
	auth.GET("/user", requireUser, h.me)
	auth.POST("/impersonate/:id", requireUser, h.impersonate)
	auth.DELETE("/impersonate", requireUser, h.stopImpersonating)

	cart := r.Group(api.CartCollection, requireUser)
	cart.GET("", h.listCart)
	cart.POST("", h.addCartItem)
	cart.PUT("/:id", h.updateCartItem)
	cart.PATCH("/:id", h.updateCartItem)
	cart.DELETE("/:id", h.removeCartItem)

	orders := r.Group(api.Orders, requireUser)
	orders.POST("", h.placeOrder)
	orders.GET("", h.listOrders)
	orders.GET("/:id", h.getOrder)
	orders.PATCH("/:id/status", h.updateOrderStatus)

	products := r.Group(api.Products)
	products.GET("", h.listProducts)
	products.GET("/:id", h.getProduct)
}
