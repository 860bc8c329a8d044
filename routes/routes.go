// Package routes wires controllers, services and middleware into the HTTP
// handler.
package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"go-buildmart/cache"
	"go-buildmart/controllers"
	"go-buildmart/events"
	"go-buildmart/metrics"
	"go-buildmart/middleware"
	"go-buildmart/realtime"
	"go-buildmart/repository"
	"go-buildmart/services"
	"go-buildmart/utils"
)

// Deps are the process-level resources the handler is built from. Only
// Store is required.
type Deps struct {
	Store           *repository.Store
	Cache           *cache.Cache
	Publisher       events.Publisher
	Mail            *utils.EmailService
	Hub             *realtime.Hub
	Limiter         middleware.Limiter
	CORSOrigins     []string
	NotificationTTL time.Duration
}

// Controllers groups every controller the routes dispatch to.
type Controllers struct {
	User         *controllers.UserController
	Product      *controllers.ProductController
	Cart         *controllers.CartController
	Order        *controllers.OrderController
	Zone         *controllers.DeliveryZoneController
	Notification *controllers.NotificationController
	Contact      *controllers.ContactController
	Health       *controllers.HealthController
}

// App is the assembled service layer.
type App struct {
	Auth        *middleware.Authenticator
	Controllers Controllers
	Orders      *services.OrderService
	Notifier    *services.Notifier
}

// Build assembles services and controllers from d.
func Build(d Deps) *App {
	if d.Publisher == nil {
		d.Publisher = events.LogPublisher{}
	}
	if d.Mail == nil {
		d.Mail = utils.NewEmailServiceWith(utils.LogMailer{}, "")
	}
	if d.Hub == nil {
		d.Hub = realtime.NewHub()
	}
	s := d.Store

	notifier := services.NewNotifier(s.Users, s.Notifications, d.Hub, d.NotificationTTL)
	zones := services.NewZoneService(s.Zones, d.Cache)
	catalog := services.NewCatalog(s.Products, d.Cache)
	carts := services.NewCartService(s.Carts, s.Products)
	orders := services.NewOrderService(s, zones, notifier, d.Publisher, d.Mail)
	orders.StockChanged = catalog.Invalidate

	return &App{
		Auth:     middleware.NewAuthenticator(s.Users),
		Orders:   orders,
		Notifier: notifier,
		Controllers: Controllers{
			User:         controllers.NewUserController(s.Users, notifier, d.Publisher),
			Product:      controllers.NewProductController(catalog),
			Cart:         controllers.NewCartController(carts),
			Order:        controllers.NewOrderController(orders),
			Zone:         controllers.NewDeliveryZoneController(zones),
			Notification: controllers.NewNotificationController(s.Notifications, d.Hub),
			Contact:      controllers.NewContactController(s.Contacts, notifier, d.Mail),
			Health:       &controllers.HealthController{Database: s.Products, Started: time.Now()},
		},
	}
}

// New returns the complete HTTP handler.
func New(d Deps) http.Handler {
	app := Build(d)
	router := mux.NewRouter()
	router.Use(metrics.Middleware, middleware.RequestLogger, middleware.Recover, middleware.CORS(d.CORSOrigins))
	if d.Limiter != nil {
		router.Use(middleware.RateLimit(d.Limiter))
	}
	RegisterRoutes(router, app.Auth, app.Controllers)
	return router
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, auth *middleware.Authenticator, c Controllers) {
	router.HandleFunc("/health", c.Health.Health).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	// preflight requests are answered by the CORS middleware
	api.Methods("OPTIONS").HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	// Public routes
	public := api.NewRoute().Subrouter()
	public.Use(auth.OptionalAuth)
	public.HandleFunc("/auth/register", c.User.Register).Methods("POST")
	public.HandleFunc("/auth/login", c.User.Login).Methods("POST")
	public.HandleFunc("/products", c.Product.GetProducts).Methods("GET")
	public.HandleFunc("/products/categories", c.Product.GetCategories).Methods("GET")
	public.HandleFunc("/products/{id:[0-9a-fA-F]{24}}", c.Product.GetProductByID).Methods("GET")
	public.HandleFunc("/delivery-zones/check/{pincode}", c.Zone.CheckPincode).Methods("GET")
	public.HandleFunc("/contact", c.Contact.Submit).Methods("POST")
	public.HandleFunc("/cart", c.Cart.GetCart).Methods("GET")
	public.HandleFunc("/cart", c.Cart.ClearCart).Methods("DELETE")
	public.HandleFunc("/cart/items", c.Cart.AddToCart).Methods("POST")
	public.HandleFunc("/cart/items/{productId}", c.Cart.UpdateQuantity).Methods("PUT")
	public.HandleFunc("/cart/items/{productId}", c.Cart.RemoveFromCart).Methods("DELETE")

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(auth.AuthenticateToken)
	protected.HandleFunc("/auth/me", c.User.Me).Methods("GET")
	protected.HandleFunc("/auth/profile", c.User.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/auth/password", c.User.ChangePassword).Methods("PUT")
	protected.HandleFunc("/orders", c.Order.CreateOrder).Methods("POST")
	protected.HandleFunc("/orders/my-orders", c.Order.GetMyOrders).Methods("GET")
	protected.HandleFunc("/orders/{id:[0-9a-fA-F]{24}}", c.Order.GetOrder).Methods("GET")
	protected.HandleFunc("/orders/{id}/cancel", c.Order.CancelOrder).Methods("PUT")
	protected.HandleFunc("/notifications", c.Notification.List).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", c.Notification.UnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/read-all", c.Notification.MarkAllRead).Methods("PUT")
	protected.HandleFunc("/notifications/ws", c.Notification.Stream).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", c.Notification.MarkRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}", c.Notification.Delete).Methods("DELETE")

	// Admin routes
	admin := api.NewRoute().Subrouter()
	admin.Use(auth.AuthenticateToken)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/products", c.Product.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/export", c.Product.ExportProducts).Methods("GET")
	admin.HandleFunc("/products/{id}", c.Product.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id}", c.Product.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/orders", c.Order.GetOrders).Methods("GET")
	admin.HandleFunc("/orders/{id}/status", c.Order.UpdateOrderStatus).Methods("PUT")
	admin.HandleFunc("/orders/{id}/payment", c.Order.UpdateOrderPaymentStatus).Methods("PUT")
	admin.HandleFunc("/delivery-zones", c.Zone.ListZones).Methods("GET")
	admin.HandleFunc("/delivery-zones", c.Zone.CreateZone).Methods("POST")
	admin.HandleFunc("/delivery-zones/{id}", c.Zone.UpdateZone).Methods("PUT")
	admin.HandleFunc("/delivery-zones/{id}", c.Zone.DeleteZone).Methods("DELETE")
	admin.HandleFunc("/contact", c.Contact.List).Methods("GET")
	admin.HandleFunc("/users", c.User.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id}/role", c.User.ChangeRole).Methods("PUT")
}
