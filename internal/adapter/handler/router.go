package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketshop/shopcart/internal/core/service"
)

type Handler struct {
	auth      *service.AuthService
	catalog   *service.CatalogService
	carts     *service.CartService
	orders    *service.OrderService
	inventory *service.InventoryLedger
}

func NewHandler(
	auth *service.AuthService,
	catalog *service.CatalogService,
	carts *service.CartService,
	orders *service.OrderService,
	inventory *service.InventoryLedger,
) *Handler {
	return &Handler{
		auth:      auth,
		catalog:   catalog,
		carts:     carts,
		orders:    orders,
		inventory: inventory,
	}
}

// Routes builds the HTTP API. Auth and catalog reads are public; cart
// and order operations need a shopper identity; catalog writes and
// cross-user listings need the admin role.
func (h *Handler) Routes(mode string) *gin.Engine {
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(TraceID(), RequestLogger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	r.GET("/products", h.ListProducts)
	r.GET("/products/category/:category", h.ListProductsByCategory)

	admin := r.Group("/", h.Authenticate(), h.RequireAdmin())
	{
		admin.POST("/products", h.CreateProduct)
		admin.GET("/products/:id", h.GetProduct)
		admin.PATCH("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeleteProduct)
		admin.POST("/products/:id/stock", h.AdjustStock)
		admin.GET("/admin/orders", h.ListAllOrders)
		admin.DELETE("/admin/orders", h.DeleteAllOrders)
	}

	user := r.Group("/", h.Authenticate())
	{
		user.GET("/cart", h.GetCart)
		user.POST("/cart/items", h.AddCartItem)
		user.PATCH("/cart/items/:id", h.UpdateCartItem)
		user.DELETE("/cart/items/:id", h.RemoveCartItem)
		user.DELETE("/cart", h.ClearCart)
		user.POST("/cart/checkout", h.Checkout)
		user.GET("/orders", h.ListOrders)
		user.GET("/orders/:id", h.GetOrder)
		user.DELETE("/orders/:id", h.CancelOrder)
	}

	return r
}
