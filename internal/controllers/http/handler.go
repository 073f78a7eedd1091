package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"commerce-service/internal/auth"
	"commerce-service/internal/domain"
	"commerce-service/internal/services"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type Services struct {
	Orders    *services.OrderService
	Payments  *services.PaymentService
	Catalog   *services.CatalogService
	Customers *services.CustomerService
	Uploads   *services.UploadService
}

type Handler struct {
	svc         Services
	secret      string
	uploadLimit int64
}

func NewHandler(svc Services, jwtSecret string, uploadLimit int64) *Handler {
	return &Handler{svc: svc, secret: jwtSecret, uploadLimit: uploadLimit}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	r.POST("/orders", OptionalAuth(h.secret), h.CreateOrder)
	r.GET("/orders/:id", AuthGuard(h.secret), h.GetOrder)
	r.POST("/orders/:id/payments", OptionalAuth(h.secret), h.ChargeOrder)
	r.POST("/webhooks/payments/:gateway", h.PaymentWebhook)

	r.GET("/products/:id", OptionalAuth(h.secret), h.GetProduct)

	r.POST("/customers", h.CreateCustomer)
	r.POST("/customers/password-reset", h.RequestPasswordReset)
	r.GET("/customers/:id", AuthGuard(h.secret), h.GetCustomer)
	r.GET("/customers/:id/orders", AuthGuard(h.secret), h.ListCustomerOrders)
	r.POST("/customers/:id/addresses", AuthGuard(h.secret), h.AddAddress)

	admin := r.Group("/admin", AdminAuth(h.secret))
	admin.PATCH("/orders/:id/status", h.TransitionStatus)
	admin.POST("/orders/:id/fulfillments", h.FulfillItems)
	admin.POST("/categories", h.CreateCategory)
	admin.POST("/products", h.CreateProduct)
	admin.POST("/products/:id/variants", h.CreateVariant)
	admin.POST("/products/:id/stock", h.AdjustStock)
	admin.POST("/uploads", h.Upload)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderInput
	if !bindJSON(c, &req) {
		return
	}

	// the customer comes from the token; only admins may order for someone else
	claims := claimsFrom(c)
	switch {
	case claims == nil:
		req.CustomerID = nil
	case !isAdmin(claims):
		id := claims.CustomerID
		req.CustomerID = &id
	}

	order, err := h.svc.Orders.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, "orders.create", err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.svc.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, "orders.get", err)
		return
	}
	claims := claimsFrom(c)
	visible := isAdmin(claims) || order.CustomerID != nil && canActFor(claims, *order.CustomerID)
	if !visible {
		respondError(c, "orders.get", &domain.NotFoundError{Entity: "order", ID: id})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) ChargeOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ChargeRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := h.svc.Payments.Charge(c.Request.Context(), id, req.Method)
	if err != nil {
		respondError(c, "orders.charge", err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid_body", "could not read body")
		return
	}

	order, err := h.svc.Payments.HandleWebhook(c.Request.Context(), c.Param("gateway"), c.Request.Header, body)
	if err != nil {
		respondError(c, "webhooks.payments", err)
		return
	}
	c.JSON(http.StatusOK, WebhookResponse{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
	})
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.svc.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, "products.get", err)
		return
	}
	// drafts and archived products are only visible to admins
	if product.Status != domain.ProductActive && !isAdmin(claimsFrom(c)) {
		respondError(c, "products.get", &domain.NotFoundError{Entity: "product", ID: id})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) CreateCustomer(c *gin.Context) {
	var req services.CreateCustomerInput
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.svc.Customers.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		respondError(c, "customers.create", err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.svc.Customers.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, "customers.password_reset", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "if the address is registered, a reset link has been sent"})
}

func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !canActFor(claimsFrom(c), id) {
		abort(c, http.StatusForbidden, "forbidden", "forbidden")
		return
	}

	customer, err := h.svc.Customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, "customers.get", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) ListCustomerOrders(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !canActFor(claimsFrom(c), id) {
		abort(c, http.StatusForbidden, "forbidden", "forbidden")
		return
	}

	orders, err := h.svc.Orders.ListCustomerOrders(c.Request.Context(), id)
	if err != nil {
		respondError(c, "customers.orders", err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) AddAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !canActFor(claimsFrom(c), id) {
		abort(c, http.StatusForbidden, "forbidden", "forbidden")
		return
	}
	var req services.AddressInput
	if !bindJSON(c, &req) {
		return
	}

	address, err := h.svc.Customers.AddAddress(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, "customers.addresses", err)
		return
	}
	c.JSON(http.StatusCreated, address)
}

func (h *Handler) TransitionStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req TransitionStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.svc.Orders.TransitionStatus(c.Request.Context(), id, req.Status, actor(claimsFrom(c)))
	if err != nil {
		respondError(c, "admin.orders.status", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) FulfillItems(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req FulfillItemsRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.svc.Orders.FulfillItems(c.Request.Context(), id, req.Items)
	if err != nil {
		respondError(c, "admin.orders.fulfillments", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req services.CreateCategoryInput
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.svc.Catalog.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, "admin.categories", err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req services.CreateProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.svc.Catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, "admin.products", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) CreateVariant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.CreateVariantInput
	if !bindJSON(c, &req) {
		return
	}

	variant, err := h.svc.Catalog.CreateVariant(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, "admin.products.variants", err)
		return
	}
	c.JSON(http.StatusCreated, variant)
}

func (h *Handler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.AdjustStockInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.svc.Catalog.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, "admin.products.stock", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			respondError(c, "admin.uploads", domain.NewValidationError("file", "is required"))
			return
		}
		abort(c, http.StatusBadRequest, "invalid_body", "expected a multipart form")
		return
	}

	opts, err := imageOptions(c)
	if err != nil {
		respondError(c, "admin.uploads", err)
		return
	}

	f, err := file.Open()
	if err != nil {
		respondError(c, "admin.uploads", fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	var reader io.Reader = f
	if h.uploadLimit > 0 {
		reader = io.LimitReader(f, h.uploadLimit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		respondError(c, "admin.uploads", fmt.Errorf("read upload: %w", err))
		return
	}

	upload, err := h.svc.Uploads.Upload(c.Request.Context(), actor(claimsFrom(c)), file.Filename, data, opts)
	if err != nil {
		respondError(c, "admin.uploads", err)
		return
	}
	c.JSON(http.StatusCreated, upload)
}

// imageOptions reads the optional processing fields of an upload form. No
// fields means the file is stored as sent.
func imageOptions(c *gin.Context) (*services.ImageOptions, error) {
	maxDim, format, quality := c.PostForm("maxDimension"), c.PostForm("format"), c.PostForm("quality")
	if maxDim == "" && format == "" && quality == "" {
		return nil, nil
	}

	opts := &services.ImageOptions{Format: format}
	verr := &domain.ValidationError{}
	if maxDim != "" {
		n, err := strconv.Atoi(maxDim)
		if err != nil {
			verr.Add("maxDimension", "must be a number")
		}
		opts.MaxDimension = n
	}
	if quality != "" {
		n, err := strconv.Atoi(quality)
		if err != nil {
			verr.Add("quality", "must be a number")
		}
		opts.Quality = n
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return opts, nil
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abort(c, http.StatusBadRequest, "invalid_body", "request body is not valid JSON: "+err.Error())
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, "params", domain.NewValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// actor names the caller in audit rows, e.g. "admin:3".
func actor(claims *auth.Claims) string {
	if claims == nil {
		return "anonymous"
	}
	return fmt.Sprintf("%s:%d", claims.Role, claims.CustomerID)
}
