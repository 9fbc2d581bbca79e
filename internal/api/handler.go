package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"hospital-service/internal/models"
	"hospital-service/internal/redisclient"
	"hospital-service/internal/service"
	"hospital-service/internal/store"
	"hospital-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	purchases *service.PurchaseService
	inventory *service.InventoryService
	store     *store.Store
	redis     *redisclient.Client
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	purchases *service.PurchaseService,
	inventory *service.InventoryService,
	store *store.Store,
	redis *redisclient.Client,
) *Handler {
	return &Handler{
		purchases: purchases,
		inventory: inventory,
		store:     store,
		redis:     redis,
		logger:    util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/purchases", h.createPurchase)
		v1.GET("/purchases/:id", h.getPurchase)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.PATCH("/products/:id/threshold", h.setThreshold)
		v1.POST("/products/:id/restock", h.restockProduct)

		v1.POST("/leaves", h.createLeave)
		v1.GET("/leaves", h.listLeaves)
		v1.PATCH("/leaves/:id/status", h.setLeaveStatus)

		v1.GET("/dashboard", h.dashboard)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createPurchase handles a point-of-sale checkout
func (h *Handler) createPurchase(c *gin.Context) {
	var req service.CheckoutRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.purchases.Checkout(c.Request.Context(), &req)
	if err != nil {
		h.purchaseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// purchaseError collapses internal error detail into a generic envelope.
// The kind and message stay in the logs for operators.
func (h *Handler) purchaseError(c *gin.Context, err error) {
	h.logger.Warn("Checkout request failed",
		zap.String("kind", models.ErrorKind(err)),
		zap.Error(err))

	switch {
	case errors.Is(err, models.ErrInvalidBillData),
		errors.Is(err, models.ErrInvalidLineData),
		errors.Is(err, models.ErrProductNotFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid purchase data"})
	case errors.Is(err, models.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock"})
	case errors.Is(err, models.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Transient conflict, retry the request", "retryable": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process purchase"})
	}
}

// getPurchase handles get bill by ID
func (h *Handler) getPurchase(c *gin.Context) {
	billID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bill ID"})
		return
	}

	bill, lines, err := h.purchases.GetPurchase(c.Request.Context(), billID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bill not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bill":  bill,
		"lines": lines,
	})
}

// listProducts handles listing the catalog
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.inventory.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// getProduct handles get product by ID
func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.inventory.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// setThreshold updates a product's low-stock threshold
func (h *Handler) setThreshold(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req struct {
		Threshold int `json:"threshold" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.inventory.SetThreshold(c.Request.Context(), id, req.Threshold); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update threshold"})
		return
	}
	c.Status(http.StatusNoContent)
}

// restockProduct adds stock to a product
func (h *Handler) restockProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req struct {
		Quantity int `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	product, err := h.inventory.Restock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restock product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// createLeave handles leave request creation
func (h *Handler) createLeave(c *gin.Context) {
	var req struct {
		EmployeeID int64     `json:"employee_id" binding:"required"`
		StartDate  time.Time `json:"start_date" binding:"required"`
		EndDate    time.Time `json:"end_date" binding:"required"`
		Reason     string    `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.EndDate.Before(req.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must not precede start_date"})
		return
	}

	leave := &models.LeaveRequest{
		EmployeeID: req.EmployeeID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Reason:     req.Reason,
		Status:     models.LeaveStatusPending,
	}
	if err := h.store.CreateLeaveRequest(c.Request.Context(), leave); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create leave request"})
		return
	}
	c.JSON(http.StatusCreated, leave)
}

// listLeaves lists leave requests for an employee
func (h *Handler) listLeaves(c *gin.Context) {
	employeeID, err := strconv.ParseInt(c.Query("employee_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee_id"})
		return
	}

	leaves, err := h.store.GetLeaveRequestsByEmployeeID(c.Request.Context(), employeeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list leave requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaves": leaves})
}

// setLeaveStatus approves or rejects a leave request
func (h *Handler) setLeaveStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid leave request ID"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=APPROVED REJECTED"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.store.UpdateLeaveRequestStatus(c.Request.Context(), id, req.Status); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Leave request not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// dashboard returns today's purchase counters and the low-stock board
func (h *Handler) dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	count, revenue, err := h.redis.DailyPurchases(ctx)
	if err != nil {
		h.logger.Warn("Failed to read daily purchase counters", zap.Error(err))
	}

	board, err := h.redis.LowStockBoard(ctx, 20)
	if err != nil {
		h.logger.Warn("Failed to read low-stock board", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"today_purchases": count,
		"today_revenue":   revenue,
		"low_stock":       board,
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
