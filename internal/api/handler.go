package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/service"
	"fulfillment-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService   *service.OrderService
	kitchenService *service.KitchenService
	dayService     *service.DayService
	queueService   *service.QueueService
	printService   *service.PrintService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orderService *service.OrderService,
	kitchenService *service.KitchenService,
	dayService *service.DayService,
	queueService *service.QueueService,
	printService *service.PrintService,
) *Handler {
	return &Handler{
		orderService:   orderService,
		kitchenService: kitchenService,
		dayService:     dayService,
		queueService:   queueService,
		printService:   printService,
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
		v1.POST("/orders", h.createOrder)
		v1.POST("/pre-orders", h.importPreOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/pay", h.payOrder)
		v1.POST("/orders/:id/prepare", h.prepareOrder)
		v1.POST("/orders/:id/pickup", h.pickupOrder)
		v1.POST("/orders/:id/cancel", h.cancelOrder)
		v1.POST("/orders/:id/items/:itemID/confirm", h.confirmItem)
		v1.POST("/orders/:id/stations/:stationID/complete", h.completeStation)
		v1.POST("/orders/:id/stations/:stationID/reopen", h.reopenStation)

		v1.GET("/areas/:id/orders", h.listAreaOrders)
		v1.GET("/stations/:id/orders", h.listStationOrders)

		v1.POST("/areas/:id/display-number", h.nextDisplayNumber)

		v1.POST("/days", h.openDay)
		v1.POST("/days/:id/close", h.closeDay)
		v1.GET("/organizations/:id/days/current", h.currentDay)

		v1.GET("/areas/:id/queue", h.queueState)
		v1.POST("/areas/:id/queue/call-next", h.callNext)
		v1.POST("/areas/:id/queue/call", h.callSpecific)
		v1.POST("/areas/:id/queue/reset", h.resetQueue)
		v1.POST("/areas/:id/queue/respeak", h.respeak)

		v1.GET("/stations/:id", h.getStation)

		v1.GET("/areas/:id/print-jobs", h.listPrintJobs)
		v1.GET("/print-jobs/:id", h.getPrintJob)
		v1.POST("/printers/:id/test", h.testPrint)
		v1.POST("/print-jobs/:id/retry", h.retryPrintJob)
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

// createOrder handles staff order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// importPreOrder handles external pre-order import
func (h *Handler) importPreOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orderService.ImportPreOrder(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, items, stations, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":    order,
		"items":    items,
		"stations": stations,
	})
}

type payRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// payOrder confirms payment for an order
func (h *Handler) payOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orderService.MarkPaid(c.Request.Context(), orderID, req.PaymentMethod)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// prepareOrder sends a paid order to the kitchen
func (h *Handler) prepareOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.StartPreparing(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// pickupOrder confirms customer pickup
func (h *Handler) pickupOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.CompletePickup(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// cancelOrder cancels an order
func (h *Handler) cancelOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type confirmItemRequest struct {
	Confirmed *bool `json:"confirmed" binding:"required"`
}

// confirmItem toggles an order item's confirmation
func (h *Handler) confirmItem(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}

	var req confirmItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	item, err := h.kitchenService.ToggleItem(c.Request.Context(), orderID, itemID, *req.Confirmed)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// completeStation marks a station done for an order
func (h *Handler) completeStation(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	stationID, ok := pathID(c, "stationID")
	if !ok {
		return
	}

	order, ready, err := h.kitchenService.CompleteStation(c.Request.Context(), orderID, stationID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"ready": ready,
	})
}

// reopenStation clears a station's completion
func (h *Handler) reopenStation(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	stationID, ok := pathID(c, "stationID")
	if !ok {
		return
	}

	if err := h.kitchenService.ReopenStation(c.Request.Context(), orderID, stationID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listAreaOrders retrieves active orders of an area
func (h *Handler) listAreaOrders(c *gin.Context) {
	areaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	orders, err := h.orderService.ListActiveOrders(c.Request.Context(), areaID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// listStationOrders retrieves the KDS board feed of a station
func (h *Handler) listStationOrders(c *gin.Context) {
	stationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	orders, err := h.kitchenService.StationOrders(c.Request.Context(), stationID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// nextDisplayNumber draws the next display number for an area against
// the open day
func (h *Handler) nextDisplayNumber(c *gin.Context) {
	areaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	number, err := h.dayService.NextDisplayNumber(c.Request.Context(), areaID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"display_number": number})
}

type openDayRequest struct {
	OrgID int64  `json:"org_id" binding:"required"`
	Actor string `json:"actor" binding:"required"`
}

// openDay opens an operational day
func (h *Handler) openDay(c *gin.Context) {
	var req openDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	day, err := h.dayService.OpenDay(c.Request.Context(), req.OrgID, req.Actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, day)
}

type closeDayRequest struct {
	Actor string `json:"actor" binding:"required"`
}

// closeDay closes an operational day
func (h *Handler) closeDay(c *gin.Context) {
	dayID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req closeDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	day, err := h.dayService.CloseDay(c.Request.Context(), dayID, req.Actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// currentDay retrieves the open day of an organization
func (h *Handler) currentDay(c *gin.Context) {
	orgID, ok := pathID(c, "id")
	if !ok {
		return
	}

	day, err := h.dayService.CurrentDay(c.Request.Context(), orgID)
	if err != nil {
		writeError(c, err)
		return
	}
	if day == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No open day"})
		return
	}
	c.JSON(http.StatusOK, day)
}

// queueState retrieves the queue state of an area
func (h *Handler) queueState(c *gin.Context) {
	areaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	state, err := h.queueService.State(c.Request.Context(), areaID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type stationRequest struct {
	StationID int64 `json:"station_id" binding:"required"`
}

// callNext calls the next walk-up ticket
func (h *Handler) callNext(c *gin.Context) {
	areaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req stationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	state, err := h.queueService.CallNext(c.Request.Context(), areaID, req.StationID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type callSpecificRequest struct {
	StationID int64 `json:"station_id" binding:"required"`
	Number    int64 `json:"number" binding:"required"`
}

// callSpecific re-calls a specific ticket number
func (h *Handler) callSpecific(c *gin.Context) {
	areaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req callSpecificRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	state, err := h.queueService.CallSpecific(c.Request.Context(), areaID, req.StationID, req.Number)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type resetQueueRequest struct {
	StartNumber int64 `json:"start_number" binding:"required"`
}

// resetQueue resets the area's ticket counter
func (h *Handler) resetQueue(c *gin.Context) {
	areaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req resetQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	state, err := h.queueService.Reset(c.Request.Context(), areaID, req.StartNumber)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// respeak re-announces the last-called ticket
func (h *Handler) respeak(c *gin.Context) {
	areaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req stationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	state, err := h.queueService.Respeak(c.Request.Context(), areaID, req.StationID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// getStation retrieves a station with its category assignments
func (h *Handler) getStation(c *gin.Context) {
	stationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	station, err := h.kitchenService.Station(c.Request.Context(), stationID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, station)
}

// getPrintJob retrieves a print job by ID
func (h *Handler) getPrintJob(c *gin.Context) {
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}

	job, err := h.printService.GetJob(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// listPrintJobs retrieves an area's print jobs by status
func (h *Handler) listPrintJobs(c *gin.Context) {
	areaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	status := c.DefaultQuery("status", models.PrintJobStatusFailed)
	jobs, err := h.printService.ListJobs(c.Request.Context(), areaID, status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// testPrint enqueues a printer test job
func (h *Handler) testPrint(c *gin.Context) {
	printerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	job, err := h.printService.EnqueueTestPrint(c.Request.Context(), printerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// retryPrintJob manually retries a print job
func (h *Handler) retryPrintJob(c *gin.Context) {
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}

	job, err := h.printService.Retry(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// pathID parses an int64 path parameter, writing a 400 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// writeError maps the domain error kinds to HTTP statuses.
func writeError(c *gin.Context, err error) {
	var (
		conflict     *models.ConflictError
		notFound     *models.NotFoundError
		invalidState *models.InvalidStateError
		validation   *models.ValidationError
		dispatch     *models.DispatchError
	)

	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &invalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &dispatch):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "details": err.Error()})
	}
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
