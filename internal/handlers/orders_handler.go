package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/DrewGalowayDev/Awesome/internal/idempotency"
	"github.com/DrewGalowayDev/Awesome/internal/invoice"
	"github.com/DrewGalowayDev/Awesome/internal/orders"
	"github.com/DrewGalowayDev/Awesome/internal/validation"
)

// Idempotency scopes.
const (
	scopeCheckout = "checkout"
	scopePayment  = "payment"
)

func (s *server) registerOrders(g *gin.RouterGroup) {
	g.POST("", s.createOrder)
	g.GET("", s.myOrders)
	g.GET("/:id", s.getOrder)
	g.PUT("/:id/cancel", s.cancelOrder)
	g.GET("/:id/invoice", s.orderInvoice)
}

// readBody returns the raw request body and rewinds it for binding.
func readBody(c *gin.Context) ([]byte, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, nil
}

// replay answers a request whose idempotency key was already used.
func replay(c *gin.Context, rec *idempotency.Record, requestHash string) {
	if !rec.Matches(requestHash) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": "idempotency_key_reused", "message": "Idempotency-Key was used with a different request"})
		return
	}
	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" {
			if json.Valid([]byte(rec.ResponseBody)) {
				c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
				return
			}
			c.JSON(rec.ResponseStatus, gin.H{"response": rec.ResponseBody})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "order_id": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "request already in progress", "order_id": rec.OrderID})
	case idempotency.StatusFailed:
		// let client retry with a new key
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "previous_attempt_failed", "order_id": rec.OrderID})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "unknown_idempotency_status"})
	}
}

func (s *server) createOrder(c *gin.Context) {
	ctx := c.Request.Context()
	id := identity(c)

	// Require idempotency key header
	idempKey := c.GetHeader("Idempotency-Key")
	if idempKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing_idempotency_key"})
		return
	}

	raw, err := readBody(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "Unreadable request body")
		return
	}
	// keys are per user so one customer cannot replay another's order
	scopedKey := id.UserID + ":" + idempKey
	requestHash := idempotency.HashRequest(raw)

	if rec, err := s.Idempotency.Get(ctx, scopedKey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "idempotency_check_failed", "detail": err.Error()})
		return
	} else if rec != nil {
		replay(c, rec, requestHash)
		return
	}

	// Bind + validate request
	var req validation.CreateOrderRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		// BindAndValidate already wrote a 400
		return
	}

	store := s.cartFor(c)
	requested := req.Items
	if len(requested) == 0 {
		for _, it := range store.Items() {
			requested = append(requested, validation.OrderItem{ProductID: it.ID, Quantity: it.Quantity})
		}
	}
	if len(requested) == 0 {
		fail(c, http.StatusBadRequest, "Your cart is empty")
		return
	}

	// prices are taken from the catalog, never from the client
	items := make([]orders.LineItem, 0, len(requested))
	for _, it := range requested {
		p, err := s.Products.Get(ctx, it.ProductID)
		if err != nil {
			s.internalError(c, "order product lookup", err)
			return
		}
		if p == nil {
			fail(c, http.StatusBadRequest, fmt.Sprintf("Product %s not found", it.ProductID))
			return
		}
		items = append(items, orders.LineItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			Price:       p.Price,
		})
	}

	now := s.NowFunc().UTC()
	orderID := uuid.NewString()
	addr := req.ShippingAddress
	order := orders.Order{
		OrderID:          orderID,
		OrderNumber:      orders.NewOrderNumber(now),
		UserID:           id.UserID,
		CustomerName:     addr.Name,
		Items:            items,
		TotalAmount:      orders.Total(items),
		Status:           orders.StatusPending,
		PaymentStatus:    orders.PaymentUnpaid,
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentCode,
		ShippingAddress: orders.Address{
			Name:       addr.Name,
			Phone:      addr.Phone,
			Line1:      addr.Line1,
			Line2:      addr.Line2,
			City:       addr.City,
			County:     addr.County,
			PostalCode: addr.PostalCode,
			Notes:      addr.Notes,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	idempItem := s.Idempotency.NewRecord(scopedKey, scopeCheckout, requestHash, orderID)

	// Attempt the transact write to create idempotency + order atomically
	err = s.Orders.CreateWithIdempotencyTransaction(ctx, s.Idempotency.TableName(), idempItem, order, s.Idempotency.TTL())
	if errors.Is(err, orders.ErrIdempotencyConflict) {
		// a concurrent request with the same key won the race
		rec, getErr := s.Idempotency.Get(ctx, scopedKey)
		if getErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "idempotency_check_failed", "detail": getErr.Error()})
			return
		}
		if rec == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "transaction_failed_no_idempotency_record", "detail": err.Error()})
			return
		}
		replay(c, rec, requestHash)
		return
	}
	if err != nil {
		s.internalError(c, "create order", err)
		return
	}

	// Order stored; enqueue the notification. A failed send marks the key FAILED.
	event := orders.CreatedEvent{
		OrderID:        orderID,
		IdempotencyKey: scopedKey,
		CorrelationID:  c.GetHeader("X-Correlation-Id"),
	}
	attrs := map[string]string{
		"idempotency_key": scopedKey,
		"order_id":        orderID,
		"correlation_id":  event.CorrelationID,
	}
	if err := s.Publisher.Publish(ctx, event, attrs); err != nil {
		_ = s.Idempotency.MarkFailed(ctx, scopedKey, fmt.Sprintf("sqs_send_failed: %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "enqueue_failed", "detail": err.Error()})
		return
	}

	store.Clear(ctx)

	body := gin.H{"success": true, "message": "Order created successfully", "order": order}
	responseBody, _ := json.Marshal(body)
	if err := s.Idempotency.MarkDone(ctx, scopedKey, string(responseBody), http.StatusCreated); err != nil {
		s.Logger.Printf("[handlers] mark idempotency done failed key=%s err=%v", scopedKey, err)
	}
	s.Logger.Printf("[handlers] order created order_id=%s number=%s user_id=%s total=%.2f", orderID, order.OrderNumber, id.UserID, order.TotalAmount)

	c.Header("Location", fmt.Sprintf("/api/orders/%s", orderID))
	c.Data(http.StatusCreated, "application/json", responseBody)
}

func (s *server) myOrders(c *gin.Context) {
	list, err := s.Orders.ListByUser(c.Request.Context(), identity(c).UserID)
	if err != nil {
		s.internalError(c, "list orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "orders": list})
}

// ownOrder loads an order visible to the caller: their own, or any for admins.
func (s *server) ownOrder(c *gin.Context) (*orders.Order, bool) {
	o, err := s.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.internalError(c, "get order", err)
		return nil, false
	}
	id := identity(c)
	if o == nil || (o.UserID != id.UserID && !id.IsAdmin()) {
		fail(c, http.StatusNotFound, "Order not found")
		return nil, false
	}
	return o, true
}

func (s *server) getOrder(c *gin.Context) {
	o, ok := s.ownOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func (s *server) cancelOrder(c *gin.Context) {
	current, ok := s.ownOrder(c)
	if !ok {
		return
	}
	o, err := s.Orders.Cancel(c.Request.Context(), current.OrderID, current.UserID)
	if errors.Is(err, orders.ErrStatusMismatch) {
		fail(c, http.StatusBadRequest, "Order cannot be cancelled")
		return
	}
	if err != nil {
		s.internalError(c, "cancel order", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order cancelled", "order": o})
}

func (s *server) orderInvoice(c *gin.Context) {
	o, ok := s.ownOrder(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := invoice.Render(&buf, *o); err != nil {
		s.internalError(c, "render invoice", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%s.pdf"`, o.OrderNumber))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
