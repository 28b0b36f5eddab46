package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DrewGalowayDev/Awesome/internal/idempotency"
	"github.com/DrewGalowayDev/Awesome/internal/payments"
	"github.com/DrewGalowayDev/Awesome/internal/validation"
)

func (s *server) registerPayments(g *gin.RouterGroup, admin gin.HandlerFunc) {
	g.GET("/methods", s.paymentMethods)
	g.POST("/confirm", admin, s.confirmPayment)
}

func (s *server) paymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "methods": payments.Methods()})
}

// confirmPayment marks an order paid. With an Idempotency-Key header a
// repeated confirmation replays the first response.
func (s *server) confirmPayment(c *gin.Context) {
	ctx := c.Request.Context()
	raw, err := readBody(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "Unreadable request body")
		return
	}
	var req validation.ConfirmPaymentRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}

	key := c.GetHeader("Idempotency-Key")
	if key != "" {
		key = scopePayment + ":" + key
		hash := idempotency.HashRequest(raw)
		created, err := s.Idempotency.CreateIfNotExists(ctx, s.Idempotency.NewRecord(key, scopePayment, hash, req.OrderID))
		if err != nil {
			s.internalError(c, "payment idempotency", err)
			return
		}
		if !created {
			rec, err := s.Idempotency.Get(ctx, key)
			if err != nil || rec == nil {
				s.internalError(c, "payment idempotency lookup", errors.Join(err, errors.New("record vanished")))
				return
			}
			replay(c, rec, hash)
			return
		}
	}

	o, err := s.Payments.Confirm(ctx, req.OrderID, req.Reference)
	switch {
	case errors.Is(err, payments.ErrOrderNotFound):
		s.finishPayment(c, key, http.StatusNotFound, gin.H{"success": false, "message": "Order not found"})
	case errors.Is(err, payments.ErrNotVerified):
		s.finishPayment(c, key, http.StatusBadRequest, gin.H{"success": false, "message": "Payment not completed"})
	case err != nil:
		if key != "" {
			_ = s.Idempotency.MarkFailed(ctx, key, err.Error())
		}
		s.internalError(c, "confirm payment", err)
	default:
		s.finishPayment(c, key, http.StatusOK, gin.H{"success": true, "message": "Payment confirmed", "order": o})
	}
}

func (s *server) finishPayment(c *gin.Context, key string, status int, body gin.H) {
	data, _ := json.Marshal(body)
	if key != "" {
		if err := s.Idempotency.MarkDone(c.Request.Context(), key, string(data), status); err != nil {
			s.Logger.Printf("[handlers] mark idempotency done failed key=%s err=%v", key, err)
		}
	}
	c.Data(status, "application/json", data)
}
