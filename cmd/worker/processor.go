package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/DrewGalowayDev/Awesome/internal/notify"
	"github.com/DrewGalowayDev/Awesome/internal/orders"
)

// OrderStore is the part of the orders table the worker touches.
type OrderStore interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	RecordNotification(ctx context.Context, orderID, link string) error
}

// MetricsRecorder counts notified orders.
type MetricsRecorder interface {
	OrderNotified(ctx context.Context, paymentMethod string, amount float64) error
}

// Processor turns order created events into a recorded chat deep link that
// carries the formatted order message to the store's order line.
type Processor struct {
	orders      OrderStore
	metrics     MetricsRecorder
	host        string
	destination string
}

// NewProcessor creates a worker processor. metrics may be nil.
func NewProcessor(store OrderStore, metrics MetricsRecorder, host, destination string) *Processor {
	if destination == "" {
		destination = notify.DefaultDestination
	}
	return &Processor{orders: store, metrics: metrics, host: host, destination: destination}
}

// Handle processes an SQS batch. Failed messages are reported individually so
// only they are redelivered; after the queue's max receives they go to the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			log.Printf("[worker] message failed message_id=%s err=%v", rec.MessageId, err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg orders.CreatedEvent
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.OrderID == "" {
		return errors.New("invalid message body: missing order_id")
	}

	log.Printf("[worker] received order=%s idempotency_key=%s corr=%s",
		msg.OrderID, msg.IdempotencyKey, msg.CorrelationID)

	order, err := p.orders.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %s", msg.OrderID)
	}

	link := notify.DeepLink(p.host, p.destination, notify.FormatOrder(notify.OrderSummary(*order)))
	err = p.orders.RecordNotification(ctx, order.OrderID, link)
	if errors.Is(err, orders.ErrAlreadyNotified) {
		// redelivered message
		log.Printf("[worker] duplicate event for order=%s", order.OrderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	if p.metrics != nil {
		if err := p.metrics.OrderNotified(ctx, order.PaymentMethod, order.TotalAmount); err != nil {
			log.Printf("[worker] metrics failed order=%s err=%v", order.OrderID, err)
		}
	}

	log.Printf("[worker] notified order=%s number=%s total=%.2f", order.OrderID, order.OrderNumber, order.TotalAmount)
	return nil
}
