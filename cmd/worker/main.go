package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/DrewGalowayDev/Awesome/internal/aws"
	"github.com/DrewGalowayDev/Awesome/internal/config"
	"github.com/DrewGalowayDev/Awesome/internal/orders"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[worker] config: %v", err)
	}

	clients, err := aws.NewClients(context.Background())
	if err != nil {
		log.Fatalf("[worker] aws clients: %v", err)
	}

	p := NewProcessor(
		orders.NewStore(clients.DynamoDB, cfg.Tables.Orders),
		aws.NewMetrics(clients.CloudWatch, cfg.Metrics.Namespace),
		cfg.Notify.Host,
		cfg.Notify.Destination,
	)

	// RUN_LOCAL replays one order event from LOCAL_ORDER_EVENT (or a
	// placeholder) through the processor instead of starting the Lambda loop.
	if cfg.Server.RunLocal {
		body := os.Getenv("LOCAL_ORDER_EVENT")
		if body == "" {
			body = `{"order_id":"local-order-1","idempotency_key":"local-user:local-key-1"}`
		}
		resp, err := p.Handle(context.Background(), events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-1", Body: body}},
		})
		if err != nil {
			log.Fatalf("[worker] local run failed: %v", err)
		}
		if n := len(resp.BatchItemFailures); n > 0 {
			log.Fatalf("[worker] local run: %d message(s) failed", n)
		}
		return
	}

	lambda.Start(p.Handle)
}
