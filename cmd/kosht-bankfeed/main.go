// kosht-bankfeed publishes a single bank transaction message to the sync
// queue. It stands in for the bank connector during local development, so
// the worker's ingestion path can be driven without a real bank feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"kosht/internal/amqp"
	"kosht/internal/config"
)

func main() {
	userID := flag.Int64("user", 0, "user id the movement belongs to")
	amount := flag.String("amount", "", "signed decimal amount, negative for money out")
	currency := flag.String("currency", "", "3-letter ISO code (defaults to DEFAULT_CURRENCY)")
	description := flag.String("description", "", "bank statement description")
	externalID := flag.String("external-id", "", "bank-side transaction id (defaults to a random id)")
	occurredAt := flag.String("occurred-at", "", "RFC 3339 timestamp of the movement (defaults to now)")
	flag.Parse()

	if *userID == 0 || *amount == "" || *description == "" {
		flag.Usage()
		log.Fatalf("-user, -amount and -description are required")
	}

	_ = godotenv.Load()
	cfg := config.Load()

	when := time.Now().UTC()
	if *occurredAt != "" {
		parsed, err := time.Parse(time.RFC3339, *occurredAt)
		if err != nil {
			log.Fatalf("parse -occurred-at: %v", err)
		}
		when = parsed
	}
	if *externalID == "" {
		*externalID = uuid.NewString()
	}
	if *currency == "" {
		*currency = cfg.DefaultCurrency
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		log.Fatalf("connect AMQP: %v", err)
	}
	defer client.Close()

	msg := amqp.NewBankTransactionMessage(*externalID, *userID, *amount, *currency, *description, when)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.PublishBankTransaction(ctx, msg); err != nil {
		log.Fatalf("publish: %v", err)
	}

	fmt.Printf("Published transaction %s (message %s)\n", msg.ExternalID, msg.MessageID)
}
