package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/vietddude/crmsync/internal/core/config"
	"github.com/vietddude/crmsync/internal/infra/storage/postgres"
)

// Re-publishes pending dead letters to the main topic so the consumer
// picks them up again. The idempotency guard suppresses anything that
// was already delivered in the meantime.
func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to configuration file")
	limit := flag.Int("limit", 100, "Maximum number of dead letters to replay")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		fmt.Fprintln(os.Stderr, "replay requires database.url to be configured")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := postgres.NewDeadLetterRepo(db)
	letters, err := repo.ListPending(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list pending: %v\n", err)
		os.Exit(1)
	}
	if len(letters) == 0 {
		fmt.Println("No pending dead letters")
		return
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Broker.Brokers...),
		Topic:        cfg.Broker.Topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
		WriteTimeout: 10 * time.Second,
	}
	defer writer.Close()

	replayed := 0
	for _, letter := range letters {
		value := letter.Raw
		if len(value) == 0 && letter.Event != nil {
			value, err = json.Marshal(letter.Event)
			if err != nil {
				fmt.Fprintf(os.Stderr, "encode %s: %v\n", letter.ID, err)
				continue
			}
		}
		if len(value) == 0 {
			fmt.Fprintf(os.Stderr, "skip %s: no payload\n", letter.ID)
			continue
		}

		var key []byte
		if letter.Event != nil {
			key = []byte(letter.Event.EventID)
		}

		if err := writer.WriteMessages(ctx, kafkago.Message{Key: key, Value: value}); err != nil {
			fmt.Fprintf(os.Stderr, "publish %s: %v\n", letter.ID, err)
			continue
		}
		if err := repo.MarkReplayed(ctx, letter.ID); err != nil {
			fmt.Fprintf(os.Stderr, "mark replayed %s: %v\n", letter.ID, err)
			continue
		}
		replayed++
	}

	fmt.Printf("Replayed %d/%d dead letters to %s\n", replayed, len(letters), cfg.Broker.Topic)
}
