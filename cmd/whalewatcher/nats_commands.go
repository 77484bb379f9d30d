package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/urfave/cli/v2"

	natspkg "github.com/squidish/solana-whale-watcher/service/nats"
)

// subscribeCommand streams published whale events from JetStream.
func subscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Subscribe to published whale events",
		ArgsUsage: "[account]",
		Description: `Subscribe to whale events published to NATS JetStream.

Events are published to the subject: whales.{account}. Without an account
argument, all whale events are streamed.

Example:
  whalewatcher nats subscribe CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM --json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server URL",
				EnvVars: []string{"NATS_URL"},
				Value:   "nats://localhost:4222",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output events as JSON (one per line)",
			},
			&cli.BoolFlag{
				Name:    "durable",
				Aliases: []string{"d"},
				Usage:   "Create a durable consumer (survives restarts)",
			},
			&cli.StringFlag{
				Name:  "consumer-name",
				Usage: "Consumer name (required for durable)",
				Value: "whalewatcher-cli",
			},
		},
		Action: func(c *cli.Context) error {
			account := c.Args().First()
			return streamWhaleEvents(account, c.String("nats-url"), c.Bool("durable"), c.String("consumer-name"), c.Bool("json"))
		},
	}
}

// streamWhaleEvents connects to NATS and streams whale events until interrupted.
func streamWhaleEvents(account, natsURL string, durable bool, consumerName string, jsonOutput bool) error {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	subject := natspkg.StreamSubjects
	if account != "" {
		subject = fmt.Sprintf("whales.%s", account)
	}

	if !jsonOutput {
		fmt.Printf("Subscribing to: %s\n", subject)
		fmt.Printf("NATS: %s\n", natsURL)
		fmt.Printf("\nWaiting for whale events... (Ctrl-C to exit)\n\n")
	}

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if durable {
		consumerConfig.Durable = consumerName
		consumerConfig.Name = consumerName
	}

	cons, err := js.CreateOrUpdateConsumer(context.Background(), natspkg.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgChan := make(chan jetstream.Msg, 10)
	go func() {
		_, _ = cons.Consume(func(msg jetstream.Msg) {
			msgChan <- msg
		})
	}()

	count := 0
	for {
		select {
		case msg := <-msgChan:
			var event natspkg.WhaleEvent
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing event: %v\n", err)
				msg.Ack()
				continue
			}

			count++

			if jsonOutput {
				data, _ := json.Marshal(event)
				fmt.Println(string(data))
			} else {
				fmt.Printf("Whale event #%d\n", count)
				fmt.Printf("  Account:    %s\n", event.Account)
				fmt.Printf("  Delta:      %.9f SOL (%d lamports)\n", event.DeltaSOL, event.DeltaLamports)
				fmt.Printf("  Direction:  %s\n", event.Direction)
				fmt.Printf("  Reason:     %s\n", event.Reason)
				fmt.Printf("  Signature:  %s\n", event.Signature)
				fmt.Printf("  Slot:       %d\n", event.Slot)
				fmt.Printf("  Published:  %s\n\n", event.PublishedAt.Format(time.RFC3339))
			}

			msg.Ack()

		case <-sigChan:
			if !jsonOutput {
				fmt.Printf("\nReceived %d whale event(s)\n", count)
			}
			return nil
		}
	}
}
