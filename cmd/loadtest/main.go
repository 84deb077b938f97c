package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Togather-Foundation/localevents/internal/loadtest"
)

func main() {
	defaults := loadtest.DefaultConfig("")
	var (
		baseURL     = flag.String("url", "http://localhost:5000/api", "API base URL of the server to test")
		attendees   = flag.Int("attendees", defaults.Attendees, "Number of users racing for seats")
		capacity    = flag.Int("capacity", defaults.Capacity, "Seats on the raced event")
		concurrency = flag.Int("concurrency", defaults.Concurrency, "Parallel registrations during setup")
	)
	flag.Parse()

	cfg := defaults
	cfg.BaseURL = *baseURL
	cfg.Attendees = *attendees
	cfg.Capacity = *capacity
	cfg.Concurrency = *concurrency

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Racing %d attendees for %d seats at %s\n", cfg.Attendees, cfg.Capacity, cfg.BaseURL)
	stats, err := loadtest.Run(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(stats.Report())
	if stats.Oversold() || !stats.Consistent() {
		os.Exit(2)
	}
}
