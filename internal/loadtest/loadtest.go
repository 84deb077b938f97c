// Package loadtest races many attendees for the last seats of one capped
// event and checks that the server never admits more than the cap.
package loadtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Togather-Foundation/localevents/internal/client"
)

// Config describes one race. The target server must allow Attendees+1
// registrations from this host (disable or raise RATE_LIMIT_LOGIN).
type Config struct {
	BaseURL     string
	Attendees   int
	Capacity    int
	Concurrency int // parallel registrations during setup
	Password    string
	HTTPClient  *http.Client
}

// DefaultConfig returns a small race: 50 attendees for 10 seats.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		Attendees:   50,
		Capacity:    10,
		Concurrency: 8,
		Password:    "loadtest-password",
	}
}

// Statistics records the outcome of every RSVP attempt in a race.
type Statistics struct {
	mu sync.Mutex

	EventID    string
	Capacity   int
	Attempts   int
	Admitted   int
	Full       int
	Rejected   map[int]int // other non-2xx statuses
	Transport  int
	RosterSize int

	responseTimes []int64
	startTime     time.Time
	endTime       time.Time
}

// Oversold reports whether the server admitted more attendees than seats.
func (s *Statistics) Oversold() bool {
	return s.RosterSize > s.Capacity || s.Admitted > s.Capacity
}

// Consistent reports whether the stored roster matches the admitted count.
func (s *Statistics) Consistent() bool {
	return s.RosterSize == s.Admitted
}

// Run registers an organizer, creates an event with cfg.Capacity seats,
// registers cfg.Attendees users and then releases every RSVP at once.
func Run(ctx context.Context, cfg Config) (*Statistics, error) {
	if cfg.Attendees <= 0 || cfg.Capacity <= 0 {
		return nil, errors.New("attendees and capacity must be positive")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	opts := []client.Option{}
	if cfg.HTTPClient != nil {
		opts = append(opts, client.WithHTTPClient(cfg.HTTPClient))
	}
	runID := strings.ToLower(ulid.Make().String())

	organizer := client.New(cfg.BaseURL, nil, opts...)
	if _, err := organizer.Register(ctx, client.Registration{
		Name:     "Load Test Organizer",
		Email:    fmt.Sprintf("organizer-%s@loadtest.invalid", runID),
		Password: cfg.Password,
		Role:     "organizer",
	}); err != nil {
		return nil, fmt.Errorf("register organizer: %w", err)
	}

	capacity := cfg.Capacity
	event, err := organizer.CreateEvent(ctx, client.NewEvent{
		Title:        "Load test " + runID,
		Description:  "Capacity race",
		Date:         time.Now().Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339),
		Location:     "Load Test Hall",
		MaxAttendees: &capacity,
	})
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	attendees := make([]*client.Client, cfg.Attendees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i := range attendees {
		g.Go(func() error {
			c := client.New(cfg.BaseURL, nil, opts...)
			_, err := c.Register(gctx, client.Registration{
				Name:     fmt.Sprintf("Attendee %d", i+1),
				Email:    fmt.Sprintf("attendee-%d-%s@loadtest.invalid", i+1, runID),
				Password: cfg.Password,
			})
			if err != nil {
				return fmt.Errorf("register attendee %d: %w", i+1, err)
			}
			attendees[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Statistics{
		EventID:  event.ID,
		Capacity: cfg.Capacity,
		Attempts: cfg.Attendees,
		Rejected: make(map[int]int),
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	for _, attendee := range attendees {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			begin := time.Now()
			_, err := attendee.RSVP(ctx, event.ID)
			stats.record(err, time.Since(begin).Milliseconds())
		}()
	}
	stats.startTime = time.Now()
	close(start)
	wg.Wait()
	stats.endTime = time.Now()

	roster, err := organizer.Attendees(ctx, event.ID)
	if err != nil {
		return stats, fmt.Errorf("read roster: %w", err)
	}
	stats.RosterSize = len(roster)
	return stats, nil
}

func (s *Statistics) record(err error, durationMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.responseTimes = append(s.responseTimes, durationMs)
	switch status := client.StatusOf(err); {
	case err == nil:
		s.Admitted++
	case status == http.StatusBadRequest && err.Error() == "Event is full":
		s.Full++
	case status != 0:
		s.Rejected[status]++
	default:
		s.Transport++
	}
}

// Report generates a summary of the race.
func (s *Statistics) Report() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report bytes.Buffer
	report.WriteString("\n")
	report.WriteString("═══════════════════════════════════════════════════════════════\n")
	report.WriteString("                    RSVP RACE RESULTS                           \n")
	report.WriteString("═══════════════════════════════════════════════════════════════\n\n")

	report.WriteString(fmt.Sprintf("Event:           %s\n", s.EventID))
	report.WriteString(fmt.Sprintf("Duration:        %s\n", s.endTime.Sub(s.startTime).Round(time.Millisecond)))
	report.WriteString(fmt.Sprintf("Capacity:        %d\n", s.Capacity))
	report.WriteString(fmt.Sprintf("Attempts:        %d\n", s.Attempts))
	report.WriteString(fmt.Sprintf("Admitted:        %d\n", s.Admitted))
	report.WriteString(fmt.Sprintf("Event is full:   %d\n", s.Full))
	report.WriteString(fmt.Sprintf("Transport errs:  %d\n", s.Transport))
	report.WriteString(fmt.Sprintf("Roster size:     %d\n\n", s.RosterSize))

	if len(s.responseTimes) > 0 {
		report.WriteString("Response Times (ms):\n")
		report.WriteString(fmt.Sprintf("  p50:      %d\n", calculatePercentile(s.responseTimes, 0.50)))
		report.WriteString(fmt.Sprintf("  p95:      %d\n", calculatePercentile(s.responseTimes, 0.95)))
		report.WriteString(fmt.Sprintf("  p99:      %d\n\n", calculatePercentile(s.responseTimes, 0.99)))
	}

	if len(s.Rejected) > 0 {
		codes := make([]int, 0, len(s.Rejected))
		for code := range s.Rejected {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		report.WriteString("Other Errors by Status Code:\n")
		for _, code := range codes {
			report.WriteString(fmt.Sprintf("  %d: %d\n", code, s.Rejected[code]))
		}
		report.WriteString("\n")
	}

	switch {
	case s.RosterSize > s.Capacity || s.Admitted > s.Capacity:
		report.WriteString("Verdict:         OVERSOLD\n")
	case s.RosterSize != s.Admitted:
		report.WriteString("Verdict:         ROSTER MISMATCH\n")
	default:
		report.WriteString("Verdict:         OK\n")
	}
	report.WriteString("═══════════════════════════════════════════════════════════════\n")
	return report.String()
}

func calculatePercentile(times []int64, percentile float64) int64 {
	if len(times) == 0 {
		return 0
	}

	sorted := make([]int64, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * percentile)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
