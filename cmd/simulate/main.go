package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// simulate hammers one slot with concurrent booking attempts. The engine's
// whole job is that exactly one of them wins; this tool makes that visible
// against a running api-server.

type SimConfig struct {
	APIBaseURL string
	ServiceID  string
	StartTime  string
	Workers    int
}

type Metrics struct {
	Total     int64
	Created   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	Latencies []time.Duration
}

func (m *Metrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&m.Total, 1)
	switch status {
	case http.StatusCreated:
		atomic.AddInt64(&m.Created, 1)
	case http.StatusConflict:
		atomic.AddInt64(&m.Conflict, 1)
	default:
		atomic.AddInt64(&m.Error, 1)
	}

	m.mu.Lock()
	m.Latencies = append(m.Latencies, latency)
	m.mu.Unlock()
}

func (m *Metrics) Stats() (avg, max, p95 time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(m.Latencies))
	copy(latencies, m.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	max = latencies[len(latencies)-1]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, max, p95
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if cfg.ServiceID == "" || cfg.StartTime == "" {
		log.Fatal("SERVICE_ID and START_TIME are required")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	metrics := &Metrics{}

	body, err := json.Marshal(map[string]any{
		"service_id":   cfg.ServiceID,
		"start_time":   cfg.StartTime,
		"client_name":  "Race Tester",
		"client_email": "race@example.com",
	})
	if err != nil {
		log.Fatalf("marshal request: %v", err)
	}

	log.Printf("firing %d concurrent booking attempts for %s", cfg.Workers, cfg.StartTime)

	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			began := time.Now()
			status, err := postBooking(client, cfg.APIBaseURL, body)
			if err != nil {
				log.Printf("request error: %v", err)
				metrics.Record(time.Since(began), 0)
				return
			}
			metrics.Record(time.Since(began), status)
		}()
	}

	close(start)
	wg.Wait()

	avg, max, p95 := metrics.Stats()
	fmt.Printf("\nresults for %d attempts on the same slot:\n", metrics.Total)
	fmt.Printf("  created:   %d (must be exactly 1 on a free slot)\n", metrics.Created)
	fmt.Printf("  conflict:  %d\n", metrics.Conflict)
	fmt.Printf("  error:     %d\n", metrics.Error)
	fmt.Printf("  latency:   avg=%s p95=%s max=%s\n", avg, p95, max)

	if metrics.Created > 1 {
		log.Fatal("DOUBLE BOOKING DETECTED: more than one attempt was confirmed")
	}
}

func postBooking(client *http.Client, baseURL string, body []byte) (int, error) {
	resp, err := client.Post(baseURL+"/bookings", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func loadConfig() SimConfig {
	workers := 20
	if v := os.Getenv("WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		}
	}

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}

	return SimConfig{
		APIBaseURL: baseURL,
		ServiceID:  os.Getenv("SERVICE_ID"),
		StartTime:  os.Getenv("START_TIME"),
		Workers:    workers,
	}
}
