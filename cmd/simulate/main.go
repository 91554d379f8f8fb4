package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SimConfig drives the load mix against a running api-server.
type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	Doctors      int
	BookingRatio float64
	WalkInRatio  float64
	StatusRatio  float64
	// remainder of the mix is split between emergencies and no-shows
}

// TokenPool is the thread-safe set of tokens the simulator has created.
type TokenPool struct {
	mu     sync.RWMutex
	tokens []int64
}

func (p *TokenPool) Add(token int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, token)
}

func (p *TokenPool) Random() (int64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.tokens) == 0 {
		return 0, false
	}
	return p.tokens[rand.Intn(len(p.tokens))], true
}

type counters struct {
	booked      atomic.Int64
	walkIns     atomic.Int64
	emergencies atomic.Int64
	noShows     atomic.Int64
	statusReads atomic.Int64
	conflicts   atomic.Int64
	errors      atomic.Int64
}

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "simulate").Logger()

	cfg := loadSimConfig()
	log.Info().
		Str("base_url", cfg.APIBaseURL).
		Int("workers", cfg.Workers).
		Int("doctors", cfg.Doctors).
		Dur("duration", cfg.Duration).
		Msg("simulation starting")

	gofakeit.Seed(time.Now().UnixNano())

	doctors := make([]uuid.UUID, cfg.Doctors)
	for i := range doctors {
		doctors[i] = uuid.New()
	}

	pool := &TokenPool{}
	stats := &counters{}
	client := &http.Client{Timeout: 5 * time.Second}

	deadline := time.Now().Add(cfg.Duration)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				runOne(client, cfg, doctors, pool, stats)
			}
		}()
	}
	wg.Wait()

	log.Info().
		Int64("booked", stats.booked.Load()).
		Int64("walk_ins", stats.walkIns.Load()).
		Int64("emergencies", stats.emergencies.Load()).
		Int64("no_shows", stats.noShows.Load()).
		Int64("status_reads", stats.statusReads.Load()).
		Int64("conflicts", stats.conflicts.Load()).
		Int64("errors", stats.errors.Load()).
		Msg("simulation complete")
}

func runOne(client *http.Client, cfg SimConfig, doctors []uuid.UUID, pool *TokenPool, stats *counters) {
	doctor := doctors[rand.Intn(len(doctors))]
	roll := rand.Float64()

	switch {
	case roll < cfg.BookingRatio:
		at := time.Now().Add(time.Duration(rand.Intn(8)) * time.Hour).Truncate(time.Minute)
		body := map[string]any{
			"patient_name":  gofakeit.Name(),
			"patient_phone": gofakeit.Phone(),
			"doctor_id":     doctor.String(),
			"time":          at.Format(time.RFC3339),
		}
		token, ok := post(client, cfg.APIBaseURL+"/appointments", body, stats)
		if ok {
			stats.booked.Add(1)
			pool.Add(token)
		}

	case roll < cfg.BookingRatio+cfg.WalkInRatio:
		body := map[string]any{
			"patient_name": gofakeit.Name(),
			"doctor_id":    doctor.String(),
		}
		token, ok := post(client, cfg.APIBaseURL+"/walk-ins", body, stats)
		if ok {
			stats.walkIns.Add(1)
			pool.Add(token)
		}

	case roll < cfg.BookingRatio+cfg.WalkInRatio+cfg.StatusRatio:
		token, ok := pool.Random()
		if !ok {
			return
		}
		resp, err := client.Get(fmt.Sprintf("%s/appointments/%d/mobile", cfg.APIBaseURL, token))
		if err != nil {
			stats.errors.Add(1)
			return
		}
		drain(resp)
		stats.statusReads.Add(1)

	case roll < cfg.BookingRatio+cfg.WalkInRatio+cfg.StatusRatio+0.5*(1-cfg.BookingRatio-cfg.WalkInRatio-cfg.StatusRatio):
		body := map[string]any{
			"patient_name": gofakeit.Name(),
			"doctor_id":    doctor.String(),
		}
		if _, ok := post(client, cfg.APIBaseURL+"/emergencies", body, stats); ok {
			stats.emergencies.Add(1)
		}

	default:
		token, ok := pool.Random()
		if !ok {
			return
		}
		resp, err := client.Post(fmt.Sprintf("%s/appointments/%d/no-show", cfg.APIBaseURL, token), "application/json", nil)
		if err != nil {
			stats.errors.Add(1)
			return
		}
		if resp.StatusCode == http.StatusOK {
			stats.noShows.Add(1)
		} else if resp.StatusCode == http.StatusConflict {
			stats.conflicts.Add(1)
		}
		drain(resp)
	}
}

// post sends the request and pulls the token out of a created response.
func post(client *http.Client, url string, body map[string]any, stats *counters) (int64, bool) {
	data, err := json.Marshal(body)
	if err != nil {
		stats.errors.Add(1)
		return 0, false
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		stats.errors.Add(1)
		return 0, false
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusConflict:
		stats.conflicts.Add(1)
		return 0, false
	default:
		stats.errors.Add(1)
		return 0, false
	}

	var out struct {
		Token       int64 `json:"token"`
		Appointment struct {
			Token int64 `json:"token"`
		} `json:"appointment"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		stats.errors.Add(1)
		return 0, false
	}
	if out.Token != 0 {
		return out.Token, true
	}
	return out.Appointment.Token, true
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func loadSimConfig() SimConfig {
	return SimConfig{
		APIBaseURL:   getEnv("SIM_API_URL", "http://127.0.0.1:8080"),
		Duration:     getDuration("SIM_DURATION", time.Minute),
		Workers:      getInt("SIM_WORKERS", 8),
		Doctors:      getInt("SIM_DOCTORS", 5),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.4),
		WalkInRatio:  getFloat("SIM_WALKIN_RATIO", 0.15),
		StatusRatio:  getFloat("SIM_STATUS_RATIO", 0.35),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
