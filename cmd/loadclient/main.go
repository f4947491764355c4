package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"avocare/api/client"
	"avocare/config"
	"avocare/services"

	"go.uber.org/zap"
)

type Stats struct {
	TotalRequests int64
	Committed     int64
	InFlight      int64
	Failed        int64
	TotalDuration int64
}

type Config struct {
	BaseURL        string
	Email          string
	Password       string
	Workers        int
	Duration       int
	Toggles        int
	Posts          int
	RequestsPerSec int
}

var stats Stats

func main() {
	cfg := parseFlags()

	if err := config.LoadConfig("config.yaml"); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log, err := config.NewLogger(config.AppConfig.Logs.Level)
	if err != nil {
		panic("Failed to create logger: " + err.Error())
	}
	defer log.Sync()
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.AppConfig.API.BaseURL
	}
	log.Infow("Starting load client", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := services.NewSessionStore(services.NewMemoryStore(), log.Named("session"))
	api := client.New(client.Options{
		BaseURL: cfg.BaseURL,
		Tokens:  sessions,
		Logger:  zap.NewNop().Sugar(),
	})
	forum := services.NewForum(api, sessions, services.LogNotifier{Log: log.Named("alert")}, log.Named("forum"))
	defer forum.Close()

	if _, err := services.NewAuthService(api, sessions, log).Login(ctx, cfg.Email, cfg.Password); err != nil {
		log.Fatalw("login failed", "error", err)
	}
	if err := forum.Refresh(ctx); err != nil {
		log.Fatalw("initial refresh failed", "error", err)
	}

	views := forum.View()
	if len(views) == 0 {
		log.Fatalw("no posts to like, start the stand-in backend with -seed")
	}
	if cfg.Posts > 0 && cfg.Posts < len(views) {
		views = views[:cfg.Posts]
	}
	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}

	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Duration)*time.Second)
		defer cancel()
	}

	requestsPerWorker := cfg.RequestsPerSec / cfg.Workers
	if requestsPerWorker == 0 {
		requestsPerWorker = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go worker(ctx, i, cfg, requestsPerWorker, forum, ids, log, &wg)
	}

	go printStats(ctx, log)

	wg.Wait()
	printFinalStats(log)

	if err := forum.Refresh(context.Background()); err == nil {
		for _, id := range ids {
			if st, ok := forum.PostLikes(id); ok {
				log.Infow("final like state", "post_id", id, "likes", st.Count, "liked", st.Liked)
			}
		}
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.BaseURL, "url", "", "API base URL (defaults to api.base_url from config)")
	flag.StringVar(&cfg.Email, "email", "demo@avocare.local", "Account email")
	flag.StringVar(&cfg.Password, "password", "demo1234", "Account password")
	flag.IntVar(&cfg.Workers, "workers", 10, "Number of concurrent workers")
	flag.IntVar(&cfg.Duration, "duration", 30, "Test duration in seconds (0 for infinite)")
	flag.IntVar(&cfg.Toggles, "toggles", 0, "Total toggles to attempt (0 for infinite)")
	flag.IntVar(&cfg.Posts, "posts", 3, "How many posts to toggle (fewer posts - more contention)")
	flag.IntVar(&cfg.RequestsPerSec, "rps", 100, "Requests per second target")

	flag.Parse()
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg
}

func worker(ctx context.Context, id int, cfg Config, requestsPerSec int, forum *services.Forum, posts []string, log *zap.SugaredLogger, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(requestsPerSec))
	defer ticker.Stop()

	toggled := 0
	for {
		select {
		case <-ctx.Done():
			log.Debugw("worker stopping", "worker", id, "toggled", toggled)
			return
		case <-ticker.C:
			if cfg.Toggles > 0 && int(atomic.LoadInt64(&stats.TotalRequests)) >= cfg.Toggles {
				return
			}

			postID := posts[rand.Intn(len(posts))]
			start := time.Now()
			_, err := forum.TogglePostLike(ctx, postID)
			duration := time.Since(start)

			atomic.AddInt64(&stats.TotalRequests, 1)
			atomic.AddInt64(&stats.TotalDuration, duration.Milliseconds())

			switch {
			case err == nil:
				toggled++
				atomic.AddInt64(&stats.Committed, 1)
			case errors.Is(err, services.ErrInFlight):
				atomic.AddInt64(&stats.InFlight, 1)
			default:
				atomic.AddInt64(&stats.Failed, 1)
			}
		}
	}
}

func snapshot() (total, committed, inflight, failed, avgLatency int64) {
	total = atomic.LoadInt64(&stats.TotalRequests)
	committed = atomic.LoadInt64(&stats.Committed)
	inflight = atomic.LoadInt64(&stats.InFlight)
	failed = atomic.LoadInt64(&stats.Failed)
	if total > 0 {
		avgLatency = atomic.LoadInt64(&stats.TotalDuration) / total
	}
	return
}

func printStats(ctx context.Context, log *zap.SugaredLogger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			total, committed, inflight, failed, avg := snapshot()
			log.Infow("[STATS]", "total", total, "committed", committed, "rejected_in_flight", inflight, "failed", failed, "avg_latency_ms", avg)
		}
	}
}

func printFinalStats(log *zap.SugaredLogger) {
	total, committed, inflight, failed, avg := snapshot()
	var successRate float64
	if total > 0 {
		successRate = float64(committed) / float64(total) * 100
	}
	log.Infow("========== FINAL STATISTICS ==========",
		"total", total,
		"committed", committed,
		"rejected_in_flight", inflight,
		"failed", failed,
		"success_rate_pct", successRate,
		"avg_latency_ms", avg,
	)
}
