package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FundingSentinel/internal/config"
	"FundingSentinel/internal/decision"
	"FundingSentinel/internal/exchange"
	"FundingSentinel/internal/ledger"
	"FundingSentinel/internal/notifier"
	"FundingSentinel/internal/orchestrator"
	"FundingSentinel/internal/recorder"
	"FundingSentinel/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] FundingSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		log.Fatalf("[FATAL] load timezone: %v", err)
	}

	// Init exchange client
	client := exchange.NewBitgetClient(
		cfg.Exchange.BaseURL,
		cfg.Exchange.APIKey,
		cfg.Exchange.SecretKey,
		cfg.Exchange.Passphrase,
		cfg.Trading.Leverage,
		cfg.Proxy,
	)
	log.Printf("[INFO] exchange: %s", client.Name())

	// Init decision engine
	engine := decision.NewEngine(client, cfg.Trading.MinFundingRate)

	// Init recorder: Redis if configured, else SQLite, noop as last resort
	var rec recorder.Recorder
	if cfg.Database.RedisAddr != "" {
		rr, err := recorder.NewRedisRecorder(cfg.Database.RedisAddr, os.Getenv("REDIS_PASSWORD"), 0)
		if err != nil {
			log.Printf("[WARN] init redis recorder failed, falling back to sqlite: %v", err)
		} else {
			rec = rr
			defer rr.Close()
		}
	}
	if rec == nil {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	// Init PnL ledger
	book, err := ledger.NewBook(cfg.Ledger.StateFile)
	if err != nil {
		log.Fatalf("[FATAL] init pnl ledger: %v", err)
	}

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	if !tn.Enabled() {
		log.Println("[WARN] telegram credentials missing, notifications disabled")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init timer scheduler and orchestrator
	sched := scheduler.New()
	orch, err := orchestrator.New(ctx, client, engine, sched, rec, book, tn,
		orchestrator.Config{
			MinFundingRate: cfg.Trading.MinFundingRate,
			MaxFundingRate: cfg.Trading.MaxFundingRate,
			AmountUSDT:     cfg.Trading.AmountUSDT,
			ScanLead:       cfg.ScanLead(),
		},
		cfg.Schedule.BoundaryCron, loc)
	if err != nil {
		log.Fatalf("[FATAL] init orchestrator: %v", err)
	}

	if err := orch.Start(); err != nil {
		log.Fatalf("[FATAL] start orchestrator: %v", err)
	}
	defer orch.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, orch.HandleCommand)

	// Optional: run a scan immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing scan cycle now")
		go orch.RunCycleNow()
	}

	log.Println("[INFO] FundingSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	sched.Shutdown()
	log.Println("[INFO] FundingSentinel stopped")
}
