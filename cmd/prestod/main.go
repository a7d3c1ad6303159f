package main

import (
	"context"
	"log/slog"
	"time"

	"prestoassist-backend/lib/configutil"
	"prestoassist-backend/lib/serviceutil"
	"prestoassist-backend/lib/telemetry"
	"prestoassist-backend/services/prestosync"
	"prestoassist-backend/services/transactions"
	transactionsdb "prestoassist-backend/services/transactions/db"
)

func syncUser(ctx context.Context, service *prestosync.Service, user UserConfig) {
	loggedIn, err := service.CheckLogin(ctx, user.Id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check login", "user", user.Id, "err", err)
		return
	}
	if !loggedIn {
		if user.Username == "" {
			slog.WarnContext(ctx, "no session and no credentials, skipping", "user", user.Id)
			return
		}
		_, err := service.Login(ctx, user.Id, user.Username, user.Password)
		if err != nil {
			slog.ErrorContext(ctx, "failed to log in", "user", user.Id, "err", err)
			return
		}
	}

	cards := user.Cards
	if len(cards) == 0 {
		dashboard, err := service.Cards(ctx, user.Id)
		if err != nil {
			slog.ErrorContext(ctx, "failed to list cards", "user", user.Id, "err", err)
			return
		}
		for _, card := range dashboard {
			cards = append(cards, card.Number)
		}
	}

	result, err := service.Sync(ctx, user.Id, cards, time.Time{}, time.Time{})
	if err != nil {
		slog.ErrorContext(ctx, "sync failed", "user", user.Id, "err", err)
		return
	}
	slog.InfoContext(ctx, "sync pass complete", "user", user.Id, "cards", len(cards), "inserted", result.Inserted)
}

func syncAll(ctx context.Context, service *prestosync.Service, users []UserConfig) {
	start := time.Now()
	for _, user := range users {
		syncUser(ctx, service, user)
	}
	slog.InfoContext(ctx, "sync pass time", "seconds", time.Since(start).Seconds())
}

func main() {
	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	telemetry.InitSlog(config.Verbose)

	database, err := config.Database.OpenDB(transactionsdb.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}

	t, err := telemetry.SetupFromEnv(ctx, "prestod")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	store := transactions.NewStore(database)
	service := prestosync.NewService(store, prestosync.Options{BaseUrl: config.BaseUrl})

	interval := time.Duration(config.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	syncAll(ctx, service, config.Users)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncAll(ctx, service, config.Users)
		}
	}
}
