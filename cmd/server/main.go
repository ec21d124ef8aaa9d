package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ishcherbinin/telegram-bot-booking/internal/config"
	"github.com/ishcherbinin/telegram-bot-booking/internal/handler"
	"github.com/ishcherbinin/telegram-bot-booking/internal/queue"
	"github.com/ishcherbinin/telegram-bot-booking/internal/router"
	"github.com/ishcherbinin/telegram-bot-booking/internal/service"
	"github.com/ishcherbinin/telegram-bot-booking/internal/storage"
)

func main() {
	cfg := config.Load()

	store, err := storage.FromTemplateFile(cfg.TablesFile)
	if err != nil {
		log.Fatalf("load table inventory: %v", err)
	}
	restoreBackup(store, cfg.BackupFile)

	svc := service.NewBookingService(store, cfg.BackupFile)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterBooking(e, handler.NewBookingHandler(svc), cfg.JWTSecret,
		config.LoadRateLimitConfig(), config.NewRedisClient())

	go queue.StartBookingConsumer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.BackupInterval > 0 {
		go backupLoop(ctx, svc, cfg.BackupInterval)
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	// Final flush so a restart picks up the latest calendar.
	if err := svc.Backup(); err != nil {
		log.Printf("final backup failed: %v", err)
	}
}

// restoreBackup loads the previous calendar if a backup file exists. A
// corrupt backup aborts the restore and the server continues with a clean
// calendar; reservations taken since the last good backup are lost, which
// beats serving a half-restored calendar.
func restoreBackup(store *storage.TableStorage, path string) {
	if _, err := os.Stat(path); err != nil {
		log.Printf("no backup file at %s, starting with a clean calendar", path)
		return
	}
	if err := store.RestoreFromFile(path); err != nil {
		log.Printf("restore from %s failed: %v; continuing with a clean calendar", path, err)
		return
	}
	log.Printf("restored calendar from %s", path)
}

// backupLoop flushes the calendar on a fixed interval until the context is
// cancelled.
func backupLoop(ctx context.Context, svc *service.BookingService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.Backup(); err != nil {
				log.Printf("periodic backup failed: %v", err)
			}
		}
	}
}
