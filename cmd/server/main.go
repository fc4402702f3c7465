// cmd/server/main.go

// 帳本服務進入點：讀取設定、選擇儲存與通知後端、開啟帳本並啟動 HTTP 伺服器。
// 收到 SIGINT/SIGTERM 時停止接收請求，送完排隊中的通知後再關閉儲存。

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"banking/internal/bank"
	"banking/internal/config"
	"banking/internal/notify"
	"banking/internal/server"
	"banking/internal/storage"
)

// store 為帳本儲存再加上關閉能力。
type store interface {
	bank.Store
	Close() error
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := run(log); err != nil {
		log.Error("bank server stopped", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(n, log.With("component", "notify"), 128, 30*time.Second)
	defer dispatcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := bank.Open(ctx, st,
		bank.WithRules(bank.Rules{
			MinInitialDeposit: cfg.MinInitialDeposit,
			WithdrawLimit:     cfg.WithdrawLimit,
			InterestRate:      cfg.InterestRate,
			LargeDeposit:      cfg.LargeDeposit,
			AlertThreshold:    cfg.AlertThreshold,
		}),
		bank.WithSink(dispatcher),
		bank.WithLogger(log.With("component", "bank")),
		bank.WithReconcile(cfg.Reconcile),
	)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(b, n, log.With("component", "http")).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("bank server running", "addr", cfg.Addr, "store", cfg.Store, "testing_mode", cfg.TestingMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config) (store, error) {
	switch cfg.Store {
	case "json":
		return storage.NewJSONStore(cfg.DataFile), nil
	default:
		st, err := storage.OpenSQL(cfg.Store, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
		}
		return st, nil
	}
}

// newNotifier 在測試模式下把通知印到終端，否則以 SMTP 寄出；設定 Discord 時另外鏡像一份。
func newNotifier(cfg *config.Config, log *slog.Logger) (notify.Notifier, error) {
	var primary notify.Notifier
	if cfg.TestingMode {
		primary = notify.NewConsole(os.Stdout, cfg.BankName)
	} else {
		primary = notify.NewSMTP(cfg.SMTP, cfg.BankName)
	}
	if !cfg.Discord.Enabled() {
		return primary, nil
	}
	d, err := notify.NewDiscord(cfg.Discord.Token, cfg.Discord.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("discord: %w", err)
	}
	log.Info("mirroring notifications to discord", "channel", cfg.Discord.ChannelID)
	return notify.Multi{primary, d}, nil
}
