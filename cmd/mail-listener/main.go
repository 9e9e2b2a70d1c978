package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"tablero/internal/config"
	"tablero/internal/listener"
	"tablero/internal/storage"
)

func main() {
	once := flag.Bool("once", false, "run a single fetch cycle and exit")
	flag.Parse()

	cfg, err := config.Load()
	must(err)

	logger, err := config.NewLogger(cfg.LogLevel, false)
	must(err)
	defer func() { _ = logger.Sync() }()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc := listener.NewService(db, cfg, logger)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *once {
		saved, err := svc.RunOnce(ctx)
		must(err)
		for _, a := range saved {
			fmt.Println(a.Path)
		}
		return
	}

	logger.Info("mail listener started",
		zap.String("provider", cfg.MailListenerProvider),
		zap.String("label", cfg.MailListenerLabel),
		zap.String("inbox", cfg.InboxDir),
	)
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
