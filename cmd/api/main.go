package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/lmring/lmring/internal/di"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	a, cleanup, err := di.InitializeApp()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := a.Run(ctx); err != nil {
		a.Logger.Error("server stopped with error", "error", err)
		return err
	}
	return nil
}
