package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/shashiranjanraj/storefront/internal/server"
)

// Serve builds the handler and serves it on addr until SIGINT or SIGTERM.
func (a *Application) Serve(ctx context.Context, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.Start(ctx, addr, a.Handler())
}
