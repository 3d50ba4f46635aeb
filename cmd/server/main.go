// Command server runs the facility registry HTTP API.
//
// Configuration comes from config.yaml (or CONFIG_PATH) and environment
// variables; DATABASE_DSN is required.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/openapparel/facility-registry/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
