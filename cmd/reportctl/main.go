package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"spendreport-backend/internal/cli"
	"spendreport-backend/internal/shared/config"
	"spendreport-backend/internal/shared/telemetry"
)

func main() {
	// Logs go to stderr so stdout stays valid JSON.
	telemetry.SetOutput(os.Stderr)
	cfg := config.Load()
	telemetry.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd(cfg, os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
