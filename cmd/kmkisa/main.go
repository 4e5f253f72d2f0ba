package main

import (
	"context"
	"errors"
	"io/fs"
	"kilometrikisa/cmd/kmkisa/commands"
	"kilometrikisa/lib/telemetry"
	"kilometrikisa/lib/util/serviceutil"
	"log/slog"
	"time"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()

	tel, err := telemetry.SetupFromEnv(ctx, "kmkisa")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to set up telemetry", "err", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := tel.Shutdown(shutdownCtx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}()

	commands.ExecuteContext(ctx)
}
