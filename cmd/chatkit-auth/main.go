// chatkit-auth serves the token endpoint Chatkit client SDKs use to obtain
// user tokens, signed with the instance key from configuration.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hilthontt/chatkit"
	"github.com/hilthontt/chatkit/internal/configs"
	"github.com/hilthontt/chatkit/internal/infrastructure/ratelimiter"
	"github.com/hilthontt/chatkit/internal/logging"
	"github.com/hilthontt/chatkit/internal/presentation/api"
	"github.com/hilthontt/chatkit/internal/presentation/handler/auth"
	"github.com/hilthontt/chatkit/internal/presentation/handler/health"
	"github.com/hilthontt/chatkit/internal/tracing"
	"github.com/hilthontt/chatkit/option"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath string

	flagSet := pflag.NewFlagSet("chatkit-auth", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cfg, err := configs.Load(configs.DetermineConfigPath(configPath))
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.Logger, "chatkit-auth")
	defer func() { _ = logger.Sync() }()

	tp, shutdown, err := tracing.InitTracer(context.Background(), cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := chatkit.NewClient(append(cfg.ClientOptions(),
		option.WithLogger(logger.Zap()),
		option.WithTracerProvider(tp),
		option.WithMetrics(registry),
	)...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var limiter ratelimiter.Limiter
	if cfg.RateLimiter.RequestsPerTimeFrame > 0 {
		fixed := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
		go cleanupLoop(ctx, fixed, cfg.RateLimiter.TimeFrame)
		limiter = fixed
	}

	app := api.NewApplication(
		*cfg,
		*auth.NewHandler(client, logger),
		*health.NewHandler(),
		logger,
		limiter,
		registry,
		tp,
	)

	return app.Run(app.Mount())
}

// cleanupLoop forgets expired windows until ctx is done. configs.Load
// guarantees a positive window whenever limiting is enabled.
func cleanupLoop(ctx context.Context, rl *ratelimiter.FixedWindowRateLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Cleanup()
		case <-ctx.Done():
			return
		}
	}
}
