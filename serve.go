package main

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/freekieb7/greeter/config"
	"github.com/freekieb7/greeter/greeting"
	"github.com/freekieb7/greeter/http"
	"github.com/freekieb7/greeter/telemetry"
	"github.com/spf13/cobra"
)

var configFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the greeting HTTP server",
	Long: `Start the greeting HTTP server. Settings come from flags, GREETER_*
environment variables, a greeter.{yaml,json,toml} file and built-in defaults,
in that order of precedence.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	d := config.DefaultConfig()
	serveCmd.Flags().StringVar(&configFile, "config", "", "Config file (default: ./greeter.yaml or $HOME/.greeter/greeter.yaml)")
	serveCmd.Flags().String("addr", d.Addr, "Address to listen on")
	serveCmd.Flags().Bool("include-hostname", d.IncludeHostname, "Sign greetings with the machine hostname")
	serveCmd.Flags().String("log-level", d.Log.Level, "Log level: debug, info, warn or error")
	serveCmd.Flags().Duration("shutdown-timeout", d.ShutdownTimeout, "Grace period for in-flight requests on shutdown")
}

func runServe(cmd *cobra.Command, args []string) error {
	v := config.New()
	for key, flag := range map[string]string{
		"addr":             "addr",
		"include_hostname": "include-hostname",
		"log.level":        "log-level",
		"shutdown_timeout": "shutdown-timeout",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}

	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, os.Stderr, nil)
}

// run serves until ctx is cancelled or the listener fails. ready, when set,
// receives the bound address once the server accepts connections.
func run(ctx context.Context, cfg *config.Config, logOutput io.Writer, ready func(net.Addr)) (err error) {
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		err = errors.Join(err, providers.Shutdown(shutdownCtx))
	}()

	logger, err := telemetry.NewLogger(cfg.Telemetry.ServiceName, telemetry.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}, logOutput, providers)
	if err != nil {
		return err
	}

	greeter, err := greeting.New(
		greeting.WithHostname(cfg.IncludeHostname),
		greeting.WithLogger(logger),
		greeting.WithTracerProvider(providers.TracerProvider),
		greeting.WithMeterProvider(providers.MeterProvider),
	)
	if err != nil {
		return err
	}

	router := http.NewRouter()
	router.Logger = logger
	router.Add(http.RequestIDMiddleware(), http.LoggingMiddleware(logger))
	greeter.Register(router)

	server := http.NewServer(cfg.Telemetry.ServiceName, router)
	server.TracerProvider = providers.TracerProvider
	server.MeterProvider = providers.MeterProvider

	server.OnListen = func(addr net.Addr) {
		logger.Info("Listening and serving",
			"addr", addr.String(),
			"include_hostname", cfg.IncludeHostname,
			"version", version,
		)
		if ready != nil {
			ready(addr)
		}
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe(cfg.Addr)
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "timeout", cfg.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return <-serverErrCh
}
