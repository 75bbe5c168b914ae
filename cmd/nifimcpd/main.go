// Command nifimcpd runs the NiFi management middleware server: it loads a
// config.Config, builds one nifi.Client per configured server, registers the
// tool catalog and workflow catalog, and serves them over HTTP/SSE via
// internal/httpapi. Entry point structure is grounded on
// _examples/marmos91-dittofs/cmd/dittofs/commands/start.go's cobra
// RunE/graceful-shutdown idiom, simplified to this server's single
// responsibility (there is no daemon/foreground split or subcommand tree to
// carry over).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"goa.design/clue/log"

	"github.com/stackoverflowed/nifimcp/internal/config"
	"github.com/stackoverflowed/nifimcp/internal/httpapi"
	"github.com/stackoverflowed/nifimcp/internal/nifi"
	"github.com/stackoverflowed/nifimcp/internal/ratelimit"
	"github.com/stackoverflowed/nifimcp/internal/reqctx"
	"github.com/stackoverflowed/nifimcp/internal/telemetry"
	"github.com/stackoverflowed/nifimcp/internal/tools"
	"github.com/stackoverflowed/nifimcp/internal/toolregistry"
	"github.com/stackoverflowed/nifimcp/internal/workflows"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "nifimcpd",
		Short: "NiFi management middleware server",
		Long: `nifimcpd exposes a set of NiFi "tools" and guided workflows over
HTTP and Server-Sent Events, so a chat UI or LLM agent can inspect and
operate one or more Apache NiFi instances without holding direct NiFi
credentials.`,
		RunE: runServe,
	}
	root.Flags().StringVar(&configPath, "config", "", "path to the YAML config file (defaults plus NIFIMCP_ env overrides if omitted)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setupTelemetry builds the Logger/Tracer pair named by cfg.Backend and the
// base context every request context (see httpapi's bindRequestContext,
// which descends from http.Server.BaseContext) should inherit.
//
// "slog" (default) logs JSON to stdout via log/slog and leaves tracing a
// noop. "clue" switches to goa.design/clue/log, the teacher repo's own
// logging dependency (see
// _examples/goadesign-goa-ai/runtime/agent/telemetry/clue.go): clue reads
// its format/debug settings from the context, so that configuration is
// stamped onto baseCtx once here rather than per request.
func setupTelemetry(cfg config.Telemetry) (telemetry.Logger, telemetry.Tracer, context.Context) {
	if cfg.Backend != "clue" {
		return telemetry.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil))),
			telemetry.NoopTracer{},
			context.Background()
	}

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if cfg.Debug {
		ctx = log.Context(ctx, log.WithDebug())
	}
	return telemetry.NewClueLogger(), telemetry.NewClueTracer("github.com/stackoverflowed/nifimcp"), ctx
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, tracer, baseCtx := setupTelemetry(cfg.Telemetry)

	clients := make(map[string]reqctx.NiFiClient, len(cfg.NiFiServers))
	for _, s := range cfg.NiFiServers {
		clients[s.ID] = nifi.New(s.ID, s.URL,
			nifi.WithCredentials(s.Username, s.Password),
			nifi.WithTLSInsecureSkipVerify(!s.TLSVerify),
			nifi.WithLogger(logger),
			nifi.WithTracer(tracer),
		)
	}
	logger.Info(baseCtx, "nifi servers configured", "count", len(clients))

	reg := toolregistry.New(toolregistry.WithLogger(logger), toolregistry.WithTracer(tracer))
	limiter := ratelimit.New(5, 10)
	tools.RegisterAll(reg, cfg.ExpertHelp, limiter)

	catalog := workflows.NewCatalog(reg)
	for _, d := range catalog.List() {
		if problems := catalog.Validate(d.Name); len(problems) > 0 {
			return fmt.Errorf("workflow %q failed validation: %v", d.Name, problems)
		}
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Servers:       cfg.NiFiServers,
		Clients:       clients,
		Tools:         reg,
		Workflows:     catalog,
		ActionCeiling: cfg.Workflow.ActionCeiling,
		Logger:        logger,
		Tracer:        tracer,
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}

	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	serverDone := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
			return
		}
		serverDone <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		signal.Stop(sigCh)
		logger.Info(ctx, "shutdown signal received, draining connections")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		<-serverDone
		logger.Info(ctx, "server stopped")
		return nil

	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
