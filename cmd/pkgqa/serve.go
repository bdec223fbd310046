// Copyright © 2021 Jonathan Whitaker <jonathan@whitaker.io>

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkgqa/pkgqa/config"
	"github.com/pkgqa/pkgqa/engine"
	"github.com/pkgqa/pkgqa/filter"
	"github.com/pkgqa/pkgqa/registry"
	"github.com/pkgqa/pkgqa/reporter"
	"github.com/pkgqa/pkgqa/repository"
	"github.com/pkgqa/pkgqa/result"
)

const (
	serveFiberConfigKey  = "fiber.config"
	servePortKey         = "serve.port"
	serveGracePeriodKey  = "serve.grace_period"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve a live dashboard of check results over websocket, and metrics over /metrics",
	Long: `serve starts an HTTP server reading its configuration from
$HOME/.pkgqa.yaml (or --config), driving the same scan that "pkgqa"
runs on the command line when /scan is posted, and streaming its
results to connected websocket clients at /live instead of to a file
reporter. /metrics serves the Prometheus client's default registry;
the per-stage telemetry counters are not exported there.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	fiberConfig := fiber.Config{}
	if err := viper.UnmarshalKey(serveFiberConfigKey, &fiberConfig); err != nil {
		return fmt.Errorf("unmarshalling fiber config: %w", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if len(args) > 0 {
		cfg.Repository = args[0]
	}

	app := fiber.New(fiberConfig)
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	hub := newResultHub()
	app.Get("/live", websocket.New(hub.handle))

	app.Post("/scan", func(c *fiber.Ctx) error {
		if err := scanInto(cfg, hub); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	port := viper.GetInt(servePortKey)
	if port == 0 {
		port = 8080
	}
	gracePeriod := viper.GetInt64(serveGracePeriodKey)
	if gracePeriod == 0 {
		gracePeriod = 10
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
			fmt.Fprintln(os.Stderr, "serve: listen error:", err)
		}
	}()

	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(gracePeriod)*time.Second)
	defer cancel()
	return app.ShutdownWithContext(ctx)
}

// resultHub fans every Result from an in-progress scan out to
// connected websocket clients, the live-dashboard counterpart to the
// file-based reporters in package reporter.
type resultHub struct {
	clients map[*websocket.Conn]bool
}

func newResultHub() *resultHub { return &resultHub{clients: map[*websocket.Conn]bool{}} }

func (h *resultHub) handle(c *websocket.Conn) {
	h.clients[c] = true
	defer delete(h.clients, c)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *resultHub) broadcast(r *result.Result) {
	for c := range h.clients {
		if err := c.WriteJSON(r); err != nil {
			c.Close()
			delete(h.clients, c)
		}
	}
}

// hubSink adapts resultHub to reporter.Sink so it can be multiplexed
// alongside any configured file reporter.
type hubSink struct{ hub *resultHub }

func (s hubSink) Write(r *result.Result) error { s.hub.broadcast(r); return nil }
func (s hubSink) Close() error                 { return nil }

func scanInto(cfg *config.Config, hub *resultHub) error {
	checkWhitelist, checkBlacklist, err := filter.CompileChecks(cfg.Checks, cfg.Disabled)
	if err != nil {
		return err
	}
	sinks, err := registry.Build(cfg, checkWhitelist, checkBlacklist)
	if err != nil {
		return err
	}
	engineSinks := make([]engine.Sink, len(sinks))
	copy(engineSinks, sinks)

	composite, err := filter.Compile(cfg.Whitelist, cfg.Blacklist, cfg.Scope)
	if err != nil {
		return err
	}

	src := repository.NewSource(cfg.Repository, 100)
	planner := &engine.Planner{
		Sources:    []engine.Source{src},
		Transforms: repository.StandardTransforms(cfg.Repository, composite),
		Debug:      cfg.Debug,
	}
	pipelines, err := planner.Plan(engineSinks)
	if err != nil {
		return err
	}

	rep := reporter.New(hubSink{hub: hub}, cfg.Verbosity, nil)
	if err := rep.Start(); err != nil {
		return err
	}
	for _, p := range pipelines {
		if err := engine.RunPipeline(p, rep, cfg.Repository); err != nil {
			return err
		}
	}
	return rep.Finish()
}
