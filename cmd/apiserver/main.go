package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dehimb/wheel/internal/config"
	"github.com/dehimb/wheel/internal/game"
	"github.com/dehimb/wheel/internal/server"
	"github.com/dehimb/wheel/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := logrus.New()

	app := &cli.App{
		Name:  "apiserver",
		Usage: "serve the wheel game API for the local UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.yaml", Usage: "path to the configuration file"},
			&cli.StringFlag{Name: "addr", Usage: "listen address, overrides the config"},
			&cli.StringFlag{Name: "db", Usage: "sqlite database path, overrides the config"},
			&cli.BoolFlag{Name: "memory", Usage: "keep the game in memory only"},
		},
		Action: func(c *cli.Context) error {
			return run(c, logger)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

func run(c *cli.Context, logger *logrus.Logger) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if v := c.String("addr"); v != "" {
		cfg.Server.Addr = v
	}
	if v := c.String("db"); v != "" {
		cfg.Store.Path = v
	}
	logger.SetLevel(cfg.LogLevel())

	// Catch interrupt signals
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	go func() {
		s := <-sig
		logger.Infof("Signal: %s", s)
		cancel()
	}()

	var repo store.Repository
	if c.Bool("memory") {
		repo = store.NewMemory()
	} else {
		repo, err = store.NewSQLite(ctx, logger, cfg.Store.Path)
		if err != nil {
			return err
		}
	}
	// Closed after the server has drained in-flight requests.
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Can't close repository: ", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine := game.New(logger, repo,
		game.WithTotalRounds(cfg.Game.TotalRounds),
		game.WithMetrics(game.NewMetrics(registry)),
	)
	engine.Load(ctx)

	server.Start(ctx, cfg.Server.Addr, server.NewHandler(engine, logger, registry), logger)
	return nil
}
