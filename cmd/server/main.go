package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"homestead/internal/catalog"
	"homestead/internal/config"
	"homestead/internal/database"
	"homestead/internal/logging"
	"homestead/internal/server"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		config.Exitf("failed to load config: %v", err)
	}

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Database path (empty disables the journal)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.FeedingPolicy, "feeding", cfg.FeedingPolicy, "Feeding policy (harvest, every-round)")
	flag.StringVar(&cfg.Catalog, "catalog", cfg.Catalog, "Directory with actions.csv and cards.csv")
	flag.StringVar(&cfg.Layout, "layout", cfg.Layout, "Farmyard layout (classic, riverside, hillside)")
	flag.IntVar(&cfg.HandSize, "hand-size", cfg.HandSize, "Occupations and minor improvements dealt to each player")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for stage card order (0 draws one per game)")
	flag.Parse()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		config.Exitf("%v", err)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *zap.Logger) error {
	rules, err := cfg.Rules()
	if err != nil {
		return err
	}

	reg, err := catalog.Default()
	if cfg.Catalog != "" {
		reg, err = catalog.Load(cfg.Catalog)
	}
	if err != nil {
		return err
	}

	scfg := server.Config{
		Addr:     cfg.Addr,
		Registry: reg,
		Rules:    rules,
		Logger:   log,
	}
	if cfg.DBPath != "" {
		db, err := database.New(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		scfg.DB = db
	}

	srv, err := server.New(scfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("homestead server starting",
		zap.String("addr", cfg.Addr),
		zap.String("db", cfg.DBPath),
		zap.Stringer("feeding", rules.FeedingPolicy),
		zap.String("layout", cfg.Layout),
	)
	return srv.Run(ctx)
}
