package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"homestead/internal/client"
	"homestead/internal/config"
	"homestead/internal/logging"
)

func main() {
	cfg, err := config.LoadBot()
	if err != nil {
		config.Exitf("failed to load config: %v", err)
	}

	server := flag.String("server", cfg.URL, "Server address or websocket URL")
	player := flag.String("player", cfg.Player, "Seat to play")
	gameID := flag.String("game", "", "Game id to join")
	joinCode := flag.String("code", "", "Join code of the game to join")
	players := flag.String("players", "", "Comma separated seats of a new game (created when -game and -code are empty)")
	seed := flag.Int64("seed", 0, "Seed for a new game")
	layout := flag.String("layout", "", "Farmyard layout of a new game")
	level := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logging.New(*level)
	if err != nil {
		config.Exitf("%v", err)
	}
	defer log.Sync()

	opts := client.BotOptions{
		Player:   *player,
		GameID:   *gameID,
		JoinCode: *joinCode,
		Seed:     *seed,
		Layout:   *layout,
	}
	if *players != "" {
		opts.Players = strings.Split(*players, ",")
	} else {
		opts.Players = []string{*player}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url := client.WebSocketURL(*server)
	conn, err := client.Dial(ctx, url, log)
	if err != nil {
		log.Fatal("failed to connect", zap.String("url", url), zap.Error(err))
	}
	defer conn.Close()

	bot := client.NewBot(conn, opts, log)
	if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("bot stopped", zap.Error(err))
	}
}
