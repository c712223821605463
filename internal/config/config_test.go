package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestead/internal/game"
)

type envTestConfig struct {
	Port int `env:"HOMESTEAD_TEST_PORT" envDefault:"123"`
}

func TestParseEnv(t *testing.T) {
	var cfg envTestConfig
	require.NoError(t, ParseEnv(&cfg))
	assert.Equal(t, 123, cfg.Port)

	t.Setenv("HOMESTEAD_TEST_PORT", "not-an-int")
	err := ParseEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoadServer(t *testing.T) {
	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, ":30000", cfg.Addr)
	assert.Equal(t, "data/homestead.db", cfg.DBPath)
	assert.Empty(t, cfg.Catalog)

	t.Setenv("HOMESTEAD_ADDR", ":8080")
	t.Setenv("HOMESTEAD_FEEDING_POLICY", "every-round")
	t.Setenv("HOMESTEAD_SEED", "99")
	t.Setenv("HOMESTEAD_HAND_SIZE", "5")
	cfg, err = LoadServer()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)

	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.Equal(t, game.FeedEveryRound, rules.FeedingPolicy)
	assert.Equal(t, int64(99), rules.Seed)
	assert.Equal(t, 5, rules.HandSize)
	assert.Equal(t, 14, rules.Rounds)
}

func TestServer_RulesRejectsUnknownPolicy(t *testing.T) {
	_, err := Server{FeedingPolicy: "weekly"}.Rules()
	assert.ErrorContains(t, err, "HOMESTEAD_FEEDING_POLICY")
}

func TestServer_RulesAppliesLayout(t *testing.T) {
	rules, err := Server{FeedingPolicy: "harvest", Layout: "hillside"}.Rules()
	require.NoError(t, err)
	assert.Equal(t, 4, rules.FarmRows)
	assert.Equal(t, 4, rules.FarmCols)

	_, err = Server{FeedingPolicy: "harvest", Layout: "swamp"}.Rules()
	assert.ErrorContains(t, err, "HOMESTEAD_LAYOUT")
}

func TestLoadBot(t *testing.T) {
	t.Setenv("HOMESTEAD_PLAYER", "robo")
	cfg, err := LoadBot()
	require.NoError(t, err)
	assert.Equal(t, "robo", cfg.Player)
	assert.Equal(t, "ws://localhost:30000/ws", cfg.URL)
}
