package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.mahjong.logic/internal/game/mahjong/goldmahjong"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_RepositoryConfig(t *testing.T) {
	cfg, err := Load("../../configs/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "mahjong-logic", cfg.App.Name)
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
	assert.Equal(t, 15*time.Second, cfg.Game.TurnTimeout)

	rules, err := cfg.Game.Rules()
	require.NoError(t, err)
	assert.Equal(t, goldmahjong.BonusTiles(), rules.Excluded)
	assert.Equal(t, 4, rules.PlayerCount)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Name)
	assert.Equal(t, 100, cfg.Subscriber.WorkerCount)
	assert.Equal(t, time.Second, cfg.Scheduler.Tick)

	rules, err := cfg.Game.Rules()
	require.NoError(t, err)
	assert.Equal(t, goldmahjong.DefaultRules(), rules)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MAHJONG_GAME_HAND_SIZE", "13")
	t.Setenv("MAHJONG_GAME_SEVEN_PAIRS", "true")

	cfg, err := Load(writeConfig(t, "game:\n  hand_size: 16\n"))
	require.NoError(t, err)

	rules, err := cfg.Game.Rules()
	require.NoError(t, err)
	assert.Equal(t, 13, rules.HandSize)
	assert.True(t, rules.SevenPairsEnabled())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGameConfig_RulesRejectsBadInput(t *testing.T) {
	cfg, err := Load(writeConfig(t, "game:\n  excluded: [dragonfly]\n"))
	require.NoError(t, err)
	_, err = cfg.Game.Rules()
	assert.Error(t, err)

	cfg, err = Load(writeConfig(t, "game:\n  wildcard_count: 2\n"))
	require.NoError(t, err)
	_, err = cfg.Game.Rules()
	assert.ErrorIs(t, err, goldmahjong.ErrInvalidRules)
}
