package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sudooom.mahjong.logic/internal/game/mahjong/goldmahjong"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Game       GameConfig       `mapstructure:"game"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Subscriber SubscriberConfig `mapstructure:"subscriber"`
	Health     HealthConfig     `mapstructure:"health"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// GameConfig 对局规则与游戏管理
type GameConfig struct {
	PlayerCount      int           `mapstructure:"player_count"`
	HandSize         int           `mapstructure:"hand_size"`
	Wildcard         bool          `mapstructure:"wildcard"`
	WildcardCount    int           `mapstructure:"wildcard_count"`
	ThreeWildcardWin bool          `mapstructure:"three_wildcard_win"`
	SevenPairs       bool          `mapstructure:"seven_pairs"`
	Excluded         []string      `mapstructure:"excluded"` // 牌面编码，例如 spring
	ClaimWindow      time.Duration `mapstructure:"claim_window"`
	TurnTimeout      time.Duration `mapstructure:"turn_timeout"`

	MaxGames      int           `mapstructure:"max_games"`
	EvictTimeout  time.Duration `mapstructure:"evict_timeout"`
	EvictInterval time.Duration `mapstructure:"evict_interval"`
	SnapshotTTL   time.Duration `mapstructure:"snapshot_ttl"`
}

// SchedulerConfig 时间轮调度器
type SchedulerConfig struct {
	WorkerCount int           `mapstructure:"worker_count"`
	Tick        time.Duration `mapstructure:"tick"`
}

// SubscriberConfig 上行消息订阅的 Worker Pool
type SubscriberConfig struct {
	WorkerCount int `mapstructure:"worker_count"`
	BufferSize  int `mapstructure:"buffer_size"`
}

type HealthConfig struct {
	Addr string `mapstructure:"addr"`
}

// Rules 转换为引擎规则并校验
func (g GameConfig) Rules() (goldmahjong.RuleConfig, error) {
	excluded, err := goldmahjong.ParseTiles(g.Excluded...)
	if err != nil {
		return goldmahjong.RuleConfig{}, fmt.Errorf("game.excluded: %w", err)
	}
	rules := goldmahjong.RuleConfig{
		PlayerCount:      g.PlayerCount,
		HandSize:         g.HandSize,
		Wildcard:         g.Wildcard,
		WildcardCount:    g.WildcardCount,
		ThreeWildcardWin: g.ThreeWildcardWin,
		SevenPairs:       g.SevenPairs,
		Excluded:         excluded,
		ClaimWindow:      g.ClaimWindow,
		TurnTimeout:      g.TurnTimeout,
	}
	if err := rules.Validate(); err != nil {
		return goldmahjong.RuleConfig{}, err
	}
	return rules, nil
}

func setDefaults(v *viper.Viper) {
	rules := goldmahjong.DefaultRules()

	v.SetDefault("app.name", "mahjong-logic")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.max_reconnects", 60)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 50)

	v.SetDefault("game.player_count", rules.PlayerCount)
	v.SetDefault("game.hand_size", rules.HandSize)
	v.SetDefault("game.wildcard", rules.Wildcard)
	v.SetDefault("game.wildcard_count", rules.WildcardCount)
	v.SetDefault("game.three_wildcard_win", rules.ThreeWildcardWin)
	v.SetDefault("game.seven_pairs", rules.SevenPairs)
	v.SetDefault("game.excluded", goldmahjong.TileCodes(rules.Excluded))
	v.SetDefault("game.claim_window", rules.ClaimWindow)
	v.SetDefault("game.turn_timeout", rules.TurnTimeout)
	v.SetDefault("game.max_games", 10000)
	v.SetDefault("game.evict_timeout", 30*time.Minute)
	v.SetDefault("game.evict_interval", time.Minute)
	v.SetDefault("game.snapshot_ttl", 2*time.Hour)

	v.SetDefault("scheduler.worker_count", 16)
	v.SetDefault("scheduler.tick", time.Second)

	v.SetDefault("subscriber.worker_count", 100)
	v.SetDefault("subscriber.buffer_size", 10000)

	v.SetDefault("health.addr", ":8082")
}

// Load 从指定路径加载配置，环境变量 MAHJONG_<SECTION>_<KEY> 可覆盖文件中的值
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MAHJONG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
