package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Room     RoomConfig     `mapstructure:"room"`
	Database DatabaseConfig `mapstructure:"database"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPAddress       string        `mapstructure:"http_address"`
	RPCAddress        string        `mapstructure:"rpc_address"`
	GRPCAddress       string        `mapstructure:"grpc_address"`
	StaticDir         string        `mapstructure:"static_dir"`
	NotFoundPage      string        `mapstructure:"not_found_page"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	SendBuffer        int           `mapstructure:"send_buffer"`
	EventBuffer       int           `mapstructure:"event_buffer"`
	MaxMessageSize    int64         `mapstructure:"max_message_size"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
}

type GameConfig struct {
	Rows          int  `mapstructure:"rows"`
	Cols          int  `mapstructure:"cols"`
	Mines         int  `mapstructure:"mines"`
	SafeNeighbors bool `mapstructure:"safe_neighbors"`
}

type RoomConfig struct {
	CodeAttempts int `mapstructure:"code_attempts"`
}

type DatabaseConfig struct {
	Enabled   bool           `mapstructure:"enabled"`
	Driver    string         `mapstructure:"driver"`
	QueueSize int            `mapstructure:"queue_size"`
	Postgres  PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type MonitorConfig struct {
	Namespace        string        `mapstructure:"namespace"`
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

var ErrInvalidConfig = errors.New("invalid configuration")

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":3000")
	v.SetDefault("server.rpc_address", "127.0.0.1:3001")
	v.SetDefault("server.grpc_address", "127.0.0.1:3002")
	v.SetDefault("server.static_dir", "./client")
	v.SetDefault("server.not_found_page", "./404.html")
	v.SetDefault("server.heartbeat_interval", 30*time.Second)
	v.SetDefault("server.send_buffer", 256)
	v.SetDefault("server.event_buffer", 1024)
	v.SetDefault("server.max_message_size", 1<<20)
	v.SetDefault("server.idle_timeout", time.Hour)

	v.SetDefault("game.rows", 10)
	v.SetDefault("game.cols", 15)
	v.SetDefault("game.mines", 20)
	v.SetDefault("game.safe_neighbors", true)

	v.SetDefault("room.code_attempts", 1000)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "gorm")
	v.SetDefault("database.queue_size", 64)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "sweeper")

	v.SetDefault("monitor.namespace", "sweeper")
	v.SetDefault("monitor.snapshot_interval", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadConfig reads config.yaml from path if present, then applies
// SWEEPER_* environment overrides (e.g. SWEEPER_GAME_MINES).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("sweeper")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the game and room layers cannot recover from.
func (c *Config) Validate() error {
	if c.Game.Rows <= 0 || c.Game.Cols <= 0 {
		return fmt.Errorf("%w: game board must be at least 1x1, got %dx%d", ErrInvalidConfig, c.Game.Rows, c.Game.Cols)
	}
	if c.Game.Mines < 0 || c.Game.Mines >= c.Game.Rows*c.Game.Cols {
		return fmt.Errorf("%w: game.mines must be in [0, %d), got %d", ErrInvalidConfig, c.Game.Rows*c.Game.Cols, c.Game.Mines)
	}
	if c.Server.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: server.max_message_size must be positive", ErrInvalidConfig)
	}
	if c.Room.CodeAttempts <= 0 {
		return fmt.Errorf("%w: room.code_attempts must be positive", ErrInvalidConfig)
	}
	if c.Server.SendBuffer <= 0 || c.Server.EventBuffer <= 0 {
		return fmt.Errorf("%w: server buffers must be positive", ErrInvalidConfig)
	}
	switch c.Database.Driver {
	case "gorm", "pq":
	default:
		return fmt.Errorf("%w: unknown database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}
	return nil
}
