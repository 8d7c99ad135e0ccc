package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"SuperRPS/internal/game/engine"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port           string
		AllowedOrigins []string `mapstructure:"allowedOrigins"`
	}
	Redis struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
		RoomTTL  time.Duration `mapstructure:"roomTTL"`
	}
	JWT struct {
		Secret string
		TTL    time.Duration
	}
	Game struct {
		engine.Settings `mapstructure:",squash"`
		RevealDelay     time.Duration `mapstructure:"revealDelay"`
	}
	Log struct {
		Level string
	}
}

func setDefaults(v *viper.Viper) {
	d := engine.DefaultSettings()

	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.allowedOrigins", []string{})
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.roomTTL", 6*time.Hour)
	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("game.handSize", d.HandSize)
	v.SetDefault("game.openHand", d.OpenHand)
	v.SetDefault("game.revealDelay", 1500*time.Millisecond)
	v.SetDefault("game.deck.regularRock", d.Deck.RegularRock)
	v.SetDefault("game.deck.regularPaper", d.Deck.RegularPaper)
	v.SetDefault("game.deck.regularScissors", d.Deck.RegularScissors)
	v.SetDefault("game.deck.superRock", d.Deck.SuperRock)
	v.SetDefault("game.deck.superPaper", d.Deck.SuperPaper)
	v.SetDefault("game.deck.superScissors", d.Deck.SuperScissors)
	v.SetDefault("log.level", "info")
}

// Load 读取配置文件（不存在则只用默认值），环境变量 SUPERRPS_* 覆盖
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SUPERRPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Game.Settings.Validate(); err != nil {
		return Config{}, fmt.Errorf("game defaults: %w", err)
	}
	return c, nil
}
