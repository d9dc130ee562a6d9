package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/gridhold/gridhold-backend/internal/entity"
)

type Config struct {
	LogLevel      string `yaml:"log-level" env-default:"info"`
	HTTPPort      string `yaml:"http-port" env-default:"9090"`
	TCPPort       string `yaml:"tcp-port" env-default:"12345"`
	WebSocketPort string `yaml:"websocket-port" env-default:"8080"`
	Redis         Redis  `yaml:"redis"`
	Game          Game   `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env-default:""`
	Port string `yaml:"port" env-default:"6379"`
}

type Game struct {
	BoardSize            int      `yaml:"board-size" env-default:"8"`
	StartQuorum          int      `yaml:"start-quorum" env-default:"3"`
	CountdownSeconds     float64  `yaml:"countdown-seconds" env-default:"10"`
	HoldSeconds          float64  `yaml:"hold-seconds" env-default:"3.0"`
	HoldSlackSeconds     float64  `yaml:"hold-slack-seconds" env-default:"0.1"`
	ShutdownGraceSeconds float64  `yaml:"shutdown-grace-seconds" env-default:"5"`
	Palette              []string `yaml:"palette"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Game) Countdown() time.Duration {
	return time.Duration(that.CountdownSeconds * float64(time.Second))
}

func (that *Game) ShutdownGrace() time.Duration {
	return time.Duration(that.ShutdownGraceSeconds * float64(time.Second))
}

// MinHoldSeconds - shortest client-reported hold that still claims a cell.
// The slack below the nominal hold time absorbs network and render jitter.
func (that *Game) MinHoldSeconds() float64 {
	return that.HoldSeconds - that.HoldSlackSeconds
}

// ParsePalette - parses the "R,G,B" palette entries from the config,
// falling back to the default four colors when none are configured.
func (that *Game) ParsePalette() ([]entity.Color, error) {
	if len(that.Palette) == 0 {
		return entity.DefaultPalette(), nil
	}

	colors := make([]entity.Color, 0, len(that.Palette))

	for _, raw := range that.Palette {
		parts := strings.Split(raw, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid palette entry %q", raw)
		}

		var rgb [3]uint8
		for i, part := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid palette entry %q: %w", raw, err)
			}
			rgb[i] = uint8(v)
		}

		colors = append(colors, entity.Color{R: rgb[0], G: rgb[1], B: rgb[2]})
	}

	return colors, nil
}
