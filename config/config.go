package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"github.com/chaos-io/rembg/rembg"
)

// Environment 环境变量及默认值
type Environment struct {
	Environment string `env:"ENVIRONMENT,default=dev"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	// 抠图参数
	Threshold        int    `env:"REMBG_THRESHOLD,default=30"`
	GreenMaxRed      int    `env:"GREEN_MAX_RED,default=120"`
	GreenMinGreen    int    `env:"GREEN_MIN_GREEN,default=180"`
	GreenMaxBlue     int    `env:"GREEN_MAX_BLUE,default=120"`
	GreenScreenFiles string `env:"GREENSCREEN_FILES"`

	// HTTP 服务
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	MaxUploadBytes        int64         `env:"MAX_UPLOAD_BYTES,default=10485760"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=20"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=40"`
}

// DefaultGreenScreenFiles 绿幕模式默认原地处理的素材
var DefaultGreenScreenFiles = []string{
	"frontend/public/assets/character/nook.png",
	"frontend/public/assets/character/player.png",
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// Load 先加载可选的 .env 文件，再读取进程环境变量
func Load(dotenvFiles ...string) (*Environment, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Environment
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GreenScreenList 按 '|' 拆分 GREENSCREEN_FILES，为空时返回默认列表
func (c *Environment) GreenScreenList() []string {
	var files []string
	for _, f := range strings.Split(c.GreenScreenFiles, "|") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return DefaultGreenScreenFiles
	}
	return files
}

// GreenBounds 配置中的绿幕阈值
func (c *Environment) GreenBounds() rembg.GreenBounds {
	return rembg.GreenBounds{
		MaxR: uint8(c.GreenMaxRed),
		MinG: uint8(c.GreenMinGreen),
		MaxB: uint8(c.GreenMaxBlue),
	}
}

func (c *Environment) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func validateConfig(cfg *Environment) error {
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if cfg.Threshold < 0 || cfg.Threshold > 256 {
		return fmt.Errorf("REMBG_THRESHOLD must be between 0 and 256, got %d", cfg.Threshold)
	}
	for name, v := range map[string]int{
		"GREEN_MAX_RED":   cfg.GreenMaxRed,
		"GREEN_MIN_GREEN": cfg.GreenMinGreen,
		"GREEN_MAX_BLUE":  cfg.GreenMaxBlue,
	} {
		if v < 0 || v > 255 {
			return fmt.Errorf("%s must be between 0 and 255, got %d", name, v)
		}
	}
	if cfg.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	// burst 为 0 时限流器拒绝所有请求
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is set, got %d", cfg.RateLimitBurst)
	}
	return nil
}
