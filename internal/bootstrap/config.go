package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/two-shoulder/authsession/config"
)

// EnvFileVar names a comma-separated list of dotenv files to load instead of ./.env.
const EnvFileVar = "AUTHSESSION_ENV_FILE"

// NewLogger returns a JSON logger tagged with the service name.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	})).With("service", "authsession")
}

// InitLogger installs a stdout logger as the slog default and returns it.
func InitLogger(level slog.Level) *slog.Logger {
	logger := NewLogger(os.Stdout, level)
	slog.SetDefault(logger)
	return logger
}

// LoadConfig reads dotenv files, then the environment, and sanitizes the result.
// Variables already set in the environment win over file values. A missing
// default .env is ignored; a missing file named explicitly is an error.
func LoadConfig(files ...string) (config.AppConfig, error) {
	if len(files) == 0 {
		files = envFiles()
	}
	if err := loadEnvFiles(files); err != nil {
		return config.AppConfig{}, err
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

func envFiles() []string {
	var files []string
	for _, f := range strings.Split(os.Getenv(EnvFileVar), ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env file: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files %s: %w", strings.Join(files, ","), err)
	}
	return nil
}
