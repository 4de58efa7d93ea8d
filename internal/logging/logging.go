package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/jrsteele09/go-airtable-forms/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Settings are the parts of the configuration logging depends on
type Settings interface {
	config.EnvConfig
	config.LogConfig
}

// Setup builds the service logger, installs it as the zerolog global and
// context default, and returns a func closing the file sink if any.
// DEV gets a console writer, every other environment JSON.
func Setup(cfg Settings) (zerolog.Logger, func() error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stdout
	if cfg.GetEnv() == "DEV" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
	}

	closer := func() error { return nil }
	if path := cfg.GetLogFile(); path != "" {
		file := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     28,
		}
		out = zerolog.MultiLevelWriter(out, file)
		closer = file.Close
	}

	logger := zerolog.New(out).With().Timestamp().Str("app", cfg.GetAppName()).Logger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger, closer
}
