package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"order-matcher/src/config"
)

var Logger zerolog.Logger
var logFile *os.File

// InitLogger configures the global zerolog logger. Output goes to out (stdout
// when nil) and, if cfg.File names a path, is tee'd into that file.
func InitLogger(cfg config.LogConfig, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	CloseLogger()
	if cfg.File != "" && cfg.File != "none" && cfg.File != "disabled" {
		logFile, err = os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			log.Error().Err(err).Str("log_file", cfg.File).Msg("Failed to open log file, using console only")
			logFile = nil
		}
	}

	var writers []io.Writer
	if cfg.Format == "pretty" {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		})
	} else {
		writers = append(writers, out)
	}
	if logFile != nil {
		writers = append(writers, logFile)
	}

	Logger = zerolog.New(io.MultiWriter(writers...)).With().
		Timestamp().
		Logger()

	log.Logger = Logger

	event := Logger.Info().Str("log_level", level.String())
	if logFile != nil {
		event = event.Str("log_file", cfg.File)
	}
	event.Msg("Logger initialized")
}

func CloseLogger() {
	if logFile != nil {
		_ = logFile.Sync()
		_ = logFile.Close()
		logFile = nil
	}
}

func GetLogger() zerolog.Logger {
	return Logger
}
