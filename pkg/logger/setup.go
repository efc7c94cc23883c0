package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/raywall/fast-todo-service/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure inicializa o logger global baseando-se na configuração.
func Configure(cfg config.LoggingConf, serviceName string) zerolog.Logger {
	return configure(cfg, serviceName, os.Stdout)
}

func configure(cfg config.LoggingConf, serviceName string, out io.Writer) zerolog.Logger {
	// Define o nível de log (default: info)
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// JSON para produção, Console "bonito" para local se solicitado
	output := out
	if !cfg.Enabled {
		output = io.Discard
	} else if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if serviceName != "" {
		ctx = ctx.Str("service", serviceName)
	}
	logger := ctx.Logger()

	// Componentes usam o logger global (log.With()...)
	log.Logger = logger
	return logger
}
