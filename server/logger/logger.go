package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LEVEL_ENV_VAR overrides the default 'debug' log level e.g. RAKSHA_LOG_LEVEL=warn
const LEVEL_ENV_VAR = "RAKSHA_LOG_LEVEL"

func NewLogger() *zap.SugaredLogger {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	if lvl := os.Getenv(LEVEL_ENV_VAR); lvl != "" {
		level := zap.NewAtomicLevel()
		if err := level.UnmarshalText([]byte(lvl)); err == nil {
			config.Level = level
		}
	}

	logger, err := config.Build()
	if err != nil {
		log.Panic(err)
	}

	// flushes buffer, if any
	defer logger.Sync()

	return logger.Sugar()
}
