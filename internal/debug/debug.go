package debug

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once   sync.Once
	path   = "/tmp/botchat-debug.log"
	logger *zap.SugaredLogger
)

// SetPath sets the file the logger writes to. It has no effect once the logger has been created.
func SetPath(p string) {
	if p != "" {
		path = p
	}
}

// GetLogger returns a singleton zap logger instance.
// It writes to a file so it never draws over the terminal UI.
func GetLogger() *zap.SugaredLogger {
	once.Do(func() {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		config.OutputPaths = []string{path}
		config.ErrorOutputPaths = []string{path}
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		base, err := config.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
		logger = base.Sugar()
	})
	return logger
}
