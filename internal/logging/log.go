package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg   = zap.Config{
		Level:    level,
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.RFC3339TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	logger = zap.Must(cfg.Build()).Sugar()
)

// Init sets the minimum level. Unknown names fall back to info.
func Init(levelName string) {
	l, err := zapcore.ParseLevel(levelName)
	if err != nil {
		logger.Warnf("Unknown log level %q, using info", levelName)
		l = zapcore.InfoLevel
	}
	level.SetLevel(l)
}

func Sync() {
	_ = logger.Sync()
}

func Debug(format string, v ...interface{}) {
	logger.Debugf(format, v...)
}

func Info(format string, v ...interface{}) {
	logger.Infof(format, v...)
}

func Warn(format string, v ...interface{}) {
	logger.Warnf(format, v...)
}

func Error(format string, v ...interface{}) {
	logger.Errorf(format, v...)
}
