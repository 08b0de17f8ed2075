package main

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func configureLogger(config BaseConfig, logger *logrus.Logger, stderr io.Writer) io.Closer {
	if config.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: config.LogFile == ""})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logger.WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logger.SetLevel(level)
	}

	if config.LogFile == "" {
		logger.SetOutput(stderr)
		return nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   config.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
	logger.SetOutput(file)
	return file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
