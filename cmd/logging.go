package cmd

import (
	"github.com/sirupsen/logrus"

	"github.com/codelens-app/auth-service/config"
)

func configureLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	if cfg.IsDevelopment() {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}
