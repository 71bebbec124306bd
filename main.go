package main

import (
	"os"
	"strings"
	_ "time/tzdata"

	"github.com/klokku/finance/internal/app"
	log "github.com/sirupsen/logrus"
)

func init() {
	level := log.InfoLevel
	if value := os.Getenv("LOG_LEVEL"); value != "" {
		parsed, err := log.ParseLevel(value)
		if err != nil {
			log.Fatal(err)
		}
		level = parsed
	}
	log.SetLevel(level)

	// json output for log shippers, text otherwise
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func main() {
	application, err := app.NewApplication()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	if err := application.Run(); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
	log.Info("Application stopped")
}
