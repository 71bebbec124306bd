package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Host      string    `koanf:"host"`
	Port      int       `koanf:"port"`
	Database  Database  `koanf:"db"`
	Scheduler Scheduler `koanf:"scheduler"`
	Nats      Nats      `koanf:"nats"`
	RateLimit RateLimit `koanf:"ratelimit"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
	// Pool bounds, zero keeps the pgxpool default.
	MaxConns int32 `koanf:"maxconns"`
	MinConns int32 `koanf:"minconns"`
}

// Scheduler configures the unattended recurring transaction processing.
type Scheduler struct {
	Enabled bool `koanf:"enabled"`
	// Interval between two automatic processing runs. It is also the width of the
	// daily processing-time window, so exactly one run per day falls into it.
	Interval     time.Duration `koanf:"interval"`
	StartupDelay time.Duration `koanf:"startupdelay"`
}

type Nats struct {
	Enabled       bool   `koanf:"enabled"`
	Url           string `koanf:"url"`
	SubjectPrefix string `koanf:"subjectprefix"`
}

type RateLimit struct {
	Enabled bool `koanf:"enabled"`
	// Rate in the limiter format, e.g. "100-M" for 100 requests per minute.
	Rate string `koanf:"rate"`
}

func Defaults() Application {
	return Application{
		Host: "http://localhost:3000",
		Port: 8181,
		Database: Database{
			Host:     "localhost",
			Port:     5432,
			User:     "finance",
			Pass:     "",
			Name:     "finance",
			Schema:   "finance",
			MaxConns: 25,
			MinConns: 2,
		},
		Scheduler: Scheduler{
			Enabled:      true,
			Interval:     time.Hour,
			StartupDelay: 5 * time.Second,
		},
		Nats: Nats{
			Enabled:       false,
			Url:           "nats://localhost:4222",
			SubjectPrefix: "finance",
		},
		RateLimit: RateLimit{
			Enabled: true,
			Rate:    "300-M",
		},
	}
}

func Load(path string) (Application, error) {
	// .env is optional, real environment variables take precedence over it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("could not load .env file: %v", err)
	}

	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "FINANCE_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "FINANCE_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
