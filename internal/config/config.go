// Package config provides configuration for the application using
// command-line flags, environment variables and an optional JSON
// config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string

	// DatabasePath is the path of the SQLite database file.
	DatabasePath string

	// KeyPath is the path of the persisted key material blob.
	KeyPath string

	// LogLevel sets the logger verbosity.
	LogLevel string

	// Seed provisions default accounts and sample patients on start.
	Seed bool

	// Config is the path to the config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabasePath, "d", "hospital.db", "path to SQLite database file")
	flag.StringVar(&options.KeyPath, "k", "medvault.key", "path to key material file")
	flag.StringVar(&options.LogLevel, "l", "info", "log level")
	flag.BoolVar(&options.Seed, "seed", false, "seed default accounts and sample patients")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags, an optional .env file, and
// environment variables to set configuration values. It returns a
// pointer to the Options struct containing the parsed configuration.
func Parse() *Options {
	// A missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	flag.Parse()

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		options.Addr = addr
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		options.DatabasePath = dbPath
	}
	if keyPath := os.Getenv("KEY_PATH"); keyPath != "" {
		options.KeyPath = keyPath
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}
	if seed := os.Getenv("SEED"); seed != "" {
		if v, err := strconv.ParseBool(seed); err == nil {
			options.Seed = v
		}
	}

	return options
}
