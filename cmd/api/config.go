package main

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
	"github.com/omeid/uconfig"
	"github.com/rs/zerolog/log"
)

// configFilename is the filename of the config file automatically loaded.
var configFilename = "config.json"

type config struct {
	HTTP struct {
		Port string `default:"8080"` // HTTP port (e.g. 8080)
	}
	Metrics struct {
		Port string `default:"9090"`
	}
	Log struct {
		Human bool `default:"false"`
		Debug bool `default:"false"`
	}
	RateLimiter struct {
		MaxRPI          uint64 `default:"10"`
		IntervalSeconds int    `default:"1"`
	}
	CORS struct {
		// Comma-separated origin allow list; empty allows every origin.
		AllowedOrigins string `default:""`
	}
	Analytics struct {
		SyntheticUsers bool `default:"true"`
		// Optional JSON file overriding the compiled-in network/factory
		// table.
		NetworksFile string `default:""`
	}
}

func setupConfig() *config {
	_ = godotenv.Load()

	conf := &config{}
	confFiles := uconfig.Files{
		{configFilename, json.Unmarshal},
	}

	c, err := uconfig.Classic(&conf, confFiles)
	if err != nil {
		c.Usage()
		os.Exit(1)
	}

	return conf
}

// requireEnv reads a required environment variable, failing startup when
// it is unset.
func requireEnv(name string) string {
	v := os.Getenv(name)
	if v == "" {
		log.Fatal().Str("name", name).Msg("required environment variable is not set")
	}
	return v
}
