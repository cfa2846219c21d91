package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/faucetdrops/backend/buildinfo"
	"github.com/faucetdrops/backend/internal/analytics"
	"github.com/faucetdrops/backend/internal/chains"
	faucetimpl "github.com/faucetdrops/backend/internal/faucet/impl"
	"github.com/faucetdrops/backend/internal/router"
	"github.com/faucetdrops/backend/internal/sweeper"
	"github.com/faucetdrops/backend/pkg/logging"
	"github.com/faucetdrops/backend/pkg/metrics"
	"github.com/faucetdrops/backend/pkg/store/postgres"
	"github.com/faucetdrops/backend/pkg/wallet"
)

func main() {
	config := setupConfig()
	logging.Setup(logging.Config{
		Service: "faucetdrops-backend",
		Version: buildinfo.GitCommit,
		Debug:   config.Log.Debug,
		Human:   config.Log.Human,
	})
	ctx := context.Background()

	operator, err := wallet.NewWallet(requireEnv("PRIVATE_KEY"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load the operator wallet")
	}
	log.Info().Str("address", operator.Address().Hex()).Msg("operator wallet loaded")

	dsn, err := databaseDSN(requireEnv("SUPABASE_URL"), requireEnv("SUPABASE_KEY"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid database url")
	}
	db, err := postgres.New(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize the store")
	}
	defer db.Close()

	registry := chains.NewRegistry()
	defer registry.Close()
	stacks := chains.NewStacks(operator, registry.Backend)

	relayer := faucetimpl.NewRelayer(operator, stacks, postgres.NewDropCodeStore(db))
	sweepService := sweeper.New(operator, stacks)
	aggregator := analytics.New(
		registry.Backend,
		postgres.NewCacheStore(db),
		loadNetworks(config.Analytics.NetworksFile),
		config.Analytics.SyntheticUsers,
	)

	httpRouter, err := router.ConfiguredRouter(
		relayer,
		sweepService,
		aggregator,
		postgres.NewPreferenceStore(db),
		splitOrigins(config.CORS.AllowedOrigins),
		config.RateLimiter.MaxRPI,
		time.Duration(config.RateLimiter.IntervalSeconds)*time.Second,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure the router")
	}

	if err := metrics.SetupInstrumentation(":"+config.Metrics.Port, "faucetdrops-backend"); err != nil {
		log.Fatal().
			Err(err).
			Str("port", config.Metrics.Port).
			Msg("could not setup instrumentation")
	}

	log.Info().Str("port", config.HTTP.Port).Msg("serving http")
	if err := http.ListenAndServe(":"+config.HTTP.Port, httpRouter.Handler()); err != nil {
		log.Fatal().
			Err(err).
			Str("port", config.HTTP.Port).
			Msg("could not start server")
	}
}

// databaseDSN injects the service key as the password when the
// connection URL does not already carry one. Supabase hands out the
// host separately from the key, so most deployments set a bare URL.
func databaseDSN(rawURL, key string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing database url: %w", err)
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		return rawURL, nil
	}
	user := u.User.Username()
	if user == "" {
		user = "postgres"
	}
	u.User = url.UserPassword(user, key)
	return u.String(), nil
}

// loadNetworks reads the analytics network table from path, falling back
// to the compiled-in defaults when no file is configured.
func loadNetworks(path string) []analytics.Network {
	if path == "" {
		return analytics.DefaultNetworks()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("reading analytics networks file")
	}
	var networks []analytics.Network
	if err := json.Unmarshal(raw, &networks); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("parsing analytics networks file")
	}
	return networks
}

func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
