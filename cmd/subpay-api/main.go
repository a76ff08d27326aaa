package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/subpay/internal/api"
	"github.com/edvin/subpay/internal/config"
	"github.com/edvin/subpay/internal/core"
	"github.com/edvin/subpay/internal/db"
	"github.com/edvin/subpay/internal/eip712"
	"github.com/edvin/subpay/internal/logging"
	"github.com/edvin/subpay/internal/metrics"
	"github.com/edvin/subpay/internal/token"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "create-api-key" {
		createAPIKey(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations/core", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("subpay-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	var gateway token.Gateway
	switch cfg.TokenGatewayMode {
	case "memory":
		logger.Warn().Msg("using in-memory token ledger, balances will not survive restarts")
		gateway = token.NewLedgerGateway(token.NewLedger(), cfg.TreasuryAddr())
	default:
		gateway = token.NewClient(cfg.TokenGatewayURL, cfg.TreasuryAddr())
	}

	verifier := eip712.NewVerifier(eip712.Domain{
		Name:              cfg.DomainName,
		Version:           cfg.DomainVersion,
		ChainID:           cfg.ChainID,
		VerifyingContract: cfg.ContractAddr(),
	}, cfg.TrustedSignerAddr())

	services := core.NewServices(pool, gateway, verifier, cfg.TreasuryAddr(), logger)
	if err := services.PaymentConfig.Ensure(ctx, cfg.TokenAddr(), cfg.OwnerAddr()); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed payment config")
	}

	apiServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      api.NewServer(logger, pool, services, gateway, cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	metricsServer := metrics.NewServer(cfg.MetricsListenAddr)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting API server")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			logger.Info().Msg("shutting down")
		case <-gctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		apiServer.Shutdown(shutdownCtx)
		metricsServer.Shutdown(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func createAPIKey(args []string) {
	fs := flag.NewFlagSet("create-api-key", flag.ExitOnError)
	name := fs.String("name", "", "Name for the API key (required)")
	address := fs.String("address", "", "Wallet address the key's payments are bound to (required)")
	fs.Parse(args)

	if *name == "" || *address == "" {
		fmt.Fprintln(os.Stderr, "error: --name and --address are required")
		fmt.Fprintln(os.Stderr, "usage: subpay-api create-api-key --name <name> --address <0x...>")
		os.Exit(1)
	}
	if !common.IsHexAddress(*address) {
		fmt.Fprintf(os.Stderr, "error: %q is not a valid address\n", *address)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	key, rawKey, err := core.NewAPIKeyService(pool).Create(ctx, *name, common.HexToAddress(*address))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API key created successfully.\n\n")
	fmt.Printf("  Name:     %s\n", key.Name)
	fmt.Printf("  ID:       %s\n", key.ID)
	fmt.Printf("  Address:  %s\n", key.Address.Hex())
	fmt.Printf("  Key:      %s\n\n", rawKey)
	fmt.Printf("Save this key - it will not be shown again.\n")
}
