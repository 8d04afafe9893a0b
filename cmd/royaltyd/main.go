package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"royaltychain/config"
	"royaltychain/core/height"
	"royaltychain/core/state"
	"royaltychain/native/royalty"
	"royaltychain/observability"
	"royaltychain/observability/logging"
	"royaltychain/rpc"
	"royaltychain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("royaltyd", cfg.NetworkName)

	admin, err := cfg.Admin()
	if err != nil {
		logger.Error("Invalid administrator address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)

	genesisUnix, err := manager.GenesisTimeGet()
	if err != nil {
		logger.Error("Failed to read genesis time", slog.Any("error", err))
		os.Exit(1)
	}
	if genesisUnix == 0 {
		genesisUnix = time.Now().Unix()
		if err := manager.GenesisTimePut(genesisUnix); err != nil {
			logger.Error("Failed to persist genesis time", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Initialized ledger genesis", slog.Int64("genesisUnix", genesisUnix))
	}
	clock, err := height.NewClock(genesisUnix, time.Duration(cfg.BlockIntervalSeconds)*time.Second)
	if err != nil {
		logger.Error("Failed to build height clock", slog.Any("error", err))
		os.Exit(1)
	}

	// Seed the expiry window once; later changes go through the admin RPC.
	expiry, err := manager.PaymentExpiryGet()
	if err != nil {
		logger.Error("Failed to read payment expiry window", slog.Any("error", err))
		os.Exit(1)
	}
	if expiry == 0 {
		if err := manager.PaymentExpiryPut(cfg.PaymentExpiryBlocks); err != nil {
			logger.Error("Failed to seed payment expiry window", slog.Any("error", err))
			os.Exit(1)
		}
	}

	engine := royalty.NewEngine()
	engine.SetState(manager)
	engine.SetFunding(manager.Funding())
	engine.SetAdmin(admin.Raw())
	engine.SetHeightFunc(clock.Height)
	engine.SetEmitter(observability.MetricsEmitter{})

	server := rpc.NewServer(engine, manager)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting JSON-RPC server", slog.String("address", cfg.RPCAddress))
		errCh <- server.Start(cfg.RPCAddress)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	case sig := <-sigCh:
		logger.Info("Shutting down", slog.String("signal", sig.String()))
	}
}
