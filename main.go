package main

import (
	"context"
	"embed"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shipyardlabs/enclaved/pkg/sign"
)

//go:embed config/migrations/*/*.sql
var embedMigrations embed.FS

func main() {
	logger := NewLoggerIPFS("root")
	if len(os.Args) > 1 {
		// If a CLI command is provided, run it and exit
		runCli(logger, os.Args[1])
		return
	}

	config, err := LoadConfig(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	store, err := BuildStore(config, logger)
	if err != nil {
		logger.Fatal("failed to set up storage", "error", err)
	}

	adapters, err := BuildAdapters(config, logger)
	if err != nil {
		logger.Fatal("failed to initialise chain signers", "error", err)
	}

	authManager, err := NewAuthManager(config.apiToken, config.jwtSecret)
	if err != nil {
		logger.Fatal("failed to initialize auth manager", "error", err)
	}

	envelope := NewEnvelopeService(config.masterSecret, config.disabled)

	// Initialize Prometheus metrics
	metrics := NewMetrics()

	enclave := NewEnclave(authManager, store, adapters, envelope, metrics, logger)
	server := NewServer(enclave, logger)

	apiListenAddr := net.JoinHostPort(config.server.Host, config.server.Port)
	apiServer := &http.Server{
		Addr:    apiListenAddr,
		Handler: server.Handler(),
	}

	metricsListenAddr := ":" + config.server.MetricsPort
	metricsEndpoint := "/metrics"
	// Set up a separate mux for metrics
	metricsMux := http.NewServeMux()
	metricsMux.Handle(metricsEndpoint, promhttp.Handler())

	// Start metrics server on a separate port
	metricsServer := &http.Server{
		Addr:    metricsListenAddr,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("Prometheus metrics available", "listenAddr", metricsListenAddr, "endpoint", metricsEndpoint)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failure", "error", err)
		}
	}()

	// Start the main HTTP server.
	go func() {
		logger.Info("enclave API available", "listenAddr", apiListenAddr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("API server failure", "error", err)
		}
	}()

	// Wait for shutdown signal.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	// Shutdown metrics server
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down metrics server", "error", err)
	}

	// Shutdown API server
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down API server", "error", err)
	}

	logger.Info("shutdown complete")
}

// BuildStore selects the durable-state backend from configuration.
func BuildStore(config *Config, logger Logger) (EnclaveStore, error) {
	switch config.storage.Driver {
	case "file", "":
		logger.Info("using file-backed storage",
			"policyPath", config.storage.PolicyPath,
			"logPath", config.storage.LogPath)
		return NewFileStore(config.storage.PolicyPath, config.storage.LogPath), nil
	default:
		db, err := ConnectToDB(config.dbConf, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("using database-backed storage", "driver", config.dbConf.Driver)
		return NewDBStore(db), nil
	}
}

// BuildAdapters constructs one signer per configured chain seed.
func BuildAdapters(config *Config, logger Logger) (*ChainAdapters, error) {
	var signers []sign.Signer

	if config.cardanoMnemonic != "" {
		signer, err := sign.NewCardanoSigner(config.cardanoMnemonic)
		if err != nil {
			return nil, err
		}
		logger.Info("cardano signer initialized", "address", signer.PublicKey().Address().String())
		signers = append(signers, signer)
	}

	if config.ethereumKeyHex != "" {
		signer, err := sign.NewEthereumSigner(config.ethereumKeyHex)
		if err != nil {
			return nil, err
		}
		logger.Info("ethereum signer initialized", "address", signer.PublicKey().Address().String())
		signers = append(signers, signer)
	}

	if config.solanaSeedHex != "" {
		signer, err := sign.NewSolanaSigner(config.solanaSeedHex)
		if err != nil {
			return nil, err
		}
		logger.Info("solana signer initialized", "address", signer.PublicKey().Address().String())
		signers = append(signers, signer)
	}

	return NewChainAdapters(signers...), nil
}

func runCli(logger Logger, name string) {
	switch name {
	case "audit-export":
		runAuditExportCli(logger)
	case "verify":
		runVerifyCli(logger)
	default:
		logger.Fatal("Unknown CLI command", "name", name)
	}
}
