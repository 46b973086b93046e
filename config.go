package main

import (
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	configDirPathEnv     = "ENCLAVED_CONFIG_DIR_PATH"
	defaultConfigDirPath = "."
)

// ServerConfig is the HTTP bind surface.
type ServerConfig struct {
	Host        string `env:"ENCLAVED_HOST" env-default:"0.0.0.0"`
	Port        string `env:"ENCLAVED_PORT" env-default:"8787"`
	MetricsPort string `env:"ENCLAVED_METRICS_PORT" env-default:"4242"`
}

// StorageConfig selects the durable-state backend. The file driver keeps a
// JSON policy document and a newline-delimited idempotency log; the sqlite and
// postgres drivers store both in a database.
type StorageConfig struct {
	Driver     string `env:"ENCLAVED_STORAGE_DRIVER" env-default:"file"`
	PolicyPath string `env:"ENCLAVED_POLICY_PATH" env-default:"policy.json"`
	LogPath    string `env:"ENCLAVED_IDEMPOTENCY_LOG_PATH" env-default:"idempotency.log"`
}

// Config represents the overall application configuration
type Config struct {
	masterSecret string
	disabled     bool
	apiToken     string
	jwtSecret    string

	server  ServerConfig
	storage StorageConfig
	dbConf  DatabaseConfig

	cardanoMnemonic string
	ethereumKeyHex  string
	solanaSeedHex   string
}

// LoadConfig builds configuration from environment variables
func LoadConfig(logger Logger) (*Config, error) {
	logger = logger.NewSystem("config")

	configDirPath := os.Getenv(configDirPathEnv)
	if configDirPath == "" {
		configDirPath = defaultConfigDirPath
	}

	// Load .env files
	configDotEnvPath := filepath.Join(configDirPath, ".env")
	logger.Info("loading .env file", "path", configDotEnvPath)
	if err := godotenv.Load(configDotEnvPath); err != nil {
		logger.Warn(".env file not found")
	}

	var server ServerConfig
	if err := cleanenv.ReadEnv(&server); err != nil {
		logger.Error("failed to read server env", "err", err)
		return nil, err
	}

	var storage StorageConfig
	if err := cleanenv.ReadEnv(&storage); err != nil {
		logger.Error("failed to read storage env", "err", err)
		return nil, err
	}

	var dbConf DatabaseConfig
	if dbURL := os.Getenv("ENCLAVED_DATABASE_URL"); dbURL != "" {
		var err error
		dbConf, err = ParseConnectionString(dbURL)
		if err != nil {
			logger.Error("failed to parse connection string", "err", err)
			return nil, err
		}
	} else if err := cleanenv.ReadEnv(&dbConf); err != nil {
		logger.Error("failed to read database env", "err", err)
		return nil, err
	}

	// The master secret gates every crypto and signing operation. Its absence
	// does not stop the process; every call fails closed instead.
	masterSecret := os.Getenv("ENCLAVED_MASTER_SECRET")
	disabled := os.Getenv("ENCLAVED_DISABLED") == "true"
	if disabled {
		logger.Warn("enclave is administratively disabled; all operations will fail closed")
	} else if masterSecret == "" {
		logger.Warn("ENCLAVED_MASTER_SECRET is not set; all operations will fail closed")
	}

	apiToken := os.Getenv("ENCLAVED_API_TOKEN")
	if apiToken == "" {
		logger.Fatal("ENCLAVED_API_TOKEN environment variable is required")
	}

	config := Config{
		masterSecret:    masterSecret,
		disabled:        disabled,
		apiToken:        apiToken,
		jwtSecret:       os.Getenv("ENCLAVED_JWT_SECRET"),
		server:          server,
		storage:         storage,
		dbConf:          dbConf,
		cardanoMnemonic: os.Getenv("ENCLAVED_CARDANO_MNEMONIC"),
		ethereumKeyHex:  os.Getenv("ENCLAVED_ETHEREUM_PRIVATE_KEY"),
		solanaSeedHex:   os.Getenv("ENCLAVED_SOLANA_SEED"),
	}

	if config.cardanoMnemonic == "" && config.ethereumKeyHex == "" && config.solanaSeedHex == "" {
		logger.Warn("no chain seed material configured; signing intents will fail")
	}

	return &config, nil
}
