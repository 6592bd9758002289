package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, loaded from YAML and then
// overridden by environment variables.
type Config struct {
	Server     ServerConfig           `yaml:"server"`
	Database   DatabaseConfig         `yaml:"database"`
	NATS       NATSConfig             `yaml:"nats"`
	Blockchain BlockchainConfig       `yaml:"blockchain"`
	Assets     map[string]AssetConfig `yaml:"assets"`
	Ledger     LedgerConfig           `yaml:"ledger"`
	Admin      AdminConfig            `yaml:"admin"`
	CORS       CORSConfig             `yaml:"cors"`
}

// ServerConfig server listen address
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig Postgres connection
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig notification publisher configuration. Empty URL disables
// NATS publishing entirely.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subjectPrefix"`
	Timeout       int    `yaml:"timeout"`
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
}

// BlockchainConfig single-network chain access for the custody account.
type BlockchainConfig struct {
	ChainID         int64    `yaml:"chainId"`
	RPCEndpoints    []string `yaml:"rpcEndpoints"`
	PrivateKey      string   `yaml:"privateKey"`      // custodian key, hex without 0x prefix
	OwnerAddress    string   `yaml:"ownerAddress"`    // fee sweeps and emergency withdrawals pay here
	ExecutorAddress string   `yaml:"executorAddress"` // fallback; DB global config takes priority
	GasLimit        uint64   `yaml:"gasLimit"`
}

// AssetConfig one supported ERC-20 asset
type AssetConfig struct {
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
}

// LedgerConfig profit-fee accounting parameters
type LedgerConfig struct {
	// FeeRatePercent is the integer profit-share percentage (0-100),
	// fixed at startup. There is deliberately no runtime setter.
	FeeRatePercent int `yaml:"feeRatePercent"`
	// VerifyCustody, when true, rejects withdrawals whose requested
	// amount exceeds the custody balance measured on-chain.
	VerifyCustody bool `yaml:"verifyCustody"`
}

// AdminConfig admin API access control
type AdminConfig struct {
	AllowedIPs []string `yaml:"allowedIPs"` // IPs or CIDR ranges; empty = localhost only
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

var AppConfig *Config

// LoadConfig reads the YAML config file, applies environment overrides and
// validates the result. Pass an empty path to use config.yaml (or
// config.local.yaml when present).
func LoadConfig(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	overrideFromEnv(&config)

	if err := validate(&config); err != nil {
		return err
	}

	AppConfig = &config
	return nil
}

func overrideFromEnv(config *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	if natsTimeout := os.Getenv("NATS_TIMEOUT"); natsTimeout != "" {
		if t, err := strconv.Atoi(natsTimeout); err == nil {
			config.NATS.Timeout = t
		}
	}

	if privateKey := os.Getenv("CUSTODIAN_PRIVATE_KEY"); privateKey != "" {
		config.Blockchain.PrivateKey = privateKey
	}
	if rpcEndpoints := os.Getenv("RPC_ENDPOINTS"); rpcEndpoints != "" {
		config.Blockchain.RPCEndpoints = splitAndTrim(rpcEndpoints)
	}
	if chainID := os.Getenv("CHAIN_ID"); chainID != "" {
		if id, err := strconv.ParseInt(chainID, 10, 64); err == nil {
			config.Blockchain.ChainID = id
		}
	}
	if owner := os.Getenv("OWNER_ADDRESS"); owner != "" {
		config.Blockchain.OwnerAddress = owner
	}
	if executor := os.Getenv("EXECUTOR_ADDRESS"); executor != "" {
		config.Blockchain.ExecutorAddress = executor
	}
	if gasLimit := os.Getenv("GAS_LIMIT"); gasLimit != "" {
		if limit, err := strconv.ParseUint(gasLimit, 10, 64); err == nil {
			config.Blockchain.GasLimit = limit
		}
	}

	if feeRate := os.Getenv("FEE_RATE_PERCENT"); feeRate != "" {
		if r, err := strconv.Atoi(feeRate); err == nil {
			config.Ledger.FeeRatePercent = r
		}
	}
	if verify := os.Getenv("LEDGER_VERIFY_CUSTODY"); verify != "" {
		config.Ledger.VerifyCustody = verify == "true"
	}

	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.CORS.AllowedOrigins = splitAndTrim(corsOrigins)
	}
}

func validate(config *Config) error {
	if config.Ledger.FeeRatePercent < 0 || config.Ledger.FeeRatePercent > 100 {
		return fmt.Errorf("ledger.feeRatePercent must be within [0, 100], got %d", config.Ledger.FeeRatePercent)
	}
	if config.Blockchain.OwnerAddress == "" {
		return fmt.Errorf("blockchain.ownerAddress is required")
	}
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// GetAsset looks up a configured asset by key.
func GetAsset(assetKey string) (*AssetConfig, error) {
	if AppConfig == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	asset, exists := AppConfig.Assets[assetKey]
	if !exists {
		return nil, fmt.Errorf("asset %s not configured", assetKey)
	}
	return &asset, nil
}
