package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	DatabaseURL       string
	HTTPListenAddr    string
	MetricsListenAddr string
	LogLevel          string
	ServiceName       string

	// Signing domain parameters. These must match the off-chain signer's
	// domain exactly or every authorization will be rejected.
	DomainName      string
	DomainVersion   string
	ChainID         uint64
	ContractAddress string

	// TrustedSigner is the only identity whose authorizations are accepted.
	TrustedSigner string

	// OwnerAddress and TokenAddress seed the payment_config row on first boot.
	OwnerAddress string
	TokenAddress string

	// TreasuryAddress is the account funds are pulled into and swept from.
	TreasuryAddress string

	TokenGatewayMode string // "memory" or "http"
	TokenGatewayURL  string
}

func Load() (*Config, error) {
	chainID, err := strconv.ParseUint(getEnv("CHAIN_ID", "1"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse CHAIN_ID: %w", err)
	}

	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MetricsListenAddr: getEnv("METRICS_LISTEN_ADDR", ":9090"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ServiceName:       getEnv("SERVICE_NAME", "subpay"),
		DomainName:        getEnv("DOMAIN_NAME", "Subscription"),
		DomainVersion:     getEnv("DOMAIN_VERSION", "1"),
		ChainID:           chainID,
		ContractAddress:   getEnv("CONTRACT_ADDRESS", ""),
		TrustedSigner:     getEnv("TRUSTED_SIGNER", ""),
		OwnerAddress:      getEnv("OWNER_ADDRESS", ""),
		TokenAddress:      getEnv("TOKEN_ADDRESS", ""),
		TreasuryAddress:   getEnv("TREASURY_ADDRESS", ""),
		TokenGatewayMode:  getEnv("TOKEN_GATEWAY_MODE", "http"),
		TokenGatewayURL:   getEnv("TOKEN_GATEWAY_URL", ""),
	}

	return cfg, nil
}

// Validate checks that the config is complete for the given component.
func (c *Config) Validate(component string) error {
	switch component {
	case "subpay-api":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		for _, f := range []struct{ name, value string }{
			{"CONTRACT_ADDRESS", c.ContractAddress},
			{"TRUSTED_SIGNER", c.TrustedSigner},
			{"OWNER_ADDRESS", c.OwnerAddress},
			{"TOKEN_ADDRESS", c.TokenAddress},
			{"TREASURY_ADDRESS", c.TreasuryAddress},
		} {
			if err := requireAddress(f.name, f.value); err != nil {
				return err
			}
		}
		switch c.TokenGatewayMode {
		case "memory":
		case "http":
			if c.TokenGatewayURL == "" {
				return fmt.Errorf("TOKEN_GATEWAY_URL is required when TOKEN_GATEWAY_MODE=http")
			}
		default:
			return fmt.Errorf("unknown TOKEN_GATEWAY_MODE %q", c.TokenGatewayMode)
		}
	}
	return nil
}

// Parsed accessors for the address-valued settings. Only meaningful after
// Validate has passed.

func (c *Config) ContractAddr() common.Address      { return common.HexToAddress(c.ContractAddress) }
func (c *Config) TrustedSignerAddr() common.Address { return common.HexToAddress(c.TrustedSigner) }
func (c *Config) OwnerAddr() common.Address         { return common.HexToAddress(c.OwnerAddress) }
func (c *Config) TokenAddr() common.Address         { return common.HexToAddress(c.TokenAddress) }
func (c *Config) TreasuryAddr() common.Address      { return common.HexToAddress(c.TreasuryAddress) }

func requireAddress(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	if !common.IsHexAddress(value) {
		return fmt.Errorf("%s is not a valid address: %q", name, value)
	}
	if common.HexToAddress(value) == (common.Address{}) {
		return fmt.Errorf("%s must not be the zero address", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
