// Package config loads the deployment's provisioning parameters: the token
// binding, the initial role membership, the blockchain registry entries and
// the fee parameters. Values come from a yaml file with environment
// variable overrides, so secrets like the database connection string never
// have to live in the file.
package config

import (
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// BlockchainEntry is one initial registry entry.
type BlockchainEntry struct {
	Name           string `yaml:"name"`
	MinGasPrice    int64  `yaml:"min_gas_price"`
	MinTokenAmount int64  `yaml:"min_token_amount"`
}

// Configuration holds everything an external provisioning process supplies
// to a fresh bridge ledger deployment.
type Configuration struct {
	Token struct {
		Address string `yaml:"address"`
		// RPC endpoint and signing key for the ERC20 adapter; unused when
		// the ledger runs against an in-memory token.
		RPCURL     string `yaml:"rpc_url" envconfig:"TOKEN_RPC_URL"`
		PrivateKey string `yaml:"private_key" envconfig:"TOKEN_PRIVATE_KEY"`
	} `yaml:"token"`

	Bridge struct {
		Account string `yaml:"account"`
		Owner   string `yaml:"owner"`
		// Nil leaves the ledger's default in place; an explicit zero is a
		// valid override.
		FeePercentage     *int64 `yaml:"fee_percentage"`
		GasAcceptTransfer *int64 `yaml:"gas_accept_transfer"`
		QuoteETHBRZ       *int64 `yaml:"quote_eth_brz"`
	} `yaml:"bridge"`

	Admins      []string          `yaml:"admins"`
	Monitors    []string          `yaml:"monitors"`
	Blockchains []BlockchainEntry `yaml:"blockchains"`

	Database struct {
		ConnStr string `yaml:"conn_str" envconfig:"DATABASE_URL"`
	} `yaml:"database"`
}

// Load reads the yaml file at path and applies environment overrides.
func Load(path string) (*Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer f.Close()

	var cfg Configuration
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config file")
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process environment overrides")
	}

	return &cfg, nil
}
