package config

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/brzbridge/ledger-lib/ledger"
)

// Provision applies the configuration to a freshly constructed ledger in
// the deployment order: fee parameters first, then the blockchain
// registry, then role membership. The owner identity performs every
// owner-gated step; the ETH quote is admin-gated, so setting it requires
// at least one configured admin.
func Provision(b *ledger.Bridge, cfg *Configuration) error {
	owner := common.HexToAddress(cfg.Bridge.Owner)

	if cfg.Bridge.FeePercentage != nil {
		if err := b.SetFeePercentageBridge(owner, big.NewInt(*cfg.Bridge.FeePercentage)); err != nil {
			return errors.Wrap(err, "failed to set fee percentage")
		}
	}
	if cfg.Bridge.GasAcceptTransfer != nil {
		if err := b.SetGasAcceptTransfer(owner, big.NewInt(*cfg.Bridge.GasAcceptTransfer)); err != nil {
			return errors.Wrap(err, "failed to set gasAcceptTransfer")
		}
	}

	for _, entry := range cfg.Blockchains {
		err := b.AddBlockchain(owner, entry.Name, big.NewInt(entry.MinGasPrice), big.NewInt(entry.MinTokenAmount))
		if err != nil {
			return errors.Wrapf(err, "failed to add blockchain %s", entry.Name)
		}
	}

	for _, admin := range cfg.Admins {
		if err := b.AddAdmin(owner, common.HexToAddress(admin)); err != nil {
			return errors.Wrapf(err, "failed to add admin %s", admin)
		}
	}
	for _, mon := range cfg.Monitors {
		if err := b.AddMonitor(owner, common.HexToAddress(mon)); err != nil {
			return errors.Wrapf(err, "failed to add monitor %s", mon)
		}
	}

	if cfg.Bridge.QuoteETHBRZ != nil {
		if len(cfg.Admins) == 0 {
			return errors.New("quote_eth_brz requires at least one admin")
		}
		admin := common.HexToAddress(cfg.Admins[0])
		if err := b.SetQuoteETHBRZ(admin, big.NewInt(*cfg.Bridge.QuoteETHBRZ)); err != nil {
			return errors.Wrap(err, "failed to set quote")
		}
	}

	return nil
}
