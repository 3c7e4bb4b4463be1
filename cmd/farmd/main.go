package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/traderjoe-xyz/auto-pool-token-farm/config"
	"github.com/traderjoe-xyz/auto-pool-token-farm/farm"
	"github.com/traderjoe-xyz/auto-pool-token-farm/observability"
	"github.com/traderjoe-xyz/auto-pool-token-farm/observability/logging"
	"github.com/traderjoe-xyz/auto-pool-token-farm/rewarder"
	"github.com/traderjoe-xyz/auto-pool-token-farm/rpc"
	"github.com/traderjoe-xyz/auto-pool-token-farm/token"
)

func main() {
	configPath := flag.String("config", "farmd.toml", "path to the farmd configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "farmd: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("farmd", cfg.Environment)

	ledger, factory, err := bootstrap(cfg)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	logger.Info("farm ledger ready",
		"pools", ledger.PoolCount(),
		"rewarders", factory.Count(),
		"operator", cfg.Operator,
	)

	server := rpc.NewServer(ledger)
	handler := server.Router(promhttp.Handler())
	logger.Info("serving reporting api", "listen", cfg.ListenAddress)
	if err := http.ListenAndServe(cfg.ListenAddress, handler); err != nil {
		logger.Error("http server stopped", "error", err)
		os.Exit(1)
	}
}

// bootstrap builds the bank, ledger and factory from configuration: token
// registrations, reward funding, rewarder provisioning and pool creation.
func bootstrap(cfg *config.Config) (*farm.Ledger, *rewarder.Factory, error) {
	operator, _ := config.ParseAddress(cfg.Operator)
	ledgerAddr, _ := config.ParseAddress(cfg.LedgerAddress)
	rewardToken, _ := config.ParseAddress(cfg.RewardToken.Address)

	bank := token.NewBank()
	if err := bank.Register(rewardToken, token.Info{
		Symbol:   cfg.RewardToken.Symbol,
		Decimals: cfg.RewardToken.Decimals,
	}, cfg.RewardToken.TransferFeeBps); err != nil {
		return nil, nil, err
	}
	for _, tok := range cfg.Tokens {
		addr, _ := config.ParseAddress(tok.Address)
		if err := bank.Register(addr, token.Info{Symbol: tok.Symbol, Decimals: tok.Decimals}, tok.TransferFeeBps); err != nil {
			return nil, nil, err
		}
	}
	if cfg.RewardFunding != "" {
		funding, _ := config.ParseAmount(cfg.RewardFunding)
		if err := bank.Mint(rewardToken, ledgerAddr, funding); err != nil {
			return nil, nil, err
		}
	}

	ledger, err := farm.NewLedger(operator, ledgerAddr, rewardToken, bank)
	if err != nil {
		return nil, nil, err
	}
	emitter := observability.MetricsEmitter{Metrics: observability.Farm()}
	ledger.SetEmitter(emitter)

	factory, err := rewarder.NewFactory(operator, deriveFactoryAddress(ledgerAddr), ledgerAddr, bank)
	if err != nil {
		return nil, nil, err
	}
	factory.SetEmitter(emitter)

	for _, pool := range cfg.Pools {
		staked, _ := config.ParseAddress(pool.StakedToken)
		rate, _ := config.ParseAmount(pool.RatePerSecond)

		var attached farm.Rewarder
		if pool.RewarderToken != "" || pool.RewarderNative {
			bonusToken, _ := config.ParseAddress(pool.RewarderToken)
			bonusRate, _ := config.ParseAmount(pool.RewarderRate)
			instance, err := factory.CreateRewarder(operator, bonusToken, staked, bonusRate, pool.RewarderNative)
			if err != nil {
				return nil, nil, err
			}
			if pool.RewarderFunding != "" {
				funding, err := config.ParseAmount(pool.RewarderFunding)
				if err != nil {
					return nil, nil, err
				}
				fundToken := bonusToken
				if pool.RewarderNative {
					fundToken = token.Native
				}
				if err := bank.Mint(fundToken, instance.Address(), funding); err != nil {
					return nil, nil, err
				}
			}
			attached = instance
		}
		if _, err := ledger.AddPool(operator, rate, staked, attached); err != nil {
			return nil, nil, err
		}
	}
	return ledger, factory, nil
}

// deriveFactoryAddress gives the factory a stable identity one step away from
// the ledger's.
func deriveFactoryAddress(ledgerAddr common.Address) common.Address {
	derived := ledgerAddr
	derived[len(derived)-1] ^= 0x01
	return derived
}
