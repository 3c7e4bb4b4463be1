package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

var (
	errMissingOperator  = errors.New("config: Operator is required")
	errMissingLedger    = errors.New("config: LedgerAddress is required")
	errBadAddress       = errors.New("config: invalid hex address")
	errBadAmount        = errors.New("config: invalid decimal amount")
	errDuplicateToken   = errors.New("config: duplicate token address")
	errPoolUnknownToken = errors.New("config: pool references unregistered token")
)

// Token describes one fungible token the service registers at startup.
type Token struct {
	Address        string `toml:"Address"`
	Symbol         string `toml:"Symbol"`
	Decimals       uint8  `toml:"Decimals"`
	TransferFeeBps uint64 `toml:"TransferFeeBps,omitempty"`
}

// Pool describes one staking pool the service creates at startup. The
// rewarder fields are optional; when RewarderToken is set (or
// RewarderNative is true) a rewarder is provisioned through the factory and
// attached to the pool.
type Pool struct {
	StakedToken     string `toml:"StakedToken"`
	RatePerSecond   string `toml:"RatePerSecond"`
	RewarderToken   string `toml:"RewarderToken,omitempty"`
	RewarderRate    string `toml:"RewarderRate,omitempty"`
	RewarderNative  bool   `toml:"RewarderNative,omitempty"`
	RewarderFunding string `toml:"RewarderFunding,omitempty"`
}

// Config is the farmd service configuration.
type Config struct {
	ListenAddress string  `toml:"ListenAddress"`
	Environment   string  `toml:"Environment"`
	Operator      string  `toml:"Operator"`
	LedgerAddress string  `toml:"LedgerAddress"`
	RewardToken   Token   `toml:"RewardToken"`
	RewardFunding string  `toml:"RewardFunding,omitempty"`
	Tokens        []Token `toml:"Tokens"`
	Pools         []Pool  `toml:"Pools"`
}

// Load reads the configuration from path and applies defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8647"
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "local"
	}
	if strings.TrimSpace(c.RewardToken.Symbol) == "" {
		c.RewardToken.Symbol = "REWARD"
	}
	if c.RewardToken.Decimals == 0 {
		c.RewardToken.Decimals = 18
	}
}

// Validate checks addresses, amounts and cross references without touching
// any engine state.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Operator) == "" {
		return errMissingOperator
	}
	if strings.TrimSpace(c.LedgerAddress) == "" {
		return errMissingLedger
	}
	for _, raw := range []string{c.Operator, c.LedgerAddress, c.RewardToken.Address} {
		if _, err := ParseAddress(raw); err != nil {
			return err
		}
	}
	seen := map[common.Address]bool{}
	rewardAddr, _ := ParseAddress(c.RewardToken.Address)
	seen[rewardAddr] = true
	for _, tok := range c.Tokens {
		addr, err := ParseAddress(tok.Address)
		if err != nil {
			return err
		}
		if seen[addr] {
			return fmt.Errorf("%w: %s", errDuplicateToken, tok.Address)
		}
		seen[addr] = true
	}
	if c.RewardFunding != "" {
		if _, err := ParseAmount(c.RewardFunding); err != nil {
			return err
		}
	}
	for _, pool := range c.Pools {
		staked, err := ParseAddress(pool.StakedToken)
		if err != nil {
			return err
		}
		if !seen[staked] {
			return fmt.Errorf("%w: %s", errPoolUnknownToken, pool.StakedToken)
		}
		if _, err := ParseAmount(pool.RatePerSecond); err != nil {
			return err
		}
		if pool.RewarderToken != "" || pool.RewarderNative {
			if !pool.RewarderNative {
				rewarder, err := ParseAddress(pool.RewarderToken)
				if err != nil {
					return err
				}
				if !seen[rewarder] {
					return fmt.Errorf("%w: %s", errPoolUnknownToken, pool.RewarderToken)
				}
			}
			if _, err := ParseAmount(pool.RewarderRate); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseAddress decodes a 0x-prefixed hex address.
func ParseAddress(raw string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("%w: %q", errBadAddress, raw)
	}
	return common.HexToAddress(trimmed), nil
}

// ParseAmount decodes a non-negative base-10 integer amount.
func ParseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	v, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", errBadAmount, raw)
	}
	return v, nil
}
