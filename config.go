package accounting

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the accounting engine's slice of the platform configuration:
// account denomination, starting balances and the settlement convention per
// asset class. Amounts are carried as strings so the YAML round trip never
// degrades them to binary floats.
type Config struct {
	AccountCurrency string                      `yaml:"account_currency"`
	StartingCash    []CashConfig                `yaml:"starting_cash"`
	Settlement      map[string]SettlementConfig `yaml:"settlement"`
}

// CashConfig is one starting balance entry.
type CashConfig struct {
	Currency       string `yaml:"currency"`
	Amount         string `yaml:"amount"`
	ConversionRate string `yaml:"conversion_rate"`
}

// SettlementConfig selects the settlement model of an asset class.
type SettlementConfig struct {
	Model     string `yaml:"model"` // "immediate" or "delayed"
	Days      int    `yaml:"days,omitempty"`
	TimeOfDay string `yaml:"time_of_day,omitempty"` // e.g. "8h", "9h30m"
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses and validates YAML configuration bytes.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for setup-time errors.
func (c *Config) Validate() error {
	if c.AccountCurrency != "" {
		if err := ValidateCurrency(NormalizeCurrency(c.AccountCurrency)); err != nil {
			return fmt.Errorf("account_currency: %w", err)
		}
	}
	for i, cash := range c.StartingCash {
		if err := ValidateCurrency(NormalizeCurrency(cash.Currency)); err != nil {
			return fmt.Errorf("starting_cash[%d]: %w", i, err)
		}
		if _, err := decimal.NewFromString(cash.Amount); err != nil {
			return fmt.Errorf("starting_cash[%d] amount %q: %w", i, cash.Amount, err)
		}
		if cash.ConversionRate != "" {
			if _, err := decimal.NewFromString(cash.ConversionRate); err != nil {
				return fmt.Errorf("starting_cash[%d] conversion_rate %q: %w", i, cash.ConversionRate, err)
			}
		}
	}
	for class, sc := range c.Settlement {
		switch sc.Model {
		case "immediate":
		case "delayed":
			if sc.Days < 0 {
				return fmt.Errorf("settlement %q: days must not be negative", class)
			}
			if sc.TimeOfDay != "" {
				if _, err := time.ParseDuration(sc.TimeOfDay); err != nil {
					return fmt.Errorf("settlement %q time_of_day: %w", class, err)
				}
			}
		default:
			return fmt.Errorf("settlement %q: unknown model %q", class, sc.Model)
		}
	}
	return nil
}

// SettlementModelFor builds the settlement model configured for an asset
// class, defaulting to immediate settlement when the class has no entry.
func (c *Config) SettlementModelFor(t SecurityType) (SettlementModel, error) {
	sc, ok := c.Settlement[t.String()]
	if !ok {
		return ImmediateSettlementModel{}, nil
	}
	switch sc.Model {
	case "immediate":
		return ImmediateSettlementModel{}, nil
	case "delayed":
		timeOfDay := 8 * time.Hour
		if sc.TimeOfDay != "" {
			d, err := time.ParseDuration(sc.TimeOfDay)
			if err != nil {
				return nil, fmt.Errorf("settlement %q time_of_day: %w", t, err)
			}
			timeOfDay = d
		}
		return DelayedSettlementModel{NumberOfDays: sc.Days, TimeOfDay: timeOfDay}, nil
	default:
		return nil, fmt.Errorf("settlement %q: unknown model %q", t, sc.Model)
	}
}

// Apply configures a freshly constructed portfolio: account currency first
// (the one-time operation), then the starting balances.
func (c *Config) Apply(p *Portfolio) error {
	if c.AccountCurrency != "" {
		if err := p.SetAccountCurrency(c.AccountCurrency); err != nil {
			return err
		}
	}
	for _, cash := range c.StartingCash {
		amount := decimal.RequireFromString(cash.Amount)
		currency := NormalizeCurrency(cash.Currency)
		if currency == p.AccountCurrency() {
			p.SetCash(amount)
			continue
		}
		rate := decimal.Zero
		if cash.ConversionRate != "" {
			rate = decimal.RequireFromString(cash.ConversionRate)
		}
		p.SetCurrencyCash(currency, amount, rate)
	}
	return nil
}
