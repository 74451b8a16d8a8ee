package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const DefaultInvoiceNumberTemplate = "{YYYY}-{SEQ5}"

// RentalConfig holds the business settings that operators tune without a redeploy.
type RentalConfig struct {
	Currency              string   `mapstructure:"currency"`
	InvoiceNumberTemplate string   `mapstructure:"invoiceNumberTemplate"`
	UnitStates            []string `mapstructure:"unitStates"`
}

func DefaultRentalConfig() RentalConfig {
	return RentalConfig{
		Currency:              "EUR",
		InvoiceNumberTemplate: DefaultInvoiceNumberTemplate,
		UnitStates:            []string{"state-of-use", "excellent", "brand-new", "bad", "outdated"},
	}
}

// HasUnitState reports whether state is one of the configured unit states.
func (c RentalConfig) HasUnitState(state string) bool {
	state = strings.TrimSpace(state)
	for _, s := range c.UnitStates {
		if s == state {
			return true
		}
	}
	return false
}

type RentalConfigHolder struct {
	current atomic.Value // holds RentalConfig
}

// NewStaticRentalConfigHolder returns a holder that never reloads.
func NewStaticRentalConfigHolder(cfg RentalConfig) *RentalConfigHolder {
	holder := &RentalConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewRentalConfigHolder(log *zap.Logger) (*RentalConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("rental")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/rentalops")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RENTALOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRentalConfig()
	v.SetDefault("rental.currency", defaults.Currency)
	v.SetDefault("rental.invoiceNumberTemplate", defaults.InvoiceNumberTemplate)
	v.SetDefault("rental.unitStates", defaults.UnitStates)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg RentalConfig
	if err := v.UnmarshalKey("rental", &cfg); err != nil {
		return nil, err
	}
	if err := validateRentalConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticRentalConfigHolder(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RentalConfig
		if err := v.UnmarshalKey("rental", &updated); err != nil {
			log.Warn("rental config reload failed", zap.Error(err))
			return
		}
		if err := validateRentalConfig(updated); err != nil {
			log.Warn("invalid rental config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("rental config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *RentalConfigHolder) Get() RentalConfig {
	return h.current.Load().(RentalConfig)
}

func validateRentalConfig(cfg RentalConfig) error {
	if strings.TrimSpace(cfg.Currency) == "" {
		return errors.New("rental.currency cannot be empty")
	}
	if strings.TrimSpace(cfg.InvoiceNumberTemplate) == "" {
		return errors.New("rental.invoiceNumberTemplate cannot be empty")
	}
	if len(cfg.UnitStates) == 0 {
		return errors.New("rental.unitStates cannot be empty")
	}
	return nil
}
