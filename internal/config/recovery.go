package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RecoveryConfig controls the recovery-email cadence and subject wording.
// The hard cap of three reminders per attempt is not configurable.
type RecoveryConfig struct {
	FirstReminderDelay time.Duration `mapstructure:"firstReminderDelay"`
	ReminderCooldown   time.Duration `mapstructure:"reminderCooldown"`
	BatchLimit         int           `mapstructure:"batchLimit"`
	Subjects           []string      `mapstructure:"subjects"`
}

func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		FirstReminderDelay: 5 * time.Minute,
		ReminderCooldown:   time.Hour,
		BatchLimit:         50,
		Subjects: []string{
			"Seu acesso está quase pronto 💕",
			"Ainda dá tempo de finalizar seu PIX",
			"Última chance: seu plano está reservado",
		},
	}
}

// RecoveryConfigHolder serves the current recovery config and hot-reloads it
// when the underlying file changes.
type RecoveryConfigHolder struct {
	current atomic.Value // holds RecoveryConfig
}

func NewRecoveryConfigHolder() (*RecoveryConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("recovery")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/privehub")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PRIVEHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRecoveryConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		v.SetDefault("recovery.firstReminderDelay", defaults.FirstReminderDelay)
		v.SetDefault("recovery.reminderCooldown", defaults.ReminderCooldown)
		v.SetDefault("recovery.batchLimit", defaults.BatchLimit)
		v.SetDefault("recovery.subjects", defaults.Subjects)
	}

	var cfg RecoveryConfig
	if err := v.UnmarshalKey("recovery", &cfg); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if err := validateRecoveryConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RecoveryConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RecoveryConfig
		if err := v.UnmarshalKey("recovery", &updated); err != nil {
			log.Printf("[recovery-config] reload failed: %v", err)
			return
		}
		updated = updated.withDefaults()
		if err := validateRecoveryConfig(updated); err != nil {
			log.Printf("[recovery-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[recovery-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticRecoveryConfigHolder wraps a fixed config with no file watching.
func NewStaticRecoveryConfigHolder(cfg RecoveryConfig) *RecoveryConfigHolder {
	holder := &RecoveryConfigHolder{}
	holder.current.Store(cfg.withDefaults())
	return holder
}

func (h *RecoveryConfigHolder) Get() RecoveryConfig {
	return h.current.Load().(RecoveryConfig)
}

func (c RecoveryConfig) withDefaults() RecoveryConfig {
	defaults := DefaultRecoveryConfig()
	if c.FirstReminderDelay <= 0 {
		c.FirstReminderDelay = defaults.FirstReminderDelay
	}
	if c.ReminderCooldown <= 0 {
		c.ReminderCooldown = defaults.ReminderCooldown
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = defaults.BatchLimit
	}
	if len(c.Subjects) == 0 {
		c.Subjects = defaults.Subjects
	}
	return c
}

func validateRecoveryConfig(cfg RecoveryConfig) error {
	if len(cfg.Subjects) < 3 {
		return errors.New("recovery.subjects needs one entry per reminder")
	}
	return nil
}
