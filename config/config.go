// Copyright (c) 2025 BVK Chaitanya

// Package config loads the refresher configuration. Configuration is read
// once at startup and passed to the components that need it.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/bvk/refresher/backup"
	"github.com/bvk/refresher/bittrex"
	"github.com/bvk/refresher/envfile"
	"github.com/bvk/refresher/notify"
	"github.com/bvk/refresher/refresh"
	yaml "go.yaml.in/yaml/v3"
)

// EnvFile is the name of the optional environment file with overrides.
const EnvFile = ".refresher.env"

// EnvPrefix is the prefix for environment variables that override the
// configuration file values.
const EnvPrefix = "REFRESHER_"

// DefaultMaxOrderAgeDays is used when the configuration doesn't set the
// maximum order age.
const DefaultMaxOrderAgeDays = 27.0

type Credentials struct {
	Key    string `yaml:"key" env:"API_KEY"`
	Secret string `yaml:"secret" env:"API_SECRET"`
}

type Config struct {
	Credentials Credentials `yaml:"credentials"`

	RetryPeriodMs   int `yaml:"retryPeriodMs" env:"RETRY_PERIOD_MS"`
	RetryJitterMs   int `yaml:"retryJitterMs" env:"RETRY_JITTER_MS"`
	ConcurrentTasks int `yaml:"concurrentTasks" env:"CONCURRENT_TASKS"`

	// MaxOrderAgeDays is nil when the age is not configured. An explicit zero
	// selects every open limit order.
	MaxOrderAgeDays *float64 `yaml:"maxOrderAgeDays" env:"MAX_ORDER_AGE_DAYS"`

	ReplaceAllOrders bool `yaml:"replaceAllOrders" env:"REPLACE_ALL_ORDERS"`

	// BackupFile is the backup file name format with one %s for the UTC
	// timestamp. Relative paths are relative to the data directory.
	BackupFile string `yaml:"backupFile" env:"BACKUP_FILE"`

	// CancelPollLimit bounds the number of status queries per cancellation.
	// Zero waits forever.
	CancelPollLimit int `yaml:"cancelPollLimit" env:"CANCEL_POLL_LIMIT"`

	StuckTaskAlertAfter time.Duration `yaml:"stuckTaskAlertAfter" env:"STUCK_TASK_ALERT_AFTER"`

	RestURL           string  `yaml:"restURL" env:"REST_URL"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond" env:"REQUESTS_PER_SECOND"`

	PushgatewayURL string `yaml:"pushgatewayURL" env:"PUSHGATEWAY_URL"`

	// HistorySize is the number of run records kept in the journal.
	HistorySize int `yaml:"historySize" env:"HISTORY_SIZE"`

	Telegram *notify.TelegramSecrets `yaml:"telegram"`
	Pushover *notify.PushoverKeys    `yaml:"pushover"`
}

func (v *Config) setDefaults() {
	if v.RetryPeriodMs == 0 {
		v.RetryPeriodMs = 5000
	}
	if v.ConcurrentTasks == 0 {
		v.ConcurrentTasks = 1
	}
	if v.MaxOrderAgeDays == nil {
		days := DefaultMaxOrderAgeDays
		v.MaxOrderAgeDays = &days
	}
	if len(v.BackupFile) == 0 {
		v.BackupFile = "backups/orders-%s.json"
	}
	if v.StuckTaskAlertAfter == 0 {
		v.StuckTaskAlertAfter = 30 * time.Minute
	}
	if v.HistorySize == 0 {
		v.HistorySize = 1000
	}
}

func (v *Config) Check() error {
	if len(v.Credentials.Key) == 0 || len(v.Credentials.Secret) == 0 {
		return fmt.Errorf("api key and secret are required")
	}
	if v.RetryPeriodMs < 0 || v.RetryJitterMs < 0 {
		return fmt.Errorf("retry period and jitter cannot be negative")
	}
	if v.ConcurrentTasks < 1 {
		return fmt.Errorf("concurrent tasks must be at least one")
	}
	if v.MaxOrderAgeDays != nil && *v.MaxOrderAgeDays < 0 {
		return fmt.Errorf("max order age days cannot be negative")
	}
	if err := backup.CheckFormat(v.BackupFile); err != nil {
		return fmt.Errorf("invalid backup file format: %w", err)
	}
	if v.CancelPollLimit < 0 {
		return fmt.Errorf("cancel poll limit cannot be negative")
	}
	if v.StuckTaskAlertAfter < 0 {
		return fmt.Errorf("stuck task alert duration cannot be negative")
	}
	if v.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}
	if v.HistorySize < 1 {
		return fmt.Errorf("history size must be at least one")
	}
	if v.Telegram != nil {
		if err := v.Telegram.Check(); err != nil {
			return fmt.Errorf("invalid telegram config: %w", err)
		}
	}
	if v.Pushover != nil {
		if err := v.Pushover.Check(); err != nil {
			return fmt.Errorf("invalid pushover config: %w", err)
		}
	}
	return nil
}

// Load reads the configuration file, applies the environment overrides and
// validates the result. Environment file, if found in the home directory or
// in extra dirs, is loaded before the overrides are applied.
func Load(fpath string, envDirs ...string) (*Config, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg := new(Config)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file %q: %w", fpath, err)
	}

	var opts []envfile.Option
	for _, dir := range envDirs {
		opts = append(opts, envfile.SearchDir(dir))
	}
	opts = append(opts, envfile.VariableNamePrefix(EnvPrefix))
	if _, err := envfile.UpdateEnv(EnvFile, opts...); err != nil {
		return nil, fmt.Errorf("could not load env file: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides the fields tagged with an env name from the
// environment.
func applyEnv(cfg *Config) error {
	return applyEnvValue(reflect.ValueOf(cfg).Elem())
}

func applyEnvValue(rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field, fv := rt.Field(i), rv.Field(i)
		if field.Type.Kind() == reflect.Struct {
			if err := applyEnvValue(fv); err != nil {
				return err
			}
			continue
		}
		name, ok := field.Tag.Lookup("env")
		if !ok {
			continue
		}
		value, ok := os.LookupEnv(EnvPrefix + name)
		if !ok || len(value) == 0 {
			continue
		}
		if err := setValue(fv, value); err != nil {
			return fmt.Errorf("invalid value %q for %s%s: %w", value, EnvPrefix, name, err)
		}
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func setValue(fv reflect.Value, value string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}
	switch fv.Kind() {
	case reflect.Pointer:
		pv := reflect.New(fv.Type().Elem())
		if err := setValue(pv.Elem(), value); err != nil {
			return err
		}
		fv.Set(pv)
	case reflect.String:
		fv.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		fv.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return err
		}
		fv.SetBool(b)
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}

// Policy returns the refresh policy for the configuration.
func (v *Config) Policy(dryRun bool) *refresh.Policy {
	maxAge := DefaultMaxOrderAgeDays
	if v.MaxOrderAgeDays != nil {
		maxAge = *v.MaxOrderAgeDays
	}
	return &refresh.Policy{
		MaxOrderAgeDays:  maxAge,
		ReplaceAllOrders: v.ReplaceAllOrders,
		ConcurrentTasks:  v.ConcurrentTasks,
		RetryPeriod:      time.Duration(v.RetryPeriodMs) * time.Millisecond,
		RetryJitter:      time.Duration(v.RetryJitterMs) * time.Millisecond,
		CancelPollLimit:  v.CancelPollLimit,
		DryRun:           dryRun,
	}
}

// BittrexOptions returns the exchange client options for the configuration.
func (v *Config) BittrexOptions() *bittrex.Options {
	return &bittrex.Options{
		RestURL:           v.RestURL,
		RequestsPerSecond: v.RequestsPerSecond,
	}
}
