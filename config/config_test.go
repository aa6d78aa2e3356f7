// Copyright (c) 2025 BVK Chaitanya

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testYAML = `
credentials:
  key: file-key
  secret: file-secret
retryPeriodMs: 2000
concurrentTasks: 3
maxOrderAgeDays: 20.5
backupFile: orders-%s.json
stuckTaskAlertAfter: 45m
telegram:
  botToken: "123:abc"
  chatID: 42
`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	fpath := filepath.Join(dir, name)
	if err := os.WriteFile(fpath, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	return fpath
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	fpath := writeFile(t, dir, "config.yaml", testYAML)

	cfg, err := Load(fpath, dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Credentials.Key != "file-key" || cfg.ConcurrentTasks != 3 || cfg.Policy(false).MaxOrderAgeDays != 20.5 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.StuckTaskAlertAfter != 45*time.Minute {
		t.Fatalf("want 45m alert duration, got %s", cfg.StuckTaskAlertAfter)
	}
	if cfg.Telegram == nil || cfg.Telegram.ChatID != 42 {
		t.Fatalf("unexpected telegram config %+v", cfg.Telegram)
	}
	if cfg.Pushover != nil {
		t.Fatalf("pushover must not be configured")
	}

	p := cfg.Policy(true)
	if p.RetryPeriod != 2*time.Second || p.ConcurrentTasks != 3 || !p.DryRun || p.CancelPollLimit != 0 {
		t.Fatalf("unexpected policy %+v", p)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	fpath := writeFile(t, dir, "config.json", `{
  "credentials": {"key": "k", "secret": "s"},
  "retryPeriodMs": 10000,
  "concurrentTasks": 2,
  "maxOrderAgeDays": 27,
  "replaceAllOrders": false,
  "backupFile": "backups/orders-%s.json"
}`)
	cfg, err := Load(fpath, dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RetryPeriodMs != 10000 || cfg.HistorySize != 1000 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestMaxOrderAgeDays(t *testing.T) {
	dir := t.TempDir()

	fpath := writeFile(t, dir, "unset.yaml", "credentials: {key: k, secret: s}\n")
	cfg, err := Load(fpath, dir)
	if err != nil {
		t.Fatal(err)
	}
	if v := cfg.Policy(false).MaxOrderAgeDays; v != DefaultMaxOrderAgeDays {
		t.Fatalf("want default max order age %v, got %v", DefaultMaxOrderAgeDays, v)
	}

	fpath = writeFile(t, dir, "zero.yaml", "credentials: {key: k, secret: s}\nmaxOrderAgeDays: 0\n")
	if cfg, err = Load(fpath, dir); err != nil {
		t.Fatal(err)
	}
	if v := cfg.Policy(false).MaxOrderAgeDays; v != 0 {
		t.Fatalf("explicit zero max order age must be kept, got %v", v)
	}

	t.Setenv("REFRESHER_MAX_ORDER_AGE_DAYS", "0")
	fpath = writeFile(t, dir, "unset.yaml", "credentials: {key: k, secret: s}\n")
	if cfg, err = Load(fpath, dir); err != nil {
		t.Fatal(err)
	}
	if v := cfg.Policy(false).MaxOrderAgeDays; v != 0 {
		t.Fatalf("zero max order age from environment must be kept, got %v", v)
	}

	fpath = writeFile(t, dir, "negative.yaml", "credentials: {key: k, secret: s}\nmaxOrderAgeDays: -1\n")
	t.Setenv("REFRESHER_MAX_ORDER_AGE_DAYS", "")
	if _, err := Load(fpath, dir); err == nil {
		t.Fatalf("negative max order age must be rejected")
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	fpath := writeFile(t, dir, "config.yaml", testYAML)
	writeFile(t, dir, EnvFile, "API_SECRET=env-file-secret\nCONCURRENT_TASKS=7\n")

	t.Setenv("REFRESHER_API_SECRET", "")
	t.Setenv("REFRESHER_CONCURRENT_TASKS", "5")
	t.Setenv("REFRESHER_REPLACE_ALL_ORDERS", "true")
	t.Setenv("REFRESHER_STUCK_TASK_ALERT_AFTER", "2h")

	cfg, err := Load(fpath, dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Credentials.Secret != "env-file-secret" {
		t.Fatalf("want secret from env file, got %q", cfg.Credentials.Secret)
	}
	if cfg.ConcurrentTasks != 5 {
		t.Fatalf("process environment must take precedence over env file, got %d", cfg.ConcurrentTasks)
	}
	if !cfg.ReplaceAllOrders || cfg.StuckTaskAlertAfter != 2*time.Hour {
		t.Fatalf("unexpected overrides %+v", cfg)
	}

	t.Setenv("REFRESHER_CONCURRENT_TASKS", "many")
	if _, err := Load(fpath, dir); err == nil || !strings.Contains(err.Error(), "REFRESHER_CONCURRENT_TASKS") {
		t.Fatalf("want invalid value error, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	for _, data := range []string{
		"credentials: {key: k}\n",
		"credentials: {key: k, secret: s}\nbackupFile: orders.json\n",
		"credentials: {key: k, secret: s}\nconcurrentTasks: -1\n",
		"credentials: {key: k, secret: s}\npushover: {userKey: u}\n",
	} {
		fpath := writeFile(t, dir, "bad.yaml", data)
		if _, err := Load(fpath, dir); err == nil {
			t.Errorf("config %q must be rejected", data)
		}
	}
}
