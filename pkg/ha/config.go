// Package ha provides the primitives that let several audit-manager
// processes share one database safely: today, a lock serializing schema
// migrations so two replicas never apply the same unit concurrently.
package ha

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LockConfig holds configuration for the migration lock.
type LockConfig struct {
	// Enabled controls whether migrations are serialized at all. Disabling it
	// is only safe for single-process deployments.
	Enabled bool

	// Name is the lock identifier (MySQL GET_LOCK name, lock-table row id).
	Name string

	// Timeout bounds how long a MySQL GET_LOCK call waits.
	Timeout time.Duration

	// RetryInterval is the pause between attempts of the table-based lock.
	RetryInterval time.Duration

	// MaxRetries bounds the attempts of the table-based lock.
	MaxRetries int

	// StaleAfter is the age after which a table lock row left behind by a
	// crashed holder is removed.
	StaleAfter time.Duration

	// Identity is recorded as the lock holder. Defaults to the hostname.
	Identity string
}

// DefaultLockConfig returns a LockConfig with sensible defaults.
func DefaultLockConfig() *LockConfig {
	return &LockConfig{
		Enabled:       true,
		Name:          "audit-manager-migration",
		Timeout:       30 * time.Second,
		RetryInterval: time.Second,
		MaxRetries:    30,
		StaleAfter:    5 * time.Minute,
		Identity:      defaultIdentity(),
	}
}

// LockConfigFromEnv reads lock configuration from environment variables,
// falling back to defaults for any unset variable.
//
// Environment variables:
//   - AUDIT_MIGRATION_LOCK_ENABLED: "true" or "false" (default: "true")
//   - AUDIT_MIGRATION_LOCK_NAME: lock name (default: "audit-manager-migration")
//   - AUDIT_MIGRATION_LOCK_TIMEOUT: seconds (default: 30)
//   - AUDIT_MIGRATION_LOCK_MAX_RETRIES: attempts (default: 30)
//   - AUDIT_MIGRATION_LOCK_STALE_AFTER: seconds (default: 300)
//   - HOSTNAME: holder identity
func LockConfigFromEnv() *LockConfig {
	cfg := DefaultLockConfig()

	if v := os.Getenv("AUDIT_MIGRATION_LOCK_ENABLED"); v != "" {
		cfg.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("AUDIT_MIGRATION_LOCK_NAME"); v != "" {
		cfg.Name = v
	}
	if v := os.Getenv("AUDIT_MIGRATION_LOCK_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("AUDIT_MIGRATION_LOCK_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("AUDIT_MIGRATION_LOCK_STALE_AFTER"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.StaleAfter = time.Duration(secs) * time.Second
		}
	}

	return cfg
}

func defaultIdentity() string {
	if v := os.Getenv("HOSTNAME"); v != "" {
		return v
	}
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "unknown"
	}
	return hostname
}
