package ha

import (
	"testing"
	"time"
)

func TestDefaultLockConfig(t *testing.T) {
	cfg := DefaultLockConfig()

	if !cfg.Enabled {
		t.Error("Enabled should be true by default")
	}
	if cfg.Name != "audit-manager-migration" {
		t.Errorf("Name = %q, want %q", cfg.Name, "audit-manager-migration")
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, 30*time.Second)
	}
	if cfg.MaxRetries != 30 {
		t.Errorf("MaxRetries = %d, want 30", cfg.MaxRetries)
	}
	if cfg.StaleAfter != 5*time.Minute {
		t.Errorf("StaleAfter = %v, want %v", cfg.StaleAfter, 5*time.Minute)
	}
}

func TestDefaultLockConfig_IdentityFromHostnameEnv(t *testing.T) {
	t.Setenv("HOSTNAME", "audit-api-7d9f")

	cfg := DefaultLockConfig()
	if cfg.Identity != "audit-api-7d9f" {
		t.Errorf("Identity = %q, want %q", cfg.Identity, "audit-api-7d9f")
	}
}

func TestLockConfigFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		envs  map[string]string
		check func(t *testing.T, cfg *LockConfig)
	}{
		{
			name: "disabled",
			envs: map[string]string{"AUDIT_MIGRATION_LOCK_ENABLED": "false"},
			check: func(t *testing.T, cfg *LockConfig) {
				if cfg.Enabled {
					t.Error("Enabled should be false")
				}
			},
		},
		{
			name: "enabled with 1",
			envs: map[string]string{"AUDIT_MIGRATION_LOCK_ENABLED": "1"},
			check: func(t *testing.T, cfg *LockConfig) {
				if !cfg.Enabled {
					t.Error("Enabled should be true")
				}
			},
		},
		{
			name: "custom name and timeout",
			envs: map[string]string{
				"AUDIT_MIGRATION_LOCK_NAME":    "audits-staging",
				"AUDIT_MIGRATION_LOCK_TIMEOUT": "5",
			},
			check: func(t *testing.T, cfg *LockConfig) {
				if cfg.Name != "audits-staging" {
					t.Errorf("Name = %q, want %q", cfg.Name, "audits-staging")
				}
				if cfg.Timeout != 5*time.Second {
					t.Errorf("Timeout = %v, want %v", cfg.Timeout, 5*time.Second)
				}
			},
		},
		{
			name: "invalid numbers keep defaults",
			envs: map[string]string{
				"AUDIT_MIGRATION_LOCK_TIMEOUT":     "soon",
				"AUDIT_MIGRATION_LOCK_MAX_RETRIES": "-4",
				"AUDIT_MIGRATION_LOCK_STALE_AFTER": "0",
			},
			check: func(t *testing.T, cfg *LockConfig) {
				if cfg.Timeout != 30*time.Second {
					t.Errorf("Timeout = %v, want default", cfg.Timeout)
				}
				if cfg.MaxRetries != 30 {
					t.Errorf("MaxRetries = %d, want default", cfg.MaxRetries)
				}
				if cfg.StaleAfter != 5*time.Minute {
					t.Errorf("StaleAfter = %v, want default", cfg.StaleAfter)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envs {
				t.Setenv(k, v)
			}
			tt.check(t, LockConfigFromEnv())
		})
	}
}
