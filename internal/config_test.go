package internal

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/agrichat/testutil"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AGRICHAT_BACKEND", "AGRICHAT_STORAGE", "AGRICHAT_STORAGE_KEY",
		"AGRICHAT_REDIS_ADDR", "AGRICHAT_REDIS_PASSWORD", "AGRICHAT_REDIS_PREFIX", "AGRICHAT_REDIS_DB",
		"AGRICHAT_TRANSPORT", "AGRICHAT_ENDPOINT", "AGRICHAT_MODEL", "AGRICHAT_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)
	dir := testutil.CreateTempDir(t)
	paths := StoragePathsAt(dir)

	cfg, err := LoadConfig(paths.ConfigFile, paths)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("Backend = %v, want sqlite", cfg.Backend)
	}
	if cfg.StoragePath != paths.DatabasePath {
		t.Errorf("StoragePath = %v, want %v", cfg.StoragePath, paths.DatabasePath)
	}
	if cfg.StorageKey != StorageKey {
		t.Errorf("StorageKey = %v, want %v", cfg.StorageKey, StorageKey)
	}
	if cfg.Transport.Mode != TransportCanned || cfg.Transport.CannedDelay != DefaultCannedDelay {
		t.Errorf("Transport = %+v", cfg.Transport)
	}
	if cfg.Transport.Endpoint != DefaultEndpoint || cfg.Transport.Model != DefaultModel {
		t.Errorf("Transport endpoint = %s model = %s", cfg.Transport.Endpoint, cfg.Transport.Model)
	}
	if cfg.Transport.Timeout != 0 {
		t.Errorf("Timeout = %v, want none", cfg.Transport.Timeout)
	}
}

func TestLoadConfig_File(t *testing.T) {
	clearConfigEnv(t)
	dir := testutil.CreateTempDir(t)
	path := testutil.CreateConfigFixture(t, dir, `
backend: redis
redis:
  addr: redis.internal:6380
  db: 2
transport:
  mode: http
  endpoint: http://rag.internal/v1/chat/completions
  timeout: 30s
`)

	cfg, err := LoadConfig(path, StoragePathsAt(dir))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Backend != BackendRedis || cfg.Redis.Addr != "redis.internal:6380" || cfg.Redis.DB != 2 {
		t.Errorf("Redis settings not loaded: %+v", cfg.Redis)
	}
	if cfg.Redis.Prefix != "agrichat:" {
		t.Errorf("Unset prefix lost its default: %q", cfg.Redis.Prefix)
	}
	if cfg.Transport.Mode != TransportHTTP || cfg.Transport.Timeout != 30*time.Second {
		t.Errorf("Transport settings not loaded: %+v", cfg.Transport)
	}
	if cfg.Transport.Model != DefaultModel {
		t.Errorf("Unset model lost its default: %q", cfg.Transport.Model)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	clearConfigEnv(t)
	dir := testutil.CreateTempDir(t)
	path := testutil.CreateConfigFixture(t, dir, "transport:\n  mode: http\n")

	t.Setenv("AGRICHAT_TRANSPORT", "canned")
	t.Setenv("AGRICHAT_STORAGE", filepath.Join(dir, "other.db"))
	t.Setenv("AGRICHAT_REDIS_DB", "5")
	t.Setenv("AGRICHAT_TIMEOUT", "2s")

	cfg, err := LoadConfig(path, StoragePathsAt(dir))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Transport.Mode != TransportCanned {
		t.Errorf("Mode = %v, want canned from env", cfg.Transport.Mode)
	}
	if cfg.StoragePath != filepath.Join(dir, "other.db") {
		t.Errorf("StoragePath = %v", cfg.StoragePath)
	}
	if cfg.Redis.DB != 5 || cfg.Transport.Timeout != 2*time.Second {
		t.Errorf("Numeric env overrides not applied: db=%d timeout=%v", cfg.Redis.DB, cfg.Transport.Timeout)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		env       map[string]string
		wantParse bool
	}{
		{name: "invalid yaml", content: "backend: [", wantParse: true},
		{name: "unknown backend", content: "backend: etcd"},
		{name: "unknown transport", content: "transport:\n  mode: grpc"},
		{name: "empty storage key", content: "storage_key: \"\""},
		{name: "bad redis db", env: map[string]string{"AGRICHAT_REDIS_DB": "two"}, wantParse: true},
		{name: "bad timeout", env: map[string]string{"AGRICHAT_TIMEOUT": "soon"}, wantParse: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := testutil.CreateTempDir(t)
			path := testutil.CreateConfigFixture(t, dir, tt.content)

			_, err := LoadConfig(path, StoragePathsAt(dir))
			if err == nil {
				t.Fatal("LoadConfig() should return an error")
			}
			var parseErr *ParseError
			if tt.wantParse != errors.As(err, &parseErr) {
				t.Errorf("LoadConfig() error = %v, ParseError expected: %v", err, tt.wantParse)
			}
		})
	}
}
