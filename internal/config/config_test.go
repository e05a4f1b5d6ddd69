package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TRADEBOOK_DATA_DIR", t.TempDir())
	t.Setenv("SYNC_BACKEND", "")
	t.Setenv("GO_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Sync.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Sync.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Quotes.CacheTTL)
}

func TestLoad_PostgRESTBackend(t *testing.T) {
	t.Setenv("TRADEBOOK_DATA_DIR", t.TempDir())
	t.Setenv("SYNC_BACKEND", "postgrest")
	t.Setenv("REMOTE_URL", "https://example.supabase.co")
	t.Setenv("REMOTE_API_KEY", "anon")
	t.Setenv("REMOTE_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Sync.Enabled())
	assert.Equal(t, "https://example.supabase.co", cfg.Sync.RemoteURL)
	assert.Equal(t, 5*time.Second, cfg.Sync.Timeout)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		sync    *SyncConfig
		wantErr string
	}{
		{"no sync config", nil, ""},
		{"disabled", &SyncConfig{Timeout: time.Second}, ""},
		{"postgrest without url", &SyncConfig{Backend: SyncBackendPostgREST, Timeout: time.Second}, "REMOTE_URL"},
		{"s3 without bucket", &SyncConfig{Backend: SyncBackendS3, Timeout: time.Second}, "REMOTE_S3_BUCKET"},
		{"s3 with bucket", &SyncConfig{Backend: SyncBackendS3, S3Bucket: "b", Timeout: time.Second}, ""},
		{"unknown backend", &SyncConfig{Backend: "ftp", Timeout: time.Second}, "unknown sync backend"},
		{"zero timeout", &SyncConfig{Backend: SyncBackendS3, S3Bucket: "b"}, "timeout"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Port: 8080, Sync: tc.sync}
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_RejectsBadPort(t *testing.T) {
	cfg := &Config{Port: 0}
	assert.Error(t, cfg.Validate())
}
