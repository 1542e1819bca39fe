package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clientSection = `{
	"client_id": "test-client-id.apps.googleusercontent.com",
	"project_id": "test-project",
	"auth_uri": "https://accounts.google.com/o/oauth2/auth",
	"token_uri": "https://oauth2.googleapis.com/token",
	"client_secret": "test-secret",
	"redirect_uris": ["http://localhost"]
}`

func TestLoadOAuthClientFromPath(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
		web     bool
	}{
		{name: "installed client", content: `{"installed": ` + clientSection + `}`},
		{name: "web client", content: `{"web": ` + clientSection + `}`, web: true},
		{name: "no section", content: `{}`, wantErr: "neither an installed nor a web section"},
		{name: "both sections", content: `{"installed": ` + clientSection + `, "web": ` + clientSection + `}`, wantErr: "both installed and web"},
		{name: "missing secret", content: `{"installed": {"client_id": "x", "auth_uri": "https://a.example", "token_uri": "https://t.example"}}`, wantErr: "validation failed"},
		{name: "no redirect uris", content: `{"web": {"client_id": "x", "client_secret": "s", "auth_uri": "https://a.example", "token_uri": "https://t.example"}}`, wantErr: "validation failed"},
		{name: "bad url", content: `{"installed": {"client_id": "x", "client_secret": "s", "auth_uri": "not-a-url", "token_uri": "https://t.example"}}`, wantErr: "validation failed"},
		{name: "not json", content: `installed: yes`, wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "oauthClient.json", tt.content)

			cfg, err := LoadOAuthClientFromPath(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.web, cfg.Web != nil)
			assert.Equal(t, "test-secret", cfg.Client().ClientSecret)
			assert.Equal(t, "test-project", cfg.Client().ProjectID)
		})
	}
}

func TestLoadOAuthClient_Resolution(t *testing.T) {
	t.Run("configured path wins", func(t *testing.T) {
		path := writeConfig(t, "secrets.json", `{"web": `+clientSection+`}`)
		cfg := Default()
		cfg.Publish.OAuthClientPath = path

		client, err := cfg.LoadOAuthClient("prod")
		require.NoError(t, err)
		assert.NotNil(t, client.Web)
	})

	t.Run("searches current directory by env", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "oauthClient.test.json"), []byte(`{"installed": `+clientSection+`}`), 0644))
		t.Chdir(dir)

		client, err := Default().LoadOAuthClient("test")
		require.NoError(t, err)
		assert.NotNil(t, client.Installed)
	})

	t.Run("not found", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())

		_, err := Default().LoadOAuthClient("")
		assert.ErrorIs(t, err, ErrOAuthClientNotFound)
	})

	t.Run("configured path missing", func(t *testing.T) {
		cfg := Default()
		cfg.Publish.OAuthClientPath = filepath.Join(t.TempDir(), "absent.json")

		_, err := cfg.LoadOAuthClient("")
		assert.ErrorIs(t, err, ErrOAuthClientNotFound)
	})
}

func TestLoadWithEnv_OAuthClientOverride(t *testing.T) {
	path := writeConfig(t, "medscheduler_config.yaml", "publish:\n  oauthClient: from-file.json\n")
	t.Setenv("MEDSCHED_CONFIG", path)
	t.Setenv("MEDSCHED_SEED", "")
	t.Setenv("MEDSCHED_OAUTH_CLIENT", "/secrets/client.json")

	cfg, err := LoadWithEnv("")
	require.NoError(t, err)
	assert.Equal(t, "/secrets/client.json", cfg.Publish.OAuthClientPath)
}
