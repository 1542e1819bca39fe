package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrOAuthClientNotFound is returned when no OAuth client file is configured or found
var ErrOAuthClientNotFound = errors.New("oauth client file not found")

// PublishConfig holds the Google Sheets destination and the OAuth client used to reach it
type PublishConfig struct {
	SpreadsheetID string `yaml:"spreadsheetID,omitempty" json:"spreadsheet_id,omitempty"`
	// OAuthClientPath points at the client secrets downloaded from the Google Cloud console
	OAuthClientPath string `yaml:"oauthClient,omitempty" json:"oauth_client,omitempty"`
}

// OAuthClientConfig is a Google client secrets file. Desktop clients carry an
// "installed" section, web clients a "web" one; exactly one must be present.
type OAuthClientConfig struct {
	Installed *GoogleClient `json:"installed,omitempty"`
	Web       *GoogleClient `json:"web,omitempty"`
}

// GoogleClient holds the fields of a client secrets section that the token flow needs
type GoogleClient struct {
	ClientID     string   `json:"client_id" validate:"required"`
	ClientSecret string   `json:"client_secret" validate:"required"`
	ProjectID    string   `json:"project_id,omitempty"`
	AuthURI      string   `json:"auth_uri" validate:"required,url"`
	TokenURI     string   `json:"token_uri" validate:"required,url"`
	RedirectURIs []string `json:"redirect_uris" validate:"required,min=1,dive,uri"`
}

// Client returns whichever section the file carries
func (o *OAuthClientConfig) Client() *GoogleClient {
	if o.Installed != nil {
		return o.Installed
	}
	return o.Web
}

// LoadOAuthClient resolves the OAuth client for publishing: publish.oauthClient (or
// MEDSCHED_OAUTH_CLIENT) when set, otherwise oauthClient[.<env>].json in the current
// directory or home directory.
func (c *Config) LoadOAuthClient(env string) (*OAuthClientConfig, error) {
	path := c.Publish.OAuthClientPath
	if path == "" {
		name := "oauthClient.json"
		if env != "" {
			name = "oauthClient." + env + ".json"
		}
		var err error
		path, err = findFile(name, ErrOAuthClientNotFound)
		if err != nil {
			return nil, err
		}
	}
	return LoadOAuthClientFromPath(path)
}

// LoadOAuthClientFromPath reads and validates a client secrets file
func LoadOAuthClientFromPath(path string) (*OAuthClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrOAuthClientNotFound, path)
		}
		return nil, fmt.Errorf("failed to read oauth client file: %w", err)
	}

	var oauthCfg OAuthClientConfig
	if err := json.Unmarshal(data, &oauthCfg); err != nil {
		return nil, fmt.Errorf("failed to parse oauth client file: %w", err)
	}

	switch {
	case oauthCfg.Installed == nil && oauthCfg.Web == nil:
		return nil, fmt.Errorf("oauth client validation failed: %s has neither an installed nor a web section", path)
	case oauthCfg.Installed != nil && oauthCfg.Web != nil:
		return nil, fmt.Errorf("oauth client validation failed: %s has both installed and web sections", path)
	}
	if err := validate.Struct(oauthCfg.Client()); err != nil {
		return nil, fmt.Errorf("oauth client validation failed: %w", err)
	}

	return &oauthCfg, nil
}
