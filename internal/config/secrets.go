package config

import (
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
)

// secretsFile Streamlit形式の secrets.toml
type secretsFile struct {
	SpreadsheetID  string                 `toml:"spreadsheet_id"`
	CalendarID     string                 `toml:"calendar_id"`
	ServiceAccount map[string]interface{} `toml:"gcp_service_account"`
	Auth           struct {
		ClientID     string `toml:"client_id"`
		ClientSecret string `toml:"client_secret"`
		RedirectURI  string `toml:"redirect_uri"`
		CookieSecret string `toml:"cookie_secret"`
	} `toml:"auth"`
}

// loadSecretsFile secrets.toml の値で未設定の項目を埋める。環境変数が優先
func (c *Config) loadSecretsFile(path string) error {
	var s secretsFile
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return fmt.Errorf("secretsファイル %s の読み込みに失敗しました: %w", path, err)
	}

	if c.GoogleCredentials == "" && len(s.ServiceAccount) > 0 {
		creds, err := json.Marshal(s.ServiceAccount)
		if err != nil {
			return fmt.Errorf("gcp_service_accountのJSON変換に失敗しました: %w", err)
		}
		c.GoogleCredentials = string(creds)
	}

	fill(&c.SpreadsheetID, s.SpreadsheetID)
	fill(&c.CalendarID, s.CalendarID)
	fill(&c.OAuthClientID, s.Auth.ClientID)
	fill(&c.OAuthClientSecret, s.Auth.ClientSecret)
	fill(&c.SessionSecret, s.Auth.CookieSecret)
	if s.Auth.RedirectURI != "" && !envSet("OAUTH_REDIRECT_URL") {
		c.OAuthRedirectURL = s.Auth.RedirectURI
	}
	return nil
}

func fill(target *string, value string) {
	if *target == "" {
		*target = value
	}
}

func envSet(key string) bool {
	return getEnvOrDefault(key, "") != ""
}
