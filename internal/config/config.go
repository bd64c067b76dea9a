package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// SSMParameterGetter Parameter Storeからの取得に使うクライアント
type SSMParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Config アプリケーション設定構造体
type Config struct {
	// Google API設定
	GoogleCredentials    string `env:"GOOGLE_CREDENTIALS"`
	SpreadsheetID        string `env:"SPREADSHEET_ID"`
	CalendarID           string `env:"CALENDAR_ID"`
	SubmissionSheet      string `env:"SUBMISSION_SHEET" envDefault:"Form Responses 1"`
	AuthorizedUsersSheet string `env:"AUTHORIZED_USERS_SHEET" envDefault:"Authorized Users"`

	// ログイン設定
	OAuthClientID     string        `env:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string        `env:"OAUTH_CLIENT_SECRET"`
	OAuthRedirectURL  string        `env:"OAUTH_REDIRECT_URL" envDefault:"http://localhost:8080/auth/callback"`
	SessionSecret     string        `env:"SESSION_SECRET"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	// その他設定
	Timezone          string        `env:"TIMEZONE" envDefault:"America/Chicago"`
	AllowListCacheTTL time.Duration `env:"ALLOWLIST_CACHE_TTL" envDefault:"5m"`
	Port              string        `env:"PORT" envDefault:"8080"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"INFO"`
	SecretsFile       string        `env:"SECRETS_FILE"`

	// AWS関連（本番環境でのみ使用）
	ssmClient SSMParameterGetter
}

// Load 環境に応じて設定を読み込み
func Load(ctx context.Context) (*Config, error) {
	if RunningOnLambda() {
		return loadAWSConfig(ctx)
	}
	return loadLocalConfig()
}

// loadLocalConfig ローカル開発環境用の設定読み込み
func loadLocalConfig() (*Config, error) {
	// .envファイルを読み込み（存在する場合のみ）
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .envファイルが見つかりません: %v\n", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("環境変数の解析に失敗しました: %w", err)
	}

	if cfg.SecretsFile != "" {
		if err := cfg.loadSecretsFile(cfg.SecretsFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadAWSConfig AWS Lambda環境用の設定読み込み
func loadAWSConfig(ctx context.Context) (*Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("AWS設定の読み込みに失敗しました: %w", err)
	}

	cfg := &Config{ssmClient: ssm.NewFromConfig(awsCfg)}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("環境変数の解析に失敗しました: %w", err)
	}

	// Parameter Storeから機密情報を取得
	if err := cfg.loadFromParameterStore(ctx); err != nil {
		return nil, fmt.Errorf("Parameter Storeからの設定読み込みに失敗しました: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromParameterStore Parameter Storeから機密情報を読み込み
func (c *Config) loadFromParameterStore(ctx context.Context) error {
	params := []struct {
		envKey       string
		defaultParam string
		target       *string
	}{
		{"SSM_GOOGLE_CREDS_PARAM", "/form-submission-reviewer/google-creds", &c.GoogleCredentials},
		{"SSM_OAUTH_CLIENT_SECRET_PARAM", "/form-submission-reviewer/oauth-client-secret", &c.OAuthClientSecret},
		{"SSM_SESSION_SECRET_PARAM", "/form-submission-reviewer/session-secret", &c.SessionSecret},
	}

	for _, p := range params {
		value, err := c.getParameter(ctx, getEnvOrDefault(p.envKey, p.defaultParam), true)
		if err != nil {
			return err
		}
		*p.target = value
	}
	return nil
}

// getParameter Parameter Storeから指定されたパラメータを取得
func (c *Config) getParameter(ctx context.Context, paramName string, withDecryption bool) (string, error) {
	input := &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(withDecryption),
	}

	result, err := c.ssmClient.GetParameter(ctx, input)
	if err != nil {
		return "", fmt.Errorf("パラメータ %s の取得に失敗しました: %w", paramName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil || strings.TrimSpace(*result.Parameter.Value) == "" {
		return "", fmt.Errorf("パラメータ %s が空の値です", paramName)
	}

	return *result.Parameter.Value, nil
}

// validate 必須設定項目の確認
func (c *Config) validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"GOOGLE_CREDENTIALS", c.GoogleCredentials},
		{"SPREADSHEET_ID", c.SpreadsheetID},
		{"CALENDAR_ID", c.CalendarID},
		{"OAUTH_CLIENT_ID", c.OAuthClientID},
		{"OAUTH_CLIENT_SECRET", c.OAuthClientSecret},
		{"SESSION_SECRET", c.SessionSecret},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s環境変数が設定されていません", r.key)
		}
	}

	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRETは32文字以上にしてください")
	}
	if _, err := c.GetGoogleCredentialsJSON(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// GetGoogleCredentialsJSON Google認証情報をJSONとして解析
func (c *Config) GetGoogleCredentialsJSON() (map[string]interface{}, error) {
	var credentials map[string]interface{}
	if err := json.Unmarshal([]byte(c.GoogleCredentials), &credentials); err != nil {
		return nil, fmt.Errorf("Google認証情報のJSON解析に失敗しました: %w", err)
	}
	return credentials, nil
}

// Location 日時の解釈に使うタイムゾーン
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("タイムゾーン %s の読み込みに失敗しました: %w", c.Timezone, err)
	}
	return loc, nil
}

// RunningOnLambda AWS Lambda環境かどうか
func RunningOnLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// SecureCookies コールバックURLがHTTPSならCookieにSecure属性を付ける
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(strings.ToLower(c.OAuthRedirectURL), "https://")
}

// Debug LOG_LEVEL=DEBUG のとき true
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "DEBUG")
}

// getEnvOrDefault 環境変数を取得し、存在しない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
