package gateway

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
)

// GoogleIdentityProvider Googleログインで検証済みメールアドレスを取得する
type GoogleIdentityProvider struct {
	oauth       *oauth2.Config
	serviceOpts []option.ClientOption
}

// NewGoogleIdentityProvider OAuthクライアント設定からプロバイダーを作成
func NewGoogleIdentityProvider(clientID, clientSecret, redirectURL string) *GoogleIdentityProvider {
	return &GoogleIdentityProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				googleoauth2.UserinfoEmailScope,
				googleoauth2.UserinfoProfileScope,
			},
			Endpoint: google.Endpoint,
		},
	}
}

// AuthCodeURL ログイン画面のURLを返す
func (p *GoogleIdentityProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange 認可コードを交換し、ログインした利用者を返す。
// メールアドレスが未検証のアカウントは拒否する
func (p *GoogleIdentityProvider) Exchange(ctx context.Context, code string) (domain.Reviewer, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return domain.Reviewer{}, fmt.Errorf("認可コードの交換に失敗しました: %w", err)
	}

	opts := append([]option.ClientOption{option.WithTokenSource(p.oauth.TokenSource(ctx, token))}, p.serviceOpts...)
	service, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return domain.Reviewer{}, fmt.Errorf("google OAuth2 APIサービスの作成に失敗しました: %w", err)
	}

	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return domain.Reviewer{}, fmt.Errorf("ユーザー情報の取得に失敗しました: %w", err)
	}
	if info.Email == "" || info.VerifiedEmail == nil || !*info.VerifiedEmail {
		return domain.Reviewer{}, fmt.Errorf("%w: メールアドレスが検証されていません", domain.ErrUnauthorized)
	}

	return domain.Reviewer{Name: info.Name, Email: info.Email}, nil
}
