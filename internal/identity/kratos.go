package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	kratos "github.com/ory/kratos-client-go"
)

// KratosConfig はKratosProviderの設定。
type KratosConfig struct {
	PublicURL string // FrontendAPI（セッション検証）
	AdminURL  string // IdentityAPI（作成・削除）
	SchemaID  string
	Timeout   time.Duration

	// テスト用にオーバーライド可能なHTTPクライアント
	HTTPClient *http.Client
}

// KratosProvider はOry KratosによるProvider実装。
// アカウント作成・削除はAdmin API、トークン検証はPublic APIを使う。
type KratosProvider struct {
	public   *kratos.APIClient
	admin    *kratos.APIClient
	schemaID string
}

var _ Provider = (*KratosProvider)(nil)

// NewKratosProvider はKratosProviderを生成する。
func NewKratosProvider(cfg KratosConfig) *KratosProvider {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	schemaID := cfg.SchemaID
	if schemaID == "" {
		schemaID = "default"
	}

	return &KratosProvider{
		public:   newKratosClient(cfg.PublicURL, httpClient),
		admin:    newKratosClient(cfg.AdminURL, httpClient),
		schemaID: schemaID,
	}
}

func newKratosClient(baseURL string, httpClient *http.Client) *kratos.APIClient {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: baseURL},
	}
	configuration.HTTPClient = httpClient
	return kratos.NewAPIClient(configuration)
}

// CreateAccount はpasswordクレデンシャルとemailトレイトを持つアイデンティティを作成する。
func (p *KratosProvider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	body := kratos.NewCreateIdentityBody(p.schemaID, map[string]interface{}{
		"email": email,
	})
	body.SetCredentials(kratos.IdentityWithCredentials{
		Password: &kratos.IdentityWithCredentialsPassword{
			Config: &kratos.IdentityWithCredentialsPasswordConfig{
				Password: kratos.PtrString(password),
			},
		},
	})

	ident, resp, err := p.admin.IdentityAPI.CreateIdentity(ctx).CreateIdentityBody(*body).Execute()
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusConflict:
				return "", fmt.Errorf("kratos create identity: %w", ErrEmailAlreadyExists)
			case http.StatusBadRequest:
				return "", fmt.Errorf("kratos create identity: %w: %v", ErrCredentialsRejected, err)
			}
			return "", fmt.Errorf("kratos create identity: %w: status %d", ErrProviderUnavailable, resp.StatusCode)
		}
		return "", fmt.Errorf("kratos create identity: %w: %w", ErrProviderUnavailable, err)
	}
	if ident == nil || ident.Id == "" {
		return "", errors.New("kratos create identity: empty identity id in response")
	}

	return ident.Id, nil
}

// VerifyToken はKratosのセッショントークンを検証し、アイデンティティIDを返す。
func (p *KratosProvider) VerifyToken(ctx context.Context, token string) (string, error) {
	session, resp, err := p.public.FrontendAPI.ToSession(ctx).XSessionToken(token).Execute()
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return "", fmt.Errorf("kratos to session: %w", ErrInvalidToken)
			}
			return "", fmt.Errorf("kratos to session: %w: status %d", ErrProviderUnavailable, resp.StatusCode)
		}
		return "", fmt.Errorf("kratos to session: %w: %w", ErrProviderUnavailable, err)
	}

	if session.Active != nil && !*session.Active {
		return "", fmt.Errorf("kratos to session: inactive session: %w", ErrInvalidToken)
	}
	if session.ExpiresAt != nil && session.ExpiresAt.Before(time.Now()) {
		return "", fmt.Errorf("kratos to session: %w", ErrTokenExpired)
	}
	if session.Identity == nil || session.Identity.Id == "" {
		return "", fmt.Errorf("kratos to session: missing identity: %w", ErrInvalidToken)
	}

	return session.Identity.Id, nil
}

// DeleteAccount はKratosのアイデンティティを削除する。
func (p *KratosProvider) DeleteAccount(ctx context.Context, accountID string) error {
	resp, err := p.admin.IdentityAPI.DeleteIdentity(ctx, accountID).Execute()
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("kratos delete identity %s: %w", accountID, ErrAccountNotFound)
		}
		return fmt.Errorf("kratos delete identity %s: %w", accountID, err)
	}
	return nil
}
