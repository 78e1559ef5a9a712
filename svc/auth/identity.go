package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// PermManagePastes lets its holder mutate any paste without knowing its
// edit password.
const PermManagePastes = "ManagePastes"

// Identity describes an authenticated requester as reported by the
// identity provider. The engine only ever reads the username and checks
// a single permission string.
type Identity struct {
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
}

func (i *Identity) HasPermission(perm string) bool {
	for _, p := range i.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// CanBypassPassword decides whether a mutating request may skip the edit
// password check: the requester must be present and either own the paste
// or hold the manage-pastes permission.
func CanBypassPassword(owner string, requester *Identity) bool {
	if requester == nil {
		return false
	}
	if owner != "" && requester.Username == owner {
		return true
	}
	return requester.HasPermission(PermManagePastes)
}

// Provider resolves a session token into an Identity.
type Provider interface {
	GetProfile(ctx context.Context, token string) (*Identity, error)
}

// HTTPProvider queries an external identity service ("starstraw") over
// HTTP. It is only constructed when authentication is enabled.
type HTTPProvider struct {
	endpoint string
	client   *http.Client
}

func NewHTTPProvider(endpoint string) *HTTPProvider {
	return &HTTPProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *HTTPProvider) GetProfile(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/api/auth/profile", nil)
	if err != nil {
		return nil, errors.Wrap(err, "build profile request")
	}
	req.AddCookie(&http.Cookie{Name: "__Secure-Token", Value: url.QueryEscape(token)})
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "query identity provider")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("identity provider returned %d", resp.StatusCode)
	}
	var ident Identity
	if err := json.NewDecoder(resp.Body).Decode(&ident); err != nil {
		return nil, errors.Wrap(err, "decode profile")
	}
	if ident.Username == "" {
		return nil, errors.New("identity provider returned empty username")
	}
	return &ident, nil
}
