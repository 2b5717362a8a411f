package apiclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/agentplatform/go-apiclient/core"
)

const (
	pathLogin    = "/auth/login"
	pathRegister = "/auth/register"
	pathUsersMe  = "/users/me"
)

type loginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type,omitempty"`
	User         *core.Identity `json:"user,omitempty"`
}

// Login exchanges credentials for a token pair and persists it together
// with the caller's identity. The login call itself is anonymous: a wrong
// password surfaces as a remote error and never disturbs an existing
// session until a new pair is actually issued.
func (c *Client) Login(ctx context.Context, in core.LoginInput) (core.Session, error) {
	if err := c.guard(); err != nil {
		return core.Session{}, core.MapError(err)
	}
	if err := in.Validate(); err != nil {
		return core.Session{}, core.MapError(err)
	}

	req := core.APIRequest{
		Method:    http.MethodPost,
		Path:      pathLogin,
		Anonymous: true,
	}
	req, err := encodeBody(req, in)
	if err != nil {
		return core.Session{}, err
	}

	var res loginResponse
	if err := c.invoke(ctx, req, &res); err != nil {
		return core.Session{}, err
	}
	pair := core.CredentialPair{
		AccessToken:  strings.TrimSpace(res.AccessToken),
		RefreshToken: strings.TrimSpace(res.RefreshToken),
	}
	if !pair.HasAccessToken() {
		return core.Session{}, core.NewRemoteError(http.StatusBadGateway, []byte("login response missing access token"))
	}

	if err := c.store.Save(ctx, pair, res.User); err != nil {
		return core.Session{}, core.MapError(err)
	}

	identity := core.Identity{}
	if res.User != nil {
		identity = *res.User
	} else {
		fetched, err := c.CurrentUser(ctx)
		if err != nil {
			return core.Session{}, err
		}
		identity = fetched
	}

	c.logger.WithContext(ctx).Info("session established", "username", identity.Username)
	return core.Session{Credentials: pair, Identity: identity}, nil
}

// Register creates an account. It does not authenticate the new account;
// callers follow up with Login.
func (c *Client) Register(ctx context.Context, in core.RegisterInput) (core.Identity, error) {
	if err := c.guard(); err != nil {
		return core.Identity{}, core.MapError(err)
	}
	if err := in.Validate(); err != nil {
		return core.Identity{}, core.MapError(err)
	}

	req := core.APIRequest{
		Method:    http.MethodPost,
		Path:      pathRegister,
		Anonymous: true,
	}
	req, err := encodeBody(req, in)
	if err != nil {
		return core.Identity{}, err
	}

	var identity core.Identity
	if err := c.invoke(ctx, req, &identity); err != nil {
		return core.Identity{}, err
	}
	return identity, nil
}

// Logout drops the local session. The remote API keeps stateless bearer
// tokens, so there is nothing to revoke server side.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return core.MapError(err)
	}
	if err := c.store.Clear(ctx); err != nil {
		return core.MapError(err)
	}
	c.logger.WithContext(ctx).Info("session cleared")
	return nil
}

// RefreshSession forces a token exchange outside of the 401-triggered path.
func (c *Client) RefreshSession(ctx context.Context) (core.CredentialPair, error) {
	if err := c.guard(); err != nil {
		return core.CredentialPair{}, core.MapError(err)
	}
	pair, err := c.refresher.RefreshSession(ctx)
	if err != nil {
		return core.CredentialPair{}, core.MapError(err)
	}
	return pair, nil
}

// CurrentUser fetches the authenticated identity and re-persists it next to
// the stored credential pair.
func (c *Client) CurrentUser(ctx context.Context) (core.Identity, error) {
	if err := c.guard(); err != nil {
		return core.Identity{}, core.MapError(err)
	}

	var identity core.Identity
	if err := c.invoke(ctx, core.APIRequest{Method: http.MethodGet, Path: pathUsersMe}, &identity); err != nil {
		return core.Identity{}, err
	}

	pair, found, err := c.store.Load(ctx)
	if err == nil && found {
		if saveErr := c.store.Save(ctx, pair, &identity); saveErr != nil {
			c.logger.WithContext(ctx).Error("persist identity", "error", saveErr.Error())
		}
	}
	return identity, nil
}

func (c *Client) IsAuthenticated(ctx context.Context) bool {
	if c == nil || c.store == nil {
		return false
	}
	return c.store.IsAuthenticated(ctx)
}
