package security

import (
	"context"
	"strings"

	"github.com/agentplatform/go-apiclient/core"
)

// EncryptedCredentialStore decorates any credential store so tokens are
// sealed before they reach the inner store and opened on the way out. The
// identity payload is not secret and passes through unchanged.
type EncryptedCredentialStore struct {
	inner    core.CredentialStore
	provider SecretProvider
}

var _ core.CredentialStore = (*EncryptedCredentialStore)(nil)

func NewEncryptedCredentialStore(inner core.CredentialStore, provider SecretProvider) (*EncryptedCredentialStore, error) {
	if inner == nil {
		return nil, core.NewStoreError(nil, "security: inner credential store is required")
	}
	if provider == nil {
		return nil, core.NewStoreError(nil, "security: secret provider is required")
	}
	return &EncryptedCredentialStore{inner: inner, provider: provider}, nil
}

func (s *EncryptedCredentialStore) Save(ctx context.Context, pair core.CredentialPair, identity *core.Identity) error {
	if s == nil || s.inner == nil {
		return core.NewStoreError(nil, "security: store is not configured")
	}
	sealed, err := s.sealPair(ctx, pair)
	if err != nil {
		return err
	}
	return s.inner.Save(ctx, sealed, identity)
}

func (s *EncryptedCredentialStore) Load(ctx context.Context) (core.CredentialPair, bool, error) {
	if s == nil || s.inner == nil {
		return core.CredentialPair{}, false, core.NewStoreError(nil, "security: store is not configured")
	}
	sealed, found, err := s.inner.Load(ctx)
	if err != nil || !found {
		return core.CredentialPair{}, found, err
	}
	pair, err := s.openPair(ctx, sealed)
	if err != nil {
		return core.CredentialPair{}, false, err
	}
	return pair, true, nil
}

func (s *EncryptedCredentialStore) LoadIdentity(ctx context.Context) (core.Identity, bool, error) {
	if s == nil || s.inner == nil {
		return core.Identity{}, false, core.NewStoreError(nil, "security: store is not configured")
	}
	return s.inner.LoadIdentity(ctx)
}

func (s *EncryptedCredentialStore) Clear(ctx context.Context) error {
	if s == nil || s.inner == nil {
		return core.NewStoreError(nil, "security: store is not configured")
	}
	return s.inner.Clear(ctx)
}

func (s *EncryptedCredentialStore) IsAuthenticated(ctx context.Context) bool {
	if s == nil || s.inner == nil {
		return false
	}
	return s.inner.IsAuthenticated(ctx)
}

func (s *EncryptedCredentialStore) sealPair(ctx context.Context, pair core.CredentialPair) (core.CredentialPair, error) {
	sealed := core.CredentialPair{}
	if pair.HasAccessToken() {
		token, err := s.seal(ctx, pair.AccessToken)
		if err != nil {
			return core.CredentialPair{}, err
		}
		sealed.AccessToken = token
	}
	if pair.HasRefreshToken() {
		token, err := s.seal(ctx, pair.RefreshToken)
		if err != nil {
			return core.CredentialPair{}, err
		}
		sealed.RefreshToken = token
	}
	return sealed, nil
}

func (s *EncryptedCredentialStore) openPair(ctx context.Context, sealed core.CredentialPair) (core.CredentialPair, error) {
	pair := core.CredentialPair{}
	if sealed.HasAccessToken() {
		token, err := s.open(ctx, sealed.AccessToken)
		if err != nil {
			return core.CredentialPair{}, err
		}
		pair.AccessToken = token
	}
	if sealed.HasRefreshToken() {
		token, err := s.open(ctx, sealed.RefreshToken)
		if err != nil {
			return core.CredentialPair{}, err
		}
		pair.RefreshToken = token
	}
	return pair, nil
}

func (s *EncryptedCredentialStore) seal(ctx context.Context, value string) (string, error) {
	sealed, err := s.provider.Encrypt(ctx, []byte(strings.TrimSpace(value)))
	if err != nil {
		return "", core.NewStoreError(err, "security: seal token")
	}
	return string(sealed), nil
}

func (s *EncryptedCredentialStore) open(ctx context.Context, value string) (string, error) {
	raw := strings.TrimSpace(value)
	// Pre-encryption rows keep working after the decorator is introduced.
	if !strings.HasPrefix(raw, envelopePrefix) {
		return raw, nil
	}
	opened, err := s.provider.Decrypt(ctx, []byte(raw))
	if err != nil {
		return "", core.NewStoreError(err, "security: open token")
	}
	return string(opened), nil
}
