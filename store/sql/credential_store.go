// Package sqlstore persists the client session in a relational database via
// bun. It suits long-lived daemons and CLIs that must survive restarts
// without forcing a fresh login.
package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/agentplatform/go-apiclient/core"
)

type CredentialStore struct {
	db   *bun.DB
	repo repository.Repository[*sessionRecord]
}

func NewCredentialStore(db *bun.DB) (*CredentialStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*sessionRecord](db, sessionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid session repository wiring: %w", err)
		}
	}
	return &CredentialStore{db: db, repo: repo}, nil
}

// NewCredentialStoreFromClient accepts either a *bun.DB or a persistence
// client exposing DB() *bun.DB (go-persistence-bun).
func NewCredentialStoreFromClient(client any) (*CredentialStore, error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewCredentialStore(db)
}

func (s *CredentialStore) Save(ctx context.Context, pair core.CredentialPair, identity *core.Identity) error {
	if s == nil || s.db == nil || s.repo == nil {
		return core.NewStoreError(nil, "sqlstore: credential store is not configured")
	}

	var identityPayload json.RawMessage
	if identity != nil {
		encoded, err := json.Marshal(identity)
		if err != nil {
			return core.NewStoreError(err, "sqlstore: encode identity")
		}
		identityPayload = encoded
	}

	now := time.Now().UTC()
	record := &sessionRecord{
		ID:           uuid.NewString(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Identity:     identityPayload,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, deleteErr := tx.NewDelete().
			Model((*sessionRecord)(nil)).
			Where("1 = 1").
			Exec(ctx); deleteErr != nil {
			return deleteErr
		}
		_, createErr := s.repo.CreateTx(ctx, tx, record)
		return createErr
	})
	if err != nil {
		return core.NewStoreError(err, "sqlstore: save session")
	}
	return nil
}

func (s *CredentialStore) Load(ctx context.Context) (core.CredentialPair, bool, error) {
	record, found, err := s.loadRecord(ctx)
	if err != nil {
		return core.CredentialPair{}, false, err
	}
	if !found {
		return core.CredentialPair{}, false, nil
	}
	pair := core.CredentialPair{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
	}
	if pair.IsZero() {
		return core.CredentialPair{}, false, nil
	}
	return pair, true, nil
}

func (s *CredentialStore) LoadIdentity(ctx context.Context) (core.Identity, bool, error) {
	record, found, err := s.loadRecord(ctx)
	if err != nil {
		return core.Identity{}, false, err
	}
	// A save without an identity leaves the column empty or a JSON null;
	// both mean "no identity stored".
	if !found || len(record.Identity) == 0 || string(record.Identity) == "null" {
		return core.Identity{}, false, nil
	}
	var identity core.Identity
	if unmarshalErr := json.Unmarshal(record.Identity, &identity); unmarshalErr != nil {
		return core.Identity{}, false, core.NewStoreError(unmarshalErr, "sqlstore: decode identity")
	}
	return identity, true, nil
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	if s == nil || s.db == nil {
		return core.NewStoreError(nil, "sqlstore: credential store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*sessionRecord)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return core.NewStoreError(err, "sqlstore: clear session")
	}
	return nil
}

func (s *CredentialStore) IsAuthenticated(ctx context.Context) bool {
	pair, found, err := s.Load(ctx)
	if err != nil || !found {
		return false
	}
	return pair.HasAccessToken()
}

func (s *CredentialStore) loadRecord(ctx context.Context) (*sessionRecord, bool, error) {
	if s == nil || s.repo == nil {
		return nil, false, core.NewStoreError(nil, "sqlstore: credential store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, false, core.NewStoreError(err, "sqlstore: load session")
	}
	if len(records) == 0 || records[0] == nil {
		return nil, false, nil
	}
	return records[0], true, nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

func normalizeDSN(dsn string) string {
	return strings.TrimSpace(dsn)
}

var _ core.CredentialStore = (*CredentialStore)(nil)
