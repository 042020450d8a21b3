package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/repositories/repomanager"
)

// secretKeyBytes is the entropy of a generated key (hex encoded: 64 chars).
const secretKeyBytes = 32

type SecretKeyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewSecretKeyService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *SecretKeyService {
	return &SecretKeyService{db: db, repomanager: m, log: log.With("module", "secretkeys")}
}

// Generate creates and stores a fresh random key.
func (s *SecretKeyService) Generate(ctx context.Context) (string, error) {
	key, err := common.MakeRandHexString(secretKeyBytes)
	if err != nil {
		return "", fmt.Errorf("error generating secret key: %w", err)
	}
	if err := s.Add(ctx, key); err != nil {
		return "", err
	}
	return key, nil
}

// Add stores a caller supplied key.
func (s *SecretKeyService) Add(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: secret key is empty", common.ErrValidation)
	}
	if err := s.repomanager.SecretKeys(s.db).Create(ctx, key); err != nil {
		return err
	}
	s.log.Info(ctx, "secret key added")
	return nil
}

func (s *SecretKeyService) Revoke(ctx context.Context, key string) error {
	if err := s.repomanager.SecretKeys(s.db).Delete(ctx, key); err != nil {
		return err
	}
	s.log.Info(ctx, "secret key revoked")
	return nil
}

func (s *SecretKeyService) List(ctx context.Context) ([]string, error) {
	return s.repomanager.SecretKeys(s.db).List(ctx)
}

// Valid reports whether key is stored. The empty key is never valid.
func (s *SecretKeyService) Valid(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	return s.repomanager.SecretKeys(s.db).Exists(ctx, key)
}
