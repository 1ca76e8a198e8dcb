package credentials

import (
	"context"
	"errors"
	"strings"

	"brandforge/internal/infra"
	"brandforge/internal/sqlinline"
)

const (
	ProviderGemini   = "gemini"
	ProviderDeepSeek = "deepseek"
)

// Store reads and writes vendor API keys kept in the database, so keys can
// be rotated without redeploying the worker.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGemini)
}

func (s *Store) DeepSeekAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderDeepSeek)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("credentials: token is required")
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, []byte(`{}`))
	return err
}
