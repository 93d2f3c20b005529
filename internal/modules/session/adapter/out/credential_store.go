package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"carepath/internal/modules/session/domain"
	sessionout "carepath/internal/modules/session/port/out"
	apperrors "carepath/internal/platform/errors"
)

type FileCredentialStore struct {
	path string
}

func NewFileCredentialStore(path string) sessionout.CredentialStore {
	return &FileCredentialStore{path: path}
}

func (s *FileCredentialStore) Save(_ context.Context, session domain.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("chmod credentials: %w", err)
	}
	return nil
}

func (s *FileCredentialStore) Load(_ context.Context) (domain.Session, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Session{}, apperrors.ErrNotAuthenticated
		}
		return domain.Session{}, fmt.Errorf("read credentials: %w", err)
	}
	session := domain.Session{}
	if err := json.Unmarshal(payload, &session); err != nil {
		return domain.Session{}, fmt.Errorf("decode credentials: %w", err)
	}
	session.Token = domain.StripBearer(session.Token)
	if session.Token == "" {
		return domain.Session{}, apperrors.ErrNotAuthenticated
	}
	session.Source = domain.SourceFile
	return session, nil
}

func (s *FileCredentialStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
