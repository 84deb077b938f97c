package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Session is the signed-in identity and its bearer token. The zero value is
// an anonymous session.
type Session struct {
	UserID string `yaml:"user_id"`
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Role   string `yaml:"role"`
	Token  string `yaml:"token"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

func (s *Session) IsOrganizer() bool {
	return s != nil && s.Role == "organizer"
}

// SessionStore persists a session between process runs. Callers load once at
// start and save once at exit.
type SessionStore interface {
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

// FileSessionStore keeps the session in a YAML file readable only by the
// current user.
type FileSessionStore struct {
	Path string
}

// DefaultSessionPath is $XDG_CONFIG_HOME/localevents/session.yaml or the
// platform equivalent.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "localevents", "session.yaml"), nil
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{Path: path}
}

// Load returns an anonymous session when no file exists yet.
func (f *FileSessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Session{}, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var session Session
	if err := yaml.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", f.Path, err)
	}
	return &session, nil
}

func (f *FileSessionStore) Save(session *Session) error {
	if session == nil || !session.Authenticated() {
		return f.Clear()
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(f.Path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (f *FileSessionStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
