package browser

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CookieStore persists the session's cookie jar as a JSON file. The last
// writer wins.
type CookieStore struct {
	path string
	now  func() time.Time
}

func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path, now: time.Now}
}

func (s *CookieStore) Path() string {
	return s.path
}

// Load returns the stored cookies without expired entries. A missing file is
// an empty jar.
func (s *CookieStore) Load() ([]Cookie, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	var all []Cookie
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("decode cookies %s: %w", s.path, err)
	}

	now := s.now()
	live := all[:0]
	for _, c := range all {
		if !c.Expired(now) {
			live = append(live, c)
		}
	}
	return live, nil
}

func (s *CookieStore) Save(cookies []Cookie) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cookie dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cookies: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cookies: %w", err)
	}
	return nil
}

func (s *CookieStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cookies: %w", err)
	}
	return nil
}

func (s *CookieStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
