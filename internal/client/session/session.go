// Package session caches the signed-in account on disk for the CLI and decides
// on startup whether the cached token is still usable. The check is structural
// only; the server verifies the signature on every request.
package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ExpiredNotice is shown once after an unusable session has been discarded.
const ExpiredNotice = "Your session was invalid or expired. Please log in again."

const (
	sessionFile = "session.json"
	noticeFile  = "notice"
)

// Session is the locally cached account state.
type Session struct {
	ID              string  `json:"_id"`
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	IsEmailVerified bool    `json:"isEmailVerified"`
	PendingEmail    *string `json:"pendingEmail,omitempty"`
	Token           string  `json:"token"`
}

// Patch lists the fields to overwrite on Update. Nil fields are kept.
type Patch struct {
	ID              *string
	Username        *string
	Email           *string
	IsEmailVerified *bool
	PendingEmail    *string
	ClearPending    bool
	Token           *string
}

// Guard owns the session cache under one directory.
type Guard struct {
	dir string
	log zerolog.Logger
	now func() time.Time
}

func NewGuard(dir string, log zerolog.Logger) *Guard {
	return &Guard{dir: dir, log: log, now: time.Now}
}

// DefaultDir returns the per-user directory the CLI keeps its session in.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("session: config dir: %w", err)
	}
	return filepath.Join(base, "reelbase"), nil
}

// Load returns the cached session when its token is structurally valid and
// unexpired. An unusable token clears the cache and leaves ExpiredNotice for
// TakeNotice. Unreadable JSON clears the cache without a notice.
func (g *Guard) Load() (*Session, bool) {
	raw, err := os.ReadFile(g.path(sessionFile))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			g.log.Warn().Err(err).Msg("read cached session")
		}
		return nil, false
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		g.log.Warn().Err(err).Msg("cached session is corrupted, clearing")
		g.clear()
		return nil, false
	}

	if !TokenValid(s.Token, g.now()) {
		g.log.Warn().Msg("invalid or expired token found on startup, clearing")
		g.clear()
		if err := g.writeFile(noticeFile, []byte(ExpiredNotice)); err != nil {
			g.log.Warn().Err(err).Msg("store session notice")
		}
		return nil, false
	}
	return &s, true
}

// Save replaces the cached session.
func (g *Guard) Save(s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	return g.writeFile(sessionFile, raw)
}

// Update merges p into the cached session and persists the result. With no
// readable cached session the patch is applied to an empty one.
func (g *Guard) Update(p Patch) (*Session, error) {
	var s Session
	if raw, err := os.ReadFile(g.path(sessionFile)); err == nil {
		_ = json.Unmarshal(raw, &s)
	}

	set(&s.ID, p.ID)
	set(&s.Username, p.Username)
	set(&s.Email, p.Email)
	set(&s.Token, p.Token)
	if p.IsEmailVerified != nil {
		s.IsEmailVerified = *p.IsEmailVerified
	}
	switch {
	case p.ClearPending:
		s.PendingEmail = nil
	case p.PendingEmail != nil:
		pending := *p.PendingEmail
		s.PendingEmail = &pending
	}

	if err := g.Save(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Logout removes the cached session unconditionally.
func (g *Guard) Logout() error {
	if err := os.Remove(g.path(sessionFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: logout: %w", err)
	}
	return nil
}

// TakeNotice returns the pending notice, if any, and forgets it.
func (g *Guard) TakeNotice() (string, bool) {
	raw, err := os.ReadFile(g.path(noticeFile))
	if err != nil {
		return "", false
	}
	_ = os.Remove(g.path(noticeFile))
	return string(raw), len(raw) > 0
}

// TokenValid reports whether token has three segments and a base64url JSON
// payload whose numeric exp is later than now. The signature is not checked.
func TokenValid(token string, now time.Time) bool {
	claims, ok := decodeClaims(token)
	if !ok {
		return false
	}
	exp, ok := claims["exp"].(float64)
	return ok && exp > float64(now.Unix())
}

// TokenSubject returns the unverified sub claim of token.
func TokenSubject(token string) (string, bool) {
	claims, ok := decodeClaims(token)
	if !ok {
		return "", false
	}
	sub, ok := claims["sub"].(string)
	return sub, ok && sub != ""
}

func decodeClaims(token string) (map[string]any, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, false
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, false
	}
	return claims, true
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (g *Guard) clear() {
	if err := g.Logout(); err != nil {
		g.log.Warn().Err(err).Msg("clear cached session")
	}
}

func (g *Guard) path(name string) string {
	return filepath.Join(g.dir, name)
}

// writeFile replaces name atomically with owner-only permissions.
func (g *Guard) writeFile(name string, data []byte) error {
	if err := os.MkdirAll(g.dir, 0o700); err != nil {
		return fmt.Errorf("session: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(g.dir, name+".*")
	if err != nil {
		return fmt.Errorf("session: write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("session: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), g.path(name)); err != nil {
		return fmt.Errorf("session: write %s: %w", name, err)
	}
	return nil
}
