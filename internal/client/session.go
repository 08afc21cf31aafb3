// 文件路径: internal/client/session.go
// 模块说明: 这是 internal 模块里的 session 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package client

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Session 是 CLI 和 TUI 共用的本地登录状态，保存在一个 JSON 文件里。
// 只有 Load、Save、Clear 会碰文件；其它代码通过传入的 *Session 读取令牌。
type Session struct {
	ServerURL string    `json:"serverUrl"`
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expiresAt"`

	path string
	now  func() time.Time
}

// NewSession binds an empty session to a file path.
func NewSession(path string) *Session {
	return &Session{path: path, now: time.Now}
}

// Path returns the backing file.
func (s *Session) Path() string {
	return s.path
}

// Active reports whether a token is loaded.
func (s *Session) Active() bool {
	return s != nil && s.Token != ""
}

// Load 读取并校验会话文件。
// 文件不存在返回 ErrNoSession；内容损坏或令牌过期时删除文件后返回错误，内存状态保持清空。
func (s *Session) Load() error {
	s.reset()
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNoSession
	}
	if err != nil {
		return errors.Wrap(err, "read session")
	}

	var stored Session
	if err := json.Unmarshal(raw, &stored); err != nil || stored.Token == "" {
		_ = s.Clear()
		return errors.Wrap(ErrNoSession, "session file was corrupt and has been removed")
	}
	if err := s.SetToken(stored.ServerURL, stored.Token); err != nil {
		_ = s.Clear()
		if errors.Is(err, ErrSessionExpired) {
			return ErrSessionExpired
		}
		return errors.Wrapf(ErrNoSession, "session token was unreadable and has been removed (%v)", err)
	}
	return nil
}

// SetToken 解析令牌（不校验签名，签名由服务端负责）并填充 Subject、ExpiresAt。
func (s *Session) SetToken(serverURL, raw string) error {
	raw = strings.TrimSpace(raw)
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return errors.Wrap(err, "parse token")
	}
	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
		if !expires.After(s.clock()) {
			return ErrSessionExpired
		}
	}
	s.ServerURL = strings.TrimRight(strings.TrimSpace(serverURL), "/")
	s.Token = raw
	s.Subject = claims.Subject
	s.ExpiresAt = expires
	return nil
}

// Save writes the session with owner-only permissions.
func (s *Session) Save() error {
	if !s.Active() {
		return ErrNoSession
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "create session dir")
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "write session")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "replace session")
	}
	return nil
}

// Clear removes the file and zeroes the in-memory state. A missing file is fine.
func (s *Session) Clear() error {
	s.reset()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "remove session")
	}
	return nil
}

func (s *Session) reset() {
	s.ServerURL = ""
	s.Token = ""
	s.Subject = ""
	s.ExpiresAt = time.Time{}
}

func (s *Session) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
