package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNoSession is returned when no operator token has been saved yet.
var ErrNoSession = errors.New("not logged in / 未登录，请先执行 vpnadmin login")

// ErrSessionExpired 表示本地保存的令牌已经过期，文件已被清理。
var ErrSessionExpired = errors.New("session expired / 会话已过期，请重新登录")

// APIError is a non-2xx answer from the server.
// Message holds the server's own text when it sent one, otherwise "API Error: <status>".
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API Error: %d", e.Status)
}

// FieldSummary renders field errors as "field: message" lines in key order.
func (e *APIError) FieldSummary() string {
	if len(e.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(e.Fields[k])
		b.WriteByte('\n')
	}
	return b.String()
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	var payload struct {
		Error   string            `json:"error"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Error
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
		apiErr.Fields = payload.Fields
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("API Error: %d", status)
	}
	return errors.WithStack(apiErr)
}
