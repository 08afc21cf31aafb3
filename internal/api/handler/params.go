// 文件路径: internal/api/handler/params.go
// 模块说明: 这是 internal 模块里的 params 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/creamcroissant/vpnadmin/internal/service"
)

var errInvalidJSON = errors.New("handler: invalid json body / 请求体不是合法 JSON")

// parseListQuery 读取 q、sort、direction。只给 sort 不给 direction 时按升序。
func parseListQuery(r *http.Request) (service.ListQuery, error) {
	values := r.URL.Query()
	dir, err := service.ParseDirection(values.Get("direction"))
	if err != nil {
		return service.ListQuery{}, err
	}
	key := strings.TrimSpace(values.Get("sort"))
	if key != "" && dir == service.Unsorted {
		dir = service.Ascending
	}
	if key == "" {
		dir = service.Unsorted
	}
	return service.ListQuery{
		Query: values.Get("q"),
		Sort:  service.SortState{Key: key, Direction: dir},
	}, nil
}

// optionalBool parses a tri-state query flag: absent → nil.
func optionalBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", service.ErrInvalidFilter, name, raw)
	}
	return &v, nil
}

// multiValue 同时支持 ?protocols=tls&protocols=quic 和 ?protocols=tls,quic。
func multiValue(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func optionalInt64(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", service.ErrInvalidFilter, name, raw)
	}
	return v, nil
}

// parseLimit reads ?limit= as a non-negative int; absent → 0.
func parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit=%q", service.ErrInvalidFilter, raw)
	}
	return n, nil
}

// readJSONBody reads the whole body and checks it is one JSON value.
func readJSONBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errInvalidJSON
	}
	return body, nil
}

// mergeInto 返回一个编辑回调：把请求体里出现的字段覆盖到预填好的表单上。
func mergeInto[F any](body []byte) func(*F) error {
	return func(form *F) error {
		return json.Unmarshal(body, form)
	}
}
