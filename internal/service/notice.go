package service

import (
	"github.com/creamcroissant/vpnadmin/internal/support/i18n"
)

// Notice 是一条面向用户的确认消息：i18n key 加参数，由调用方按请求语言渲染。
type Notice struct {
	Key  string
	Args []any
}

func notice(key string, args ...any) Notice {
	return Notice{Key: key, Args: args}
}

// Render translates the notice; a nil manager falls back to the raw key.
func (n Notice) Render(m *i18n.Manager, lang string) string {
	if m == nil {
		return n.Key
	}
	return m.Translate(lang, n.Key, n.Args...)
}

// Mutation 是一次创建、更新或删除的结果。
type Mutation[T any] struct {
	Entity  *T
	Deleted bool
	Notice  Notice
}
