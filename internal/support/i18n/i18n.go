// 文件路径: internal/support/i18n/i18n.go
// 模块说明: 这是 internal 模块里的 i18n 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// Manager 持有确认消息和错误文案的多语言目录。构建后只读，可并发使用。
type Manager struct {
	defaultLang string
	catalogs    map[string]map[string]string
	langs       []string // langs[0] 是默认语言，顺序与 matcher 一致
	matcher     language.Matcher
	logger      *slog.Logger
	source      fs.FS
}

// Option 用于配置 Manager。
type Option func(*Manager)

// WithLogger 设置 Manager 使用的日志实例。
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDefaultLang 设置默认语言。
func WithDefaultLang(lang string) Option {
	return func(m *Manager) {
		m.defaultLang = lang
	}
}

// WithLocales replaces the embedded locale files; the FS must contain *.json at its root.
func WithLocales(fsys fs.FS) Option {
	return func(m *Manager) {
		m.source = fsys
	}
}

// NewManager 读取全部语言文件。默认语言的文件必须存在；
// 其它语言缺少的 key 会记 WARN，翻译时回退到默认语言。
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{defaultLang: "en-US", logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	if m.source == nil {
		sub, err := fs.Sub(embeddedLocales, "locales")
		if err != nil {
			return nil, err
		}
		m.source = sub
	}

	catalogs, err := readCatalogs(m.source)
	if err != nil {
		return nil, err
	}
	base, ok := catalogs[m.defaultLang]
	if !ok {
		return nil, fmt.Errorf("i18n: no locale file for default language %s", m.defaultLang)
	}
	m.catalogs = catalogs

	m.langs = []string{m.defaultLang}
	for lang := range catalogs {
		if lang != m.defaultLang {
			m.langs = append(m.langs, lang)
		}
	}
	slices.Sort(m.langs[1:])
	tags := make([]language.Tag, len(m.langs))
	for i, lang := range m.langs {
		tags[i] = language.Make(lang)
	}
	m.matcher = language.NewMatcher(tags)

	for _, lang := range m.langs[1:] {
		for key := range base {
			if _, ok := catalogs[lang][key]; !ok {
				m.logger.Warn("i18n key missing", "lang", lang, "key", key)
			}
		}
	}
	return m, nil
}

func readCatalogs(fsys fs.FS) (map[string]map[string]string, error) {
	files, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, fmt.Errorf("list locales: %w", err)
	}
	catalogs := make(map[string]map[string]string, len(files))
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", name, err)
		}
		var entries map[string]string
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode locale %s: %w", name, err)
		}
		catalogs[strings.TrimSuffix(path.Base(name), ".json")] = entries
	}
	return catalogs, nil
}

// Translate 按语言返回 key 对应的文案，args 按 fmt 动词填入。
// 语言不支持或缺 key 时回退到默认语言，仍找不到则返回 key 本身。
func (m *Manager) Translate(lang, key string, args ...any) string {
	text, ok := m.catalogs[m.resolve(lang)][key]
	if !ok {
		text, ok = m.catalogs[m.defaultLang][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// Match 把 Accept-Language 头或单个语言标签映射到已加载的语言，匹配不到时返回默认语言。
func (m *Manager) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return m.defaultLang
	}
	_, idx, conf := m.matcher.Match(tags...)
	if conf == language.No {
		return m.defaultLang
	}
	return m.langs[idx]
}

// Languages lists the loaded languages, default first.
func (m *Manager) Languages() []string {
	return slices.Clone(m.langs)
}

// Keys 返回某个语言目录里的全部 key（已排序）。
func (m *Manager) Keys(lang string) []string {
	catalog := m.catalogs[lang]
	keys := make([]string, 0, len(catalog))
	for key := range catalog {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func (m *Manager) resolve(lang string) string {
	if _, ok := m.catalogs[lang]; ok {
		return lang
	}
	return m.Match(lang)
}
