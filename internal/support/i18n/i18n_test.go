package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateWithArgsAndFallback(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	assert.Equal(t, "Server us.example.com added successfully", m.Translate("en-US", "server.created", "us.example.com"))
	assert.Equal(t, "节点 a 删除成功", m.Translate("zh-CN", "server.deleted", "a"))
	assert.Equal(t, "节点 a 删除成功", m.Translate("zh", "server.deleted", "a"), "close tags resolve through the matcher")
	assert.Equal(t, "Resource not found", m.Translate("fr-FR", "error.not_found"))
	assert.Equal(t, "missing.key", m.Translate("en-US", "missing.key"))
}

func TestLocalesShareKeys(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)
	assert.Equal(t, []string{"en-US", "zh-CN"}, m.Languages())
	assert.NotEmpty(t, m.Keys("en-US"))
	assert.Equal(t, m.Keys("en-US"), m.Keys("zh-CN"))
}

func TestMatch(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)
	assert.Equal(t, "zh-CN", m.Match("zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, "en-US", m.Match("en-GB"))
	assert.Equal(t, "en-US", m.Match(""))
	assert.Equal(t, "en-US", m.Match("de-DE"))
}

func TestCustomLocalesFallBackPerKey(t *testing.T) {
	m, err := NewManager(WithLocales(fstest.MapFS{
		"en-US.json": {Data: []byte(`{"greet":"hello %s","bye":"bye"}`)},
		"fr-FR.json": {Data: []byte(`{"greet":"bonjour %s"}`)},
	}))
	require.NoError(t, err)
	assert.Equal(t, "bonjour ops", m.Translate("fr-FR", "greet", "ops"))
	assert.Equal(t, "bye", m.Translate("fr-FR", "bye"))
}

func TestDefaultLocaleRequired(t *testing.T) {
	_, err := NewManager(WithLocales(fstest.MapFS{
		"fr-FR.json": {Data: []byte(`{}`)},
	}))
	assert.ErrorContains(t, err, "default language")
}
