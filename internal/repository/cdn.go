package repository

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Reserved CDN provider names. Other slug-shaped names may be added per server.
const (
	CDNCloudflare  = "cloudflare"
	CDNGoogleCloud = "googlecloud"
	CDNCloudfront  = "cloudfront"
)

// ReservedCDNProviders returns the built-in providers in display order.
func ReservedCDNProviders() []string {
	return []string{CDNCloudflare, CDNGoogleCloud, CDNCloudfront}
}

// CDNEntry is one provider and its domains.
type CDNEntry struct {
	Name    string
	Domains []string
}

// CDNMap is an ordered provider → domains mapping.
// It encodes as a JSON/YAML object and keeps key order on both sides.
type CDNMap []CDNEntry

// NewCDNMap returns a map with every reserved provider present and empty.
func NewCDNMap() CDNMap {
	m := make(CDNMap, 0, 3)
	for _, name := range ReservedCDNProviders() {
		m = append(m, CDNEntry{Name: name, Domains: []string{}})
	}
	return m
}

// Get returns the domains of a provider.
func (m CDNMap) Get(name string) ([]string, bool) {
	for _, e := range m {
		if e.Name == name {
			return e.Domains, true
		}
	}
	return nil, false
}

// Set replaces a provider's domains in place or appends a new provider.
func (m *CDNMap) Set(name string, domains []string) {
	if domains == nil {
		domains = []string{}
	}
	for i := range *m {
		if (*m)[i].Name == name {
			(*m)[i].Domains = domains
			return
		}
	}
	*m = append(*m, CDNEntry{Name: name, Domains: domains})
}

// Names lists provider names in order.
func (m CDNMap) Names() []string {
	names := make([]string, 0, len(m))
	for _, e := range m {
		names = append(names, e.Name)
	}
	return names
}

// DomainCount sums the domains across all providers.
func (m CDNMap) DomainCount() int {
	total := 0
	for _, e := range m {
		total += len(e.Domains)
	}
	return total
}

// Clone deep-copies the map.
func (m CDNMap) Clone() CDNMap {
	if m == nil {
		return nil
	}
	out := make(CDNMap, len(m))
	for i, e := range m {
		var domains []string
		if e.Domains != nil {
			domains = make([]string, len(e.Domains))
			copy(domains, e.Domains)
		}
		out[i] = CDNEntry{Name: e.Name, Domains: domains}
	}
	return out
}

// MarshalJSON 按插入顺序输出 JSON 对象。
func (m CDNMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		domains := e.Domains
		if domains == nil {
			domains = []string{}
		}
		val, err := json.Marshal(domains)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 逐个读取 token，保留对象里键的原始顺序。
func (m *CDNMap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("cdns: expected object, got %v", tok)
	}
	out := CDNMap{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("cdns: expected provider name, got %v", tok)
		}
		var domains []string
		if err := dec.Decode(&domains); err != nil {
			return fmt.Errorf("cdns: provider %q: %w", name, err)
		}
		out.Set(name, domains)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// MarshalYAML emits a mapping node so key order survives.
func (m CDNMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range m {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name}
		val := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, d := range e.Domains {
			val.Content = append(val.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: d})
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping node pair by pair.
func (m *CDNMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("cdns: expected mapping at line %d", value.Line)
	}
	out := CDNMap{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var domains []string
		if err := value.Content[i+1].Decode(&domains); err != nil {
			return fmt.Errorf("cdns: provider %q: %w", value.Content[i].Value, err)
		}
		out.Set(value.Content[i].Value, domains)
	}
	*m = out
	return nil
}
