// 文件路径: internal/repository/filters.go
// 模块说明: 这是 internal 模块里的 filters 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package repository

// ServerFilter narrows server listings. Zero values mean "any".
type ServerFilter struct {
	Country   string
	Premium   *bool
	Protocols []string // http, tls, quic, dnstt; all listed must be enabled
}

// ConfigFilter narrows config listings.
type ConfigFilter struct {
	Type       string
	ForPremium *bool
	Operator   string
}

// PremiumUserFilter narrows premium user listings.
type PremiumUserFilter struct {
	Expired    *bool
	Suspicious *bool
	Email      string // exact, case-insensitive
}

// AdCallbackFilter constrains ad callback queries. FromMillis/ToMillis are inclusive; 0 = open.
type AdCallbackFilter struct {
	UserID     string
	AdType     string
	Status     string
	FromMillis int64
	ToMillis   int64
	Limit      int
}
