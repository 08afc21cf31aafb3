// 文件路径: internal/repository/types.go
// 模块说明: 这是 internal 模块里的 types 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package repository

// Server 是一台 VPN 节点的完整记录。
// 表单不会修改 Flag、UsersAdsed、LastPing、UniSkip、Usage、OnlineUsers、CDNNumber，
// 这些字段由后台自己维护。
type Server struct {
	ID               string  `json:"id" yaml:"id"`
	CloudFlareDomain string  `json:"cloudFlareDomain" yaml:"cloudFlareDomain"`
	DnsttDomain      string  `json:"dnsttDomain" yaml:"dnsttDomain"`
	Country          string  `json:"country" yaml:"country"`
	City             string  `json:"city" yaml:"city"`
	State            string  `json:"state" yaml:"state"`
	IPv4             string  `json:"ipv4" yaml:"ipv4"`
	IPv6             string  `json:"ipv6" yaml:"ipv6"`
	PortHTTP         int     `json:"portHTTP" yaml:"portHTTP"`
	PortTLS          int     `json:"portTLS" yaml:"portTLS"`
	PortUDP          int     `json:"portUDP" yaml:"portUDP"`
	PortDNSTT        int     `json:"portDNSTT" yaml:"portDNSTT"`
	Flag             string  `json:"flag" yaml:"flag"`
	Premium          bool    `json:"premium" yaml:"premium"`
	Invisible        bool    `json:"invisible" yaml:"invisible"`
	UsersAdsed       int64   `json:"usersAdsed" yaml:"usersAdsed"`
	TLS              bool    `json:"tls" yaml:"tls"`
	QUIC             bool    `json:"quic" yaml:"quic"`
	HTTP             bool    `json:"http" yaml:"http"`
	DNSTT            bool    `json:"dnstt" yaml:"dnstt"`
	LastPing         int64   `json:"lastPing" yaml:"lastPing"`
	UniSkip          bool    `json:"uniSkip" yaml:"uniSkip"`
	Usage            float64 `json:"usage" yaml:"usage"`
	OnlineUsers      int64   `json:"onlineUsers" yaml:"onlineUsers"`
	Capacity         int64   `json:"capacity" yaml:"capacity"`
	CDNNumber        int     `json:"cdnNumber" yaml:"cdnNumber"`
	CDNName          string  `json:"cdnName" yaml:"cdnName"`
	CDN              bool    `json:"cdn" yaml:"cdn"`
	CDNs             CDNMap  `json:"cdns" yaml:"cdns"`
	CreatedAt        int64   `json:"createdAt" yaml:"-"`
	UpdatedAt        int64   `json:"updatedAt" yaml:"-"`
}

// Protocols lists the enabled protocol flags in display order.
func (s *Server) Protocols() []string {
	out := make([]string, 0, 4)
	if s.HTTP {
		out = append(out, "http")
	}
	if s.TLS {
		out = append(out, "tls")
	}
	if s.QUIC {
		out = append(out, "quic")
	}
	if s.DNSTT {
		out = append(out, "dnstt")
	}
	return out
}

// Config 描述一条客户端连接配置。
// Downloaded/Onlines/VotesPositive/VotesNegative 是后端计数器，表单从不触碰。
type Config struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Host          string `json:"host" yaml:"host"`
	DNSHost       string `json:"dnsHost" yaml:"dnsHost"`
	SNI           string `json:"sni" yaml:"sni"`
	Payload       string `json:"payload" yaml:"payload"`
	Type          string `json:"type" yaml:"type"`
	Default       bool   `json:"default" yaml:"default"`
	CDN           bool   `json:"cdn" yaml:"cdn"`
	CDNName       string `json:"cdnName" yaml:"cdnName"`
	CDNNumber     int    `json:"cdnNumber" yaml:"cdnNumber"`
	Notes         bool   `json:"notes" yaml:"notes"`
	NoteMsg       string `json:"noteMsg" yaml:"noteMsg"`
	Multiproxy    bool   `json:"multiproxy" yaml:"multiproxy"`
	ForPremium    bool   `json:"forPremium" yaml:"forPremium"`
	TestPriority  int    `json:"testPriority" yaml:"testPriority"`
	Operator      string `json:"operator" yaml:"operator"`
	Downloaded    int64  `json:"downloaded" yaml:"downloaded"`
	Onlines       int64  `json:"onlines" yaml:"onlines"`
	VotesPositive int64  `json:"votesPositive" yaml:"votesPositive"`
	VotesNegative int64  `json:"votesNegative" yaml:"votesNegative"`
	CreatedAt     int64  `json:"createdAt" yaml:"-"`
	UpdatedAt     int64  `json:"updatedAt" yaml:"-"`
}

// PremiumUser 记录一次付费购买。
// Date 与 DateStart 表示同一时刻；Expired 是人工标记，不随 DateEnd 自动变化。
type PremiumUser struct {
	ID            string `json:"id" yaml:"id"`
	Email         string `json:"email" yaml:"email"`
	TransactionID string `json:"transactionId" yaml:"transactionId"`
	DeviceID      string `json:"deviceId" yaml:"deviceId"`
	DateStart     int64  `json:"dateStart" yaml:"dateStart"`
	Date          string `json:"date" yaml:"date"`
	DateEnd       int64  `json:"dateEnd" yaml:"dateEnd"`
	Months        int    `json:"months" yaml:"months"`
	PricePaid     string `json:"pricePaid" yaml:"pricePaid"`
	Suspicious    bool   `json:"suspicious" yaml:"suspicious"`
	Used          bool   `json:"used" yaml:"used"`
	Expired       bool   `json:"expired" yaml:"expired"`
	CreatedAt     int64  `json:"createdAt" yaml:"-"`
	UpdatedAt     int64  `json:"updatedAt" yaml:"-"`
}

// AppSettings is the singleton row mobile clients poll on start.
type AppSettings struct {
	AdsMediation      bool    `json:"adsMediation" yaml:"adsMediation"`
	MaintenanceMode   bool    `json:"maintenanceMode" yaml:"maintenanceMode"`
	DeviceLocked      bool    `json:"deviceLocked" yaml:"deviceLocked"`
	VersionNow        float64 `json:"versionNow" yaml:"versionNow"`
	BuildNow          int     `json:"buildNow" yaml:"buildNow"`
	AppBg             string  `json:"appBg" yaml:"appBg"`
	CurveBg           string  `json:"curveBg" yaml:"curveBg"`
	Default           bool    `json:"default" yaml:"default"`
	TimeMaxHour       int     `json:"timeMaxHour" yaml:"timeMaxHour"`
	TimeStepHour      int     `json:"timeStepHour" yaml:"timeStepHour"`
	ServersUpdated    string  `json:"serversUpdated" yaml:"serversUpdated"`
	ConfigsUpdated    string  `json:"configsUpdated" yaml:"configsUpdated"`
	AgentInstructions string  `json:"agentInstructions" yaml:"agentInstructions"`
	AgentAPIKey       string  `json:"agentApiKey" yaml:"agentApiKey"`
	AgentModel        string  `json:"agentModel" yaml:"agentModel"`
	UpdatedAt         int64   `json:"updatedAt" yaml:"-"`
}

// AppVersion is one row of the version/build history.
type AppVersion struct {
	ID         int64   `json:"id"`
	VersionNow float64 `json:"versionNow"`
	BuildNow   int     `json:"buildNow"`
	CreatedAt  int64   `json:"createdAt"`
}

// AdCallback 是广告 SDK 回调的一条记录，Timestamp 单位为毫秒。
type AdCallback struct {
	ID        int64  `json:"id"`
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"`
	AdType    string `json:"adType"`
	Status    string `json:"status"`
}

// UserAdStatus 汇总一个用户看广告换来的有效期，时间字段单位为毫秒。
type UserAdStatus struct {
	UserID     string `json:"userId"`
	ValidUntil int64  `json:"validUntil"`
	AdViews    int64  `json:"adViews"`
	LastSeen   int64  `json:"lastSeen"`
}

// StatusBump 描述一次回调对用户状态的增量。Completed 时观看次数加一，
// 有效期延长 StepMillis，且不超过 CapAt（绝对时间，毫秒）。
// FirstValidUntil 是用户还没有状态行时写入的有效期。
type StatusBump struct {
	SeenAt          int64
	Completed       bool
	StepMillis      int64
	CapAt           int64
	FirstValidUntil int64
}

// AdCallbackCount aggregates callbacks by a single column value.
type AdCallbackCount struct {
	Key   string
	Count int64
}

// Setting 存储一个通用的键值配置（例如 JWT 签名密钥）。
type Setting struct {
	Key       string
	Value     string
	Category  string
	UpdatedAt int64
}
