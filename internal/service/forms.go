// 文件路径: internal/service/forms.go
// 模块说明: 这是 internal 模块里的 forms 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

// 表单层全部使用字符串承载数字和日期，和管理界面的输入框一一对应。
// 每个实体有一对纯函数：XxxToForm 把实体回填到表单，ToXxx 把通过校验的表单转成实体。
// 对任何通过校验的表单 f 都满足 XxxToForm(f.ToXxx()) == f。

// DateLayout is the only accepted date format in forms: RFC 3339, UTC, second precision.
const DateLayout = "2006-01-02T15:04:05Z"

// ConfigTypes lists the accepted config.type values.
var ConfigTypes = []string{"ssh", "vmess", "v2ray", "trojan", "tls", "http"}

var (
	canonicalUint = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)
	decimalString = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	providerSlug  = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "uint_str", func(fl validator.FieldLevel) bool {
		_, ok := parseCanonicalUint(fl.Field().String())
		return ok
	})
	mustRegister(v, "posint_str", func(fl validator.FieldLevel) bool {
		n, ok := parseCanonicalUint(fl.Field().String())
		return ok && n > 0
	})
	mustRegister(v, "port_str", func(fl validator.FieldLevel) bool {
		n, ok := parseCanonicalUint(fl.Field().String())
		return ok && n <= 65535
	})
	mustRegister(v, "float_str", func(fl validator.FieldLevel) bool {
		_, ok := parseCanonicalFloat(fl.Field().String())
		return ok
	})
	mustRegister(v, "decimal_str", func(fl validator.FieldLevel) bool {
		return decimalString.MatchString(fl.Field().String())
	})
	mustRegister(v, "utc_date", func(fl validator.FieldLevel) bool {
		_, ok := parseFormDate(fl.Field().String())
		return ok
	})
	mustRegister(v, "sni", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" || s == "same" || s == "custom" {
			return true
		}
		return v.Var(s, "hostname_rfc1123") == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

func parseCanonicalUint(s string) (int64, bool) {
	if !canonicalUint.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseCanonicalFloat 只接受和 FormatFloat 输出完全一致的写法，例如 "4.2"，不接受 "4.20"。
func parseCanonicalFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || formatFloat(f) != s {
		return 0, false
	}
	return f, true
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFormDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, s)
	if err != nil || t.Format(DateLayout) != s {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders unix seconds in the form date layout.
func FormatDate(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(DateLayout)
}

func parsePrice(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func mustUint(s string) int64 {
	n, _ := parseCanonicalUint(s)
	return n
}

// validateStruct runs the tag rules and converts failures into a ValidationError.
func validateStruct(form any) *ValidationError {
	errs := &ValidationError{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.add("_form", err.Error())
		return errs
	}
	for _, fe := range fieldErrs {
		errs.add(fe.Field(), fieldMessage(fe))
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "uint_str":
		return "must be a non-negative integer"
	case "posint_str":
		return "must be a positive integer"
	case "port_str":
		return "must be a port between 0 and 65535"
	case "float_str":
		return "must be a non-negative number"
	case "decimal_str":
		return "must be a decimal amount"
	case "utc_date":
		return "must be a date like " + DateLayout
	case "email":
		return "must be a valid email"
	case "ip4_addr":
		return "must be an IPv4 address"
	case "ip6_addr":
		return "must be an IPv6 address"
	case "hostname_rfc1123":
		return "must be a hostname"
	case "sni":
		return "must be same, custom or a hostname"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "max":
		return "is too long"
	}
	return "is invalid (" + fe.Tag() + ")"
}

// ---------------------------------------------------------------------------
// Server

// ServerForm 是节点编辑对话框的表单形态。
type ServerForm struct {
	CloudFlareDomain string            `json:"cloudFlareDomain" yaml:"cloudFlareDomain" validate:"required,hostname_rfc1123"`
	DnsttDomain      string            `json:"dnsttDomain" yaml:"dnsttDomain" validate:"omitempty,hostname_rfc1123"`
	Country          string            `json:"country" yaml:"country" validate:"required,max=64"`
	City             string            `json:"city" yaml:"city" validate:"required,max=128"`
	State            string            `json:"state" yaml:"state" validate:"required,max=128"`
	IPv4             string            `json:"ipv4" yaml:"ipv4" validate:"required,ip4_addr"`
	IPv6             string            `json:"ipv6" yaml:"ipv6" validate:"omitempty,ip6_addr"`
	PortHTTP         string            `json:"portHTTP" yaml:"portHTTP" validate:"required,port_str"`
	PortTLS          string            `json:"portTLS" yaml:"portTLS" validate:"required,port_str"`
	PortUDP          string            `json:"portUDP" yaml:"portUDP" validate:"required,port_str"`
	PortDNSTT        string            `json:"portDNSTT" yaml:"portDNSTT" validate:"required,port_str"`
	Premium          bool              `json:"premium" yaml:"premium"`
	Invisible        bool              `json:"invisible" yaml:"invisible"`
	TLS              bool              `json:"tls" yaml:"tls"`
	QUIC             bool              `json:"quic" yaml:"quic"`
	HTTP             bool              `json:"http" yaml:"http"`
	DNSTT            bool              `json:"dnstt" yaml:"dnstt"`
	CDN              bool              `json:"cdn" yaml:"cdn"`
	CDNName          string            `json:"cdnName" yaml:"cdnName"`
	CDNs             repository.CDNMap `json:"cdns" yaml:"cdns"`
	Capacity         string            `json:"capacity" yaml:"capacity" validate:"required,posint_str"`
}

// DefaultServerForm is the blank create dialog.
func DefaultServerForm() ServerForm {
	return ServerForm{
		PortHTTP:  "80",
		PortTLS:   "443",
		PortUDP:   "0",
		PortDNSTT: "53",
		CDNs:      repository.NewCDNMap(),
		Capacity:  "100",
	}
}

// Normalize trims surrounding whitespace from every text field.
func (f *ServerForm) Normalize() {
	trim(&f.CloudFlareDomain, &f.DnsttDomain, &f.Country, &f.City, &f.State, &f.IPv4, &f.IPv6,
		&f.PortHTTP, &f.PortTLS, &f.PortUDP, &f.PortDNSTT, &f.CDNName, &f.Capacity)
	for i := range f.CDNs {
		f.CDNs[i].Name = strings.TrimSpace(f.CDNs[i].Name)
		for j := range f.CDNs[i].Domains {
			f.CDNs[i].Domains[j] = strings.TrimSpace(f.CDNs[i].Domains[j])
		}
	}
}

// Validate 校验字段规则以及 CDN 提供商集合。cdn 开关不会清空 cdnName/cdns。
func (f ServerForm) Validate() error {
	errs := validateStruct(f)
	seen := make(map[string]bool, len(f.CDNs))
	for _, e := range f.CDNs {
		if !providerSlug.MatchString(e.Name) {
			errs.add("cdns", fmt.Sprintf("provider %q must be a lowercase slug", e.Name))
			break
		}
		if seen[e.Name] {
			errs.add("cdns", fmt.Sprintf("provider %q listed twice", e.Name))
			break
		}
		seen[e.Name] = true
		for _, d := range e.Domains {
			if validate.Var(d, "required,hostname_rfc1123") != nil {
				errs.add("cdns", fmt.Sprintf("provider %q: %q must be a hostname", e.Name, d))
				break
			}
		}
	}
	if f.CDNName != "" && !isReservedProvider(f.CDNName) && !seen[f.CDNName] {
		errs.add("cdnName", "must be one of: "+strings.Join(allowedProviders(f.CDNs), ", "))
	}
	return errs.orNil()
}

// ToServer converts a validated form. Server-owned fields stay zero.
func (f ServerForm) ToServer() repository.Server {
	return repository.Server{
		CloudFlareDomain: f.CloudFlareDomain,
		DnsttDomain:      f.DnsttDomain,
		Country:          f.Country,
		City:             f.City,
		State:            f.State,
		IPv4:             f.IPv4,
		IPv6:             f.IPv6,
		PortHTTP:         int(mustUint(f.PortHTTP)),
		PortTLS:          int(mustUint(f.PortTLS)),
		PortUDP:          int(mustUint(f.PortUDP)),
		PortDNSTT:        int(mustUint(f.PortDNSTT)),
		Premium:          f.Premium,
		Invisible:        f.Invisible,
		TLS:              f.TLS,
		QUIC:             f.QUIC,
		HTTP:             f.HTTP,
		DNSTT:            f.DNSTT,
		CDN:              f.CDN,
		CDNName:          f.CDNName,
		CDNs:             f.CDNs.Clone(),
		Capacity:         mustUint(f.Capacity),
	}
}

// ServerToForm pre-fills the edit dialog.
func ServerToForm(s *repository.Server) ServerForm {
	return ServerForm{
		CloudFlareDomain: s.CloudFlareDomain,
		DnsttDomain:      s.DnsttDomain,
		Country:          s.Country,
		City:             s.City,
		State:            s.State,
		IPv4:             s.IPv4,
		IPv6:             s.IPv6,
		PortHTTP:         strconv.Itoa(s.PortHTTP),
		PortTLS:          strconv.Itoa(s.PortTLS),
		PortUDP:          strconv.Itoa(s.PortUDP),
		PortDNSTT:        strconv.Itoa(s.PortDNSTT),
		Premium:          s.Premium,
		Invisible:        s.Invisible,
		TLS:              s.TLS,
		QUIC:             s.QUIC,
		HTTP:             s.HTTP,
		DNSTT:            s.DNSTT,
		CDN:              s.CDN,
		CDNName:          s.CDNName,
		CDNs:             s.CDNs.Clone(),
		Capacity:         strconv.FormatInt(s.Capacity, 10),
	}
}

// applyTo merges form fields over an existing server, keeping server-owned fields.
func (f ServerForm) applyTo(dst *repository.Server) {
	src := f.ToServer()
	src.ID = dst.ID
	src.Flag = dst.Flag
	src.UsersAdsed = dst.UsersAdsed
	src.LastPing = dst.LastPing
	src.UniSkip = dst.UniSkip
	src.Usage = dst.Usage
	src.OnlineUsers = dst.OnlineUsers
	src.CDNNumber = dst.CDNNumber
	src.CreatedAt = dst.CreatedAt
	src.UpdatedAt = dst.UpdatedAt
	*dst = src
}

func isReservedProvider(name string) bool {
	for _, p := range repository.ReservedCDNProviders() {
		if p == name {
			return true
		}
	}
	return false
}

func allowedProviders(m repository.CDNMap) []string {
	out := repository.ReservedCDNProviders()
	for _, name := range m.Names() {
		if !isReservedProvider(name) {
			out = append(out, name)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Config

// ConfigForm 是连接配置对话框的表单形态；计数器字段不在表单里。
type ConfigForm struct {
	Name         string `json:"name" yaml:"name" validate:"required,max=128"`
	Host         string `json:"host" yaml:"host" validate:"required"`
	DNSHost      string `json:"dnsHost" yaml:"dnsHost"`
	SNI          string `json:"sni" yaml:"sni" validate:"sni"`
	Payload      string `json:"payload" yaml:"payload"`
	Type         string `json:"type" yaml:"type" validate:"required,oneof=ssh vmess v2ray trojan tls http"`
	Default      bool   `json:"default" yaml:"default"`
	CDN          bool   `json:"cdn" yaml:"cdn"`
	CDNName      string `json:"cdnName" yaml:"cdnName" validate:"omitempty,oneof=cloudflare googlecloud cloudfront"`
	Notes        bool   `json:"notes" yaml:"notes"`
	NoteMsg      string `json:"noteMsg" yaml:"noteMsg"`
	Multiproxy   bool   `json:"multiproxy" yaml:"multiproxy"`
	ForPremium   bool   `json:"forPremium" yaml:"forPremium"`
	TestPriority string `json:"testPriority" yaml:"testPriority" validate:"required,uint_str"`
	Operator     string `json:"operator" yaml:"operator" validate:"required,max=128"`
}

// DefaultConfigForm is the blank create dialog.
func DefaultConfigForm() ConfigForm {
	return ConfigForm{Type: "ssh", TestPriority: "0", Operator: "vpnapp"}
}

// Normalize trims text fields and sanitises the note. Payload is kept verbatim since it carries protocol bytes.
func (f *ConfigForm) Normalize() {
	trim(&f.Name, &f.Host, &f.DNSHost, &f.SNI, &f.Type, &f.CDNName, &f.TestPriority, &f.Operator)
	f.NoteMsg = sanitizeNote(f.NoteMsg)
}

// Validate 校验字段规则；multiproxy 时 host 必须是规范的 ; 列表，否则只能是单个地址。
func (f ConfigForm) Validate() error {
	errs := validateStruct(f)
	if f.Host != "" {
		if f.Multiproxy {
			if JoinHosts(SplitHosts(f.Host)) != f.Host {
				errs.add("host", "must be a ;-separated host list without empty entries")
			}
		} else if strings.Contains(f.Host, ";") {
			errs.add("host", "must be a single host unless multiproxy is enabled")
		}
	}
	return errs.orNil()
}

// ToConfig converts a validated form with zeroed counters.
func (f ConfigForm) ToConfig() repository.Config {
	return repository.Config{
		Name:         f.Name,
		Host:         f.Host,
		DNSHost:      f.DNSHost,
		SNI:          f.SNI,
		Payload:      f.Payload,
		Type:         f.Type,
		Default:      f.Default,
		CDN:          f.CDN,
		CDNName:      f.CDNName,
		Notes:        f.Notes,
		NoteMsg:      f.NoteMsg,
		Multiproxy:   f.Multiproxy,
		ForPremium:   f.ForPremium,
		TestPriority: int(mustUint(f.TestPriority)),
		Operator:     f.Operator,
	}
}

// ConfigToForm pre-fills the edit dialog.
func ConfigToForm(c *repository.Config) ConfigForm {
	return ConfigForm{
		Name:         c.Name,
		Host:         c.Host,
		DNSHost:      c.DNSHost,
		SNI:          c.SNI,
		Payload:      c.Payload,
		Type:         c.Type,
		Default:      c.Default,
		CDN:          c.CDN,
		CDNName:      c.CDNName,
		Notes:        c.Notes,
		NoteMsg:      c.NoteMsg,
		Multiproxy:   c.Multiproxy,
		ForPremium:   c.ForPremium,
		TestPriority: strconv.Itoa(c.TestPriority),
		Operator:     c.Operator,
	}
}

func (f ConfigForm) applyTo(dst *repository.Config) {
	src := f.ToConfig()
	src.ID = dst.ID
	src.CDNNumber = dst.CDNNumber
	src.Downloaded = dst.Downloaded
	src.Onlines = dst.Onlines
	src.VotesPositive = dst.VotesPositive
	src.VotesNegative = dst.VotesNegative
	src.CreatedAt = dst.CreatedAt
	src.UpdatedAt = dst.UpdatedAt
	*dst = src
}

// ---------------------------------------------------------------------------
// PremiumUser

// PremiumUserForm 是付费用户对话框的表单形态。
type PremiumUserForm struct {
	Email         string `json:"email" yaml:"email" validate:"required,email"`
	TransactionID string `json:"transactionId" yaml:"transactionId" validate:"required,max=128"`
	DeviceID      string `json:"deviceId" yaml:"deviceId" validate:"required,max=128"`
	Date          string `json:"date" yaml:"date" validate:"required,utc_date"`
	DateEnd       string `json:"dateEnd" yaml:"dateEnd" validate:"required,utc_date"`
	Months        string `json:"months" yaml:"months" validate:"required,posint_str"`
	PricePaid     string `json:"pricePaid" yaml:"pricePaid" validate:"required,decimal_str"`
	Suspicious    bool   `json:"suspicious" yaml:"suspicious"`
	Used          bool   `json:"used" yaml:"used"`
	Expired       bool   `json:"expired" yaml:"expired"`
}

// DefaultPremiumUserForm starts a purchase at now and ends it 30 days later.
func DefaultPremiumUserForm(now time.Time) PremiumUserForm {
	start := now.UTC().Truncate(time.Second)
	return PremiumUserForm{
		Date:      start.Format(DateLayout),
		DateEnd:   start.Add(30 * 24 * time.Hour).Format(DateLayout),
		Months:    "1",
		PricePaid: "0.00",
		Used:      true,
	}
}

// Normalize trims text fields.
func (f *PremiumUserForm) Normalize() {
	trim(&f.Email, &f.TransactionID, &f.DeviceID, &f.Date, &f.DateEnd, &f.Months, &f.PricePaid)
}

// Validate checks field rules and that dateEnd does not precede date.
func (f PremiumUserForm) Validate() error {
	errs := validateStruct(f)
	start, okStart := parseFormDate(f.Date)
	end, okEnd := parseFormDate(f.DateEnd)
	if okStart && okEnd && end.Before(start) {
		errs.add("dateEnd", "must not be before date")
	}
	return errs.orNil()
}

// ToPremiumUser converts a validated form; date and dateStart describe the same instant.
func (f PremiumUserForm) ToPremiumUser() repository.PremiumUser {
	start, _ := parseFormDate(f.Date)
	end, _ := parseFormDate(f.DateEnd)
	return repository.PremiumUser{
		Email:         f.Email,
		TransactionID: f.TransactionID,
		DeviceID:      f.DeviceID,
		DateStart:     start.Unix(),
		Date:          f.Date,
		DateEnd:       end.Unix(),
		Months:        int(mustUint(f.Months)),
		PricePaid:     f.PricePaid,
		Suspicious:    f.Suspicious,
		Used:          f.Used,
		Expired:       f.Expired,
	}
}

// PremiumUserToForm pre-fills the edit dialog.
func PremiumUserToForm(u *repository.PremiumUser) PremiumUserForm {
	return PremiumUserForm{
		Email:         u.Email,
		TransactionID: u.TransactionID,
		DeviceID:      u.DeviceID,
		Date:          FormatDate(u.DateStart),
		DateEnd:       FormatDate(u.DateEnd),
		Months:        strconv.Itoa(u.Months),
		PricePaid:     u.PricePaid,
		Suspicious:    u.Suspicious,
		Used:          u.Used,
		Expired:       u.Expired,
	}
}

func (f PremiumUserForm) applyTo(dst *repository.PremiumUser) {
	src := f.ToPremiumUser()
	src.ID = dst.ID
	src.CreatedAt = dst.CreatedAt
	src.UpdatedAt = dst.UpdatedAt
	*dst = src
}

// ---------------------------------------------------------------------------
// AppSettings

// AppSettingsForm 是应用设置页的表单形态。serversUpdated/configsUpdated 由后台维护。
type AppSettingsForm struct {
	VersionNow        string `json:"versionNow" yaml:"versionNow" validate:"required,float_str"`
	BuildNow          string `json:"buildNow" yaml:"buildNow" validate:"required,uint_str"`
	AdsMediation      bool   `json:"adsMediation" yaml:"adsMediation"`
	MaintenanceMode   bool   `json:"maintenanceMode" yaml:"maintenanceMode"`
	DeviceLocked      bool   `json:"deviceLocked" yaml:"deviceLocked"`
	Default           bool   `json:"default" yaml:"default"`
	AppBg             string `json:"appBg" yaml:"appBg"`
	CurveBg           string `json:"curveBg" yaml:"curveBg"`
	TimeMaxHour       string `json:"timeMaxHour" yaml:"timeMaxHour" validate:"required,posint_str"`
	TimeStepHour      string `json:"timeStepHour" yaml:"timeStepHour" validate:"required,posint_str"`
	AgentInstructions string `json:"agentInstructions" yaml:"agentInstructions"`
	AgentAPIKey       string `json:"agentApiKey" yaml:"agentApiKey"`
	AgentModel        string `json:"agentModel" yaml:"agentModel"`
}

// DefaultAppSettings is what a fresh install and reset produce.
func DefaultAppSettings() repository.AppSettings {
	return repository.AppSettings{
		VersionNow:   1,
		BuildNow:     1,
		Default:      true,
		TimeMaxHour:  24,
		TimeStepHour: 1,
		AgentModel:   "gemini-pro",
	}
}

// Normalize trims text fields except free-form agent instructions.
func (f *AppSettingsForm) Normalize() {
	trim(&f.VersionNow, &f.BuildNow, &f.AppBg, &f.CurveBg, &f.TimeMaxHour, &f.TimeStepHour, &f.AgentAPIKey, &f.AgentModel)
}

// Validate checks field rules and that the reward step fits inside the cap.
func (f AppSettingsForm) Validate() error {
	errs := validateStruct(f)
	step, okStep := parseCanonicalUint(f.TimeStepHour)
	maxHour, okMax := parseCanonicalUint(f.TimeMaxHour)
	if okStep && okMax && step > maxHour {
		errs.add("timeStepHour", "must not exceed timeMaxHour")
	}
	return errs.orNil()
}

// applyTo merges the form over stored settings, keeping the *Updated stamps.
func (f AppSettingsForm) applyTo(dst *repository.AppSettings) {
	version, _ := parseCanonicalFloat(f.VersionNow)
	dst.VersionNow = version
	dst.BuildNow = int(mustUint(f.BuildNow))
	dst.AdsMediation = f.AdsMediation
	dst.MaintenanceMode = f.MaintenanceMode
	dst.DeviceLocked = f.DeviceLocked
	dst.Default = f.Default
	dst.AppBg = f.AppBg
	dst.CurveBg = f.CurveBg
	dst.TimeMaxHour = int(mustUint(f.TimeMaxHour))
	dst.TimeStepHour = int(mustUint(f.TimeStepHour))
	dst.AgentInstructions = f.AgentInstructions
	dst.AgentAPIKey = f.AgentAPIKey
	dst.AgentModel = f.AgentModel
}

// AppSettingsToForm pre-fills the settings page.
func AppSettingsToForm(s *repository.AppSettings) AppSettingsForm {
	return AppSettingsForm{
		VersionNow:        formatFloat(s.VersionNow),
		BuildNow:          strconv.Itoa(s.BuildNow),
		AdsMediation:      s.AdsMediation,
		MaintenanceMode:   s.MaintenanceMode,
		DeviceLocked:      s.DeviceLocked,
		Default:           s.Default,
		AppBg:             s.AppBg,
		CurveBg:           s.CurveBg,
		TimeMaxHour:       strconv.Itoa(s.TimeMaxHour),
		TimeStepHour:      strconv.Itoa(s.TimeStepHour),
		AgentInstructions: s.AgentInstructions,
		AgentAPIKey:       s.AgentAPIKey,
		AgentModel:        s.AgentModel,
	}
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
