package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

func validServerForm() ServerForm {
	f := DefaultServerForm()
	f.CloudFlareDomain = "server-us1.vpnapp.cloud"
	f.DnsttDomain = "dns-us.vpnapp.cloud"
	f.Country = "US"
	f.City = "New York"
	f.State = "NY"
	f.IPv4 = "123.45.67.90"
	f.IPv6 = "2001:db8::1"
	f.PortUDP = "4444"
	f.TLS, f.HTTP, f.QUIC = true, true, true
	f.CDN = true
	f.CDNName = "cloudflare"
	f.CDNs.Set("cloudflare", []string{"cf-us.vpnapp.cloud"})
	f.Capacity = "800"
	return f
}

func validConfigForm() ConfigForm {
	f := DefaultConfigForm()
	f.Name = "GAMING BOOST"
	f.Host = "185.72.49.13;185.72.49.14"
	f.Multiproxy = true
	f.DNSHost = "8.8.8.8"
	f.SNI = "custom"
	f.Payload = "GET / HTTP/1.1[crlf][crlf]"
	f.Type = "http"
	f.Notes = true
	f.NoteMsg = "Optimized for gaming."
	f.TestPriority = "2"
	f.Operator = "GAMING PRO"
	return f
}

func validPremiumUserForm() PremiumUserForm {
	return PremiumUserForm{
		Email:         "user1@example.com",
		TransactionID: "9f02c8f6538e4032a3798213331c110c",
		DeviceID:      "E00416968202308250045NOvc52xxLFN",
		Date:          "2023-08-25T00:45:35Z",
		DateEnd:       "2024-02-25T00:45:38Z",
		Months:        "6",
		PricePaid:     "0.06",
		Used:          true,
	}
}

func TestServerFormRoundTrip(t *testing.T) {
	f := validServerForm()
	require.NoError(t, f.Validate())
	s := f.ToServer()
	assert.Equal(t, f, ServerToForm(&s))
	assert.Equal(t, 4444, s.PortUDP)
	assert.Equal(t, int64(800), s.Capacity)
	assert.Zero(t, s.OnlineUsers)
}

func TestConfigFormRoundTrip(t *testing.T) {
	f := validConfigForm()
	f.Normalize()
	require.NoError(t, f.Validate())
	c := f.ToConfig()
	assert.Equal(t, f, ConfigToForm(&c))
	assert.Zero(t, c.Downloaded)
	assert.Zero(t, c.VotesPositive)
}

func TestPremiumUserFormRoundTrip(t *testing.T) {
	f := validPremiumUserForm()
	require.NoError(t, f.Validate())
	u := f.ToPremiumUser()
	assert.Equal(t, f, PremiumUserToForm(&u))
	assert.Equal(t, int64(1692924335), u.DateStart)
	assert.Equal(t, f.Date, u.Date)
}

func TestAppSettingsFormRoundTrip(t *testing.T) {
	f := AppSettingsToForm(&repository.AppSettings{VersionNow: 4.2, BuildNow: 103, TimeMaxHour: 36, TimeStepHour: 1, AgentModel: "gemini-pro"})
	require.NoError(t, f.Validate())
	var s repository.AppSettings
	f.applyTo(&s)
	assert.Equal(t, f, AppSettingsToForm(&s))
	assert.InDelta(t, 4.2, s.VersionNow, 1e-9)
}

func TestDefaultFormsAreValidOnceRequiredFieldsAreFilled(t *testing.T) {
	sf := DefaultServerForm()
	err := sf.Validate()
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "required", ve.Fields["cloudFlareDomain"])
	assert.Equal(t, "required", ve.Fields["country"])
	assert.NotContains(t, ve.Fields, "portHTTP")

	pf := DefaultPremiumUserForm(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-01-01T00:00:00Z", pf.Date)
	assert.Equal(t, "2024-01-31T00:00:00Z", pf.DateEnd)
}

func TestServerFormValidation(t *testing.T) {
	cases := map[string]struct {
		mutate func(*ServerForm)
		field  string
	}{
		"zero capacity":       {func(f *ServerForm) { f.Capacity = "0" }, "capacity"},
		"padded port":         {func(f *ServerForm) { f.PortTLS = "0443" }, "portTLS"},
		"port out of range":   {func(f *ServerForm) { f.PortHTTP = "70000" }, "portHTTP"},
		"bad ipv4":            {func(f *ServerForm) { f.IPv4 = "300.1.1.1" }, "ipv4"},
		"bad ipv6":            {func(f *ServerForm) { f.IPv6 = "nope" }, "ipv6"},
		"unknown cdn name":    {func(f *ServerForm) { f.CDNName = "akamai" }, "cdnName"},
		"provider not a slug": {func(f *ServerForm) { f.CDNs.Set("Big CDN", nil) }, "cdns"},
		"bad cdn domain":      {func(f *ServerForm) { f.CDNs.Set("cloudfront", []string{"not a host"}) }, "cdns"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := validServerForm()
			tc.mutate(&f)
			ve, ok := AsValidationError(f.Validate())
			require.True(t, ok)
			assert.Contains(t, ve.Fields, tc.field)
		})
	}
}

func TestServerFormAcceptsExtensionProvider(t *testing.T) {
	f := validServerForm()
	f.CDNs.Set("akamai", []string{"edge.akamai.net"})
	f.CDNName = "akamai"
	assert.NoError(t, f.Validate())
}

func TestServerFormGateKeepsDependentValues(t *testing.T) {
	f := validServerForm()
	f.CDN = false
	require.NoError(t, f.Validate())
	s := f.ToServer()
	assert.Equal(t, "cloudflare", s.CDNName)
	domains, ok := s.CDNs.Get("cloudflare")
	require.True(t, ok)
	assert.Equal(t, []string{"cf-us.vpnapp.cloud"}, domains)
}

func TestConfigFormValidation(t *testing.T) {
	f := validConfigForm()
	f.Host = "a.example.com;;b.example.com"
	ve, ok := AsValidationError(f.Validate())
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "host")

	f = validConfigForm()
	f.Multiproxy = false
	ve, ok = AsValidationError(f.Validate())
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "host")

	f = validConfigForm()
	f.Type = "wireguard"
	f.TestPriority = "-1"
	f.SNI = "not a host"
	f.CDNName = "akamai"
	ve, ok = AsValidationError(f.Validate())
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "type")
	assert.Contains(t, ve.Fields, "testPriority")
	assert.Contains(t, ve.Fields, "sni")
	assert.Contains(t, ve.Fields, "cdnName")
}

func TestConfigFormSanitisesNote(t *testing.T) {
	f := validConfigForm()
	f.NoteMsg = ` <b>fast</b><script>alert(1)</script> `
	f.Normalize()
	assert.Equal(t, "<b>fast</b>", f.NoteMsg)
}

func TestPremiumUserFormValidation(t *testing.T) {
	f := validPremiumUserForm()
	f.DateEnd = "2023-01-01T00:00:00Z"
	f.Email = "not-an-email"
	f.Months = "0"
	f.PricePaid = "1,50"
	ve, ok := AsValidationError(f.Validate())
	require.True(t, ok)
	assert.Equal(t, "must not be before date", ve.Fields["dateEnd"])
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "months")
	assert.Contains(t, ve.Fields, "pricePaid")

	f = validPremiumUserForm()
	f.Date = "2023-08-25"
	ve, ok = AsValidationError(f.Validate())
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "date")
}

func TestAppSettingsFormValidation(t *testing.T) {
	f := AppSettingsToForm(&repository.AppSettings{VersionNow: 1, BuildNow: 1, TimeMaxHour: 2, TimeStepHour: 3})
	ve, ok := AsValidationError(f.Validate())
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "timeStepHour")

	f.TimeStepHour = "1"
	f.VersionNow = "1.0"
	ve, ok = AsValidationError(f.Validate())
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "versionNow")
}

func TestNormalizeTrims(t *testing.T) {
	f := validServerForm()
	f.Country = "  US "
	f.Capacity = " 800"
	f.Normalize()
	assert.Equal(t, "US", f.Country)
	assert.NoError(t, f.Validate())
}

func TestApplyToPreservesServerOwnedFields(t *testing.T) {
	stored := &repository.Server{ID: "s1", Flag: "usflag.png", OnlineUsers: 124, LastPing: 99, Usage: 2, CDNNumber: 1, UsersAdsed: 3, UniSkip: true}
	f := validServerForm()
	f.applyTo(stored)
	assert.Equal(t, "s1", stored.ID)
	assert.Equal(t, "usflag.png", stored.Flag)
	assert.Equal(t, int64(124), stored.OnlineUsers)
	assert.Equal(t, int64(99), stored.LastPing)
	assert.Equal(t, 1, stored.CDNNumber)
	assert.True(t, stored.UniSkip)
	assert.Equal(t, "server-us1.vpnapp.cloud", stored.CloudFlareDomain)
}

func TestBand(t *testing.T) {
	cases := []struct {
		online, capacity int64
		band             UtilizationBand
	}{
		{0, 0, BandGreen},
		{50, 100, BandGreen},
		{51, 100, BandYellow},
		{80, 100, BandYellow},
		{81, 100, BandRed},
		{150, 100, BandRed},
	}
	for _, tc := range cases {
		_, band := Band(tc.online, tc.capacity)
		assert.Equal(t, tc.band, band, "%d/%d", tc.online, tc.capacity)
	}
}

func TestExtendValidity(t *testing.T) {
	hour := time.Hour.Milliseconds()
	now := int64(1_000_000_000)
	assert.Equal(t, now+hour, ExtendValidity(0, now, 1, 24))
	assert.Equal(t, now+3*hour, ExtendValidity(now+2*hour, now, 1, 24))
	assert.Equal(t, now+24*hour, ExtendValidity(now+24*hour, now, 1, 24))
}
