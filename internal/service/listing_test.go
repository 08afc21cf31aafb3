package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

func sampleServers() []*repository.Server {
	return []*repository.Server{
		{ID: "br", Country: "BR", City: "São Paulo", IPv4: "123.45.67.89", CloudFlareDomain: "server-br1.vpnapp.cloud", OnlineUsers: 31, Capacity: 600, Premium: true},
		{ID: "us", Country: "US", City: "New York", IPv4: "123.45.67.90", CloudFlareDomain: "server-us1.vpnapp.cloud", OnlineUsers: 124, Capacity: 800, Premium: true},
		{ID: "jp", Country: "JP", City: "Tokyo", IPv4: "123.45.67.91", CloudFlareDomain: "server-jp1.vpnapp.cloud", OnlineUsers: 87, Capacity: 400},
	}
}

func ids(servers []*repository.Server) []string {
	out := make([]string, 0, len(servers))
	for _, s := range servers {
		out = append(out, s.ID)
	}
	return out
}

func TestFilterEmptyQueryReturnsInput(t *testing.T) {
	servers := sampleServers()
	assert.Equal(t, servers, ServerListing.Filter(servers, ""))
}

func TestFilterIsCaseInsensitiveAndOrderPreserving(t *testing.T) {
	servers := sampleServers()
	assert.Equal(t, []string{"us"}, ids(ServerListing.Filter(servers, "us")))
	assert.Equal(t, []string{"br", "us", "jp"}, ids(ServerListing.Filter(servers, "VPNAPP")))
	assert.Equal(t, []string{"jp"}, ids(ServerListing.Filter(servers, "tok")))
	assert.Empty(t, ServerListing.Filter(servers, "nowhere"))

	again := ServerListing.Filter(ServerListing.Filter(servers, "us"), "us")
	assert.Equal(t, []string{"us"}, ids(again))
	assert.Equal(t, []string{"br", "us", "jp"}, ids(servers), "input must not be mutated")
}

func TestSortAscendingThenDescendingIsReverse(t *testing.T) {
	servers := sampleServers()
	asc, err := ServerListing.Sort(servers, SortState{Key: "onlineUsers", Direction: Ascending})
	require.NoError(t, err)
	desc, err := ServerListing.Sort(servers, SortState{Key: "onlineUsers", Direction: Descending})
	require.NoError(t, err)

	assert.Equal(t, []string{"br", "jp", "us"}, ids(asc))
	assert.Equal(t, []string{"us", "jp", "br"}, ids(desc))
	assert.Equal(t, []string{"br", "us", "jp"}, ids(servers))
}

func TestSortIsStableOnTies(t *testing.T) {
	servers := sampleServers()
	sorted, err := ServerListing.Sort(servers, SortState{Key: "premium", Direction: Ascending})
	require.NoError(t, err)
	assert.Equal(t, []string{"jp", "br", "us"}, ids(sorted))

	sorted, err = ServerListing.Sort(servers, SortState{Key: "premium", Direction: Descending})
	require.NoError(t, err)
	assert.Equal(t, []string{"br", "us", "jp"}, ids(sorted))
}

func TestSortUnknownColumn(t *testing.T) {
	_, err := ServerListing.Sort(sampleServers(), SortState{Key: "usage", Direction: Ascending})
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestSortInactiveStateKeepsOrder(t *testing.T) {
	servers := sampleServers()
	sorted, err := ServerListing.Sort(servers, SortState{Key: "country"})
	require.NoError(t, err)
	assert.Equal(t, ids(servers), ids(sorted))
}

func TestToggle(t *testing.T) {
	var s SortState
	s = s.Toggle("country")
	assert.Equal(t, SortState{Key: "country", Direction: Ascending}, s)
	s = s.Toggle("country")
	assert.Equal(t, SortState{Key: "country", Direction: Descending}, s)
	s = s.Toggle("country")
	assert.Equal(t, SortState{Key: "country", Direction: Ascending}, s)
	s = s.Toggle("city")
	assert.Equal(t, SortState{Key: "city", Direction: Ascending}, s)
}

func TestParseDirection(t *testing.T) {
	for raw, want := range map[string]Direction{"": Unsorted, "asc": Ascending, "Descending": Descending, "desc": Descending} {
		got, err := ParseDirection(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseDirection("sideways")
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestPremiumUserPriceSortsNumerically(t *testing.T) {
	users := []*repository.PremiumUser{
		{ID: "a", PricePaid: "10.00"},
		{ID: "b", PricePaid: "9.50"},
		{ID: "c", PricePaid: "0.12"},
	}
	sorted, err := PremiumUserListing.Sort(users, SortState{Key: "pricePaid", Direction: Ascending})
	require.NoError(t, err)
	got := []string{sorted[0].ID, sorted[1].ID, sorted[2].ID}
	assert.Equal(t, []string{"c", "b", "a"}, got)
}

func TestSortKeysMatchColumns(t *testing.T) {
	assert.Equal(t, []string{"country", "city", "ipv4", "onlineUsers", "capacity", "premium"}, ServerListing.SortKeys())
	assert.Equal(t, []string{"name", "type", "operator", "testPriority", "downloaded", "onlines", "votesPositive"}, ConfigListing.SortKeys())
	assert.Equal(t, []string{"email", "dateStart", "dateEnd", "months", "pricePaid"}, PremiumUserListing.SortKeys())
}
