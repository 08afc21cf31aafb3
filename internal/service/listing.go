// 文件路径: internal/service/listing.go
// 模块说明: 这是 internal 模块里的 listing 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

// Direction 表示列表的排序方向。
type Direction string

const (
	Unsorted   Direction = ""
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// ParseDirection accepts the long names plus asc/desc shorthands.
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return Unsorted, nil
	case "ascending", "asc":
		return Ascending, nil
	case "descending", "desc":
		return Descending, nil
	}
	return Unsorted, fmt.Errorf("%w: direction %q", ErrInvalidSort, raw)
}

// SortState 是表格当前的排序列与方向。零值表示未排序。
type SortState struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Toggle 模拟点击表头：当前升序的列翻成降序，其余情况（新列或降序列）回到升序。
func (s SortState) Toggle(key string) SortState {
	if s.Key == key && s.Direction == Ascending {
		return SortState{Key: key, Direction: Descending}
	}
	return SortState{Key: key, Direction: Ascending}
}

// Active reports whether the state orders anything.
func (s SortState) Active() bool {
	return s.Key != "" && s.Direction != Unsorted
}

// ListQuery 汇总一次列表请求里的纯视图参数。
type ListQuery struct {
	Query string
	Sort  SortState
}

// Listing 描述一种实体的可搜索字段与可排序列。
type Listing[T any] struct {
	searchable func(*T) []string
	columns    map[string]func(*T) any
	order      []string
}

// SortKeys lists the sortable columns in display order.
func (l Listing[T]) SortKeys() []string {
	return slices.Clone(l.order)
}

// Filter 返回保持原顺序的子序列：任一可搜索字段包含 query（不区分大小写）即命中。
// 空 query 原样返回；从不修改输入切片。
func (l Listing[T]) Filter(items []*T, query string) []*T {
	needle := strings.ToLower(query)
	if needle == "" {
		return items
	}
	out := make([]*T, 0, len(items))
	for _, item := range items {
		for _, field := range l.searchable(item) {
			if strings.Contains(strings.ToLower(field), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Sort returns a stably sorted copy. An inactive state returns the input unchanged.
func (l Listing[T]) Sort(items []*T, state SortState) ([]*T, error) {
	if !state.Active() {
		return items, nil
	}
	value, ok := l.columns[state.Key]
	if !ok {
		return nil, fmt.Errorf("%w: column %q", ErrInvalidSort, state.Key)
	}
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b *T) int {
		c := compareNatural(value(a), value(b))
		if state.Direction == Descending {
			return -c
		}
		return c
	})
	return out, nil
}

// Apply runs Filter then Sort.
func (l Listing[T]) Apply(items []*T, q ListQuery) ([]*T, error) {
	return l.Sort(l.Filter(items, q.Query), q.Sort)
}

// compareNatural: 数字按数值、字符串按字典序、布尔 false < true。
func compareNatural(a, b any) int {
	switch av := a.(type) {
	case int64:
		return cmpOrdered(av, b.(int64))
	case int:
		return cmpOrdered(av, b.(int))
	case float64:
		return cmpOrdered(av, b.(float64))
	case string:
		return strings.Compare(av, b.(string))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	}
	return 0
}

func cmpOrdered[V int | int64 | float64](a, b V) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func newListing[T any](searchable func(*T) []string, cols ...column[T]) Listing[T] {
	l := Listing[T]{searchable: searchable, columns: make(map[string]func(*T) any, len(cols))}
	for _, c := range cols {
		l.columns[c.key] = c.value
		l.order = append(l.order, c.key)
	}
	return l
}

type column[T any] struct {
	key   string
	value func(*T) any
}

// ServerListing 节点表：搜索 country/city/ipv4/cloudFlareDomain。
var ServerListing = newListing(
	func(s *repository.Server) []string {
		return []string{s.Country, s.City, s.IPv4, s.CloudFlareDomain}
	},
	column[repository.Server]{"country", func(s *repository.Server) any { return s.Country }},
	column[repository.Server]{"city", func(s *repository.Server) any { return s.City }},
	column[repository.Server]{"ipv4", func(s *repository.Server) any { return s.IPv4 }},
	column[repository.Server]{"onlineUsers", func(s *repository.Server) any { return s.OnlineUsers }},
	column[repository.Server]{"capacity", func(s *repository.Server) any { return s.Capacity }},
	column[repository.Server]{"premium", func(s *repository.Server) any { return s.Premium }},
)

// ConfigListing 配置表：搜索 name/host/type。
var ConfigListing = newListing(
	func(c *repository.Config) []string {
		return []string{c.Name, c.Host, c.Type}
	},
	column[repository.Config]{"name", func(c *repository.Config) any { return c.Name }},
	column[repository.Config]{"type", func(c *repository.Config) any { return c.Type }},
	column[repository.Config]{"operator", func(c *repository.Config) any { return c.Operator }},
	column[repository.Config]{"testPriority", func(c *repository.Config) any { return c.TestPriority }},
	column[repository.Config]{"downloaded", func(c *repository.Config) any { return c.Downloaded }},
	column[repository.Config]{"onlines", func(c *repository.Config) any { return c.Onlines }},
	column[repository.Config]{"votesPositive", func(c *repository.Config) any { return c.VotesPositive }},
)

// PremiumUserListing 付费用户表：搜索 email/transactionId。
// pricePaid 是十进制字符串，按数值排序。
var PremiumUserListing = newListing(
	func(u *repository.PremiumUser) []string {
		return []string{u.Email, u.TransactionID}
	},
	column[repository.PremiumUser]{"email", func(u *repository.PremiumUser) any { return u.Email }},
	column[repository.PremiumUser]{"dateStart", func(u *repository.PremiumUser) any { return u.DateStart }},
	column[repository.PremiumUser]{"dateEnd", func(u *repository.PremiumUser) any { return u.DateEnd }},
	column[repository.PremiumUser]{"months", func(u *repository.PremiumUser) any { return u.Months }},
	column[repository.PremiumUser]{"pricePaid", func(u *repository.PremiumUser) any { return parsePrice(u.PricePaid) }},
)
