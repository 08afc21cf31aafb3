// 文件路径: internal/service/server.go
// 模块说明: 这是 internal 模块里的 server 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

// ServerService 管理 VPN 节点：列表、对话框表单、增删改和统计。
type ServerService interface {
	List(ctx context.Context, filter repository.ServerFilter, q ListQuery) ([]*repository.Server, error)
	Get(ctx context.Context, id string) (*repository.Server, error)
	Form(ctx context.Context, id string) (ServerForm, error)
	Create(ctx context.Context, form ServerForm) (Mutation[repository.Server], error)
	Update(ctx context.Context, id string, edit func(*ServerForm) error) (Mutation[repository.Server], error)
	Delete(ctx context.Context, id string) (Mutation[repository.Server], error)
	Ping(ctx context.Context, id string) (Mutation[repository.Server], error)
	Stats(ctx context.Context) (ServerStats, error)
	Loads(ctx context.Context) ([]ServerLoad, error)
}

// ServerStats 是仪表盘上的节点汇总。
type ServerStats struct {
	TotalServers     int   `json:"totalServers"`
	ActiveServers    int   `json:"activeServers"`
	PremiumServers   int   `json:"premiumServers"`
	TotalCapacity    int64 `json:"totalCapacity"`
	TotalOnlineUsers int64 `json:"totalOnlineUsers"`
}

// UtilizationBand is the colour of the capacity bar.
type UtilizationBand string

const (
	BandGreen  UtilizationBand = "green"
	BandYellow UtilizationBand = "yellow"
	BandRed    UtilizationBand = "red"
)

// Band 根据在线人数占容量的比例给出颜色：>0.8 红，>0.5 黄，其余绿。容量为 0 视为绿。
func Band(online, capacity int64) (float64, UtilizationBand) {
	if capacity <= 0 {
		return 0, BandGreen
	}
	ratio := float64(online) / float64(capacity)
	switch {
	case ratio > 0.8:
		return ratio, BandRed
	case ratio > 0.5:
		return ratio, BandYellow
	}
	return ratio, BandGreen
}

// ServerLoad 是节点列表的派生展示字段。
type ServerLoad struct {
	ID               string          `json:"id"`
	Country          string          `json:"country"`
	City             string          `json:"city"`
	CloudFlareDomain string          `json:"cloudFlareDomain"`
	OnlineUsers      int64           `json:"onlineUsers"`
	Capacity         int64           `json:"capacity"`
	Utilization      float64         `json:"utilization"`
	Band             UtilizationBand `json:"band"`
	Protocols        []string        `json:"protocols"`
	CDNDomains       int             `json:"cdnDomains"`
	Premium          bool            `json:"premium"`
	LastPing         int64           `json:"lastPing"`
}

// LoadOf derives the display fields for one server.
func LoadOf(s *repository.Server) ServerLoad {
	ratio, band := Band(s.OnlineUsers, s.Capacity)
	return ServerLoad{
		ID:               s.ID,
		Country:          s.Country,
		City:             s.City,
		CloudFlareDomain: s.CloudFlareDomain,
		OnlineUsers:      s.OnlineUsers,
		Capacity:         s.Capacity,
		Utilization:      ratio,
		Band:             band,
		Protocols:        s.Protocols(),
		CDNDomains:       s.CDNs.DomainCount(),
		Premium:          s.Premium,
		LastPing:         s.LastPing,
	}
}

type serverService struct {
	core
}

// NewServerService 组装节点服务。
func NewServerService(deps Deps) ServerService {
	return &serverService{core: newCore(deps, "server_service")}
}

func (s *serverService) List(ctx context.Context, filter repository.ServerFilter, q ListQuery) ([]*repository.Server, error) {
	for _, p := range filter.Protocols {
		switch p {
		case "http", "tls", "quic", "dnstt":
		default:
			return nil, fmt.Errorf("%w: protocol %q", ErrInvalidFilter, p)
		}
	}
	servers, err := s.store.Servers().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	return ServerListing.Apply(servers, q)
}

func (s *serverService) Get(ctx context.Context, id string) (*repository.Server, error) {
	server, err := s.store.Servers().FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return server, nil
}

// Form 返回对话框的初始内容：id 为空时是默认值，否则从已有节点回填。
func (s *serverService) Form(ctx context.Context, id string) (ServerForm, error) {
	if id == "" {
		return DefaultServerForm(), nil
	}
	server, err := s.Get(ctx, id)
	if err != nil {
		return ServerForm{}, err
	}
	return ServerToForm(server), nil
}

func (s *serverService) Create(ctx context.Context, form ServerForm) (Mutation[repository.Server], error) {
	form.Normalize()
	if err := form.Validate(); err != nil {
		return Mutation[repository.Server]{}, err
	}
	now := s.now().UTC()
	server := form.ToServer()
	server.ID = uuid.NewString()
	server.Flag = strings.ToLower(server.Country) + "flag.png"
	server.LastPing = now.Unix()
	server.CreatedAt = now.Unix()
	server.UpdatedAt = now.Unix()
	if err := s.store.Servers().Create(ctx, &server); err != nil {
		return Mutation[repository.Server]{}, fmt.Errorf("create server: %w", err)
	}
	s.afterMutation(ctx, "server.create", server.ID)
	return Mutation[repository.Server]{Entity: &server, Notice: notice("server.created", server.CloudFlareDomain)}, nil
}

func (s *serverService) Update(ctx context.Context, id string, edit func(*ServerForm) error) (Mutation[repository.Server], error) {
	server, err := s.store.Servers().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.WarnContext(ctx, "update of unknown server ignored", "id", id)
		return Mutation[repository.Server]{}, ErrNotFound
	}
	if err != nil {
		return Mutation[repository.Server]{}, fmt.Errorf("find server: %w", err)
	}
	form := ServerToForm(server)
	if edit != nil {
		if err := edit(&form); err != nil {
			return Mutation[repository.Server]{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	form.Normalize()
	if err := form.Validate(); err != nil {
		return Mutation[repository.Server]{}, err
	}
	form.applyTo(server)
	server.UpdatedAt = s.now().UTC().Unix()
	if err := s.store.Servers().Update(ctx, server); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.WarnContext(ctx, "server vanished during update", "id", id)
			return Mutation[repository.Server]{}, ErrNotFound
		}
		return Mutation[repository.Server]{}, fmt.Errorf("update server: %w", err)
	}
	s.afterMutation(ctx, "server.update", server.ID)
	return Mutation[repository.Server]{Entity: server, Notice: notice("server.updated", server.CloudFlareDomain)}, nil
}

func (s *serverService) Delete(ctx context.Context, id string) (Mutation[repository.Server], error) {
	server, err := s.store.Servers().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.WarnContext(ctx, "delete of unknown server ignored", "id", id)
		return Mutation[repository.Server]{Notice: notice("server.not_deleted", id)}, nil
	}
	if err != nil {
		return Mutation[repository.Server]{}, fmt.Errorf("find server: %w", err)
	}
	deleted, err := s.store.Servers().Delete(ctx, id)
	if err != nil {
		return Mutation[repository.Server]{}, fmt.Errorf("delete server: %w", err)
	}
	if !deleted {
		return Mutation[repository.Server]{Notice: notice("server.not_deleted", server.CloudFlareDomain)}, nil
	}
	s.afterMutation(ctx, "server.delete", id)
	return Mutation[repository.Server]{Entity: server, Deleted: true, Notice: notice("server.deleted", server.CloudFlareDomain)}, nil
}

// Ping 刷新 lastPing，不算作列表变更。
func (s *serverService) Ping(ctx context.Context, id string) (Mutation[repository.Server], error) {
	at := s.now().UTC().Unix()
	if err := s.store.Servers().TouchPing(ctx, id, at); err != nil {
		return Mutation[repository.Server]{}, mapRepoErr(err)
	}
	server, err := s.Get(ctx, id)
	if err != nil {
		return Mutation[repository.Server]{}, err
	}
	return Mutation[repository.Server]{Entity: server, Notice: notice("server.pinged", server.CloudFlareDomain)}, nil
}

func (s *serverService) Stats(ctx context.Context) (ServerStats, error) {
	return cachedStats(ctx, s.stats, statsKeyServers, func(ctx context.Context) (ServerStats, error) {
		servers, err := s.store.Servers().List(ctx, repository.ServerFilter{})
		if err != nil {
			return ServerStats{}, fmt.Errorf("list servers: %w", err)
		}
		var st ServerStats
		for _, srv := range servers {
			st.TotalServers++
			if !srv.Invisible {
				st.ActiveServers++
			}
			if srv.Premium {
				st.PremiumServers++
			}
			st.TotalCapacity += srv.Capacity
			st.TotalOnlineUsers += srv.OnlineUsers
		}
		return st, nil
	})
}

func (s *serverService) Loads(ctx context.Context) ([]ServerLoad, error) {
	servers, err := s.store.Servers().List(ctx, repository.ServerFilter{})
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	loads := make([]ServerLoad, 0, len(servers))
	for _, srv := range servers {
		loads = append(loads, LoadOf(srv))
	}
	return loads, nil
}

func (s *serverService) afterMutation(ctx context.Context, kind, id string) {
	s.stats.invalidate(ctx, statsKeyServers)
	s.stampRefresh(ctx, stampServers)
	s.record(ctx, kind, id, nil)
}
