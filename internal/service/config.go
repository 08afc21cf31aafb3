package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

// ConfigService 管理客户端连接配置。
type ConfigService interface {
	List(ctx context.Context, filter repository.ConfigFilter, q ListQuery) ([]*repository.Config, error)
	Get(ctx context.Context, id string) (*repository.Config, error)
	Form(ctx context.Context, id string) (ConfigForm, error)
	Create(ctx context.Context, form ConfigForm) (Mutation[repository.Config], error)
	Update(ctx context.Context, id string, edit func(*ConfigForm) error) (Mutation[repository.Config], error)
	Delete(ctx context.Context, id string) (Mutation[repository.Config], error)
	Download(ctx context.Context, id string) (Mutation[repository.Config], error)
	Vote(ctx context.Context, id string, positive bool) (Mutation[repository.Config], error)
	Stats(ctx context.Context) (ConfigStats, error)
}

// ConfigStats is the dashboard summary for configs.
type ConfigStats struct {
	TotalConfigs   int   `json:"totalConfigs"`
	TotalDownloads int64 `json:"totalDownloads"`
	PositiveVotes  int64 `json:"positiveVotes"`
	NegativeVotes  int64 `json:"negativeVotes"`
	PremiumConfigs int   `json:"premiumConfigs"`
}

type configService struct {
	core
}

// NewConfigService 组装配置服务。
func NewConfigService(deps Deps) ConfigService {
	return &configService{core: newCore(deps, "config_service")}
}

func (s *configService) List(ctx context.Context, filter repository.ConfigFilter, q ListQuery) ([]*repository.Config, error) {
	configs, err := s.store.Configs().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	return ConfigListing.Apply(configs, q)
}

func (s *configService) Get(ctx context.Context, id string) (*repository.Config, error) {
	cfg, err := s.store.Configs().FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return cfg, nil
}

func (s *configService) Form(ctx context.Context, id string) (ConfigForm, error) {
	if id == "" {
		return DefaultConfigForm(), nil
	}
	cfg, err := s.Get(ctx, id)
	if err != nil {
		return ConfigForm{}, err
	}
	return ConfigToForm(cfg), nil
}

func (s *configService) Create(ctx context.Context, form ConfigForm) (Mutation[repository.Config], error) {
	form.Normalize()
	if err := form.Validate(); err != nil {
		return Mutation[repository.Config]{}, err
	}
	now := s.now().UTC().Unix()
	cfg := form.ToConfig()
	cfg.ID = uuid.NewString()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	if err := s.store.Configs().Create(ctx, &cfg); err != nil {
		return Mutation[repository.Config]{}, fmt.Errorf("create config: %w", err)
	}
	s.afterMutation(ctx, "config.create", cfg.ID)
	return Mutation[repository.Config]{Entity: &cfg, Notice: notice("config.created", cfg.Name)}, nil
}

// Update 把表单合并到已有配置上，计数器保持不变。
func (s *configService) Update(ctx context.Context, id string, edit func(*ConfigForm) error) (Mutation[repository.Config], error) {
	cfg, err := s.store.Configs().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.WarnContext(ctx, "update of unknown config ignored", "id", id)
		return Mutation[repository.Config]{}, ErrNotFound
	}
	if err != nil {
		return Mutation[repository.Config]{}, fmt.Errorf("find config: %w", err)
	}
	form := ConfigToForm(cfg)
	if edit != nil {
		if err := edit(&form); err != nil {
			return Mutation[repository.Config]{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	form.Normalize()
	if err := form.Validate(); err != nil {
		return Mutation[repository.Config]{}, err
	}
	form.applyTo(cfg)
	cfg.UpdatedAt = s.now().UTC().Unix()
	if err := s.store.Configs().Update(ctx, cfg); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.WarnContext(ctx, "config vanished during update", "id", id)
			return Mutation[repository.Config]{}, ErrNotFound
		}
		return Mutation[repository.Config]{}, fmt.Errorf("update config: %w", err)
	}
	s.afterMutation(ctx, "config.update", cfg.ID)
	return Mutation[repository.Config]{Entity: cfg, Notice: notice("config.updated", cfg.Name)}, nil
}

func (s *configService) Delete(ctx context.Context, id string) (Mutation[repository.Config], error) {
	cfg, err := s.store.Configs().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.WarnContext(ctx, "delete of unknown config ignored", "id", id)
		return Mutation[repository.Config]{Notice: notice("config.not_deleted", id)}, nil
	}
	if err != nil {
		return Mutation[repository.Config]{}, fmt.Errorf("find config: %w", err)
	}
	deleted, err := s.store.Configs().Delete(ctx, id)
	if err != nil {
		return Mutation[repository.Config]{}, fmt.Errorf("delete config: %w", err)
	}
	if !deleted {
		return Mutation[repository.Config]{Notice: notice("config.not_deleted", cfg.Name)}, nil
	}
	s.afterMutation(ctx, "config.delete", id)
	return Mutation[repository.Config]{Entity: cfg, Deleted: true, Notice: notice("config.deleted", cfg.Name)}, nil
}

// Download 由移动端在拉取配置时调用，只递增下载计数。
func (s *configService) Download(ctx context.Context, id string) (Mutation[repository.Config], error) {
	if err := s.store.Configs().IncrementDownloads(ctx, id); err != nil {
		return Mutation[repository.Config]{}, mapRepoErr(err)
	}
	s.stats.invalidate(ctx, statsKeyConfigs)
	cfg, err := s.Get(ctx, id)
	if err != nil {
		return Mutation[repository.Config]{}, err
	}
	return Mutation[repository.Config]{Entity: cfg, Notice: notice("config.downloaded", cfg.Name)}, nil
}

func (s *configService) Vote(ctx context.Context, id string, positive bool) (Mutation[repository.Config], error) {
	if err := s.store.Configs().Vote(ctx, id, positive); err != nil {
		return Mutation[repository.Config]{}, mapRepoErr(err)
	}
	s.stats.invalidate(ctx, statsKeyConfigs)
	cfg, err := s.Get(ctx, id)
	if err != nil {
		return Mutation[repository.Config]{}, err
	}
	return Mutation[repository.Config]{Entity: cfg, Notice: notice("config.voted", cfg.Name)}, nil
}

func (s *configService) Stats(ctx context.Context) (ConfigStats, error) {
	return cachedStats(ctx, s.stats, statsKeyConfigs, func(ctx context.Context) (ConfigStats, error) {
		configs, err := s.store.Configs().List(ctx, repository.ConfigFilter{})
		if err != nil {
			return ConfigStats{}, fmt.Errorf("list configs: %w", err)
		}
		var st ConfigStats
		for _, c := range configs {
			st.TotalConfigs++
			st.TotalDownloads += c.Downloaded
			st.PositiveVotes += c.VotesPositive
			st.NegativeVotes += c.VotesNegative
			if c.ForPremium {
				st.PremiumConfigs++
			}
		}
		return st, nil
	})
}

func (s *configService) afterMutation(ctx context.Context, kind, id string) {
	s.stats.invalidate(ctx, statsKeyConfigs)
	s.stampRefresh(ctx, stampConfigs)
	s.record(ctx, kind, id, nil)
}
