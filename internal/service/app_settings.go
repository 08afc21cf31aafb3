package service

import (
	"context"
	"fmt"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

// AppSettingsService 读写移动端启动时拉取的应用设置。
type AppSettingsService interface {
	Get(ctx context.Context) (*repository.AppSettings, error)
	Form(ctx context.Context) (AppSettingsForm, error)
	Update(ctx context.Context, edit func(*AppSettingsForm) error) (Mutation[repository.AppSettings], error)
	Reset(ctx context.Context) (Mutation[repository.AppSettings], error)
	Versions(ctx context.Context, limit int) ([]*repository.AppVersion, error)
}

type appSettingsService struct {
	core
}

// NewAppSettingsService 组装应用设置服务。
func NewAppSettingsService(deps Deps) AppSettingsService {
	return &appSettingsService{core: newCore(deps, "app_settings_service")}
}

func (s *appSettingsService) Get(ctx context.Context) (*repository.AppSettings, error) {
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load app settings: %w", err)
	}
	return settings, nil
}

func (s *appSettingsService) Form(ctx context.Context) (AppSettingsForm, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return AppSettingsForm{}, err
	}
	return AppSettingsToForm(settings), nil
}

// Update 合并表单；版本号或构建号变化时追加一条版本历史。
func (s *appSettingsService) Update(ctx context.Context, edit func(*AppSettingsForm) error) (Mutation[repository.AppSettings], error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return Mutation[repository.AppSettings]{}, err
	}
	form := AppSettingsToForm(settings)
	if edit != nil {
		if err := edit(&form); err != nil {
			return Mutation[repository.AppSettings]{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	form.Normalize()
	if err := form.Validate(); err != nil {
		return Mutation[repository.AppSettings]{}, err
	}
	prevVersion, prevBuild := settings.VersionNow, settings.BuildNow
	form.applyTo(settings)
	if err := s.save(ctx, settings, prevVersion != settings.VersionNow || prevBuild != settings.BuildNow); err != nil {
		return Mutation[repository.AppSettings]{}, err
	}
	s.record(ctx, "app_settings.update", "app_settings", map[string]any{
		"versionNow": settings.VersionNow,
		"buildNow":   settings.BuildNow,
	})
	return Mutation[repository.AppSettings]{Entity: settings, Notice: notice("app_settings.updated")}, nil
}

// Reset 恢复默认值，但保留 serversUpdated/configsUpdated 日期戳。
func (s *appSettingsService) Reset(ctx context.Context) (Mutation[repository.AppSettings], error) {
	current, err := s.Get(ctx)
	if err != nil {
		return Mutation[repository.AppSettings]{}, err
	}
	settings := DefaultAppSettings()
	settings.ServersUpdated = current.ServersUpdated
	settings.ConfigsUpdated = current.ConfigsUpdated
	changed := current.VersionNow != settings.VersionNow || current.BuildNow != settings.BuildNow
	if err := s.save(ctx, &settings, changed); err != nil {
		return Mutation[repository.AppSettings]{}, err
	}
	s.record(ctx, "app_settings.reset", "app_settings", nil)
	return Mutation[repository.AppSettings]{Entity: &settings, Notice: notice("app_settings.reset")}, nil
}

func (s *appSettingsService) Versions(ctx context.Context, limit int) ([]*repository.AppVersion, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidFilter)
	}
	versions, err := s.store.AppSettings().ListVersions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list app versions: %w", err)
	}
	return versions, nil
}

func (s *appSettingsService) save(ctx context.Context, settings *repository.AppSettings, versionChanged bool) error {
	now := s.now().UTC().Unix()
	settings.UpdatedAt = now
	if err := s.store.AppSettings().Save(ctx, settings); err != nil {
		return fmt.Errorf("save app settings: %w", err)
	}
	if !versionChanged {
		return nil
	}
	v := &repository.AppVersion{VersionNow: settings.VersionNow, BuildNow: settings.BuildNow, CreatedAt: now}
	if err := s.store.AppSettings().AppendVersion(ctx, v); err != nil {
		return fmt.Errorf("append app version: %w", err)
	}
	return nil
}
