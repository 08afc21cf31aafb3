// 文件路径: internal/repository/sqlstore/app_settings.go
// 模块说明: 这是 internal 模块里的 app_settings 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlstore

import (
	"context"
	"fmt"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

type appSettingsRepo struct {
	c conn
}

// Get returns the singleton row, or ErrNotFound before the first Save.
func (r *appSettingsRepo) Get(ctx context.Context) (*repository.AppSettings, error) {
	const query = `SELECT ads_mediation, maintenance_mode, device_locked, version_now, build_now, app_bg, curve_bg,
		is_default, time_max_hour, time_step_hour, servers_updated, configs_updated,
		agent_instructions, agent_api_key, agent_model, updated_at
		FROM app_settings WHERE id = 1`
	var s repository.AppSettings
	err := r.c.queryRow(ctx, query).Scan(
		&s.AdsMediation, &s.MaintenanceMode, &s.DeviceLocked, &s.VersionNow, &s.BuildNow, &s.AppBg, &s.CurveBg,
		&s.Default, &s.TimeMaxHour, &s.TimeStepHour, &s.ServersUpdated, &s.ConfigsUpdated,
		&s.AgentInstructions, &s.AgentAPIKey, &s.AgentModel, &s.UpdatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return &s, nil
}

func (r *appSettingsRepo) Save(ctx context.Context, s *repository.AppSettings) error {
	const stmt = `INSERT INTO app_settings (id, ads_mediation, maintenance_mode, device_locked, version_now, build_now,
		app_bg, curve_bg, is_default, time_max_hour, time_step_hour, servers_updated, configs_updated,
		agent_instructions, agent_api_key, agent_model, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET ads_mediation = excluded.ads_mediation,
			maintenance_mode = excluded.maintenance_mode, device_locked = excluded.device_locked,
			version_now = excluded.version_now, build_now = excluded.build_now, app_bg = excluded.app_bg,
			curve_bg = excluded.curve_bg, is_default = excluded.is_default, time_max_hour = excluded.time_max_hour,
			time_step_hour = excluded.time_step_hour, servers_updated = excluded.servers_updated,
			configs_updated = excluded.configs_updated, agent_instructions = excluded.agent_instructions,
			agent_api_key = excluded.agent_api_key, agent_model = excluded.agent_model, updated_at = excluded.updated_at`
	_, err := r.c.exec(ctx, stmt,
		s.AdsMediation, s.MaintenanceMode, s.DeviceLocked, s.VersionNow, s.BuildNow,
		s.AppBg, s.CurveBg, s.Default, s.TimeMaxHour, s.TimeStepHour, s.ServersUpdated, s.ConfigsUpdated,
		s.AgentInstructions, s.AgentAPIKey, s.AgentModel, s.UpdatedAt,
	)
	return err
}

func (r *appSettingsRepo) Seed(ctx context.Context, s *repository.AppSettings) (bool, error) {
	const stmt = `INSERT INTO app_settings (id, ads_mediation, maintenance_mode, device_locked, version_now, build_now,
		app_bg, curve_bg, is_default, time_max_hour, time_step_hour, servers_updated, configs_updated,
		agent_instructions, agent_api_key, agent_model, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`
	res, err := r.c.exec(ctx, stmt,
		s.AdsMediation, s.MaintenanceMode, s.DeviceLocked, s.VersionNow, s.BuildNow,
		s.AppBg, s.CurveBg, s.Default, s.TimeMaxHour, s.TimeStepHour, s.ServersUpdated, s.ConfigsUpdated,
		s.AgentInstructions, s.AgentAPIKey, s.AgentModel, s.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

var stampColumns = map[string]bool{"servers_updated": true, "configs_updated": true}

func (r *appSettingsRepo) Stamp(ctx context.Context, column, day string, updatedAt int64) error {
	if !stampColumns[column] {
		return fmt.Errorf("stamp app settings: unsupported column %q", column)
	}
	res, err := r.c.exec(ctx, `UPDATE app_settings SET `+column+` = ?, updated_at = ? WHERE id = 1`, day, updatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appSettingsRepo) AppendVersion(ctx context.Context, v *repository.AppVersion) error {
	const stmt = `INSERT INTO app_versions (version_now, build_now, created_at) VALUES (?, ?, ?) RETURNING id`
	return r.c.queryRow(ctx, stmt, v.VersionNow, v.BuildNow, v.CreatedAt).Scan(&v.ID)
}

// ListVersions returns the newest entries first.
func (r *appSettingsRepo) ListVersions(ctx context.Context, limit int) ([]*repository.AppVersion, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.c.query(ctx, `SELECT id, version_now, build_now, created_at FROM app_versions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*repository.AppVersion, 0)
	for rows.Next() {
		var v repository.AppVersion
		if err := rows.Scan(&v.ID, &v.VersionNow, &v.BuildNow, &v.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &v)
	}
	return list, rows.Err()
}
