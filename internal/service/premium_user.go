// 文件路径: internal/service/premium_user.go
// 模块说明: 这是 internal 模块里的 premium_user 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

// PremiumUserService 管理付费用户记录和设备校验。
type PremiumUserService interface {
	List(ctx context.Context, filter repository.PremiumUserFilter, q ListQuery) ([]*repository.PremiumUser, error)
	Get(ctx context.Context, id string) (*repository.PremiumUser, error)
	Form(ctx context.Context, id string) (PremiumUserForm, error)
	Create(ctx context.Context, form PremiumUserForm) (Mutation[repository.PremiumUser], error)
	Update(ctx context.Context, id string, edit func(*PremiumUserForm) error) (Mutation[repository.PremiumUser], error)
	Delete(ctx context.Context, id string) (Mutation[repository.PremiumUser], error)
	Verify(ctx context.Context, deviceID string) (PremiumVerification, error)
	Stats(ctx context.Context) (PremiumUserStats, error)
	Lapsed(ctx context.Context) ([]*repository.PremiumUser, error)
}

// PremiumUserStats is the dashboard summary for premium users.
type PremiumUserStats struct {
	TotalPremiumUsers int     `json:"totalPremiumUsers"`
	ActiveUsers       int     `json:"activeUsers"`
	ExpiredUsers      int     `json:"expiredUsers"`
	SuspiciousUsers   int     `json:"suspiciousUsers"`
	RevenueTotal      float64 `json:"revenueTotal"`
}

// PremiumVerification 是移动端按设备号校验付费状态的结果。
type PremiumVerification struct {
	DeviceID   string `json:"deviceId"`
	Found      bool   `json:"found"`
	Premium    bool   `json:"premium"`
	ValidUntil int64  `json:"validUntil"`
	Expired    bool   `json:"expired"`
	Suspicious bool   `json:"suspicious"`
}

type premiumUserService struct {
	core
}

// NewPremiumUserService 组装付费用户服务。
func NewPremiumUserService(deps Deps) PremiumUserService {
	return &premiumUserService{core: newCore(deps, "premium_user_service")}
}

func (s *premiumUserService) List(ctx context.Context, filter repository.PremiumUserFilter, q ListQuery) ([]*repository.PremiumUser, error) {
	users, err := s.store.PremiumUsers().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list premium users: %w", err)
	}
	return PremiumUserListing.Apply(users, q)
}

func (s *premiumUserService) Get(ctx context.Context, id string) (*repository.PremiumUser, error) {
	user, err := s.store.PremiumUsers().FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return user, nil
}

func (s *premiumUserService) Form(ctx context.Context, id string) (PremiumUserForm, error) {
	if id == "" {
		return DefaultPremiumUserForm(s.now()), nil
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return PremiumUserForm{}, err
	}
	return PremiumUserToForm(user), nil
}

func (s *premiumUserService) Create(ctx context.Context, form PremiumUserForm) (Mutation[repository.PremiumUser], error) {
	form.Normalize()
	if err := form.Validate(); err != nil {
		return Mutation[repository.PremiumUser]{}, err
	}
	now := s.now().UTC().Unix()
	user := form.ToPremiumUser()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	if err := s.store.PremiumUsers().Create(ctx, &user); err != nil {
		return Mutation[repository.PremiumUser]{}, fmt.Errorf("create premium user: %w", err)
	}
	s.afterMutation(ctx, "premium_user.create", user.ID)
	return Mutation[repository.PremiumUser]{Entity: &user, Notice: notice("premium_user.created", user.Email)}, nil
}

func (s *premiumUserService) Update(ctx context.Context, id string, edit func(*PremiumUserForm) error) (Mutation[repository.PremiumUser], error) {
	user, err := s.store.PremiumUsers().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.WarnContext(ctx, "update of unknown premium user ignored", "id", id)
		return Mutation[repository.PremiumUser]{}, ErrNotFound
	}
	if err != nil {
		return Mutation[repository.PremiumUser]{}, fmt.Errorf("find premium user: %w", err)
	}
	form := PremiumUserToForm(user)
	if edit != nil {
		if err := edit(&form); err != nil {
			return Mutation[repository.PremiumUser]{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	form.Normalize()
	if err := form.Validate(); err != nil {
		return Mutation[repository.PremiumUser]{}, err
	}
	form.applyTo(user)
	user.UpdatedAt = s.now().UTC().Unix()
	if err := s.store.PremiumUsers().Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.WarnContext(ctx, "premium user vanished during update", "id", id)
			return Mutation[repository.PremiumUser]{}, ErrNotFound
		}
		return Mutation[repository.PremiumUser]{}, fmt.Errorf("update premium user: %w", err)
	}
	s.afterMutation(ctx, "premium_user.update", user.ID)
	return Mutation[repository.PremiumUser]{Entity: user, Notice: notice("premium_user.updated", user.Email)}, nil
}

func (s *premiumUserService) Delete(ctx context.Context, id string) (Mutation[repository.PremiumUser], error) {
	user, err := s.store.PremiumUsers().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.WarnContext(ctx, "delete of unknown premium user ignored", "id", id)
		return Mutation[repository.PremiumUser]{Notice: notice("premium_user.not_deleted", id)}, nil
	}
	if err != nil {
		return Mutation[repository.PremiumUser]{}, fmt.Errorf("find premium user: %w", err)
	}
	deleted, err := s.store.PremiumUsers().Delete(ctx, id)
	if err != nil {
		return Mutation[repository.PremiumUser]{}, fmt.Errorf("delete premium user: %w", err)
	}
	if !deleted {
		return Mutation[repository.PremiumUser]{Notice: notice("premium_user.not_deleted", user.Email)}, nil
	}
	s.afterMutation(ctx, "premium_user.delete", id)
	return Mutation[repository.PremiumUser]{Entity: user, Deleted: true, Notice: notice("premium_user.deleted", user.Email)}, nil
}

// Verify 按设备号查找购买记录。premium 需要同时满足：找到、未标记过期、未标记可疑、当前早于 dateEnd。
func (s *premiumUserService) Verify(ctx context.Context, deviceID string) (PremiumVerification, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return PremiumVerification{}, fmt.Errorf("%w: device id is required", ErrInvalidInput)
	}
	result := PremiumVerification{DeviceID: deviceID}
	user, err := s.store.PremiumUsers().FindByDeviceID(ctx, deviceID)
	if errors.Is(err, repository.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return PremiumVerification{}, fmt.Errorf("find premium user by device: %w", err)
	}
	result.Found = true
	result.ValidUntil = user.DateEnd
	result.Expired = user.Expired
	result.Suspicious = user.Suspicious
	result.Premium = !user.Expired && !user.Suspicious && s.now().Unix() < user.DateEnd
	return result, nil
}

func (s *premiumUserService) Stats(ctx context.Context) (PremiumUserStats, error) {
	return cachedStats(ctx, s.stats, statsKeyPremiumUsers, func(ctx context.Context) (PremiumUserStats, error) {
		users, err := s.store.PremiumUsers().List(ctx, repository.PremiumUserFilter{})
		if err != nil {
			return PremiumUserStats{}, fmt.Errorf("list premium users: %w", err)
		}
		var st PremiumUserStats
		for _, u := range users {
			st.TotalPremiumUsers++
			if u.Expired {
				st.ExpiredUsers++
			} else {
				st.ActiveUsers++
			}
			if u.Suspicious {
				st.SuspiciousUsers++
			}
			st.RevenueTotal += parsePrice(u.PricePaid)
		}
		return st, nil
	})
}

// Lapsed 列出 dateEnd 已过但仍未标记 expired 的用户，只用于报告。
func (s *premiumUserService) Lapsed(ctx context.Context) ([]*repository.PremiumUser, error) {
	users, err := s.store.PremiumUsers().ListLapsed(ctx, s.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("list lapsed premium users: %w", err)
	}
	return users, nil
}

func (s *premiumUserService) afterMutation(ctx context.Context, kind, id string) {
	s.stats.invalidate(ctx, statsKeyPremiumUsers)
	s.record(ctx, kind, id, nil)
}
