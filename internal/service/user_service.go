package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/recipehub/internal/cache"
	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/pkg/logger"
)

// RegisterRequest 注册参数，Birthday 为 YYYY-MM-DD
type RegisterRequest struct {
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	Birthday   string `json:"birthday"`
	Credential string `json:"credential"`
}

// UserService 用户身份服务
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (int64, error)
	Login(ctx context.Context, auth model.Auth) (int64, error)
	// GetProfile 用户不存在或已删除时返回 nil
	GetProfile(ctx context.Context, userID int64) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, auth model.Auth, gender *string, age *int) error
	SoftDelete(ctx context.Context, auth model.Auth, userID int64) (bool, error)
	Authenticate(ctx context.Context, auth model.Auth) (*model.User, error)
}

type userService struct {
	store *repository.Store
	cache *cache.FollowCache
	opts  Options
}

func NewUserService(store *repository.Store, fc *cache.FollowCache, opts Options) UserService {
	return &userService{store: store, cache: fc, opts: opts.withDefaults()}
}

const birthdayLayout = "2006-01-02"

func (s *userService) Register(ctx context.Context, req RegisterRequest) (int64, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return 0, invalidf("name is blank")
	}
	gender, ok := normalizeGender(req.Gender)
	if !ok {
		return 0, invalidf("gender %q must be Male or Female", req.Gender)
	}
	birth, err := time.Parse(birthdayLayout, strings.TrimSpace(req.Birthday))
	if err != nil {
		return 0, invalidf("birthday %q is not a YYYY-MM-DD date", req.Birthday)
	}
	age := ageAt(birth, s.opts.Now())
	if age <= 0 {
		return 0, invalidf("age must be positive, got %d", age)
	}

	exists, err := s.store.Users.NameExists(ctx, name)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, invalidf("name %q already taken", name)
	}
	hash, err := hashCredential(req.Credential, s.opts.BcryptCost)
	if err != nil {
		return 0, err
	}

	u := &model.User{Name: name, Gender: gender, Age: age, Credential: hash}
	id, err := s.store.Users.Create(ctx, u)
	if err != nil {
		if !IsAllocationExhausted(err) {
			return 0, err
		}
		// 唯一名冲突同样表现为主键冲突，耗尽后再区分
		if taken, cErr := s.store.Users.NameExists(ctx, name); cErr == nil && taken {
			return 0, invalidf("name %q already taken", name)
		}
		logger.Warn("register: id allocation exhausted", zap.String("name", name))
		return FailedID, nil
	}
	logger.Info("user registered", zap.Int64("user_id", id))
	return id, nil
}

func (s *userService) Login(ctx context.Context, auth model.Auth) (int64, error) {
	u, err := authenticate(ctx, s.store, auth)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

func (s *userService) Authenticate(ctx context.Context, auth model.Auth) (*model.User, error) {
	return authenticate(ctx, s.store, auth)
}

func (s *userService) GetProfile(ctx context.Context, userID int64) (*model.UserProfile, error) {
	if userID <= 0 {
		return nil, nil
	}
	u, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if u.IsDeleted {
		return nil, nil
	}
	lists, err := s.cache.Get(ctx, userID, func(ctx context.Context) (*cache.FollowLists, error) {
		followers, err := s.store.Follows.FollowerIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		followings, err := s.store.Follows.FollowingIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &cache.FollowLists{FollowerIDs: followers, FollowingIDs: followings}, nil
	})
	if err != nil {
		return nil, err
	}
	return &model.UserProfile{User: *u, FollowerIDs: lists.FollowerIDs, FollowingIDs: lists.FollowingIDs}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, auth model.Auth, gender *string, age *int) error {
	if auth.UserID <= 0 {
		return unauthorizedf("missing user id")
	}
	if gender == nil && age == nil {
		return nil
	}
	var normalized *string
	if gender != nil {
		g, ok := normalizeGender(*gender)
		if !ok {
			return invalidf("gender %q must be Male or Female", *gender)
		}
		normalized = &g
	}
	if age != nil && *age < 0 {
		return invalidf("age must not be negative")
	}

	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		u, err := tx.Users.GetByID(ctx, auth.UserID)
		if err != nil {
			if isNotFound(err) {
				return invalidf("user %d not found", auth.UserID)
			}
			return err
		}
		if u.IsDeleted {
			return invalidf("user %d is deleted", auth.UserID)
		}
		if auth.Credential == "" || !credentialMatches(u.Credential, auth.Credential) {
			return unauthorizedf("credential mismatch")
		}
		_, err = tx.Users.UpdateProfile(ctx, auth.UserID, normalized, age)
		return err
	})
}

func (s *userService) SoftDelete(ctx context.Context, auth model.Auth, userID int64) (bool, error) {
	if auth.UserID <= 0 || auth.UserID != userID {
		return false, unauthorizedf("only the user may delete the account")
	}

	var deleted bool
	var touched []int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		locked, err := tx.Users.LockActive(ctx, userID)
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			u, err := tx.Users.GetByID(ctx, userID)
			if err != nil {
				if isNotFound(err) {
					return invalidf("user %d not found", userID)
				}
				return err
			}
			if u.IsDeleted {
				return nil
			}
			return invalidf("user %d not found", userID)
		}
		if auth.Credential == "" || !credentialMatches(locked[0].Credential, auth.Credential) {
			return unauthorizedf("credential mismatch")
		}

		followers, err := tx.Follows.FollowerIDs(ctx, userID)
		if err != nil {
			return err
		}
		followings, err := tx.Follows.FollowingIDs(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.Users.MarkDeleted(ctx, userID); err != nil {
			return err
		}
		touched = append(append(append(touched, userID), followers...), followings...)
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if deleted {
		s.cache.Invalidate(ctx, touched...)
		logger.Info("user soft-deleted", zap.Int64("user_id", userID), zap.Int("edges_touched", len(touched)-1))
	}
	return deleted, nil
}

func normalizeGender(g string) (string, bool) {
	switch {
	case strings.EqualFold(strings.TrimSpace(g), model.GenderMale):
		return model.GenderMale, true
	case strings.EqualFold(strings.TrimSpace(g), model.GenderFemale):
		return model.GenderFemale, true
	}
	return "", false
}

// ageAt 计算到 now 为止的整岁数
func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}
