package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
)

func hashCredential(plain string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", invalidf("credential longer than 72 bytes")
		}
		return "", fmt.Errorf("hash credential: %w", err)
	}
	return string(h), nil
}

func credentialMatches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// authenticate 校验凭证：用户存在、未删除且凭证一致。
// 事务内调用时 st 必须是事务副本。
func authenticate(ctx context.Context, st *repository.Store, auth model.Auth) (*model.User, error) {
	if auth.UserID <= 0 || auth.Credential == "" {
		return nil, unauthorizedf("missing credential")
	}
	u, err := st.Users.GetByID(ctx, auth.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, unauthorizedf("user %d not found", auth.UserID)
		}
		return nil, err
	}
	if u.IsDeleted {
		return nil, unauthorizedf("user %d is deleted", auth.UserID)
	}
	if !credentialMatches(u.Credential, auth.Credential) {
		return nil, unauthorizedf("credential mismatch")
	}
	return u, nil
}
