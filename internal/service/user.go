package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Blue-Finch-Software/linkkeeper-back/internal/apperr"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/db"
)

// UserUpdate carries the optional profile fields of a partial edit. Nil means
// "leave untouched".
type UserUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
}

type User struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewUser(database *gorm.DB, l *zap.SugaredLogger) *User {
	return &User{
		db:     database,
		logger: l,
	}
}

func (s *User) EditProfile(ctx context.Context, userID uint64, upd UserUpdate) (*db.User, error) {
	user := db.User{}
	res := s.db.WithContext(ctx).First(&user, userID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, errors.Wrap(res.Error, "find user")
	}

	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.FirstName != nil {
		user.FirstName = upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = upd.LastName
	}

	res = s.db.WithContext(ctx).Save(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("email already taken")
		}
		return nil, errors.Wrap(res.Error, "save user")
	}

	return &user, nil
}
