package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Blue-Finch-Software/linkkeeper-back/internal/apperr"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/auth"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/db"
)

type Auth struct {
	db     *gorm.DB
	hasher *auth.Hasher
	tokens *auth.TokenCodec
	logger *zap.SugaredLogger
}

func NewAuth(database *gorm.DB, hasher *auth.Hasher, tokens *auth.TokenCodec, l *zap.SugaredLogger) *Auth {
	return &Auth{
		db:     database,
		hasher: hasher,
		tokens: tokens,
		logger: l,
	}
}

func (s *Auth) Signup(ctx context.Context, email, pass string) (*db.User, error) {
	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := db.User{
		Email:    email,
		Password: hash,
	}
	res := s.db.WithContext(ctx).Create(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("email already taken")
		}
		return nil, errors.Wrap(res.Error, "create user")
	}

	return &user, nil
}

// Signin returns a bearer token on success. A missing user and a wrong
// password produce the exact same error so callers cannot enumerate accounts.
func (s *Auth) Signin(ctx context.Context, email, pass string) (string, error) {
	user := db.User{}
	res := s.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			s.logger.Debugw("signin rejected", "reason", "unknown email")
			return "", apperr.Unauthorized("credentials incorrect")
		}
		return "", errors.Wrap(res.Error, "find user by email")
	}

	if err := s.hasher.Check(user.Password, pass); err != nil {
		s.logger.Debugw("signin rejected", "reason", "password mismatch", "user_id", user.ID)
		return "", apperr.Unauthorized("credentials incorrect")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", errors.Wrap(err, "issue token")
	}
	return token, nil
}
