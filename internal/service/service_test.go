package service

import (
	"context"

	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Blue-Finch-Software/linkkeeper-back/internal/apperr"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/auth"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/config"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/db"
)

var testCfg = &config.Config{
	JWTSecret:   "test-secret",
	TokenTTLMin: 15,
	BcryptCost:  4,
}

// newTestDB opens a per-test in-memory sqlite database. cache=shared keeps the
// database alive across the pooled connections gorm opens.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.Nil(t, err)
	require.Nil(t, db.Migrate(conn))

	return conn
}

func newTestAuth(t *testing.T, conn *gorm.DB) (*Auth, *auth.TokenCodec) {
	t.Helper()

	codec := auth.NewTokenCodec(testCfg)
	return NewAuth(conn, auth.NewHasher(testCfg), codec, zap.NewNop().Sugar()), codec
}

func signupUser(t *testing.T, svc *Auth, email string) *db.User {
	t.Helper()

	user, err := svc.Signup(context.Background(), email, "p1")
	require.Nil(t, err)
	return user
}

func errKind(t *testing.T, err error) apperr.Kind {
	t.Helper()

	appErr := &apperr.Error{}
	require.True(t, errors.As(err, &appErr), "expected apperr.Error, got %v", err)
	return appErr.Kind
}
