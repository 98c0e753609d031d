package service

import (
	"context"

	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Blue-Finch-Software/linkkeeper-back/internal/apperr"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/db"
)

func TestSignup(t *testing.T) {
	conn := newTestDB(t)
	svc, _ := newTestAuth(t, conn)

	user, err := svc.Signup(context.Background(), "a@x.com", "p1")
	assert.Nil(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)

	stored := db.User{}
	assert.Nil(t, conn.First(&stored, user.ID).Error)
	assert.NotEqual(t, "p1", stored.Password)
}

func TestSignupDuplicateEmail(t *testing.T) {
	conn := newTestDB(t)
	svc, _ := newTestAuth(t, conn)

	_, err := svc.Signup(context.Background(), "a@x.com", "p1")
	assert.Nil(t, err)

	// Same email always conflicts, whatever the password is.
	_, err = svc.Signup(context.Background(), "a@x.com", "completely-different")
	assert.Equal(t, apperr.KindConflict, errKind(t, err))
}

func TestSigninIssuesTokenForRightUser(t *testing.T) {
	conn := newTestDB(t)
	svc, codec := newTestAuth(t, conn)

	signupUser(t, svc, "a@x.com")
	userB := signupUser(t, svc, "b@x.com")

	token, err := svc.Signin(context.Background(), "b@x.com", "p1")
	assert.Nil(t, err)

	subject, err := codec.Verify(token)
	assert.Nil(t, err)
	assert.Equal(t, userB.ID, subject)
}

func TestSigninUniformError(t *testing.T) {
	conn := newTestDB(t)
	svc, _ := newTestAuth(t, conn)

	signupUser(t, svc, "a@x.com")

	_, errWrongPass := svc.Signin(context.Background(), "a@x.com", "wrong")
	_, errNoUser := svc.Signin(context.Background(), "nobody@x.com", "p1")

	assert.Equal(t, apperr.KindUnauthorized, errKind(t, errWrongPass))
	assert.Equal(t, apperr.KindUnauthorized, errKind(t, errNoUser))
	// Identical text, nothing to enumerate accounts with.
	assert.Equal(t, errWrongPass.Error(), errNoUser.Error())
}
