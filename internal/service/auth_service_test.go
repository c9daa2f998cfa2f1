package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/edulink/edulink-api/internal/models"
	"github.com/edulink/edulink-api/internal/repository"
	appErrors "github.com/edulink/edulink-api/pkg/errors"
)

type mockAuthUsers struct {
	byEmail    map[string]*models.User
	byID       map[string]*models.User
	takenCodes map[string]bool
	createErrs []error
	created    []*models.User
}

func (m *mockAuthUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *mockAuthUsers) ExistsByParentCode(ctx context.Context, code string) (bool, error) {
	return m.takenCodes[code], nil
}

func (m *mockAuthUsers) Create(ctx context.Context, user *models.User) error {
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	user.ID = "user-" + user.Email
	m.created = append(m.created, user)
	return nil
}

func newAuthService(users *mockAuthUsers) *AuthService {
	return NewAuthService(users, nil, nil, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "edulink-test",
	})
}

func TestRegisterStudentIssuesParentCode(t *testing.T) {
	users := &mockAuthUsers{}
	svc := newAuthService(users)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Student One",
		Email:    "student@example.com",
		Password: "secret123",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User.ParentCode)
	assert.True(t, strings.HasPrefix(*resp.User.ParentCode, "PARENT-"))
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRegisterTeacherHasNoParentCode(t *testing.T) {
	users := &mockAuthUsers{}
	svc := newAuthService(users)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Teacher",
		Email:    "teacher@example.com",
		Password: "secret123",
		Role:     models.RoleTeacher,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.User.ParentCode)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := &mockAuthUsers{byEmail: map[string]*models.User{
		"taken@example.com": {ID: "u1", Email: "taken@example.com"},
	}}
	svc := newAuthService(users)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Dup",
		Email:    "taken@example.com",
		Password: "secret123",
		Role:     models.RoleParent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmailTaken.Code, appErrors.FromError(err).Code)
}

func TestRegisterRetriesOnCodeCollision(t *testing.T) {
	users := &mockAuthUsers{createErrs: []error{repository.ErrDuplicateCode}}
	svc := newAuthService(users)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Student",
		Email:    "retry@example.com",
		Password: "secret123",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)
	require.Len(t, users.created, 1)
	require.NotNil(t, resp.User.ParentCode)
}

func TestRegisterInvalidRole(t *testing.T) {
	svc := newAuthService(&mockAuthUsers{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Nobody",
		Email:    "nobody@example.com",
		Password: "secret123",
		Role:     "admin",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLoginAndValidateToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	users := &mockAuthUsers{byEmail: map[string]*models.User{
		"teacher@example.com": {
			ID:           "t1",
			Name:         "Teacher",
			Email:        "teacher@example.com",
			PasswordHash: string(hash),
			Role:         models.RoleTeacher,
		},
	}}
	svc := newAuthService(users)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "t1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	users := &mockAuthUsers{byEmail: map[string]*models.User{
		"teacher@example.com": {ID: "t1", Email: "teacher@example.com", PasswordHash: string(hash), Role: models.RoleTeacher},
	}}
	svc := newAuthService(users)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "teacher@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(&mockAuthUsers{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	svc := newAuthService(&mockAuthUsers{})

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
