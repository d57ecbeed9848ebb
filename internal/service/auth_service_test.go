package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prakoso-dev/kb-api/internal/models"
	appErrors "github.com/prakoso-dev/kb-api/pkg/errors"
)

type mockAuthRepo struct {
	user             *models.User
	lastLoginTouched bool
}

func (m *mockAuthRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) TouchLastLogin(ctx context.Context, id string) error {
	m.lastLoginTouched = true
	return nil
}

type mockAuthAudit struct {
	logs []*models.AuditLog
}

func (m *mockAuthAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "reviewer@example.com",
		PasswordHash: string(hash),
		FullName:     "Reviewer One",
		Role:         models.RoleReviewer,
		Active:       true,
	}
}

func TestAuthServiceLogin(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "s3cret")}
	audit := &mockAuthAudit{}
	svc := NewAuthService(repo, audit, nil, nil, AuthConfig{Secret: "test-secret", Expiration: time.Hour})

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "reviewer@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "user-1", resp.User.ID)
	require.True(t, repo.lastLoginTouched)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionLogin, audit.logs[0].Action)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleReviewer, claims.Role)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "s3cret")}
	svc := NewAuthService(repo, nil, nil, nil, AuthConfig{Secret: "test-secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "reviewer@example.com"})
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    "unknown@example.com",
		Password: "s3cret",
	})
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    "reviewer@example.com",
		Password: "wrong",
	})
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	repo.user.Active = false
	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    "reviewer@example.com",
		Password: "s3cret",
	})
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsForgedSecret(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "s3cret")}
	issuer := NewAuthService(repo, nil, nil, nil, AuthConfig{Secret: "issuer-secret", Expiration: time.Hour})
	verifier := NewAuthService(repo, nil, nil, nil, AuthConfig{Secret: "other-secret", Expiration: time.Hour})

	resp, err := issuer.Login(context.Background(), models.LoginRequest{
		Email:    "reviewer@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(resp.AccessToken)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
