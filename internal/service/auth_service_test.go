package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

type userRepoStub struct {
	users   map[string]*models.User
	tokens  map[string]*models.RefreshToken
	revoked []string
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{
		users:  make(map[string]*models.User),
		tokens: make(map[string]*models.RefreshToken),
	}
}

func (u *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range u.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (u *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := u.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (u *userRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (u *userRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	u.tokens[token.Token] = token
	return nil
}

func (u *userRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := u.tokens[token]; ok {
		return stored, nil
	}
	return nil, sql.ErrNoRows
}

func (u *userRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	u.revoked = append(u.revoked, id)
	return nil
}

func testAuthService(t *testing.T) (*AuthService, *userRepoStub) {
	t.Helper()
	repo := newUserRepoStub()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.users["user-1"] = &models.User{
		ID:           "user-1",
		Email:        "supervisor@example.com",
		PasswordHash: string(hash),
		FullName:     "Super Visor",
		Role:         models.RoleSupervisor,
		Active:       true,
	}
	svc := NewAuthService(repo, &auditStub{}, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "test",
	})
	return svc, repo
}

func TestAuthServiceLoginAndValidate(t *testing.T) {
	svc, _ := testAuthService(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "supervisor@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.Equal(t, models.RoleSupervisor, res.User.Role)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleSupervisor, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, _ := testAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "supervisor@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	require.ErrorContains(t, err, "invalid email or password")
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	svc, repo := testAuthService(t)
	repo.users["user-1"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "supervisor@example.com",
		Password: "s3cret",
	})
	require.Error(t, err)
	require.ErrorContains(t, err, "inactive")
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	svc, repo := testAuthService(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "supervisor@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, res.RefreshToken)
	require.Len(t, repo.revoked, 1)
}

func TestAuthServiceValidateRejectsGarbage(t *testing.T) {
	svc, _ := testAuthService(t)
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
