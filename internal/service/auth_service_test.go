package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/officer-registry-api/internal/models"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	findByEmailErr   error
	created          []*models.User
	lastLoginUpdated bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil || m.userByEmail.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByEmail == nil || m.userByEmail.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "new-user"
	m.created = append(m.created, user)
	return nil
}

type mockAuditAppender struct {
	entries []*models.AuditEntry
}

func (m *mockAuditAppender) Append(ctx context.Context, entry *models.AuditEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func newAuthFixture(user *models.User) (*AuthService, *mockAuthRepo, *mockAuditAppender) {
	repo := &mockAuthRepo{userByEmail: user}
	audit := &mockAuditAppender{}
	svc := NewAuthService(repo, audit, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "officer-registry",
	})
	return svc, repo, audit
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	svc, repo, audit := newAuthFixture(&models.User{ID: "123", Email: "user@example.com", PasswordHash: string(password), Active: true,
		Role: models.RoleCongregationAdmin, District: "D-101", Congregation: "C"})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "User@Example.com", Password: "password", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "D-101", res.User.District)
	assert.True(t, repo.lastLoginUpdated)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionLogin, audit.entries[0].Action)
	assert.Contains(t, string(audit.entries[0].ClientMeta), "10.0.0.1")

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "C", claims.Congregation)
	assert.Equal(t, models.RoleCongregationAdmin, claims.Role)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	svc, _, _ := newAuthFixture(&models.User{ID: "123", Email: "user@example.com", PasswordHash: string(password), Active: false})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	svc, _, audit := newAuthFixture(&models.User{ID: "123", Email: "user@example.com", PasswordHash: string(password), Active: true})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Empty(t, audit.entries)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "other@example.com", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc, _, _ := newAuthFixture(nil)
	user := &models.User{ID: "u1", Email: "user@example.com", Role: models.RoleViewer}
	token, _, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{UserID: "u1", Role: models.RoleSuperAdmin})
	signed, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	svc, repo, _ := newAuthFixture(nil)

	require.NoError(t, svc.EnsureBootstrapAdmin(context.Background(), BootstrapAdmin{}))
	assert.Empty(t, repo.created)

	require.NoError(t, svc.EnsureBootstrapAdmin(context.Background(), BootstrapAdmin{Email: "Admin@Example.com", Password: "changeme"}))
	require.Len(t, repo.created, 1)
	created := repo.created[0]
	assert.Equal(t, "admin@example.com", created.Email)
	assert.Equal(t, models.RoleSuperAdmin, created.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("changeme")))

	repo.userByEmail = created
	require.NoError(t, svc.EnsureBootstrapAdmin(context.Background(), BootstrapAdmin{Email: "admin@example.com", Password: "changeme"}))
	assert.Len(t, repo.created, 1)
}
