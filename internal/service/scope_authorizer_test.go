package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/officer-registry-api/internal/models"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

func TestClaimsScopeAuthorizer(t *testing.T) {
	authz := NewClaimsScopeAuthorizer()
	target := models.Scope{District: "D-101", Congregation: "C-1"}

	cases := []struct {
		name  string
		actor *models.JWTClaims
		level models.AccessLevel
		err   *appErrors.Error
	}{
		{"superadmin", &models.JWTClaims{Role: models.RoleSuperAdmin}, models.AccessWrite, nil},
		{"district admin same district", &models.JWTClaims{Role: models.RoleDistrictAdmin, District: "d-101"}, models.AccessWrite, nil},
		{"district admin other district", &models.JWTClaims{Role: models.RoleDistrictAdmin, District: "D-202"}, models.AccessWrite, appErrors.ErrForbidden},
		{"congregation admin own", &models.JWTClaims{Role: models.RoleCongregationAdmin, District: "D-101", Congregation: "C-1"}, models.AccessWrite, nil},
		{"congregation admin other", &models.JWTClaims{Role: models.RoleCongregationAdmin, District: "D-101", Congregation: "C-2"}, models.AccessWrite, appErrors.ErrForbidden},
		{"viewer read", &models.JWTClaims{Role: models.RoleViewer, District: "D-101"}, models.AccessRead, nil},
		{"viewer write", &models.JWTClaims{Role: models.RoleViewer, District: "D-101"}, models.AccessWrite, appErrors.ErrForbidden},
		{"anonymous", nil, models.AccessRead, appErrors.ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := authz.Authorize(context.Background(), tc.actor, target, tc.level)
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestRemoteScopeAuthorizer(t *testing.T) {
	var received remoteAuthorizeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/authorize", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		allowed := received.Congregation == "C-1"
		_ = json.NewEncoder(w).Encode(remoteAuthorizeResponse{Allowed: allowed, Reason: "outside assignment"})
	}))
	defer server.Close()

	authz := NewRemoteScopeAuthorizer(server.URL, time.Second, nil)
	actor := &models.JWTClaims{UserID: "u-1", Role: models.RoleCongregationAdmin}

	err := authz.Authorize(context.Background(), actor, models.Scope{District: "D-101", Congregation: "C-1"}, models.AccessWrite)
	require.NoError(t, err)
	assert.Equal(t, "u-1", received.UserID)
	assert.Equal(t, "write", received.Access)

	err = authz.Authorize(context.Background(), actor, models.Scope{District: "D-101", Congregation: "C-9"}, models.AccessWrite)
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Contains(t, err.Error(), "outside assignment")
}

func TestRemoteScopeAuthorizerFailsClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	authz := NewRemoteScopeAuthorizer(server.URL, time.Second, nil)
	err := authz.Authorize(context.Background(), &models.JWTClaims{UserID: "u-1"}, models.Scope{District: "D-101"}, models.AccessRead)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestResolveScopeDefaultsToActor(t *testing.T) {
	actor := &models.JWTClaims{District: "D-101", Congregation: "C-1"}
	assert.Equal(t, models.Scope{District: "D-101", Congregation: "C-1"}, ResolveScope(actor, models.Scope{}))
	assert.Equal(t, models.Scope{District: "D-202"}, ResolveScope(actor, models.Scope{District: " D-202 "}))
}
