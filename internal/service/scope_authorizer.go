package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/officer-registry-api/internal/models"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

// ScopeAuthorizer decides whether an actor may read or mutate records of one congregation.
type ScopeAuthorizer interface {
	Authorize(ctx context.Context, actor *models.JWTClaims, scope models.Scope, level models.AccessLevel) error
}

// ClaimsScopeAuthorizer authorizes from the district/congregation carried in the token.
//
//   - SUPERADMIN: every scope.
//   - DISTRICT_ADMIN: every congregation of its district.
//   - CONGREGATION_ADMIN: its own congregation.
//   - VIEWER: read-only, within its district (and congregation when the token names one).
type ClaimsScopeAuthorizer struct{}

// NewClaimsScopeAuthorizer constructs the token-based authorizer.
func NewClaimsScopeAuthorizer() *ClaimsScopeAuthorizer {
	return &ClaimsScopeAuthorizer{}
}

// Authorize implements ScopeAuthorizer.
func (ClaimsScopeAuthorizer) Authorize(_ context.Context, actor *models.JWTClaims, scope models.Scope, level models.AccessLevel) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	scope = scope.Normalize()
	if scope.District == "" {
		return appErrors.Clone(appErrors.ErrValidation, "district is required")
	}
	switch actor.Role {
	case models.RoleSuperAdmin:
		return nil
	case models.RoleDistrictAdmin:
		if sameDistrict(actor.District, scope.District) {
			return nil
		}
	case models.RoleCongregationAdmin:
		if sameDistrict(actor.District, scope.District) && actor.Congregation != "" && actor.Congregation == scope.Congregation {
			return nil
		}
	case models.RoleViewer:
		if level != models.AccessRead {
			return appErrors.Clone(appErrors.ErrForbidden, "viewers cannot modify records")
		}
		if sameDistrict(actor.District, scope.District) && (actor.Congregation == "" || actor.Congregation == scope.Congregation) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "no administrative scope over this congregation")
}

func sameDistrict(a, b string) bool {
	a = strings.TrimSpace(a)
	return a != "" && strings.EqualFold(a, strings.TrimSpace(b))
}

// RemoteScopeAuthorizer delegates the decision to an external authorization service.
type RemoteScopeAuthorizer struct {
	client *resty.Client
	logger *zap.Logger
}

type remoteAuthorizeRequest struct {
	UserID       string          `json:"user_id"`
	Role         models.UserRole `json:"role"`
	District     string          `json:"district"`
	Congregation string          `json:"congregation"`
	Access       string          `json:"access"`
}

type remoteAuthorizeResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// NewRemoteScopeAuthorizer builds a resty client against baseURL. Requests are never retried.
func NewRemoteScopeAuthorizer(baseURL string, timeout time.Duration, logger *zap.Logger) *RemoteScopeAuthorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &RemoteScopeAuthorizer{client: client, logger: logger}
}

// Authorize implements ScopeAuthorizer. Any transport or protocol failure denies access.
func (a *RemoteScopeAuthorizer) Authorize(ctx context.Context, actor *models.JWTClaims, scope models.Scope, level models.AccessLevel) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	scope = scope.Normalize()
	body := remoteAuthorizeRequest{
		UserID:       actor.UserID,
		Role:         actor.Role,
		District:     scope.District,
		Congregation: scope.Congregation,
		Access:       string(level),
	}

	var decision remoteAuthorizeResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&decision).
		Post("/authorize")
	if err != nil {
		a.logger.Error("scope authorization call failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "authorization service unavailable")
	}
	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusUnauthorized:
		return appErrors.Clone(appErrors.ErrForbidden, "no administrative scope over this congregation")
	default:
		a.logger.Error("scope authorization returned unexpected status", zap.Int("status_code", resp.StatusCode()))
		return appErrors.Wrap(fmt.Errorf("authorization status %d", resp.StatusCode()), appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "authorization service unavailable")
	}
	if !decision.Allowed {
		message := "no administrative scope over this congregation"
		if decision.Reason != "" {
			message = decision.Reason
		}
		return appErrors.Clone(appErrors.ErrForbidden, message)
	}
	return nil
}

// ResolveScope fills the unset parts of a requested listing scope from the actor's own scope.
func ResolveScope(actor *models.JWTClaims, requested models.Scope) models.Scope {
	requested = requested.Normalize()
	if actor == nil {
		return requested
	}
	if requested.District == "" {
		requested.District = actor.District
		if requested.Congregation == "" {
			requested.Congregation = actor.Congregation
		}
	}
	return requested.Normalize()
}
