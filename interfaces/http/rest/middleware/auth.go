package middleware

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"myblog-backend/pkg/auth"
	"myblog-backend/pkg/common"
	"myblog-backend/pkg/errors"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"go.uber.org/zap"
)

// Headers a trusted gateway sets after authorizing a request
const (
	HeaderGatewayAuthorized = "X-API-Gateway-Authorized"
	HeaderUserID            = "X-User-ID"
	HeaderUserEmail         = "X-User-Email"
	HeaderUserRoles         = "X-User-Roles"
)

// Authenticator resolves the caller of a request. Identity comes from, in order:
// the API Gateway authorizer context, gateway-set user headers, or a bearer JWT.
// A request with none of these proceeds anonymously.
type Authenticator struct {
	validator    *auth.JWTValidator
	trustGateway bool
	errors       *errors.ErrorHandler
	logger       *zap.Logger
}

// NewAuthenticator creates an authenticator. validator may be nil when bearer
// tokens are verified upstream by the gateway. Gateway user headers are only
// honored when trustGateway is set, since a direct client could forge them.
func NewAuthenticator(validator *auth.JWTValidator, trustGateway bool, errHandler *errors.ErrorHandler, logger *zap.Logger) *Authenticator {
	return &Authenticator{validator: validator, trustGateway: trustGateway, errors: errHandler, logger: logger}
}

// Identify attaches the caller to the request context without requiring one
func (a *Authenticator) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.resolve(r)
		if err != nil {
			a.logger.Warn("Rejected credentials",
				zap.String("path", r.URL.Path),
				zap.String("remoteAddr", r.RemoteAddr),
				zap.Error(err),
			)
			a.errors.Handle(w, r, errors.NewUnauthorizedError(unauthorizedMessage(err)))
			return
		}
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}

		a.logger.Debug("Request authenticated",
			zap.String("userID", user.UserID),
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
		)

		ctx := auth.SetUserInContext(r.Context(), user)
		ctx = common.WithUserID(ctx, user.UserID)
		ctx = common.WithUserEmail(ctx, user.Email)
		ctx = common.WithUserRoles(ctx, user.Roles)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests that Identify left anonymous
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.GetUserFromContext(r.Context()); err != nil {
			a.errors.Handle(w, r, errors.NewUnauthorizedError("Authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) resolve(r *http.Request) (*auth.UserContext, error) {
	if gw, ok := core.GetAPIGatewayV2ContextFromContext(r.Context()); ok {
		if user := userFromAuthorizer(gw.Authorizer); user != nil {
			return user, nil
		}
	}

	if a.trustGateway && r.Header.Get(HeaderGatewayAuthorized) == "true" {
		if id := r.Header.Get(HeaderUserID); id != "" {
			return &auth.UserContext{
				UserID: id,
				Email:  r.Header.Get(HeaderUserEmail),
				Roles:  splitList(r.Header.Get(HeaderUserRoles)),
			}, nil
		}
	}

	token, present := bearerToken(r)
	if !present {
		return nil, nil
	}
	if a.validator == nil {
		return nil, fmt.Errorf("%w: bearer tokens are not verified here", auth.ErrInvalidToken)
	}
	claims, err := a.validator.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return claims.UserContext(), nil
}

// userFromAuthorizer reads a Lambda authorizer context or JWT authorizer claims
func userFromAuthorizer(authz *events.APIGatewayV2HTTPRequestContextAuthorizerDescription) *auth.UserContext {
	if authz == nil {
		return nil
	}

	if len(authz.Lambda) > 0 {
		user := &auth.UserContext{
			UserID:   stringValue(authz.Lambda["sub"]),
			Email:    stringValue(authz.Lambda["email"]),
			Username: stringValue(authz.Lambda["username"]),
			Roles:    splitList(stringValue(authz.Lambda["cognito:groups"])),
		}
		if user.UserID != "" {
			return user
		}
	}

	if authz.JWT != nil && authz.JWT.Claims["sub"] != "" {
		claims := authz.JWT.Claims
		username := claims["cognito:username"]
		if username == "" {
			username = claims["email"]
		}
		return &auth.UserContext{
			UserID:   claims["sub"],
			Email:    claims["email"],
			Username: username,
			Roles:    splitList(claims["cognito:groups"]),
		}
	}
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return header, true
	}
	return strings.TrimSpace(parts[1]), true
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// splitList parses "a,b", "a b" and the "[a b]" rendering API Gateway uses for claim arrays
func splitList(s string) []string {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func unauthorizedMessage(err error) string {
	switch {
	case stderrors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case stderrors.Is(err, auth.ErrInvalidSignature):
		return "Invalid token signature"
	default:
		return "Invalid token"
	}
}
