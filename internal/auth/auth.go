package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"atsscorer/internal/config"
	"atsscorer/internal/errors"

	"github.com/google/uuid"
)

// Authentication methods reported on User.Method.
const (
	MethodJWT    = "jwt"
	MethodAPIKey = "api_key"
	MethodNone   = "none"
)

// apiKeyNamespace seeds the v5 UUIDs of API key users.
var apiKeyNamespace = uuid.MustParse("6f1c3a52-0d2e-5b7a-9c41-2a8e7f3b9d10")

// LocalUser owns everything when authentication is disabled.
var LocalUser = User{ID: "local", Method: MethodNone}

// User is the authenticated caller.
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email,omitempty"`
	Method string `json:"method"`
}

type userKey struct{}

// WithUser attaches u to ctx.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// CurrentUser returns the user the middleware attached to ctx.
func CurrentUser(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey{}).(*User)
	return u, ok && u != nil
}

// APIKeyUser derives a stable user from an API key.
func APIKeyUser(key string) User {
	return User{ID: uuid.NewSHA1(apiKeyNamespace, []byte(key)).String(), Method: MethodAPIKey}
}

// Authenticator accepts configured API keys and, when a secret is set, JWT bearer tokens.
type Authenticator struct {
	apiKeys []string
	tokens  *TokenService
	logger  *errors.Logger
}

// NewAuthenticator builds an authenticator from server configuration.
func NewAuthenticator(cfg config.ServerConfig, logger *errors.Logger) (*Authenticator, error) {
	if logger == nil {
		logger = errors.NewDiscard()
	}
	a := &Authenticator{logger: logger}
	for _, key := range cfg.APIKeys {
		if key != "" {
			a.apiKeys = append(a.apiKeys, key)
		}
	}
	if cfg.JWTSecret != "" {
		tokens, err := NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
		if err != nil {
			return nil, err
		}
		a.tokens = tokens
	}
	return a, nil
}

// Enabled reports whether any credential is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.apiKeys) > 0 || a.tokens != nil
}

// Tokens returns the JWT service, or nil when no secret is configured.
func (a *Authenticator) Tokens() *TokenService {
	return a.tokens
}

// Authenticate resolves the caller of r. With authentication disabled every
// request is LocalUser.
func (a *Authenticator) Authenticate(r *http.Request) (*User, error) {
	if !a.Enabled() {
		u := LocalUser
		return &u, nil
	}

	credential := credentialFrom(r)
	if credential == "" {
		return nil, errors.NewAuthError(errors.ErrCodeUnauthorized,
			"X-API-Key header or Authorization Bearer token required", nil)
	}

	if a.matchAPIKey(credential) {
		u := APIKeyUser(credential)
		return &u, nil
	}

	if a.tokens == nil {
		return nil, errors.NewAuthError(errors.ErrCodeUnauthorized, "invalid API key", nil).
			WithContext("api_key_prefix", MaskCredential(credential))
	}

	claims, err := a.tokens.Validate(credential)
	if err != nil {
		return nil, err
	}
	return &User{ID: claims.UserID.String(), Email: claims.Email, Method: MethodJWT}, nil
}

func (a *Authenticator) matchAPIKey(candidate string) bool {
	for _, key := range a.apiKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(candidate)) == 1 {
			return true
		}
	}
	return false
}

// Middleware attaches the current user or hands the failure to onFail.
func (a *Authenticator) Middleware(onFail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.Authenticate(r)
			if err != nil {
				a.logger.Info("Authentication failed",
					"endpoint", r.URL.Path,
					"client_ip", r.RemoteAddr,
					"reason", err.Error())
				onFail(w, r, err)
				return
			}

			a.logger.Debug("Authentication successful",
				"endpoint", r.URL.Path,
				"method", user.Method,
				"user_id", user.ID)

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// credentialFrom reads X-API-Key, falling back to an Authorization Bearer value.
func credentialFrom(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// Credential returns the raw credential of r, verified or not.
func Credential(r *http.Request) string {
	return credentialFrom(r)
}

// Identify returns the caller of r when it presented a credential that
// authenticates. It never reports LocalUser.
func (a *Authenticator) Identify(r *http.Request) (*User, bool) {
	if !a.Enabled() || credentialFrom(r) == "" {
		return nil, false
	}
	user, err := a.Authenticate(r)
	if err != nil {
		return nil, false
	}
	return user, true
}

// MaskCredential keeps the first eight characters of long credentials.
func MaskCredential(credential string) string {
	if len(credential) <= 8 {
		return "****"
	}
	return credential[:8] + "****"
}
