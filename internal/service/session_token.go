package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

// ErrorSessionTTL bounds the lifetime of a session that only carries an
// error marker.
const ErrorSessionTTL = 5 * time.Minute

// Claim fallbacks applied when a token field is missing or mistyped.
const (
	FallbackUserID   = "unknown_id"
	FallbackUsername = "unknown_user"
	FallbackEmail    = "unknown@example.com"
	FallbackName     = "Unknown User"
	FallbackRole     = models.RoleTeacher
)

// TokenConfig configures the session token issuer.
type TokenConfig struct {
	Secret       string
	Issuer       string
	Expiration   time.Duration
	RefreshAfter time.Duration
}

// TokenIssuer signs and hydrates HS256 session tokens. An issuer built
// without a secret is sealed: it signs nothing and accepts nothing.
type TokenIssuer struct {
	secret       []byte
	issuer       string
	expiration   time.Duration
	refreshAfter time.Duration
	now          func() time.Time
}

type sessionClaims struct {
	ID       string          `json:"id,omitempty"`
	Username string          `json:"username,omitempty"`
	Email    string          `json:"email,omitempty"`
	Name     string          `json:"name,omitempty"`
	Role     models.UserRole `json:"role,omitempty"`
	Picture  string          `json:"picture,omitempty"`
	Error    string          `json:"error,omitempty"`
	jwt.RegisteredClaims
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	if cfg.Expiration <= 0 {
		cfg.Expiration = 24 * time.Hour
	}
	if cfg.RefreshAfter <= 0 {
		cfg.RefreshAfter = time.Hour
	}
	return &TokenIssuer{
		secret:       []byte(cfg.Secret),
		issuer:       cfg.Issuer,
		expiration:   cfg.Expiration,
		refreshAfter: cfg.RefreshAfter,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Sealed reports whether the issuer was built without a signing secret.
func (t *TokenIssuer) Sealed() bool {
	return t == nil || len(t.secret) == 0
}

// Expiration returns the validity window of regular session tokens.
func (t *TokenIssuer) Expiration() time.Duration {
	return t.expiration
}

// Issue signs a session token for identity.
func (t *TokenIssuer) Issue(identity models.Identity) (string, time.Time, error) {
	if t.Sealed() {
		return "", time.Time{}, appErrors.ErrAuthUnavailable
	}
	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.expiration)
	claims := sessionClaims{
		ID:               identity.ID,
		Username:         identity.Username,
		Email:            identity.Email,
		Name:             identity.Name,
		Role:             identity.Role,
		Picture:          identity.Picture,
		RegisteredClaims: t.registered(identity.ID, issuedAt, expiresAt),
	}
	return t.sign(claims, expiresAt)
}

// IssueError signs a token that only carries an error marker. Hydrating it
// yields a short-lived session exposing the marker and granting no access.
func (t *TokenIssuer) IssueError(marker string) (string, time.Time, error) {
	if t.Sealed() {
		return "", time.Time{}, appErrors.ErrAuthUnavailable
	}
	issuedAt := t.now()
	expiresAt := issuedAt.Add(ErrorSessionTTL)
	claims := sessionClaims{
		Error:            marker,
		RegisteredClaims: t.registered("", issuedAt, expiresAt),
	}
	return t.sign(claims, expiresAt)
}

// NeedsRefresh reports whether a valid session is older than the refresh
// cadence and should be re-signed.
func (t *TokenIssuer) NeedsRefresh(session *models.Session) bool {
	if !session.Authenticated() || session.IssuedAt.IsZero() {
		return false
	}
	return t.now().Sub(session.IssuedAt) >= t.refreshAfter
}

// Hydrate verifies raw and rebuilds the session it carries. Any signature,
// algorithm or expiry failure yields an error and no session.
func (t *TokenIssuer) Hydrate(raw string) (*models.Session, error) {
	if t.Sealed() {
		return nil, appErrors.ErrAuthUnavailable
	}
	if raw == "" {
		return nil, appErrors.ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
		jwt.WithJSONNumber(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session token")
	}

	session := &models.Session{}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		session.IssuedAt = iat.Time.UTC()
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time.UTC()
	}

	if marker, ok := claims["error"].(string); ok && marker != "" {
		session.Error = marker
		if !session.IssuedAt.IsZero() {
			session.ExpiresAt = minTime(session.ExpiresAt, session.IssuedAt.Add(ErrorSessionTTL))
		}
		if !t.now().Before(session.ExpiresAt) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
		}
		return session, nil
	}

	session.User, session.Fallbacks = decodeIdentity(claims)
	return session, nil
}

func (t *TokenIssuer) registered(subject string, issuedAt, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
}

func (t *TokenIssuer) sign(claims sessionClaims, expiresAt time.Time) (string, time.Time, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// claimField describes how one claim is decoded into the identity and what
// replaces it when the claim is missing or has the wrong type. An optional
// claim that is absent takes its fallback without being reported.
type claimField struct {
	name     string
	optional bool
	decode   func(v interface{}) (string, bool)
	fallback func(id *models.Identity) string
	assign   func(id *models.Identity, v string)
}

// identitySchema is evaluated in order; name depends on username.
var identitySchema = []claimField{
	{
		name:     "id",
		decode:   idClaim,
		fallback: constant(FallbackUserID),
		assign:   func(id *models.Identity, v string) { id.ID = v },
	},
	{
		name:     "username",
		decode:   stringClaim,
		fallback: constant(FallbackUsername),
		assign:   func(id *models.Identity, v string) { id.Username = v },
	},
	{
		name:     "email",
		decode:   stringClaim,
		fallback: constant(FallbackEmail),
		assign:   func(id *models.Identity, v string) { id.Email = v },
	},
	{
		name:   "name",
		decode: stringClaim,
		fallback: func(id *models.Identity) string {
			if id.Username != "" && id.Username != FallbackUsername {
				return id.Username
			}
			return FallbackName
		},
		assign: func(id *models.Identity, v string) { id.Name = v },
	},
	{
		name:     "role",
		decode:   roleClaim,
		fallback: constant(string(FallbackRole)),
		assign:   func(id *models.Identity, v string) { id.Role = models.UserRole(v) },
	},
	{
		name:     "picture",
		optional: true,
		decode: func(v interface{}) (string, bool) {
			s, ok := v.(string)
			return s, ok
		},
		fallback: constant(""),
		assign:   func(id *models.Identity, v string) { id.Picture = v },
	},
}

func decodeIdentity(claims jwt.MapClaims) (models.Identity, []string) {
	var identity models.Identity
	var fallbacks []string
	for _, field := range identitySchema {
		raw, present := claims[field.name]
		value, ok := "", false
		if present {
			value, ok = field.decode(raw)
		}
		if !ok {
			value = field.fallback(&identity)
			if present || !field.optional {
				fallbacks = append(fallbacks, field.name)
			}
		}
		field.assign(&identity, value)
	}
	return identity, fallbacks
}

func constant(v string) func(*models.Identity) string {
	return func(*models.Identity) string { return v }
}

func stringClaim(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func idClaim(v interface{}) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return strconv.FormatInt(n, 10), true
		}
		return "", false
	case float64:
		if id != math.Trunc(id) || math.IsInf(id, 0) {
			return "", false
		}
		return strconv.FormatInt(int64(id), 10), true
	default:
		return "", false
	}
}

func roleClaim(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok || !models.UserRole(s).Valid() {
		return "", false
	}
	return s, true
}

func minTime(a, b time.Time) time.Time {
	if a.IsZero() || b.Before(a) {
		return b
	}
	return a
}

// IsSessionUnavailable reports whether err comes from a sealed issuer.
func IsSessionUnavailable(err error) bool {
	return errors.Is(err, appErrors.ErrAuthUnavailable)
}
