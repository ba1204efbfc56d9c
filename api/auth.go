package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"kanmind-api/domain"
	"kanmind-api/storage"
)

const defaultTokenTTL = 24 * time.Hour

// Auth verifies bearer tokens and, in local mode, issues them. Two modes:
// RS256 against a JWKS endpoint when an external identity provider owns
// the accounts, or HS256 with a shared secret when this service issues its
// own tokens at login.
type Auth struct {
	JWKS     *keyfunc.JWKS
	Audience string
	Issuer   string
	Secret   []byte
	TokenTTL time.Duration

	parser *jwt.Parser
}

// Claims is the subset of verified token claims the service acts on.
type Claims struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

// NewAuth creates an Auth instance. Exactly one of jwks or secret must be
// provided; the choice fixes the accepted signing method.
func NewAuth(jwks *keyfunc.JWKS, audience, issuer string, secret []byte, ttl time.Duration) *Auth {
	if (jwks == nil) == (len(secret) == 0) {
		panic("api.NewAuth: configure either a JWKS or a local secret")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	a := &Auth{JWKS: jwks, Audience: audience, Issuer: issuer, Secret: secret, TokenTTL: ttl}
	if jwks != nil {
		a.parser = jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	} else {
		a.parser = jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	}
	return a
}

// IssueToken signs a fresh HS256 token for the given account. The jti is
// the revocation handle used at logout.
func (a *Auth) IssueToken(userID int64) (string, error) {
	if len(a.Secret) == 0 {
		return "", errors.New("token issuance requires local auth mode")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(a.TokenTTL).Unix(),
	}
	if a.Audience != "" {
		claims["aud"] = a.Audience
	}
	if a.Issuer != "" {
		claims["iss"] = a.Issuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.Secret)
}

// ClaimsFromToken verifies a raw token and extracts the claims the service
// needs. Verification failures are all surfaced as authentication errors.
func (a *Auth) ClaimsFromToken(tokenStr string) (Claims, error) {
	var parsed *jwt.Token
	var err error
	if a.JWKS != nil {
		parsed, err = a.parser.Parse(tokenStr, a.JWKS.Keyfunc)
	} else {
		parsed, err = a.parser.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return a.Secret, nil
		})
	}
	if err != nil {
		return Claims{}, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid claims")
	}
	now := time.Now().Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return Claims{}, errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return Claims{}, errors.New("token not valid yet")
	}
	if a.Audience != "" && !claims.VerifyAudience(a.Audience, true) {
		return Claims{}, errors.New("invalid audience")
	}
	if a.Issuer != "" && !claims.VerifyIssuer(a.Issuer, true) {
		return Claims{}, errors.New("invalid issuer")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Claims{}, errors.New("missing sub")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("invalid sub: %w", err)
	}

	out := Claims{UserID: userID}
	if jti, ok := claims["jti"].(string); ok {
		out.TokenID = jti
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return out, nil
}

// Resolver turns an Authorization header into a Principal: token
// verification, revocation check, then a live account lookup so the
// superuser flag always reflects the current row.
type Resolver struct {
	Auth    *Auth
	Users   UserSource
	Revoked Revoker
}

// UserSource is the slice of the store the resolver needs.
type UserSource interface {
	UserByID(ctx context.Context, id int64) (storage.User, error)
}

// Claims verifies the presented token without touching the store.
func (r *Resolver) Claims(authHeader string) (Claims, error) {
	token, err := bearerTokenFromString(authHeader)
	if err != nil {
		return Claims{}, err
	}
	return r.Auth.ClaimsFromToken(token)
}

// Principal implements Authenticator.
func (r *Resolver) Principal(ctx context.Context, authHeader string) (domain.Principal, error) {
	claims, err := r.Claims(authHeader)
	if err != nil {
		return domain.Principal{}, err
	}
	if r.Revoked != nil && claims.TokenID != "" {
		revoked, err := r.Revoked.Revoked(ctx, claims.TokenID)
		if err != nil {
			return domain.Principal{}, fmt.Errorf("revocation check: %w", err)
		}
		if revoked {
			return domain.Principal{}, errTokenRevoked
		}
	}
	user, err := r.Users.UserByID(ctx, claims.UserID)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("resolve account: %w", err)
	}
	return user.Principal(), nil
}
