package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const CookieName = "gourmet_session"

var ErrInvalidToken = errors.New("invalid token")

// Claims identify one browser session. Subject is the signed-in username and
// is empty for anonymous sessions.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.StandardClaims
}

func (c *Claims) Username() string { return c.Subject }

type ctxKey struct{}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}

func NewSessionID() string {
	return uuid.NewString()
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	key    []byte
	ttl    time.Duration
	secure bool
	logger *zap.Logger
	now    func() time.Time
}

func NewIssuer(key []byte, ttl time.Duration, logger *zap.Logger) *Issuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Issuer{key: key, ttl: ttl, logger: logger, now: time.Now}
}

// SecureCookies marks issued cookies Secure, for deployments behind TLS.
func (i *Issuer) SecureCookies(on bool) { i.secure = on }

func (i *Issuer) Issue(sid, username string) (string, error) {
	now := i.now()
	claims := Claims{
		SessionID: sid,
		StandardClaims: jwt.StandardClaims{
			Subject:   username,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(i.ttl).Unix(),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

func (i *Issuer) Parse(s string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(s, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SetCookie issues a fresh token for sid/username and stores it in the session cookie.
func (i *Issuer) SetCookie(w http.ResponseWriter, sid, username string) (*Claims, error) {
	s, err := i.Issue(sid, username)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s,
		Path:     "/",
		MaxAge:   int(i.ttl.Seconds()),
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return &Claims{SessionID: sid, StandardClaims: jwt.StandardClaims{Subject: username}}, nil
}

// Middleware attaches the session claims to every request, starting an
// anonymous session when the cookie is missing or no longer valid.
func (i *Issuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var claims *Claims
		if c, err := r.Cookie(CookieName); err == nil {
			claims, err = i.Parse(c.Value)
			if err != nil {
				i.logger.Debug("discarding session cookie", zap.Error(err))
			}
		}
		if claims == nil {
			var err error
			claims, err = i.SetCookie(w, NewSessionID(), "")
			if err != nil {
				i.logger.Error("start session", zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireUser guards API routes: a bearer token naming a user must be present.
func (i *Issuer) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		claims, err := i.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil || claims.Username() == "" {
			i.logger.Debug("rejecting bearer token", zap.Error(err))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}
