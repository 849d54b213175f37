package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/infra/security"
)

const sessionCookie = "__session"

type SessionConfig struct {
	Secret       string
	CookieDomain string
	SecureCookie bool
	TTL          time.Duration
}

// SessionManager mints and reads the signed session cookie set after sign-in.
type SessionManager struct {
	secret []byte
	domain string
	secure bool
	ttl    time.Duration
	sealer *security.Sealer
}

func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	sealer, err := security.NewSealer(cfg.Secret)
	if err != nil {
		return nil, err
	}
	return &SessionManager{
		secret: []byte(cfg.Secret),
		domain: cfg.CookieDomain,
		secure: cfg.SecureCookie,
		ttl:    cfg.TTL,
		sealer: sealer,
	}, nil
}

// SessionClaims identify the signed-in user. SID and CT are the identity
// provider's session id and client token, sealed so the cookie does not
// expose them. Sign-out needs both to end the provider session.
type SessionClaims struct {
	Email string `json:"email"`
	SID   string `json:"sid"`
	CT    string `json:"ct,omitempty"`
	jwt.RegisteredClaims
}

// Session is the decoded view of a valid cookie.
type Session struct {
	UserID      string
	Email       string
	SessionID   string
	ClientToken string
	ExpiresAt   time.Time
}

// ProviderSession is what the identity provider knows the session by.
type ProviderSession struct {
	ID          string
	ClientToken string
}

func (m *SessionManager) Mint(w http.ResponseWriter, userID, email string, ps ProviderSession) (string, error) {
	sid, err := m.sealer.Seal(ps.ID)
	if err != nil {
		return "", err
	}
	var ct string
	if ps.ClientToken != "" {
		if ct, err = m.sealer.Seal(ps.ClientToken); err != nil {
			return "", err
		}
	}
	now := time.Now()
	claims := SessionClaims{
		Email: email,
		SID:   sid,
		CT:    ct,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Subject:   userID,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return signed, nil
}

func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest accepts a bearer token or the session cookie.
func (m *SessionManager) FromRequest(r *http.Request) (*Session, error) {
	if hdr := r.Header.Get("Authorization"); len(hdr) > 7 && strings.EqualFold(hdr[:7], "bearer ") {
		return m.parse(strings.TrimSpace(hdr[7:]))
	}
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return m.parse(c.Value)
	}
	return nil, domain.ErrUnauthenticated
}

func (m *SessionManager) parse(tok string) (*Session, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	sid, err := m.sealer.Open(claims.SID)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	s := &Session{UserID: claims.Subject, Email: claims.Email, SessionID: sid}
	if claims.CT != "" {
		if s.ClientToken, err = m.sealer.Open(claims.CT); err != nil {
			return nil, domain.ErrUnauthenticated
		}
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
