// Package session ties a browser to an authenticated Identity through a signed
// JWT cookie, and carries one-shot flash messages in a second signed cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"cellscan/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
)

var ErrInvalidToken = errors.New("invalid token")

type Options struct {
	Secret          string
	CookieName      string
	FlashCookieName string
	TTL             time.Duration
	Secure          bool
}

// Manager issues and verifies session tokens. It is safe for concurrent use.
type Manager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool

	flashName string
	flashes   *sessions.CookieStore
}

func NewManager(o Options) *Manager {
	store := sessions.NewCookieStore([]byte(o.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{
		secret:     []byte(o.Secret),
		cookieName: o.CookieName,
		ttl:        o.TTL,
		secure:     o.Secure,
		flashName:  o.FlashCookieName,
		flashes:    store,
	}
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}

// IssueToken signs a token for id that expires after the session TTL.
func (m *Manager) IssueToken(id models.Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   id.UserID,
		Username: id.Username,
	})
	return token.SignedString(m.secret)
}

// ParseToken verifies a token and returns the identity it carries.
func (m *Manager) ParseToken(accessToken string) (models.Identity, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return models.Identity{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return models.Identity{}, ErrInvalidToken
	}
	return models.Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

// Start sets the session cookie for id.
func (m *Manager) Start(w http.ResponseWriter, id models.Identity) error {
	token, err := m.IssueToken(id)
	if err != nil {
		return fmt.Errorf("issue session token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		Expires:  time.Now().Add(m.ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Current returns the identity of the request's session cookie, if valid.
func (m *Manager) Current(r *http.Request) (models.Identity, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return models.Identity{}, false
	}
	id, err := m.ParseToken(c.Value)
	if err != nil {
		return models.Identity{}, false
	}
	return id, true
}

// End expires the session and flash cookies.
func (m *Manager) End(w http.ResponseWriter) {
	for _, name := range []string{m.cookieName, m.flashName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
