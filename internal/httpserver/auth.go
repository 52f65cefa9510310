package httpserver

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gchung00/daily-qt/internal/config"
	"github.com/gchung00/daily-qt/internal/httpserver/response"
)

const (
	sessionCookie = "admin_session"
	sessionIssuer = "daily-qt"
)

// Auth issues and checks the admin session cookie. A single shared
// email and PIN pair grants admin rights.
type Auth struct {
	email   string
	pin     string
	secret  []byte
	ttl     time.Duration
	secure  bool
	limiter *ipLimiter
	logger  *slog.Logger
	now     func() time.Time
}

// NewAuth builds the admin authenticator. Login is refused for every
// caller when cfg.Email is empty.
func NewAuth(cfg *config.AdminConfig, secureCookies bool, logger *slog.Logger) (*Auth, error) {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		logger.Warn("admin.session_secret not set, sessions end with the process")
	}

	return &Auth{
		email:   strings.TrimSpace(cfg.Email),
		pin:     cfg.Pin,
		secret:  secret,
		ttl:     cfg.SessionTTL,
		secure:  secureCookies,
		limiter: newIPLimiter(cfg.LoginPerMin),
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Throttle limits login attempts per client.
func (a *Auth) Throttle(next http.Handler) http.Handler {
	return a.limiter.middleware(next)
}

// RequireAdmin rejects requests without a valid session with 401.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.IsAdmin(r) {
			response.Error(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IsAdmin reports whether r carries a valid session cookie.
func (a *Auth) IsAdmin(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return false
	}
	if err := a.verify(c.Value); err != nil {
		a.logger.Debug("rejected admin session", "error", err)
		return false
	}
	return true
}

// Issue signs a session token that expires after the configured TTL.
func (a *Auth) Issue() (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   a.email,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Auth) verify(token string) error {
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	return err
}

func (a *Auth) matches(email, pin string) bool {
	if a.email == "" || a.pin == "" {
		return false
	}
	emailOK := strings.EqualFold(strings.TrimSpace(email), a.email)
	pinOK := subtle.ConstantTimeCompare([]byte(pin), []byte(a.pin)) == 1
	return emailOK && pinOK
}

type loginRequest struct {
	Email string `json:"email"`
	Pin   string `json:"pin"`
}

func (a *Auth) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if !a.matches(req.Email, req.Pin) {
		a.logger.Warn("admin login failed", "remote_ip", clientIP(r))
		response.Error(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	token, err := a.Issue()
	if err != nil {
		a.logger.Error("failed to sign admin session", "error", err)
		response.Error(w, http.StatusInternalServerError, "internal error", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.ttl / time.Second),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	a.logger.Info("admin logged in", "remote_ip", clientIP(r))
	response.Success(w, map[string]bool{"isAdmin": true}, "logged in")
}

func (a *Auth) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	response.Success(w, map[string]bool{"isAdmin": false}, "logged out")
}

func (a *Auth) check(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]bool{"isAdmin": a.IsAdmin(r)}, "")
}
