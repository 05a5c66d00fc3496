package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/logger"
)

const (
	sessionIDKey   = "console_sid"
	credentialsKey = "backend_credentials"

	sessionIssuer = "a2a-console"
)

var (
	ErrInvalidToken = errors.New("invalid console session token")
	ErrMissingSID   = errors.New("missing session id in token")
)

// Sessions signs and verifies the console session cookie. The cookie only
// names the console session; backend cookies travel next to it untouched.
type Sessions struct {
	secret []byte
	cookie string
	ttl    time.Duration
}

// NewSessions creates the session cookie codec. ttl is the cookie lifetime;
// zero makes it a browser-session cookie.
func NewSessions(secret, cookie string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), cookie: cookie, ttl: ttl}
}

// CookieName returns the console cookie name
func (s *Sessions) CookieName() string {
	return s.cookie
}

// Sign issues a token for sid
func (s *Sessions) Sign(sid string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:       sid,
		Issuer:   sessionIssuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify returns the session id carried by a token
func (s *Sessions) Verify(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.ID == "" {
		return "", ErrMissingSID
	}
	return claims.ID, nil
}

// ConsoleSession attaches a console session id to every request, issuing a
// fresh signed cookie when none or an invalid one arrived. It also collects
// the remaining cookies as the backend credentials of the request.
func ConsoleSession(s *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := ""
		if raw, err := c.Cookie(s.cookie); err == nil && raw != "" {
			if id, err := s.Verify(raw); err == nil {
				sid = id
			} else {
				logger.WithFields(map[string]interface{}{
					"path":  c.Request.URL.Path,
					"error": err.Error(),
				}).Debug("Discarding console session cookie")
			}
		}

		if sid == "" {
			sid = uuid.NewString()
			token, err := s.Sign(sid, time.Now())
			if err != nil {
				logger.WithField("error", err.Error()).Error("Failed to issue console session")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "session_error",
					"message": "Failed to start console session",
				})
				return
			}
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     s.cookie,
				Value:    token,
				Path:     "/",
				MaxAge:   int(s.ttl.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		c.Set(sessionIDKey, sid)
		c.Set(credentialsKey, backendCredentials(c.Request, s.cookie))
		c.Next()
	}
}

func backendCredentials(r *http.Request, consoleCookie string) backend.Credentials {
	var creds backend.Credentials
	for _, cookie := range r.Cookies() {
		if cookie.Name == consoleCookie {
			continue
		}
		creds = append(creds, &http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	return creds
}

// SessionID returns the console session id set by ConsoleSession
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// Credentials returns the backend cookies of the request
func Credentials(c *gin.Context) backend.Credentials {
	if v, ok := c.Get(credentialsKey); ok {
		if creds, ok := v.(backend.Credentials); ok {
			return creds
		}
	}
	return nil
}
