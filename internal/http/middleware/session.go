// Package middleware – cookie sessions and the per-request session guard.
//
// This file implements the authentication layer of the HTTP surface. A signed
// cookie session (gorilla/sessions) carries the principal between requests;
// the session guard re-validates that principal against the database and the
// realtime hub's forced-logout markers on EVERY request, so a deleted or
// blocked account loses access immediately even though the cookie itself
// cannot be revoked server-side.
//
// Ordering: SessionGuard must run before RequireAuth / RequireRole; the
// guard resolves and validates the principal, the Require* middlewares only
// gate on its presence and role.
package middleware

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"gorm.io/gorm"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
	"github.com/sino99/cafe-safar-ver1/internal/realtime"
	"github.com/sino99/cafe-safar-ver1/internal/repo"
)

// SessionName is the cookie carrying the signed session.
const SessionName = "cafe_session"

// principalKey is the Gin context key the guard stores the principal under.
const principalKey = "principal"

// Principal is the authenticated identity resolved from the session cookie.
type Principal struct {
	UserID uint
	Login  string
	Role   string
}

// ForcedOutChecker is the hub surface the session guard consumes.
// *realtime.Hub satisfies it.
type ForcedOutChecker interface {
	RecentlyForcedOut(userID uint) (string, bool)
	ForceLogout(userID uint, reason string) bool
}

// Sessions wraps the signed cookie store and the session read/write helpers
// shared by the guard and the auth handlers.
type Sessions struct {
	store *sessions.CookieStore
}

// NewSessions builds the cookie store. sameSite accepts "lax", "strict", or
// "none"; anything else falls back to lax.
func NewSessions(secret string, maxAge time.Duration, secure bool, sameSite string) *Sessions {
	// Sign with the raw secret, encrypt with a derived AES-256 key so the
	// payload (login, role) is opaque to the client.
	blockKey := sha256.Sum256([]byte(secret))
	store := sessions.NewCookieStore([]byte(secret), blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: parseSameSite(sameSite),
	}
	return &Sessions{store: store}
}

func parseSameSite(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// SignIn writes the user's identity into a fresh session cookie.
func (s *Sessions) SignIn(c *gin.Context, u *domain.User) error {
	sess, _ := s.store.Get(c.Request, SessionName)
	sess.Values["user_id"] = u.ID
	sess.Values["login"] = u.Login
	sess.Values["role"] = u.Role
	return sess.Save(c.Request, c.Writer)
}

// SignOut expires the session cookie.
func (s *Sessions) SignOut(c *gin.Context) error {
	sess, _ := s.store.Get(c.Request, SessionName)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request, c.Writer)
}

// principal decodes the session cookie; ok is false for anonymous requests
// and for cookies that fail signature verification.
func (s *Sessions) principal(c *gin.Context) (Principal, bool) {
	sess, err := s.store.Get(c.Request, SessionName)
	if err != nil || sess.IsNew {
		return Principal{}, false
	}
	id, ok := sess.Values["user_id"].(uint)
	if !ok || id == 0 {
		return Principal{}, false
	}
	login, _ := sess.Values["login"].(string)
	role, _ := sess.Values["role"].(string)
	return Principal{UserID: id, Login: login, Role: role}, true
}

// PrincipalFrom returns the principal the guard resolved for this request.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// guardReject destroys the session and aborts with the given status and code.
func (s *Sessions) guardReject(c *gin.Context, status int, code, message string) {
	_ = s.SignOut(c)
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       code,
		"message":    message,
	})
}

// Guard re-validates the session principal on every request. Anonymous
// requests pass through untouched; authenticated ones are checked against the
// hub's forced-logout markers, account existence, and the block list. A
// failed check destroys the session and rejects the request, so a stale
// cookie for a deleted or blocked account never reaches a handler.
func (s *Sessions) Guard(db *gorm.DB, hub ForcedOutChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := s.principal(c)
		if !ok {
			c.Next()
			return
		}

		// Seeded panel accounts skip the customer checks.
		if p.Role == domain.RoleAdmin || p.Role == domain.RoleOwner {
			c.Set(principalKey, p)
			c.Next()
			return
		}

		if reason, forced := hub.RecentlyForcedOut(p.UserID); forced {
			if reason == realtime.ReasonAccountBlocked {
				s.guardReject(c, http.StatusForbidden, "account_blocked",
					"Ваш аккаунт заблокирован администратором")
			} else {
				s.guardReject(c, http.StatusUnauthorized, "account_deleted",
					"Ваш аккаунт был удален администратором")
			}
			return
		}

		exists, err := repo.UserExists(c.Request.Context(), db, p.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "internal_error",
				"message":    "Внутренняя ошибка сервера",
			})
			return
		}
		if !exists {
			hub.ForceLogout(p.UserID, realtime.ReasonAccountDeleted)
			s.guardReject(c, http.StatusUnauthorized, "account_deleted",
				"Ваш аккаунт был удален администратором")
			return
		}

		blocked, err := repo.IsBlocked(c.Request.Context(), db, p.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "internal_error",
				"message":    "Внутренняя ошибка сервера",
			})
			return
		}
		if blocked {
			hub.ForceLogout(p.UserID, realtime.ReasonAccountBlocked)
			s.guardReject(c, http.StatusForbidden, "account_blocked",
				"Ваш аккаунт заблокирован администратором")
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireAuth rejects requests that carry no validated principal.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := PrincipalFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "unauthorized",
				"message":    "Требуется авторизация",
			})
			return
		}
		c.Next()
	}
}

// RequireRole rejects requests whose principal does not hold one of the
// given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "unauthorized",
				"message":    "Требуется авторизация",
			})
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "forbidden",
			"message":    "Недостаточно прав",
		})
	}
}
