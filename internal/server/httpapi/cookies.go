package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
)

// CookieConfig controls the refresh cookie. The cookie is always HttpOnly,
// SameSite=Lax and scoped to "/".
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

func (c CookieConfig) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.MaxAge.Seconds()),
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

func refreshFromRequest(r *http.Request) string {
	c, err := r.Cookie(common.RefreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
