package middleware

import (
	"net/http"
	"time"

	"github.com/creamcroissant/vpnadmin/internal/api/requestctx"
	"github.com/creamcroissant/vpnadmin/internal/support/i18n"
)

// I18n middleware detects the caller's preferred language and stores it in the context.
// Order: ?lang → X-I18N-Lang → i18next cookie → Accept-Language.
func I18n(manager *i18n.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			explicit := r.URL.Query().Get("lang")
			raw := explicit
			if raw == "" {
				raw = r.Header.Get("X-I18N-Lang")
			}
			if raw == "" {
				if cookie, err := r.Cookie("i18next"); err == nil {
					raw = cookie.Value
				}
			}
			if raw == "" {
				raw = r.Header.Get("Accept-Language")
			}

			// Match 同时处理大小写和 zh → zh-CN 这类近似匹配
			lang := "en-US"
			if manager != nil {
				lang = manager.Match(raw)
			}

			if explicit != "" {
				http.SetCookie(w, &http.Cookie{
					Name:    "i18next",
					Value:   lang,
					Path:    "/",
					Expires: time.Now().Add(365 * 24 * time.Hour),
				})
			}

			next.ServeHTTP(w, r.WithContext(requestctx.WithLanguage(r.Context(), lang)))
		})
	}
}
