package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"sort"
	"strings"

	"accounting/internal/models"
)

// FlashCookieName holds notices that survive one redirect.
const FlashCookieName = "flash"

func (h *Handlers) addFlash(w http.ResponseWriter, messages ...string) {
	if len(messages) == 0 {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(strings.Join(messages, "\n"))),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes returns pending notices and clears them.
func (h *Handlers) popFlashes(w http.ResponseWriter, r *http.Request) []string {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil || len(raw) == 0 {
		return nil
	}
	return strings.Split(string(raw), "\n")
}

// validationMessages turns a validation error into one notice per field.
func validationMessages(err error) []string {
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}

	fields := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		label := strings.ReplaceAll(f, "_", " ")
		msgs = append(msgs, strings.ToUpper(label[:1])+label[1:]+" "+verr.Fields[f]+".")
	}
	return msgs
}
