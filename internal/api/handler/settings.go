package handler

import (
	"net/http"

	"github.com/doublemoney-pro/doublemoney/internal/config"
)

// SettingsHandler serves read-only platform settings.
type SettingsHandler struct {
	social config.SocialLinks
}

func NewSettingsHandler(social config.SocialLinks) *SettingsHandler {
	return &SettingsHandler{social: social}
}

// SocialLinks handles GET /v1/settings/social-links
func (h *SettingsHandler) SocialLinks(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.social)
}
