package profile

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/logify-app/logify/internal/auth"
	"github.com/logify-app/logify/internal/platform/httpx"
	"github.com/logify-app/logify/internal/shared"
)

// Handler wires HTTP endpoints for profile management. All routes sit behind
// the authorization gate.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    auth.Gate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers profile routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/profile", func(r chi.Router) {
		r.Use(h.gate.RequireUser)
		r.Get("/", h.handleGet)
		r.Put("/", h.handleUpdate)
		r.Put("/oauth", h.handleUpdateOAuth)
		r.Delete("/", h.handleDelete)
	})
}

type updateRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	Email     string `json:"email"`
}

type updateOAuthRequest struct {
	GitHubID     string `json:"githubId"`
	GoogleID     string `json:"googleId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	AvatarURL    string `json:"avatarUrl"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	principal, err := h.currentPrincipal(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Get(r.Context(), principal.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, err := h.currentPrincipal(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	result, err := h.service.Update(r.Context(), principal.ID, UpdateParams{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
		Email:     req.Email,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleUpdateOAuth(w http.ResponseWriter, r *http.Request) {
	principal, err := h.currentPrincipal(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateOAuthRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	result, err := h.service.UpdateOAuth(r.Context(), principal.ID, OAuthParams{
		GitHubID:     req.GitHubID,
		GoogleID:     req.GoogleID,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		AvatarURL:    req.AvatarURL,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	principal, err := h.currentPrincipal(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), principal.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) currentPrincipal(r *http.Request) (*shared.Principal, error) {
	return h.gate.Authorize(shared.SessionFromContext(r.Context()))
}
