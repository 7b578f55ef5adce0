package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/logify-app/logify/internal/platform/httpx"
	"github.com/logify-app/logify/internal/shared"
)

// IdentityVerifier produces a verified ProviderIdentity from a callback
// request. The OAuth handshake itself (redirects, token exchange) happens
// upstream; the core only consumes its result.
type IdentityVerifier interface {
	Verify(ctx context.Context, r *http.Request) (*ProviderIdentity, error)
}

// ProviderRoute pairs a configured provider with its verifier.
type ProviderRoute struct {
	Provider Provider
	Verifier IdentityVerifier
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	sessions    *shared.SessionManager
	gate        Gate
	validator   *validator.Validate
	frontendURL string
	providers   []ProviderRoute
}

// NewHandler constructs a Handler instance. Only routes for providers in the
// providers slice are mounted.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, frontendURL string, providers []ProviderRoute) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if frontendURL == "" {
		frontendURL = "/"
	}
	return &Handler{
		logger:      logger,
		service:     service,
		sessions:    sessions,
		validator:   validator.New(),
		frontendURL: frontendURL,
		providers:   providers,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/register", h.handleRegister)
	r.With(h.gate.RequireUser).Post("/auth/logout", h.handleLogout)
	r.Get("/auth/check-session", h.handleCheckSession)
	for _, route := range h.providers {
		r.Get("/auth/"+route.Provider.Name+"/callback", h.callbackHandler(route))
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"omitempty,max=100"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and password are required")
		return
	}

	principal, err := h.service.Validate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	h.establishSession(r, principal)
	httpx.JSON(w, http.StatusOK, true)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and password are required")
		return
	}

	principal, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	h.establishSession(r, principal)
	httpx.JSON(w, http.StatusCreated, map[string]*shared.Principal{"user": principal})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session audit", slog.Any("error", err))
		}
		if err := h.sessions.Destroy(r.Context(), sess); err != nil {
			h.logger.Error("destroy session", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
	}
	httpx.NoContent(w)
}

func (h *Handler) handleCheckSession(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, sess.Principal() != nil)
}

func (h *Handler) callbackHandler(route ProviderRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := route.Verifier.Verify(r.Context(), r)
		if err != nil {
			h.logger.Warn("provider verification failed",
				slog.String("provider", route.Provider.Name),
				slog.Any("error", err),
			)
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}

		principal, err := h.service.Reconcile(r.Context(), route.Provider, *identity)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}

		h.establishSession(r, principal)
		http.Redirect(w, r, h.frontendURL, http.StatusFound)
	}
}

// establishSession binds the principal to the request session and records the
// audit entry. A failed audit write is logged, not fatal: the session itself
// lives in the shared cache.
func (h *Handler) establishSession(r *http.Request, principal *shared.Principal) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during authentication")
		return
	}
	sess.SetPrincipal(principal)
	expiresAt := time.Now().Add(h.sessions.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, principal.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session audit", slog.Any("error", err))
	}
}
