package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/transport"
	"github.com/frahmantamala/campaign-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err, "login")
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// AuthMiddleware resolves the bearer token into a User on the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, internal.NewUnauthorizedError("Missing authorization token", internal.ErrCodeInvalidToken))
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.HandleServiceError(w, err, "validate token")
			return
		}

		uid, err := claims.UserIDInt()
		if err != nil {
			h.HandleServiceError(w, err, "validate token")
			return
		}

		u, err := h.Service.GetUser(r.Context(), uid)
		if err != nil {
			if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeNotFound {
				h.WriteAppError(w, internal.ErrInvalidToken)
				return
			}
			h.HandleServiceError(w, err, "load user")
			return
		}

		ctx := ContextWithUser(r.Context(), u)
		ctx = logger.With(ctx, "userID", u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
