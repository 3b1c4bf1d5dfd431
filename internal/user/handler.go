package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/auth"
	"github.com/frahmantamala/campaign-management/internal/transport"
	"github.com/frahmantamala/campaign-management/pkg/logger"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
}

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

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Unauthorized", internal.ErrCodeInvalidToken))
		return
	}

	u, err := h.Service.GetByID(r.Context(), principal.ID)
	if err != nil {
		h.HandleServiceError(w, err, "get current user")
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}
