package invoice

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/campaign-management/internal/transport"
	"github.com/frahmantamala/campaign-management/pkg/logger"
)

type ServiceAPI interface {
	ListInvoices(ctx context.Context) ([]View, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// ListInvoices handles GET /invoices
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.ListInvoices(r.Context())
	if err != nil {
		h.HandleServiceError(w, err, "list invoices")
		return
	}
	h.WriteJSON(w, http.StatusOK, views)
}
