package campaign

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/auth"
	"github.com/frahmantamala/campaign-management/internal/campaign/export"
	"github.com/frahmantamala/campaign-management/internal/transport"
	"github.com/frahmantamala/campaign-management/pkg/logger"
)

type ServiceAPI interface {
	Upload(ctx context.Context, uploaderID int64, r io.Reader) (*UploadResult, error)
	Get(ctx context.Context, id int64) (*Campaign, error)
	Edit(ctx context.Context, id int64, dto EditCampaignDTO) (*EditResult, error)
	DeleteRow(ctx context.Context, id int64, rowIndex int) (*DeleteRowResult, error)
	SetStatus(ctx context.Context, id int64, status string, actorID int64) (*StatusResult, error)
	List(ctx context.Context) ([]Summary, error)
	ListMine(ctx context.Context, userID int64) ([]Summary, error)
	ExportRows(ctx context.Context, id int64) (*export.Table, error)
}

const (
	uploadFormField   = "file"
	multipartMemLimit = 1 << 20
)

type Handler struct {
	*transport.BaseHandler
	Service        ServiceAPI
	MaxUploadBytes int64
}

func NewHandler(service ServiceAPI, maxUploadBytes int64) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = internal.DefaultUploadMaxBytes
	}
	return &Handler{
		BaseHandler:    transport.NewBaseHandler(lg),
		Service:        service,
		MaxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Unauthorized", internal.ErrCodeInvalidToken))
		return nil, false
	}
	return u, true
}

func (h *Handler) campaignID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, appErr := h.ParseIDParam(r, "id", internal.ErrInvalidCampaignID)
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return 0, false
	}
	return id, true
}

// UploadCampaigns handles POST /campaigns/upload
func (h *Handler) UploadCampaigns(w http.ResponseWriter, r *http.Request) {
	user, ok := h.principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteAppError(w, internal.ErrUploadTooLarge.WithDetails(map[string]interface{}{"maxBytes": h.MaxUploadBytes}))
			return
		}
		h.WriteAppError(w, internal.ErrNoFile.WithCause(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		h.WriteAppError(w, internal.ErrNoFile)
		return
	}
	defer file.Close()

	h.Logger.Info("campaign upload received",
		"user_id", user.ID,
		"filename", header.Filename,
		"size", header.Size)

	result, err := h.Service.Upload(r.Context(), user.ID, file)
	if err != nil {
		h.HandleServiceError(w, err, "upload campaigns")
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// ListCampaigns handles GET /campaigns
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}

	list, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err, "list campaigns")
		return
	}
	h.WriteJSON(w, http.StatusOK, list)
}

// ListMyCampaigns handles GET /campaigns/mine
func (h *Handler) ListMyCampaigns(w http.ResponseWriter, r *http.Request) {
	user, ok := h.principal(w, r)
	if !ok {
		return
	}

	list, err := h.Service.ListMine(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, err, "list own campaigns")
		return
	}
	h.WriteJSON(w, http.StatusOK, list)
}

// GetCampaign handles GET /campaigns/{id}
func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	c, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err, "get campaign")
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

// EditCampaign handles PATCH /campaigns/{id}
func (h *Handler) EditCampaign(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	var dto EditCampaignDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	result, err := h.Service.Edit(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err, "edit campaign")
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

// DeleteCampaignRow handles DELETE /campaigns/{id}/rows
func (h *Handler) DeleteCampaignRow(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	var dto DeleteRowDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err, "delete campaign row")
		return
	}

	result, err := h.Service.DeleteRow(r.Context(), id, *dto.RowIndex)
	if err != nil {
		h.HandleServiceError(w, err, "delete campaign row")
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

// SetCampaignStatus handles POST /campaigns/{id}/status
func (h *Handler) SetCampaignStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	var dto SetStatusDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	result, err := h.Service.SetStatus(r.Context(), id, dto.Status, user.ID)
	if err != nil {
		h.HandleServiceError(w, err, "set campaign status")
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

// ExportCampaign handles GET /campaigns/{id}/export?format=csv|xlsx
func (h *Handler) ExportCampaign(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.WriteAppError(w, internal.NewValidationFieldError("format", err.Error(), internal.ErrCodeValidationFailed))
		return
	}

	table, err := h.Service.ExportRows(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err, "export campaign")
		return
	}

	var buf bytes.Buffer
	if err := export.Encode(&buf, table, format, "Campaign"); err != nil {
		h.HandleError(w, err, "encode campaign export")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=campaign_%d.%s", id, format.Extension()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Error("failed to write export", "error", err, "campaign_id", id)
	}
}
