package user

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/campaign-management/internal/auth"
	"github.com/frahmantamala/campaign-management/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("User Handler", func() {
	var handler *Handler

	BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = &Handler{
			BaseHandler: transport.NewBaseHandler(lg),
			Service:     NewService(newMockRepository(), lg),
		}
	})

	It("should return the current user with campaign ids", func() {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: 1, Role: auth.RoleCitizen}))
		w := httptest.NewRecorder()

		handler.GetCurrentUser(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var body User
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.PANCardNumber).To(Equal("ABCDE1234F"))
		Expect(body.CampaignIDs).To(ConsistOf(int64(10), int64(11)))
	})

	It("should return 401 without a principal", func() {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		w := httptest.NewRecorder()

		handler.GetCurrentUser(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should return 404 when the user is gone", func() {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: 404}))
		w := httptest.NewRecorder()

		handler.GetCurrentUser(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
