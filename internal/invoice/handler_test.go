package invoice

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/frahmantamala/campaign-management/internal/campaign"
	"github.com/frahmantamala/campaign-management/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Invoice Handler", func() {
	var (
		lister  *stubLister
		handler *Handler
	)

	BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		lister = &stubLister{}
		handler = &Handler{
			BaseHandler: transport.NewBaseHandler(lg),
			Service:     NewService(lister, &recordingStubs{}, lg, time.Second),
		}
	})

	It("should list invoice views", func() {
		lister.campaigns = []*campaign.Campaign{record(7, 3, "Autumn", campaign.StatusApproved, uploaded)}
		w := httptest.NewRecorder()

		handler.ListInvoices(w, httptest.NewRequest(http.MethodGet, "/invoices", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		var body []map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body).To(HaveLen(1))
		Expect(body[0]["campaignName"]).To(Equal("Autumn"))
		Expect(body[0]["uploadedDate"]).To(Equal("2024-03-09"))
		Expect(body[0]["userId"]).To(BeNumerically("==", 3))
	})

	It("should return 404 when nothing is stored", func() {
		w := httptest.NewRecorder()

		handler.ListInvoices(w, httptest.NewRequest(http.MethodGet, "/invoices", nil))

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("NO_CAMPAIGNS"))
	})
})
