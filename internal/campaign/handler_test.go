package campaign

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/campaign-management/internal/auth"
	"github.com/frahmantamala/campaign-management/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func multipartBody(field, filename, content string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = fw.Write([]byte(content))
	Expect(err).NotTo(HaveOccurred())
	Expect(mw.Close()).To(Succeed())
	return &buf, mw.FormDataContentType()
}

var _ = Describe("Campaign Handler", func() {
	var (
		repo    *memoryRepository
		handler *Handler
		router  chi.Router
		admin   *auth.User
	)

	serve := func(req *http.Request, principal *auth.User) *httptest.ResponseRecorder {
		if principal != nil {
			req = req.WithContext(auth.ContextWithUser(req.Context(), principal))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeError := func(w *httptest.ResponseRecorder) errorBody {
		var body errorBody
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		return body
	}

	seed := func() int64 {
		c := NewCampaign(1, "batch", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
		c.Data.Append(Row{BillName: "Water", Description: "d", StartDate: "s", EndDate: "e",
			PANNumber: "ABCDE1234F", Place: "Pune", CampaignName: "Camp", Amount: "100"})
		Expect(repo.Create(context.Background(), c)).To(Succeed())
		return c.ID
	}

	BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = newMemoryRepository()
		resolver := &staticResolver{owners: map[string]int64{"ABCDE1234F": 1}}
		service := NewService(repo, resolver, nil, lg, Options{MaxRows: 100})
		handler = &Handler{
			BaseHandler:    transport.NewBaseHandler(lg),
			Service:        service,
			MaxUploadBytes: 1 << 20,
		}
		admin = &auth.User{ID: 2, Role: auth.RoleAdmin}

		router = chi.NewRouter()
		router.Post("/campaigns/upload", handler.UploadCampaigns)
		router.Get("/campaigns", handler.ListCampaigns)
		router.Get("/campaigns/mine", handler.ListMyCampaigns)
		router.Get("/campaigns/{id}", handler.GetCampaign)
		router.Patch("/campaigns/{id}", handler.EditCampaign)
		router.Delete("/campaigns/{id}/rows", handler.DeleteCampaignRow)
		router.Post("/campaigns/{id}/status", handler.SetCampaignStatus)
		router.Get("/campaigns/{id}/export", handler.ExportCampaign)
	})

	Describe("UploadCampaigns", func() {
		It("should accept a multipart CSV", func() {
			body, contentType := multipartBody("file", "bills.csv", csvHeader+
				"Water,d,s,e,abcde1234f,Pune,Camp,100\n"+
				"Power,d,s,e,XYZAB9876C,Pune,Camp,200\n")
			req := httptest.NewRequest(http.MethodPost, "/campaigns/upload", body)
			req.Header.Set("Content-Type", contentType)

			w := serve(req, admin)

			Expect(w.Code).To(Equal(http.StatusOK))
			var res UploadResult
			Expect(json.NewDecoder(w.Body).Decode(&res)).To(Succeed())
			Expect(res.ValidData).To(HaveLen(1))
			Expect(res.InvalidPANs).To(Equal([]string{"XYZAB9876C"}))
		})

		It("should return NO_FILE when the file part is missing", func() {
			body, contentType := multipartBody("other", "bills.csv", csvHeader)
			req := httptest.NewRequest(http.MethodPost, "/campaigns/upload", body)
			req.Header.Set("Content-Type", contentType)

			w := serve(req, admin)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Error.Code).To(Equal("NO_FILE"))
		})

		It("should return EMPTY_UPLOAD for a header-only file", func() {
			body, contentType := multipartBody("file", "bills.csv", csvHeader)
			req := httptest.NewRequest(http.MethodPost, "/campaigns/upload", body)
			req.Header.Set("Content-Type", contentType)

			w := serve(req, admin)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Error.Code).To(Equal("EMPTY_UPLOAD"))
		})

		It("should reject a body over the size limit", func() {
			handler.MaxUploadBytes = 64
			body, contentType := multipartBody("file", "bills.csv", csvHeader+strings.Repeat("Water,d,s,e,ABCDE1234F,Pune,Camp,100\n", 20))
			req := httptest.NewRequest(http.MethodPost, "/campaigns/upload", body)
			req.Header.Set("Content-Type", contentType)

			w := serve(req, admin)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Error.Code).To(Equal("UPLOAD_TOO_LARGE"))
		})

		It("should return 401 without a principal", func() {
			body, contentType := multipartBody("file", "bills.csv", csvHeader)
			req := httptest.NewRequest(http.MethodPost, "/campaigns/upload", body)
			req.Header.Set("Content-Type", contentType)

			w := serve(req, nil)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("ListCampaigns", func() {
		It("should list summaries", func() {
			seed()
			w := serve(httptest.NewRequest(http.MethodGet, "/campaigns", nil), admin)

			Expect(w.Code).To(Equal(http.StatusOK))
			var list []map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
			Expect(list).To(HaveLen(1))
			Expect(list[0]["campaign_name"]).To(Equal("Camp"))
			Expect(list[0]["status"]).To(Equal("Pending"))
		})

		It("should list only the caller's records", func() {
			seed()
			w := serve(httptest.NewRequest(http.MethodGet, "/campaigns/mine", nil), &auth.User{ID: 5, Role: auth.RoleCitizen})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(strings.TrimSpace(w.Body.String())).To(Equal("[]"))
		})
	})

	Describe("GetCampaign", func() {
		It("should return the columnar record", func() {
			id := seed()
			w := serve(httptest.NewRequest(http.MethodGet, "/campaigns/"+itoa(id), nil), admin)

			Expect(w.Code).To(Equal(http.StatusOK))
			var c Campaign
			Expect(json.NewDecoder(w.Body).Decode(&c)).To(Succeed())
			Expect(c.Data.BillName).To(Equal([]string{"Water"}))
		})

		It("should reject a non-numeric id", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/campaigns/abc", nil), admin)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Error.Code).To(Equal("INVALID_CAMPAIGN_ID"))
		})

		It("should return 404 for an unknown id", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/campaigns/404", nil), admin)

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(decodeError(w).Error.Code).To(Equal("CAMPAIGN_NOT_FOUND"))
		})
	})

	Describe("EditCampaign", func() {
		It("should apply the update", func() {
			id := seed()
			req := httptest.NewRequest(http.MethodPatch, "/campaigns/"+itoa(id),
				strings.NewReader(`{"updatedData":{"amount":["150"]}}`))

			w := serve(req, admin)

			Expect(w.Code).To(Equal(http.StatusOK))
			c, _ := repo.GetByID(context.Background(), id)
			Expect(c.Data.Amount).To(Equal([]string{"150"}))
		})

		It("should reject malformed JSON", func() {
			id := seed()
			req := httptest.NewRequest(http.MethodPatch, "/campaigns/"+itoa(id), strings.NewReader(`{`))

			w := serve(req, admin)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("DeleteCampaignRow", func() {
		It("should delete the last row and the record", func() {
			id := seed()
			req := httptest.NewRequest(http.MethodDelete, "/campaigns/"+itoa(id)+"/rows", strings.NewReader(`{"rowIndex":0}`))

			w := serve(req, admin)

			Expect(w.Code).To(Equal(http.StatusOK))
			var res DeleteRowResult
			Expect(json.NewDecoder(w.Body).Decode(&res)).To(Succeed())
			Expect(res.CampaignDeleted).To(BeTrue())
			Expect(repo.records).To(BeEmpty())
		})

		It("should reject a missing row index", func() {
			id := seed()
			req := httptest.NewRequest(http.MethodDelete, "/campaigns/"+itoa(id)+"/rows", strings.NewReader(`{}`))

			w := serve(req, admin)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should reject an out of range index", func() {
			id := seed()
			req := httptest.NewRequest(http.MethodDelete, "/campaigns/"+itoa(id)+"/rows", strings.NewReader(`{"rowIndex":5}`))

			w := serve(req, admin)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Error.Code).To(Equal("INVALID_ROW_INDEX"))
		})
	})

	Describe("SetCampaignStatus", func() {
		It("should approve and record the actor", func() {
			id := seed()
			req := httptest.NewRequest(http.MethodPost, "/campaigns/"+itoa(id)+"/status", strings.NewReader(`{"status":"Approved"}`))

			w := serve(req, admin)

			Expect(w.Code).To(Equal(http.StatusOK))
			c, _ := repo.GetByID(context.Background(), id)
			Expect(c.Status).To(Equal(StatusApproved))
			Expect(*c.StatusHistory[len(c.StatusHistory)-1].ChangedBy).To(Equal(admin.ID))
		})

		It("should reject Pending", func() {
			id := seed()
			req := httptest.NewRequest(http.MethodPost, "/campaigns/"+itoa(id)+"/status", strings.NewReader(`{"status":"Pending"}`))

			w := serve(req, admin)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Error.Code).To(Equal("INVALID_STATUS"))
		})

		It("should return 409 when reversing a decision", func() {
			id := seed()
			serve(httptest.NewRequest(http.MethodPost, "/campaigns/"+itoa(id)+"/status", strings.NewReader(`{"status":"Rejected"}`)), admin)

			w := serve(httptest.NewRequest(http.MethodPost, "/campaigns/"+itoa(id)+"/status", strings.NewReader(`{"status":"Approved"}`)), admin)

			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("ExportCampaign", func() {
		It("should stream CSV by default", func() {
			id := seed()
			w := serve(httptest.NewRequest(http.MethodGet, "/campaigns/"+itoa(id)+"/export", nil), admin)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("text/csv"))
			Expect(w.Header().Get("Content-Disposition")).To(Equal("attachment; filename=campaign_" + itoa(id) + ".csv"))
			Expect(w.Body.String()).To(Equal(strings.Join(ExportHeaders, ",") + "\nWater,d,s,e,ABCDE1234F,Pune,Camp,100\n"))
		})

		It("should stream XLSX on request", func() {
			id := seed()
			w := serve(httptest.NewRequest(http.MethodGet, "/campaigns/"+itoa(id)+"/export?format=xlsx", nil), admin)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Disposition")).To(HaveSuffix(".xlsx"))
			Expect(w.Body.Len()).To(BeNumerically(">", 0))
		})

		It("should reject an unknown format", func() {
			id := seed()
			w := serve(httptest.NewRequest(http.MethodGet, "/campaigns/"+itoa(id)+"/export?format=pdf", nil), admin)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
