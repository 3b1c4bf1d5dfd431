package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/campaign-management/internal/transport"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		handler  *Handler
		tokenGen *JWTTokenGenerator
	)

	ginkgo.BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tokenGen = NewJWTTokenGenerator("test-secret-that-is-at-least-32-chars", time.Hour)
		svc := NewService(newMockUserRepository(), tokenGen, bcrypt.MinCost, lg)
		handler = &Handler{BaseHandler: transport.NewBaseHandler(lg), Service: svc}
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("should return 200 with a token", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login",
				strings.NewReader(`{"email":"citizen@example.com","password":"correct_password"}`))
			w := httptest.NewRecorder()

			handler.Login(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			var tokens AuthTokens
			gomega.Expect(json.NewDecoder(w.Body).Decode(&tokens)).To(gomega.Succeed())
			gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("should return 401 for bad credentials", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login",
				strings.NewReader(`{"email":"citizen@example.com","password":"wrong"}`))
			w := httptest.NewRecorder()

			handler.Login(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(w.Body.String()).To(gomega.ContainSubstring("INVALID_CREDENTIALS"))
		})

		ginkgo.It("should return 400 for a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`))
			w := httptest.NewRecorder()

			handler.Login(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var (
			seen *User
			next http.Handler
		)

		ginkgo.BeforeEach(func() {
			seen = nil
			next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = UserFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})
		})

		ginkgo.It("should put the user on the context", func() {
			token, err := tokenGen.GenerateAccessToken("2", "admin@example.com", RoleAdmin)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(seen).ToNot(gomega.BeNil())
			gomega.Expect(seen.ID).To(gomega.Equal(int64(2)))
			gomega.Expect(seen.IsAdmin()).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a missing token", func() {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			w := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(seen).To(gomega.BeNil())
		})

		ginkgo.It("should reject a token for a user that no longer exists", func() {
			token, err := tokenGen.GenerateAccessToken("42", "gone@example.com", RoleCitizen)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})

	ginkgo.Describe("UserFromContext", func() {
		ginkgo.It("should report absence", func() {
			_, ok := UserFromContext(context.Background())
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})
})
