package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"expertgate/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func performJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

type mockResetService struct{ mock.Mock }

func (m *mockResetService) RequestReset(ctx context.Context, email string) error {
	return m.Called(email).Error(0)
}

func (m *mockResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return m.Called(email, code, newPassword).Error(0)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) HashPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *mockAuthService) CheckPassword(hash, password string) bool {
	return m.Called(hash, password).Bool(0)
}

func (m *mockAuthService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	args := m.Called(email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

type mockNotificationService struct{ mock.Mock }

func (m *mockNotificationService) NotifyExpertSignup(ctx context.Context, s models.ExpertSignup) error {
	return m.Called(s).Error(0)
}

func (m *mockNotificationService) NotifyExpertVerified(ctx context.Context, v models.ExpertVerification) error {
	return m.Called(v).Error(0)
}

func (m *mockNotificationService) SubmitSupportTicket(ctx context.Context, t *models.SupportTicket) error {
	args := m.Called(t)
	if args.Error(0) == nil {
		t.ID = "ticket-1"
	}
	return args.Error(0)
}

type mockProfileService struct{ mock.Mock }

func (m *mockProfileService) ResolveView(ctx context.Context, userID int64) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

type mockContentReader struct{ mock.Mock }

func (m *mockContentReader) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *mockContentReader) All(ctx context.Context) ([]models.ContentEntry, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ContentEntry), args.Error(1)
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }
