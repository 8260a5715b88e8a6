package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"expertgate/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memResetCodes mimics the reset_codes table including the conditional claim.
type memResetCodes struct {
	mu     sync.Mutex
	rows   []models.ResetCode
	nextID int64

	createErr error
	findErr   error
	// findRow, when set, is returned by FindLatestValid as-is.
	findRow *models.ResetCode
}

func (m *memResetCodes) Create(_ context.Context, rc *models.ResetCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	rc.ID = m.nextID
	m.rows = append(m.rows, *rc)
	return nil
}

func (m *memResetCodes) FindLatestValid(_ context.Context, email, code string, now time.Time) (*models.ResetCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.findRow != nil {
		out := *m.findRow
		return &out, nil
	}
	var hits []models.ResetCode
	for _, r := range m.rows {
		if r.Email == email && r.Code == code && !r.Used && r.ExpiresAt.After(now) {
			hits = append(hits, r)
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].CreatedAt.After(hits[j].CreatedAt) })
	out := hits[0]
	return &out, nil
}

func (m *memResetCodes) MarkUsed(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id && !m.rows[i].Used {
			m.rows[i].Used = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memResetCodes) Release(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Used = false
		}
	}
	return nil
}

func (m *memResetCodes) InvalidateOutstanding(_ context.Context, email string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.rows {
		r := &m.rows[i]
		if r.Email == email && !r.Used && r.ExpiresAt.After(now) {
			r.Used = true
			n++
		}
	}
	return n, nil
}

func (m *memResetCodes) all() []models.ResetCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ResetCode(nil), m.rows...)
}

type memUsers struct {
	mu     sync.Mutex
	byID   map[int64]*models.Account
	nextID int64

	getErr            error
	updatePasswordErr error
	passwordUpdates   int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]*models.Account{}}
}

func (m *memUsers) add(email, hash, role string) *models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a := &models.Account{ID: m.nextID, Email: email, PasswordHash: hash, Role: role, FullName: "User " + email}
	m.byID[a.ID] = a
	return a
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, a := range m.byID {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	m.byID[id].PasswordHash = hash
	m.passwordUpdates++
	return nil
}

func (m *memUsers) UpdateRole(_ context.Context, id int64, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].Role = role
	return nil
}

type mockEmailService struct {
	mock.Mock
}

func (m *mockEmailService) SendResetCode(email, code string, ttl time.Duration) error {
	return m.Called(email, code, ttl).Error(0)
}

func (m *mockEmailService) SendExpertSignupAdminNotice(to string, s models.ExpertSignup) error {
	return m.Called(to, s).Error(0)
}

func (m *mockEmailService) SendExpertSignupReceived(s models.ExpertSignup) error {
	return m.Called(s).Error(0)
}

func (m *mockEmailService) SendExpertVerified(v models.ExpertVerification) error {
	return m.Called(v).Error(0)
}

func (m *mockEmailService) SendSupportTicket(to string, t models.SupportTicket) error {
	return m.Called(to, t).Error(0)
}

// lastCode returns the code passed to the most recent SendResetCode call.
func (m *mockEmailService) lastCode() string {
	var code string
	for _, c := range m.Calls {
		if c.Method == "SendResetCode" {
			code = c.Arguments.String(1)
		}
	}
	return code
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
