package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hireflow/internal/config"
	"hireflow/internal/storage/postgres"
	"hireflow/pkg/models"
)

type fakeViolationStore struct {
	app         *models.Application
	recordCalls int
	recordFn    func(id string, max int) (int, bool, error)
}

func (f *fakeViolationStore) GetByID(ctx context.Context, id string) (*models.Application, error) {
	if f.app == nil || f.app.ID != id {
		return nil, postgres.ErrNotFound
	}
	cp := *f.app
	return &cp, nil
}

func (f *fakeViolationStore) RecordViolation(ctx context.Context, id string, max int) (int, bool, error) {
	f.recordCalls++
	if f.recordFn != nil {
		return f.recordFn(id, max)
	}
	f.app.ViolationCount++
	if f.app.ViolationCount >= max {
		f.app.Terminated = true
		f.app.Status = models.StatusRejected
	}
	return f.app.ViolationCount, f.app.Terminated, nil
}

type fakeLedger struct {
	accept  bool
	err     error
	calls   int
	deleted []string
}

func (f *fakeLedger) DebounceViolation(ctx context.Context, applicationID string, window time.Duration) (bool, error) {
	f.calls++
	return f.accept, f.err
}

func (f *fakeLedger) DeleteConversationHistory(ctx context.Context, applicationID string) error {
	f.deleted = append(f.deleted, applicationID)
	return nil
}

func violationConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Interview.MaxViolations = 3
	cfg.Interview.ViolationDebounce = 2 * time.Second
	return cfg
}

func postViolation(t *testing.T, handler echo.HandlerFunc, applicationID, userID string) (*httptest.ResponseRecorder, models.ViolationResponse) {
	t.Helper()
	e := echo.New()
	body := `{"application_id":"` + applicationID + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/interview/violations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)

	require.NoError(t, handler(c))

	var resp models.ViolationResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestViolationHandlerThreeStrikes(t *testing.T) {
	appID := uuid.NewString()
	store := &fakeViolationStore{app: &models.Application{
		ID:          appID,
		CandidateID: "cand-1",
		Status:      models.StatusInterviewing,
	}}
	ledger := &fakeLedger{accept: true}
	handler := ViolationHandler(violationConfig(), store, ledger)

	for strike := 1; strike <= 2; strike++ {
		rec, resp := postViolation(t, handler, appID, "cand-1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, strike, resp.Count)
		assert.False(t, resp.Terminated)
		assert.Empty(t, ledger.deleted, "the history outlives a warning")
	}

	rec, resp := postViolation(t, handler, appID, "cand-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, resp.Count)
	assert.True(t, resp.Terminated, "the third strike terminates the interview")
	assert.Equal(t, models.StatusRejected, store.app.Status)
	assert.Equal(t, []string{appID}, ledger.deleted, "termination drops the conversation history")
}

func TestViolationHandlerDebouncedReportDoesNotCount(t *testing.T) {
	appID := uuid.NewString()
	store := &fakeViolationStore{app: &models.Application{
		ID:             appID,
		CandidateID:    "cand-1",
		Status:         models.StatusInterviewing,
		ViolationCount: 1,
	}}
	ledger := &fakeLedger{accept: false}
	handler := ViolationHandler(violationConfig(), store, ledger)

	rec, resp := postViolation(t, handler, appID, "cand-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ledger.calls)
	assert.Zero(t, store.recordCalls, "a debounced report must not touch the counter")
	assert.Equal(t, 1, resp.Count, "the current state is echoed back")
	assert.False(t, resp.Terminated)
}

func TestViolationHandlerDebounceFailureFailsOpen(t *testing.T) {
	appID := uuid.NewString()
	store := &fakeViolationStore{app: &models.Application{
		ID:          appID,
		CandidateID: "cand-1",
		Status:      models.StatusInterviewing,
	}}
	handler := ViolationHandler(violationConfig(), store, &fakeLedger{err: errors.New("redis down")})

	rec, resp := postViolation(t, handler, appID, "cand-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, store.recordCalls, "a broken debounce ledger still counts the report")
	assert.Equal(t, 1, resp.Count)
}

func TestViolationHandlerRejectsOtherCandidates(t *testing.T) {
	appID := uuid.NewString()
	store := &fakeViolationStore{app: &models.Application{
		ID:          appID,
		CandidateID: "cand-1",
		Status:      models.StatusInterviewing,
	}}
	handler := ViolationHandler(violationConfig(), store, &fakeLedger{accept: true})

	rec, _ := postViolation(t, handler, appID, "cand-2")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, store.recordCalls)
}

func TestViolationHandlerUnknownApplication(t *testing.T) {
	store := &fakeViolationStore{}
	handler := ViolationHandler(violationConfig(), store, &fakeLedger{accept: true})

	rec, _ := postViolation(t, handler, uuid.NewString(), "cand-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViolationHandlerTerminatedStateIsFrozen(t *testing.T) {
	appID := uuid.NewString()
	store := &fakeViolationStore{app: &models.Application{
		ID:             appID,
		CandidateID:    "cand-1",
		Status:         models.StatusRejected,
		ViolationCount: 3,
		Terminated:     true,
	}}
	store.recordFn = func(id string, max int) (int, bool, error) {
		// Mirrors the SQL guard: a terminated application never
		// increments again.
		return store.app.ViolationCount, true, nil
	}
	handler := ViolationHandler(violationConfig(), store, &fakeLedger{accept: true})

	rec, resp := postViolation(t, handler, appID, "cand-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, resp.Count)
	assert.True(t, resp.Terminated)
}
