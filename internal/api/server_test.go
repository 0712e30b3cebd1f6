package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/security"
	"github.com/reqlint/reqlint/internal/shared"
	"github.com/reqlint/reqlint/internal/storage"
)

type stubStore struct {
	runs    map[string]ir.Run
	rows    []storage.RunRow
	waivers []storage.Waiver
	revoked []int64
}

func (s *stubStore) ListRuns(limit, offset int) ([]storage.RunRow, error) { return s.rows, nil }
func (s *stubStore) LoadRun(id string) (ir.Run, error) {
	run, ok := s.runs[id]
	if !ok {
		return ir.Run{}, sql.ErrNoRows
	}
	return run, nil
}
func (s *stubStore) LoadLatestRun() (ir.Run, error) {
	if len(s.rows) == 0 {
		return ir.Run{}, sql.ErrNoRows
	}
	return s.LoadRun(s.rows[0].ID)
}
func (s *stubStore) ListIssues(runID, minSeverity string) ([]ir.Issue, error) {
	run, err := s.LoadRun(runID)
	if err != nil {
		return nil, err
	}
	var out []ir.Issue
	min := ir.Severity(minSeverity).Rank()
	for _, iss := range run.Issues {
		if iss.Severity.Rank() >= min {
			out = append(out, iss)
		}
	}
	return out, nil
}
func (s *stubStore) ListWaivers(activeOnly bool) ([]storage.Waiver, error) { return s.waivers, nil }
func (s *stubStore) CreateWaiver(ruleID, doc, section, pattern, reason, createdBy string, expires time.Time) (int64, error) {
	s.waivers = append(s.waivers, storage.Waiver{ID: int64(len(s.waivers) + 1), RuleID: ruleID, Doc: doc, Section: section})
	return int64(len(s.waivers)), nil
}
func (s *stubStore) RevokeWaiver(id int64, by string) error {
	s.revoked = append(s.revoked, id)
	return nil
}

type stubUsers struct {
	byName   map[string]storage.User
	hashes   map[string]string
	sessions map[string]storage.User
}

func (s *stubUsers) GetUserByUsername(name string) (storage.User, string, error) {
	u, ok := s.byName[name]
	if !ok {
		return storage.User{}, "", sql.ErrNoRows
	}
	return u, s.hashes[name], nil
}
func (s *stubUsers) CreateSession(userID int64, token string, _ time.Time) error {
	for _, u := range s.byName {
		if u.ID == userID {
			s.sessions[token] = u
			return nil
		}
	}
	return sql.ErrNoRows
}
func (s *stubUsers) GetSession(token string) (storage.User, error) {
	u, ok := s.sessions[token]
	if !ok {
		return storage.User{}, sql.ErrNoRows
	}
	return u, nil
}
func (s *stubUsers) DeleteSession(token string) error {
	delete(s.sessions, token)
	return nil
}
func (s *stubUsers) LogAudit(username, action, resource string, meta map[string]any) error {
	return nil
}

func testServer(t *testing.T) (*Server, *stubStore, *stubUsers) {
	t.Helper()
	run := ir.Run{
		ID:        "run-001",
		StartedAt: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		Corpus: ir.Corpus{
			Documents:    []ir.Document{{Name: "requirements.md", Path: "docs/requirements.md", Kind: ir.DocRequirements}},
			Requirements: []ir.Requirement{{ID: "BR-01", Title: "Allow canceling a booking", Doc: "requirements.md", Line: 3}},
		},
		Issues: []ir.Issue{
			{ID: "ISS-001", RuleID: "SCOPE-CONTRADICTION", Severity: ir.SeverityCritical, Doc: "requirements.md", Section: "BR-03", Line: 12, Description: "d", Evidence: "e"},
			{ID: "ISS-002", RuleID: "TERMINOLOGY-MISMATCH", Severity: ir.SeverityMinor, Doc: "requirements.md", Section: "BR-01", Line: 3, Description: "d", Evidence: "e"},
		},
	}
	st := &stubStore{
		runs: map[string]ir.Run{"run-001": run},
		rows: []storage.RunRow{{ID: "run-001", StartedAt: run.StartedAt, Issues: 2, Critical: 1}},
	}
	adminHash, err := security.HashPassword("s3cret-pw")
	require.NoError(t, err)
	us := &stubUsers{
		byName: map[string]storage.User{
			"amara": {ID: 1, Username: "amara", Role: "admin"},
			"blake": {ID: 2, Username: "blake", Role: "viewer"},
		},
		hashes:   map[string]string{"amara": adminHash, "blake": adminHash},
		sessions: map[string]storage.User{},
	}
	srv := &Server{
		DB:              st,
		UserStore:       us,
		Logger:          shared.InitLogger("text", "error"),
		SessionDuration: time.Hour,
	}
	return srv, st, us
}

func login(t *testing.T, h http.Handler, username string) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": "s3cret-pw"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestHealth(t *testing.T) {
	srv, _, _ := testServer(t)
	h := srv.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
}

func TestListAndGetRuns(t *testing.T) {
	srv, _, _ := testServer(t)
	h := srv.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Items []storage.RunRow `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Items, 1)
	assert.Equal(t, 2, listResp.Items[0].Issues)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-001", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var run ir.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "run-001", run.ID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-404", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListIssuesThreshold(t *testing.T) {
	srv, _, _ := testServer(t)
	h := srv.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-001/issues?min_severity=CRITICAL", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items []ir.Issue `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "ISS-001", resp.Items[0].ID)
}

func TestRunReportMarkdown(t *testing.T) {
	srv, _, _ := testServer(t)
	h := srv.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-001/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "# Consistency Report")
	assert.Contains(t, rec.Body.String(), "ISS-001")
}

func TestRulesInventory(t *testing.T) {
	srv, _, _ := testServer(t)
	h := srv.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items []struct {
			ID    string `json:"id"`
			Order int    `json:"order"`
		} `json:"items"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.GreaterOrEqual(t, resp.Count, 7)
	assert.Equal(t, "SCOPE-CONTRADICTION", resp.Items[0].ID)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, st, _ := testServer(t)
	RegisterStoreMetrics(st)
	h := srv.Routes()

	// Prime the request counter so the family has at least one sample.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `reqlint_http_requests_total{code="200",method="GET"}`)
	assert.Contains(t, body, "reqlint_runs_stored 1")
	assert.Contains(t, body, `reqlint_latest_run_issues{severity="CRITICAL"} 1`)
	assert.Contains(t, body, `reqlint_latest_run_corpus{kind="requirements"} 1`)
}

func TestAuthFlowAndWaiverRoles(t *testing.T) {
	srv, st, _ := testServer(t)
	h := srv.Routes()

	// Unauthenticated create is rejected.
	body := `{"rule_id":"SCOPE-CONTRADICTION","reason":"migration","expires_at":"2026-12-31T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/waivers", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Viewers can list but not create.
	viewer := login(t, h, "blake")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/waivers", bytes.NewBufferString(body))
	req.AddCookie(viewer)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/waivers", nil)
	req.AddCookie(viewer)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Admins create and revoke.
	admin := login(t, h, "amara")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/waivers", bytes.NewBufferString(body))
	req.AddCookie(admin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, st.waivers, 1)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/waivers/1/revoke", nil)
	req.AddCookie(admin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{1}, st.revoked)

	// /me reflects the session, logout invalidates it.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(admin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"amara"`)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(admin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(admin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBadWaiverPayloads(t *testing.T) {
	srv, _, _ := testServer(t)
	h := srv.Routes()
	admin := login(t, h, "amara")

	for _, body := range []string{
		`not json`,
		`{"reason":"x","expires_at":"2026-12-31T00:00:00Z"}`,
		`{"rule_id":"X","reason":"x","expires_at":"tomorrow"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/waivers", bytes.NewBufferString(body))
		req.AddCookie(admin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}
