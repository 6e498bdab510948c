// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/circulation/internal/analytics"
	"github.com/tomtom215/circulation/internal/auth"
	"github.com/tomtom215/circulation/internal/cache"
	"github.com/tomtom215/circulation/internal/config"
	"github.com/tomtom215/circulation/internal/database"
	"github.com/tomtom215/circulation/internal/ingest"
	"github.com/tomtom215/circulation/internal/models"
)

type fakeIngester struct {
	mu    sync.Mutex
	calls int
	got   ingest.Upload
	res   *ingest.Result
	err   error
}

func (f *fakeIngester) Process(_ context.Context, u ingest.Upload) (*ingest.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.got = u
	if f.err != nil {
		return nil, f.err
	}
	if f.res != nil {
		return f.res, nil
	}
	return &ingest.Result{UploadID: 1, FileType: u.FileType, Filename: u.Filename, NewRecords: 3, TotalProcessed: 3}, nil
}

type fakeAnalytics struct {
	mu    sync.Mutex
	calls map[string]int
	err   error

	unit      string
	date      time.Time
	query     analytics.MetricQuery
	timeRange string
	compare   string
}

func newFakeAnalytics() *fakeAnalytics {
	return &fakeAnalytics{calls: make(map[string]int)}
}

func (f *fakeAnalytics) record(action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[action]++
	return f.err
}

func (f *fakeAnalytics) count(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[action]
}

func (f *fakeAnalytics) Overview(_ context.Context, req analytics.OverviewRequest) (*analytics.Overview, error) {
	f.compare = req.Compare
	if err := f.record(ActionOverview); err != nil {
		return nil, err
	}
	return &analytics.Overview{HasData: true}, nil
}

func (f *fakeAnalytics) BusinessUnitDetail(_ context.Context, unit string, _ *time.Time) (*analytics.UnitDetail, error) {
	f.unit = unit
	if err := f.record(ActionBusinessUnitDetail); err != nil {
		return nil, err
	}
	return &analytics.UnitDetail{}, nil
}

func (f *fakeAnalytics) DetailPanel(_ context.Context, unit string, date time.Time) (*analytics.DetailPanel, error) {
	f.unit, f.date = unit, date
	if err := f.record(ActionDetailPanel); err != nil {
		return nil, err
	}
	return &analytics.DetailPanel{}, nil
}

func (f *fakeAnalytics) Subscribers(_ context.Context, q analytics.MetricQuery, date time.Time) (*analytics.SubscriberList, error) {
	f.query, f.date = q, date
	if err := f.record(ActionGetSubscribers); err != nil {
		return nil, err
	}
	return &analytics.SubscriberList{BusinessUnit: q.BusinessUnit, Subscribers: []models.SubscriberContact{}}, nil
}

func (f *fakeAnalytics) Trend(_ context.Context, q analytics.MetricQuery, timeRange string, end time.Time) (*analytics.MetricTrend, error) {
	f.query, f.timeRange, f.date = q, timeRange, end
	if err := f.record(ActionGetTrend); err != nil {
		return nil, err
	}
	return &analytics.MetricTrend{}, nil
}

func (f *fakeAnalytics) Rates(context.Context) (*analytics.RatesOverview, error) {
	if err := f.record(ActionRates); err != nil {
		return nil, err
	}
	return &analytics.RatesOverview{}, nil
}

func (f *fakeAnalytics) Revenue(_ context.Context, date *time.Time) (*analytics.RevenueReport, error) {
	if date != nil {
		f.date = *date
	}
	if err := f.record(ActionRevenue); err != nil {
		return nil, err
	}
	return &analytics.RevenueReport{SnapshotDate: f.date}, nil
}

func (f *fakeAnalytics) DataRange(context.Context) (models.DataRange, error) {
	return models.DataRange{TotalSnapshots: 4}, f.record(ActionDataRange)
}

func (f *fakeAnalytics) Paper(_ context.Context, code string) (*models.DailySnapshot, error) {
	if err := f.record(ActionPaper); err != nil {
		return nil, err
	}
	return &models.DailySnapshot{PaperCode: code}, nil
}

type fakeStore struct {
	mu      sync.Mutex
	pingErr error
	err     error
	limit   int
	flags   []models.RateFlag
	uploads []models.RawUpload
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) RecentUploads(_ context.Context, limit int) ([]models.RawUpload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
	return f.uploads, f.err
}

func (f *fakeStore) SetRateFlag(_ context.Context, flag models.RateFlag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.flags = append(f.flags, flag)
	return nil
}

func testConfig(mode string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Timeout:        5 * time.Second,
			MaxUploadBytes: 1 << 20,
			Environment:    "development",
		},
		Security: config.SecurityConfig{
			AuthMode:               mode,
			JWTSecret:              "0123456789abcdef0123456789abcdef0123456789",
			SessionTimeout:         time.Hour,
			AdminUsername:          "operator",
			AdminPassword:          "securepassword123",
			RateLimitDisabled:      true,
			CORSOrigins:            []string{"*"},
			LoginAttemptsPerMinute: 10,
		},
	}
}

type testServer struct {
	handler   http.Handler
	cfg       *config.Config
	ingester  *fakeIngester
	analytics *fakeAnalytics
	store     *fakeStore
	cache     cache.Cache
}

func newTestServer(t *testing.T, cfg *config.Config, c cache.Cache, opts ...func(*Deps)) *testServer {
	t.Helper()
	authn, err := auth.NewAuthenticator(&cfg.Security)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	ts := &testServer{
		cfg:       cfg,
		ingester:  &fakeIngester{},
		analytics: newFakeAnalytics(),
		store:     &fakeStore{},
		cache:     c,
	}
	deps := Deps{
		Config:    cfg,
		Store:     ts.store,
		Ingester:  ts.ingester,
		Analytics: ts.analytics,
		Cache:     c,
		Auth:      authn,
		Version:   "test",
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h := NewHandler(deps)
	ts.handler = NewRouter(cfg, h).Handler()
	return ts
}

func (ts *testServer) do(req *http.Request) (*httptest.ResponseRecorder, APIResponse) {
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	var resp APIResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func multipartRequest(t *testing.T, path, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	} else if err := mw.WriteField("note", "no file"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadPassesRequestMetadata(t *testing.T) {
	ts := newTestServer(t, testConfig("none"), nil)
	data := []byte("Ed,SUB NUM\nTJ,1\n")

	req := multipartRequest(t, "/api/v1/upload/vacations", UploadField, "SubscribersOnVacation_20250106.csv", data)
	req.Header.Set("User-Agent", "circ-test/1.0")
	req.RemoteAddr = "10.1.2.3:5555"
	w, resp := ts.do(req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	if !resp.Success {
		t.Errorf("success = false, want true")
	}
	got := ts.ingester.got
	if got.FileType != models.FileTypeVacations {
		t.Errorf("FileType = %q, want %q", got.FileType, models.FileTypeVacations)
	}
	if got.Filename != "SubscribersOnVacation_20250106.csv" {
		t.Errorf("Filename = %q", got.Filename)
	}
	if !bytes.Equal(got.Data, data) {
		t.Errorf("Data = %q, want %q", got.Data, data)
	}
	if got.UploadedBy != auth.AnonymousUsername {
		t.Errorf("UploadedBy = %q, want %q", got.UploadedBy, auth.AnonymousUsername)
	}
	if got.IPAddress != "10.1.2.3" {
		t.Errorf("IPAddress = %q, want 10.1.2.3", got.IPAddress)
	}
	if got.UserAgent != "circ-test/1.0" {
		t.Errorf("UserAgent = %q", got.UserAgent)
	}
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		field    string
		filename string
		data     []byte
		status   int
		code     string
	}{
		{"unknown kind", "/api/v1/upload/payments", UploadField, "a.csv", []byte("x"), http.StatusNotFound, ErrCodeNotFound},
		{"missing file", "/api/v1/upload/rates", "", "", nil, http.StatusBadRequest, ErrCodeValidation},
		{"not csv", "/api/v1/upload/rates", UploadField, "rates.xlsx", []byte("x"), http.StatusBadRequest, ErrCodeValidation},
		{"empty file", "/api/v1/upload/rates", UploadField, "rates.csv", []byte{}, http.StatusBadRequest, ErrCodeValidation},
		{"too large", "/api/v1/upload/rates", UploadField, "rates.csv", bytes.Repeat([]byte("a"), 4096), http.StatusRequestEntityTooLarge, ErrCodeTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("none")
			cfg.Server.MaxUploadBytes = 1024
			ts := newTestServer(t, cfg, nil)

			w, resp := ts.do(multipartRequest(t, tt.path, tt.field, tt.filename, tt.data))
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d; body %s", w.Code, tt.status, w.Body.String())
			}
			if resp.Success || resp.Error == nil {
				t.Fatalf("expected error envelope, got %s", w.Body.String())
			}
			if resp.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.code)
			}
			if ts.ingester.calls != 0 {
				t.Errorf("ingester calls = %d, want 0", ts.ingester.calls)
			}
		})
	}
}

func TestUploadErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:   "format error",
			err:    &ingest.FormatError{Report: "vacation", Missing: []string{"VAC END"}, Err: ingest.ErrMissingColumns},
			status: http.StatusUnprocessableEntity,
			code:   ErrCodeInvalidFormat,
		},
		{
			name:    "persistence error",
			err:     fmt.Errorf("apply: %w", &database.PersistenceError{Op: "apply vacations", Err: errors.New("disk full at /var/lib")}),
			status:  http.StatusInternalServerError,
			code:    ErrCodeDatabaseError,
			message: "A database error occurred",
		},
		{
			name:    "unexpected error",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    ErrCodeInternalError,
			message: "An internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, testConfig("none"), nil)
			ts.ingester.err = tt.err

			w, resp := ts.do(multipartRequest(t, "/api/v1/upload/vacations", UploadField, "vac.csv", []byte("a,b\n")))
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if resp.Error == nil || resp.Error.Code != tt.code {
				t.Fatalf("error = %+v, want code %s", resp.Error, tt.code)
			}
			if tt.message != "" && resp.Error.Message != tt.message {
				t.Errorf("message = %q, want %q", resp.Error.Message, tt.message)
			}
			if strings.Contains(w.Body.String(), "/var/lib") {
				t.Errorf("response leaks internal error detail: %s", w.Body.String())
			}
		})
	}
}

func TestFormatErrorDetails(t *testing.T) {
	ts := newTestServer(t, testConfig("none"), nil)
	ts.ingester.err = &ingest.FormatError{Report: "renewal", Missing: []string{"Sub ID", "Stat"}, Err: ingest.ErrMissingColumns}

	w, _ := ts.do(multipartRequest(t, "/api/v1/upload/renewals", UploadField, "Renewals.csv", []byte("x\n")))
	var raw struct {
		Error struct {
			Details struct {
				MissingColumns []string `json:"missing_columns"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := strings.Join(raw.Error.Details.MissingColumns, ","); got != "Sub ID,Stat" {
		t.Errorf("missing_columns = %q, want %q", got, "Sub ID,Stat")
	}
}

func TestAnalyticsValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing action", "", "action"},
		{"unknown action", "action=forecast", "action"},
		{"bad date", "action=overview&date=01/06/2025", "date"},
		{"bad compare", "action=overview&compare=lastyear", "compare"},
		{"bad paper code", "action=paper&code=tj", "code"},
		{"bad metric type", "action=get_trend&business_unit=South&metric_type=zone&metric_value=A", "metric_type"},
		{"detail panel without date", "action=detail_panel&business_unit=South", "snapshot_date"},
		{"subscribers without date", "action=get_subscribers&business_unit=South&metric_type=rate&metric_value=X", "snapshot_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, testConfig("none"), nil)
			w, resp := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/analytics?"+tt.query, nil))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", w.Code, w.Body.String())
			}
			if resp.Error == nil || resp.Error.Code != ErrCodeValidation {
				t.Fatalf("error = %+v, want %s", resp.Error, ErrCodeValidation)
			}
			details, _ := resp.Error.Details.(map[string]interface{})
			if details["field"] != tt.field {
				t.Errorf("details.field = %v, want %s", details["field"], tt.field)
			}
		})
	}
}

func TestAnalyticsDispatch(t *testing.T) {
	ts := newTestServer(t, testConfig("none"), nil)

	w, _ := ts.do(httptest.NewRequest(http.MethodGet,
		"/api/v1/analytics?action=get_trend&business_unit=South&metric_type=rate&metric_value=Basic&time_range=26weeks&end_date=2025-03-01", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	want := analytics.MetricQuery{BusinessUnit: "South", MetricType: "rate", MetricValue: "Basic"}
	if ts.analytics.query != want {
		t.Errorf("query = %+v, want %+v", ts.analytics.query, want)
	}
	if ts.analytics.timeRange != "26weeks" {
		t.Errorf("timeRange = %q, want 26weeks", ts.analytics.timeRange)
	}
	if got := ts.analytics.date.Format(isoDate); got != "2025-03-01" {
		t.Errorf("end = %s, want 2025-03-01", got)
	}

	w, _ = ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/analytics?action=detail_panel&business_unit=North&snapshot_date=2025-02-08", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("detail_panel status = %d", w.Code)
	}
	if ts.analytics.unit != "North" {
		t.Errorf("unit = %q, want North", ts.analytics.unit)
	}

	w, _ = ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/analytics?action=overview&compare=previous", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("overview status = %d", w.Code)
	}
	if ts.analytics.compare != analytics.ComparePrevious {
		t.Errorf("compare = %q, want previous", ts.analytics.compare)
	}

	w, _ = ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/analytics?action=revenue&date=2025-12-07", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("revenue status = %d; body %s", w.Code, w.Body.String())
	}
	if ts.analytics.count(ActionRevenue) != 1 {
		t.Errorf("Revenue calls = %d, want 1", ts.analytics.count(ActionRevenue))
	}
	if got := ts.analytics.date.Format(isoDate); got != "2025-12-07" {
		t.Errorf("revenue date = %s, want 2025-12-07", got)
	}
}

func TestAnalyticsTrendDefaultsEndDate(t *testing.T) {
	ts := newTestServer(t, testConfig("none"), nil)
	w, _ := ts.do(httptest.NewRequest(http.MethodGet,
		"/api/v1/analytics?action=get_trend&business_unit=South&metric_type=expiration&metric_value=this_week", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	today := time.Now().UTC().Format(isoDate)
	if got := ts.analytics.date.Format(isoDate); got != today {
		t.Errorf("end = %s, want %s", got, today)
	}
}

func TestAnalyticsNotFound(t *testing.T) {
	ts := newTestServer(t, testConfig("none"), nil)
	ts.analytics.err = fmt.Errorf("paper TJ: %w", analytics.ErrNotFound)

	w, resp := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/analytics?action=paper&code=TJ", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", resp.Error)
	}
}

func TestAnalyticsResponseCache(t *testing.T) {
	mem := cache.NewMemory(time.Minute)
	t.Cleanup(mem.Close)
	ts := newTestServer(t, testConfig("none"), mem)

	first, resp := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/analytics?action=data_range", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d", first.Code)
	}
	if resp.Meta == nil || resp.Meta.Cached {
		t.Errorf("first response cached = true, want false")
	}

	second, resp := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/analytics?action=data_range", nil))
	if second.Code != http.StatusOK {
		t.Fatalf("status = %d", second.Code)
	}
	if resp.Meta == nil || !resp.Meta.Cached {
		t.Errorf("second response cached = false, want true")
	}
	if got := ts.analytics.count(ActionDataRange); got != 1 {
		t.Errorf("DataRange calls = %d, want 1", got)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["total_snapshots"] != float64(4) {
		t.Errorf("cached data = %v, want total_snapshots 4", resp.Data)
	}

	for i := 0; i < 2; i++ {
		ts.do(httptest.NewRequest(http.MethodGet,
			"/api/v1/analytics?action=get_subscribers&business_unit=South&snapshot_date=2025-02-08&metric_type=rate&metric_value=Basic", nil))
	}
	if got := ts.analytics.count(ActionGetSubscribers); got != 2 {
		t.Errorf("Subscribers calls = %d, want 2 (drill-downs are not cached)", got)
	}
}

func TestUploadFlushesCacheWithoutEventBus(t *testing.T) {
	tests := []struct {
		name      string
		flush     bool
		wantCalls int
	}{
		{"event bus invalidates", false, 1},
		{"handler flushes", true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := cache.NewMemory(time.Minute)
			t.Cleanup(mem.Close)
			ts := newTestServer(t, testConfig("none"), mem, func(d *Deps) { d.FlushOnUpload = tt.flush })

			get := func() {
				w, _ := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/analytics?action=data_range", nil))
				if w.Code != http.StatusOK {
					t.Fatalf("analytics status = %d", w.Code)
				}
			}
			get()
			w, _ := ts.do(multipartRequest(t, "/api/v1/upload/rates", UploadField, "rates.csv", []byte("a,b\n")))
			if w.Code != http.StatusOK {
				t.Fatalf("upload status = %d", w.Code)
			}
			get()

			if got := ts.analytics.count(ActionDataRange); got != tt.wantCalls {
				t.Errorf("DataRange calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestRecentUploads(t *testing.T) {
	tests := []struct {
		query     string
		status    int
		wantLimit int
	}{
		{"", http.StatusOK, defaultUploadsLimit},
		{"?limit=10", http.StatusOK, 10},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=501", http.StatusBadRequest, 0},
		{"?limit=ten", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			ts := newTestServer(t, testConfig("none"), nil)
			w, resp := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/uploads"+tt.query, nil))
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if ts.store.limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", ts.store.limit, tt.wantLimit)
			}
			if tt.status == http.StatusOK {
				if list, ok := resp.Data.([]interface{}); !ok || len(list) != 0 {
					t.Errorf("data = %v, want empty list", resp.Data)
				}
			}
		})
	}
}

func TestSetRateFlagFlushesCache(t *testing.T) {
	mem := cache.NewMemory(time.Minute)
	t.Cleanup(mem.Close)
	ts := newTestServer(t, testConfig("none"), mem)
	mem.Set(context.Background(), "analytics.rates:abc", []byte(`{}`))

	body := `{"paper_code":"TJ","zone":"A","rate_name":"Legacy 2019","subscription_length":"12 M","rate_amount":99.5,"is_legacy":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rates/flags", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w, _ := ts.do(req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	if len(ts.store.flags) != 1 || !ts.store.flags[0].IsLegacy || ts.store.flags[0].RateAmount != 99.5 {
		t.Errorf("stored flags = %+v", ts.store.flags)
	}
	if _, ok := mem.Get(context.Background(), "analytics.rates:abc"); ok {
		t.Error("cache entry survived a rate flag change")
	}
}

func TestSetRateFlagValidation(t *testing.T) {
	ts := newTestServer(t, testConfig("none"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rates/flags", strings.NewReader(`{"zone":"A","subscription_length":"12 M"}`))
	w, resp := ts.do(req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidation {
		t.Errorf("error = %+v, want VALIDATION_ERROR", resp.Error)
	}
	if len(ts.store.flags) != 0 {
		t.Errorf("flags stored despite invalid body")
	}
}

func TestErrorEnvelopeCarriesRequestID(t *testing.T) {
	ts := newTestServer(t, testConfig("none"), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics?action=bogus", nil)
	req.Header.Set("X-Request-ID", "req-12345")

	w, resp := ts.do(req)
	if w.Header().Get("X-Request-ID") != "req-12345" {
		t.Errorf("X-Request-ID header = %q", w.Header().Get("X-Request-ID"))
	}
	if resp.Error == nil || resp.Error.RequestID != "req-12345" {
		t.Errorf("error.request_id = %+v, want req-12345", resp.Error)
	}
}
