package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-connector/internal/audit"
	"github.com/nerrad567/gray-logic-connector/internal/device"
	"github.com/nerrad567/gray-logic-connector/internal/events"
	"github.com/nerrad567/gray-logic-connector/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-connector/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-connector/internal/schemasync"
)

type fakeSyncer struct {
	mu      sync.Mutex
	devices []device.Device
	result  schemasync.Result
	err     error
}

func (f *fakeSyncer) Run(_ context.Context, dev device.Device) (schemasync.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = append(f.devices, dev)
	res := f.result
	res.DeviceID = dev.ID
	return res, f.err
}

type fakeDevices struct {
	devices map[string]device.Device
	err     error
}

func (f *fakeDevices) GetByID(_ context.Context, id string) (*device.Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.devices[id]
	if !ok {
		return nil, device.ErrDeviceNotFound
	}
	return &d, nil
}

func (f *fakeDevices) List(_ context.Context) ([]device.Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []device.Device
	for _, d := range f.devices {
		out = append(out, d)
	}
	return out, nil
}

type testEnv struct {
	srv     *Server
	syncer  *fakeSyncer
	devices *fakeDevices
	handler http.Handler
}

func newTestEnv(t *testing.T, checks map[string]HealthCheckFunc) *testEnv {
	t.Helper()

	env := &testEnv{
		syncer: &fakeSyncer{result: schemasync.Result{Step: schemasync.StepDone}},
		devices: &fakeDevices{devices: map[string]device.Device{
			"dev-1": {ID: "dev-1", Name: "Kitchen", Schema: map[string]any{"tempC": "float"}},
		}},
	}

	srv, err := New(Deps{
		Config:  config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:  logging.Nop(),
		Syncer:  env.syncer,
		Devices: env.devices,
		Checks:  checks,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	env.srv = srv
	env.handler = srv.buildRouter()
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiredDeps(t *testing.T) {
	tests := []struct {
		name string
		deps Deps
	}{
		{"no logger", Deps{Syncer: &fakeSyncer{}, Devices: &fakeDevices{}}},
		{"no syncer", Deps{Logger: logging.Nop(), Devices: &fakeDevices{}}},
		{"no devices", Deps{Logger: logging.Nop(), Syncer: &fakeSyncer{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() expected error")
			}
		})
	}
}

func TestHealth(t *testing.T) {
	t.Run("all ok", func(t *testing.T) {
		env := newTestEnv(t, map[string]HealthCheckFunc{
			"mqtt":     func(context.Context) error { return nil },
			"database": func(context.Context) error { return nil },
		})
		rec := env.do(http.MethodGet, "/api/v1/health", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp HealthResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "ok" || resp.Components["mqtt"] != "ok" || resp.Version != "test" {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		env := newTestEnv(t, map[string]HealthCheckFunc{
			"mqtt": func(context.Context) error { return errors.New("mqtt: client not connected") },
		})
		rec := env.do(http.MethodGet, "/api/v1/health", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		var resp HealthResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Components["mqtt"] != "mqtt: client not connected" {
			t.Errorf("components = %v", resp.Components)
		}
	})
}

func TestSyncSchema(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/v1/devices/dev-1/schema", `{"temp_c":"float"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body = %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"notification":{"id":"dev-1","error":null}`) {
		t.Errorf("body = %s", rec.Body)
	}
	if len(env.syncer.devices) != 1 || env.syncer.devices[0].Schema["temp_c"] != "float" {
		t.Errorf("syncer received %+v", env.syncer.devices)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestSyncSchema_FailureStillAccepted(t *testing.T) {
	env := newTestEnv(t, nil)
	env.syncer.result = schemasync.Result{Step: schemasync.StepRemoteWrite, Err: errors.New("unreachable")}

	rec := env.do(http.MethodPost, "/api/v1/devices/dev-1/schema", `{"a":1}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"unreachable"`) {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestSyncSchema_PublishFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.syncer.err = schemasync.ErrPublish

	rec := env.do(http.MethodPost, "/api/v1/devices/dev-1/schema", `{"a":1}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestSyncSchema_BadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `nope`},
		{"array", `[1,2]`},
		{"null", `null`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(http.MethodPost, "/api/v1/devices/dev-1/schema", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(env.syncer.devices) != 0 {
				t.Error("syncer must not run for a bad body")
			}
		})
	}
}

func TestDevices(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/v1/devices", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":1`) {
		t.Errorf("list: status = %d body = %s", rec.Code, rec.Body)
	}

	rec = env.do(http.MethodGet, "/api/v1/devices/dev-1", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"tempC":"float"`) {
		t.Errorf("get: status = %d body = %s", rec.Code, rec.Body)
	}

	rec = env.do(http.MethodGet, "/api/v1/devices/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", rec.Code)
	}

	env.devices.err = errors.New("disk I/O error")
	rec = env.do(http.MethodGet, "/api/v1/devices", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("store failure: status = %d, want 500", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, nil)
	m := env.srv.metrics

	route, _ := events.RouteFor(events.KindSchemaUpdated)
	m.ObservePublish(events.KindSchemaUpdated, route, nil)
	m.ObservePublish(events.KindSchemaUpdated, route, errors.New("down"))
	m.RecordSync(schemasync.Result{Step: schemasync.StepDone}, time.Millisecond)
	m.RecordSync(schemasync.Result{Step: schemasync.StepLocalWrite, Err: errors.New("x")}, time.Millisecond)

	rec := env.do(http.MethodGet, "/api/v1/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var snap MetricsSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := snap.Published["schema.updated"]; got.OK != 1 || got.Failed != 1 {
		t.Errorf("published = %+v", snap.Published)
	}
	if snap.Sync.Succeeded != 1 || snap.Sync.Failed != 1 || snap.Sync.ByStep["local_write"] != 1 {
		t.Errorf("sync = %+v", snap.Sync)
	}
	if snap.Version != "test" || snap.Runtime.Goroutines == 0 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestStartClose(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := env.srv.Close(); err != nil {
		t.Errorf("Close() before Start error = %v", err)
	}
	if err := env.srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := env.srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

type fakeHistory struct {
	mu     sync.Mutex
	filter audit.Filter
	err    error
}

func (f *fakeHistory) List(_ context.Context, filter audit.Filter) (*audit.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	return &audit.ListResult{
		Entries: []audit.Entry{{ID: "sync-1", DeviceID: "dev-1", Step: "done"}},
		Total:   1,
		Limit:   50,
	}, nil
}

func TestSyncHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	history := &fakeHistory{}
	env.srv.history = history
	env.handler = env.srv.buildRouter()

	rec := env.do(http.MethodGet, "/api/v1/sync-history?device_id=dev-1&failed=true&limit=10&offset=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	want := audit.Filter{DeviceID: "dev-1", FailedOnly: true, Limit: 10, Offset: 5}
	if history.filter != want {
		t.Errorf("filter = %+v, want %+v", history.filter, want)
	}

	var body audit.ListResult
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Total != 1 || body.Entries[0].ID != "sync-1" {
		t.Errorf("body = %+v", body)
	}

	rec = env.do(http.MethodGet, "/api/v1/devices/dev-9/sync-history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("device history status = %d", rec.Code)
	}
	if history.filter.DeviceID != "dev-9" {
		t.Errorf("device filter = %q, want dev-9", history.filter.DeviceID)
	}
}

func TestSyncHistory_BadQuery(t *testing.T) {
	env := newTestEnv(t, nil)
	env.srv.history = &fakeHistory{}
	env.handler = env.srv.buildRouter()

	for _, q := range []string{"limit=ten", "offset=x", "failed=maybe"} {
		rec := env.do(http.MethodGet, "/api/v1/sync-history?"+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestSyncHistory_Errors(t *testing.T) {
	env := newTestEnv(t, nil)
	env.srv.history = &fakeHistory{err: errors.New("db locked")}
	env.handler = env.srv.buildRouter()

	if rec := env.do(http.MethodGet, "/api/v1/sync-history", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestSyncHistory_NotMountedWithoutReader(t *testing.T) {
	env := newTestEnv(t, nil)
	if rec := env.do(http.MethodGet, "/api/v1/sync-history", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
