package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/docscan/internal/api/models"
	"github.com/smazurov/docscan/internal/camera"
	"github.com/smazurov/docscan/internal/camera/camerafake"
	"github.com/smazurov/docscan/internal/events"
	"github.com/smazurov/docscan/internal/logging"
	"github.com/smazurov/docscan/internal/save"
	"github.com/smazurov/docscan/internal/scanner"
	"github.com/smazurov/docscan/internal/streaming"
)

const testNavigateDelay = 30 * time.Millisecond

type errorBody struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func okSaver(redirect string) save.Saver {
	return save.SaverFunc(func(_ context.Context, _ save.Request) (save.Result, error) {
		return save.Result{Success: true, RedirectURL: redirect}, nil
	})
}

func newTestServer(t *testing.T, platform camera.Platform, saver save.Saver, mutate ...func(*Options)) (*httptest.Server, *scanner.Pipeline) {
	t.Helper()

	bus := events.New()
	pipeline := scanner.New(scanner.Options{
		Platform:      platform,
		Saver:         saver,
		Bus:           bus,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		ReadyTimeout:  time.Second,
		NavigateDelay: testNavigateDelay,
	})
	t.Cleanup(pipeline.Close)

	opts := &Options{
		Pipeline:      pipeline,
		EventBus:      bus,
		NavigateDelay: testNavigateDelay,
	}
	for _, m := range mutate {
		m(opts)
	}

	server := NewServer(opts)
	ts := httptest.NewServer(server.mux)
	t.Cleanup(ts.Close)
	return ts, pipeline
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	resp, err := http.Post(url, "application/json", reader)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, want, body)
	}
}

func TestHealthAndVersion(t *testing.T) {
	ts, _ := newTestServer(t, camerafake.New(), okSaver(""))

	resp := get(t, ts.URL+"/api/health")
	expectStatus(t, resp, http.StatusOK)
	health := decode[models.HealthData](t, resp)
	if health.Status != "ok" {
		t.Errorf("health status = %q, want ok", health.Status)
	}

	resp = get(t, ts.URL+"/api/version")
	expectStatus(t, resp, http.StatusOK)
	var info map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if info["version"] == "" || info["go_version"] == "" {
		t.Errorf("version info incomplete: %v", info)
	}
}

func TestScannerEndToEnd(t *testing.T) {
	var mu sync.Mutex
	var got save.Request
	saver := save.SaverFunc(func(_ context.Context, req save.Request) (save.Result, error) {
		mu.Lock()
		got = req
		mu.Unlock()
		return save.Result{Success: true, RedirectURL: "/documents/7"}, nil
	})
	ts, pipeline := newTestServer(t, camerafake.New(camerafake.WithSize(640, 480)), saver)

	resp := post(t, ts.URL+"/api/scanner/start", nil)
	expectStatus(t, resp, http.StatusOK)
	st := decode[scanner.Status](t, resp)
	if st.Session != camera.StateActive || st.View != scanner.ViewLive || !st.CanCapture {
		t.Fatalf("after start: %+v", st)
	}

	resp = post(t, ts.URL+"/api/scanner/capture", nil)
	expectStatus(t, resp, http.StatusOK)
	captured := decode[models.CaptureData](t, resp)
	if captured.Width != 640 || captured.Height != 480 || captured.Bytes == 0 {
		t.Errorf("capture = %+v", captured)
	}
	if captured.PreviewURL != "/api/scanner/preview" {
		t.Errorf("preview_url = %q", captured.PreviewURL)
	}

	resp = get(t, ts.URL+captured.PreviewURL)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("preview Content-Type = %q", ct)
	}
	img, err := jpeg.Decode(resp.Body)
	if err != nil {
		t.Fatalf("preview is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 480 {
		t.Errorf("preview size = %v", b)
	}

	resp = post(t, ts.URL+"/api/scanner/save", map[string]any{"title": "Receipt", "folder_id": "f-1"})
	expectStatus(t, resp, http.StatusOK)
	saved := decode[models.SaveData](t, resp)
	if !saved.Success || saved.RedirectURL != "/documents/7" || saved.NavigateIn != testNavigateDelay.String() {
		t.Errorf("save = %+v", saved)
	}

	mu.Lock()
	if got.Title != "Receipt" || got.FolderID == nil || *got.FolderID != "f-1" {
		t.Errorf("forwarded request = %+v", got)
	}
	if !strings.HasPrefix(got.Image, "data:image/jpeg;base64,") {
		t.Errorf("image is not a JPEG data URI: %.40s", got.Image)
	}
	mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for pipeline.Status().View != scanner.ViewLive {
		if time.Now().After(deadline) {
			t.Fatal("view did not return to live after navigation")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSaveNullFolder(t *testing.T) {
	var folder *string
	seen := make(chan struct{}, 1)
	saver := save.SaverFunc(func(_ context.Context, req save.Request) (save.Result, error) {
		folder = req.FolderID
		seen <- struct{}{}
		return save.Result{Success: true}, nil
	})
	ts, pipeline := newTestServer(t, camerafake.New(), saver)

	if err := pipeline.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := pipeline.Capture(context.Background()); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	resp, err := http.Post(ts.URL+"/api/scanner/save", "application/json",
		strings.NewReader(`{"title":"Scan","folder_id":null}`))
	if err != nil {
		t.Fatalf("POST save: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	<-seen
	if folder != nil {
		t.Errorf("folder_id = %q, want nil", *folder)
	}
}

func TestScannerConflicts(t *testing.T) {
	tests := []struct {
		name string
		path string
		want error
	}{
		{"capture without camera", "/api/scanner/capture", scanner.ErrNoActiveCamera},
		{"save without image", "/api/scanner/save", scanner.ErrNothingToSave},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, camerafake.New(), okSaver(""))

			resp := post(t, ts.URL+tt.path, map[string]any{})
			expectStatus(t, resp, http.StatusConflict)
			body := decode[errorBody](t, resp)
			if body.Detail != scanner.UserMessage(tt.want) {
				t.Errorf("detail = %q, want %q", body.Detail, scanner.UserMessage(tt.want))
			}
		})
	}
}

func TestStartWhilePreviewingConflicts(t *testing.T) {
	ts, pipeline := newTestServer(t, camerafake.New(), okSaver(""))
	if err := pipeline.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := pipeline.Capture(context.Background()); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	resp := post(t, ts.URL+"/api/scanner/start", nil)
	expectStatus(t, resp, http.StatusConflict)
}

func TestStartFailures(t *testing.T) {
	tests := []struct {
		name     string
		platform camera.Platform
		want     int
		reason   error
	}{
		{"no camera", camerafake.New(camerafake.WithDevices()), http.StatusServiceUnavailable, camera.ErrNoDeviceFound},
		{"unsupported", nil, http.StatusServiceUnavailable, camera.ErrUnsupportedPlatform},
		{"denied", camerafake.New(camerafake.WithOpenError(camera.ErrPermissionDenied)), http.StatusForbidden, camera.ErrPermissionDenied},
		{"busy", camerafake.New(camerafake.WithOpenError(camera.ErrDeviceBusy)), http.StatusServiceUnavailable, camera.ErrDeviceBusy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, pipeline := newTestServer(t, tt.platform, okSaver(""))

			resp := post(t, ts.URL+"/api/scanner/start", nil)
			expectStatus(t, resp, tt.want)
			body := decode[errorBody](t, resp)
			if body.Detail != scanner.UserMessage(tt.reason) {
				t.Errorf("detail = %q, want %q", body.Detail, scanner.UserMessage(tt.reason))
			}
			if st := pipeline.Status(); st.Error == "" {
				t.Error("status should carry the failure message")
			}
		})
	}
}

func TestSaveFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   int
		detail string
	}{
		{"rejected", &save.RejectedError{Reason: "Folder not found", StatusCode: 404}, http.StatusUnprocessableEntity, "Folder not found"},
		{"transport", fmt.Errorf("%w: connection refused", save.ErrSaveTransport), http.StatusBadGateway, scanner.UserMessage(save.ErrSaveTransport)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := save.SaverFunc(func(_ context.Context, _ save.Request) (save.Result, error) {
				return save.Result{}, tt.err
			})
			ts, pipeline := newTestServer(t, camerafake.New(), saver)
			if err := pipeline.Start(context.Background()); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			if _, err := pipeline.Capture(context.Background()); err != nil {
				t.Fatalf("Capture() error = %v", err)
			}

			resp := post(t, ts.URL+"/api/scanner/save", map[string]any{"title": "Scan"})
			expectStatus(t, resp, tt.want)
			body := decode[errorBody](t, resp)
			if body.Detail != tt.detail {
				t.Errorf("detail = %q, want %q", body.Detail, tt.detail)
			}

			if _, ok := pipeline.Image(); !ok {
				t.Error("failed save must keep the captured image")
			}
		})
	}
}

func TestAvailability(t *testing.T) {
	tests := []struct {
		name     string
		platform camera.Platform
		want     models.AvailabilityData
	}{
		{
			name:     "two cameras",
			platform: camerafake.New(),
			want:     models.AvailabilityData{Usable: true, Multiple: true, Determined: true, Count: 2},
		},
		{
			name:     "no cameras",
			platform: camerafake.New(camerafake.WithDevices()),
			want: models.AvailabilityData{
				Determined: true,
				Message:    scanner.UserMessage(camera.ErrNoDeviceFound),
			},
		},
		{
			name:     "enumeration fails",
			platform: camerafake.New(camerafake.WithDevicesError(errors.New("boom"))),
			want:     models.AvailabilityData{Message: scanner.UserMessage(errors.New("boom"))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, pipeline := newTestServer(t, tt.platform, okSaver(""))

			resp := get(t, ts.URL+"/api/scanner/availability")
			expectStatus(t, resp, http.StatusOK)
			got := decode[models.AvailabilityData](t, resp)
			if got != tt.want {
				t.Errorf("availability = %+v, want %+v", got, tt.want)
			}
			if st := pipeline.Status(); st.CanSwitch != tt.want.Multiple {
				t.Errorf("can_switch = %v, want %v", st.CanSwitch, tt.want.Multiple)
			}
		})
	}
}

func TestSwitchFacing(t *testing.T) {
	fake := camerafake.New()
	ts, _ := newTestServer(t, fake, okSaver(""))

	expectStatus(t, post(t, ts.URL+"/api/scanner/start", nil), http.StatusOK)

	resp := post(t, ts.URL+"/api/scanner/switch", nil)
	expectStatus(t, resp, http.StatusOK)
	got := decode[models.SwitchData](t, resp)
	if got.Facing != string(camera.FacingFront) {
		t.Errorf("facing = %q, want front", got.Facing)
	}
	if got.Status.Session != camera.StateActive || got.Status.Settings == nil || got.Status.Settings.DeviceID != "fake-front" {
		t.Errorf("status after switch = %+v", got.Status)
	}
	if fake.MaxHeld() != 1 {
		t.Errorf("max held streams = %d, want 1", fake.MaxHeld())
	}
}

func TestRetake(t *testing.T) {
	ts, pipeline := newTestServer(t, camerafake.New(), okSaver(""))
	expectStatus(t, post(t, ts.URL+"/api/scanner/start", nil), http.StatusOK)
	expectStatus(t, post(t, ts.URL+"/api/scanner/capture", nil), http.StatusOK)

	resp := post(t, ts.URL+"/api/scanner/retake", nil)
	expectStatus(t, resp, http.StatusOK)
	st := decode[scanner.Status](t, resp)
	if st.View != scanner.ViewLive || st.Image != nil || st.Session != camera.StateActive {
		t.Errorf("status after retake = %+v", st)
	}
	if _, ok := pipeline.Image(); ok {
		t.Error("retake must discard the captured image")
	}
}

func TestPreview(t *testing.T) {
	ts, _ := newTestServer(t, camerafake.New(camerafake.WithSize(320, 240)), okSaver(""))

	expectStatus(t, get(t, ts.URL+"/api/scanner/preview"), http.StatusNotFound)
	expectStatus(t, get(t, ts.URL+"/api/scanner/preview?live=true"), http.StatusConflict)

	expectStatus(t, post(t, ts.URL+"/api/scanner/start", nil), http.StatusOK)

	resp := get(t, ts.URL+"/api/scanner/preview?live=true")
	expectStatus(t, resp, http.StatusOK)
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q", cc)
	}
	img, err := jpeg.Decode(resp.Body)
	if err != nil {
		t.Fatalf("live frame is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("live frame size = %v", b)
	}
}

func TestEventsStream(t *testing.T) {
	ts, _ := newTestServer(t, camerafake.New(), okSaver(""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("Content-Type = %q", ct)
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	waitFor := func(event string) string {
		t.Helper()
		timeout := time.After(3 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q", event)
				}
				if line != "event: "+event {
					continue
				}
				data := <-lines
				return strings.TrimPrefix(data, "data: ")
			case <-timeout:
				t.Fatalf("timed out waiting for %q", event)
			}
		}
	}

	var snapshot scanner.Status
	if err := json.Unmarshal([]byte(waitFor("status")), &snapshot); err != nil {
		t.Fatalf("decode status event: %v", err)
	}
	if snapshot.View != scanner.ViewLive || snapshot.Session != camera.StateIdle {
		t.Errorf("initial snapshot = %+v", snapshot)
	}

	expectStatus(t, post(t, ts.URL+"/api/scanner/start", nil), http.StatusOK)

	var state events.SessionStateChangedEvent
	if err := json.Unmarshal([]byte(waitFor("session-state")), &state); err != nil {
		t.Fatalf("decode session-state event: %v", err)
	}
	if state.State != string(camera.StateStarting) {
		t.Errorf("first session state = %q, want starting", state.State)
	}

	expectStatus(t, post(t, ts.URL+"/api/scanner/capture", nil), http.StatusOK)

	var captured events.CaptureSuccessEvent
	if err := json.Unmarshal([]byte(waitFor("capture-success")), &captured); err != nil {
		t.Fatalf("decode capture-success event: %v", err)
	}
	if captured.Width == 0 || captured.Bytes == 0 {
		t.Errorf("capture event = %+v", captured)
	}
}

func TestLogsEndpoint(t *testing.T) {
	logging.Initialize(logging.Config{Level: "info"})
	ts, _ := newTestServer(t, camerafake.New(), okSaver(""))

	logger := logging.GetLogger("logs-test")
	for i := range 5 {
		logger.Info("entry", "n", i)
	}

	resp := get(t, ts.URL+"/api/logs?limit=2")
	expectStatus(t, resp, http.StatusOK)
	got := decode[models.LogsData](t, resp)
	if got.Count != 2 || len(got.Entries) != 2 {
		t.Fatalf("logs = %+v, want 2 entries", got)
	}
	last := got.Entries[1]
	if last.Module != "logs-test" || last.Message != "entry" {
		t.Errorf("last entry = %+v", last)
	}
	if n, ok := last.Attributes["n"].(float64); !ok || n != 4 {
		t.Errorf("last entry n = %v, want 4", last.Attributes["n"])
	}
}

type mockLEDController struct {
	mu    sync.Mutex
	calls []string
}

func (m *mockLEDController) Set(ledType string, enabled bool, pattern string) error {
	if ledType != "user" {
		return fmt.Errorf("unknown LED %q", ledType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf("%s:%v:%s", ledType, enabled, pattern))
	return nil
}

func (m *mockLEDController) Available() []string { return []string{"system", "user"} }

func (m *mockLEDController) Patterns() []string { return []string{"solid", "blink"} }

func TestLEDRoutes(t *testing.T) {
	ctrl := &mockLEDController{}
	ts, _ := newTestServer(t, camerafake.New(), okSaver(""), func(o *Options) {
		o.LEDController = ctrl
	})

	resp := get(t, ts.URL+"/api/leds/capabilities")
	expectStatus(t, resp, http.StatusOK)
	caps := decode[LEDCapabilities](t, resp)
	if caps.Indicator != "user" || len(caps.AvailableTypes) != 2 {
		t.Errorf("capabilities = %+v", caps)
	}

	expectStatus(t, post(t, ts.URL+"/api/leds", map[string]any{"type": "user", "enabled": true, "pattern": "blink"}), http.StatusNoContent)
	expectStatus(t, post(t, ts.URL+"/api/leds", map[string]any{"type": "nope", "enabled": true}), http.StatusBadRequest)

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if len(ctrl.calls) != 1 || ctrl.calls[0] != "user:true:blink" {
		t.Errorf("calls = %v", ctrl.calls)
	}
}

func TestLEDRoutesAbsentWithoutController(t *testing.T) {
	ts, _ := newTestServer(t, camerafake.New(), okSaver(""))

	resp := get(t, ts.URL+"/api/leds/capabilities")
	if resp.StatusCode == http.StatusOK {
		t.Error("LED routes should not be registered without a controller")
	}
}

func TestWebRTCSignaling(t *testing.T) {
	const path = "/api/scanner/preview/webrtc"

	t.Run("absent without manager", func(t *testing.T) {
		ts, _ := newTestServer(t, camerafake.New(), okSaver(""))
		resp, err := http.Post(ts.URL+path, "application/sdp", strings.NewReader("v=0"))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			t.Error("WebRTC route should not be registered without a manager")
		}
	})

	t.Run("bad offer", func(t *testing.T) {
		ts, _ := newTestServer(t, camerafake.New(), okSaver(""), func(o *Options) {
			hub, err := streaming.NewHub(streaming.HubOptions{
				Source: o.Pipeline,
				Encoder: func(context.Context) (streaming.Encoder, error) {
					return nil, errors.New("no encoder in tests")
				},
			})
			if err != nil {
				t.Fatalf("NewHub() error = %v", err)
			}
			manager, err := streaming.NewManager(hub, streaming.Config{}, nil)
			if err != nil {
				t.Fatalf("NewManager() error = %v", err)
			}
			t.Cleanup(manager.Stop)
			o.Preview = manager
		})
		resp, err := http.Post(ts.URL+path, "application/sdp", strings.NewReader("not an sdp"))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		expectStatus(t, resp, http.StatusBadRequest)
	})
}

func TestMetricsHandlerMounted(t *testing.T) {
	ts, _ := newTestServer(t, camerafake.New(), okSaver(""), func(o *Options) {
		o.PrometheusHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "docscan_up 1\n")
		})
	})

	resp := get(t, ts.URL+"/metrics")
	expectStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "docscan_up") {
		t.Errorf("metrics body = %q", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, camerafake.New(), okSaver(""))

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/scanner/save", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestScannerErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{scanner.ErrPreviewShown, http.StatusConflict},
		{scanner.ErrSaveInProgress, http.StatusConflict},
		{fmt.Errorf("%w: %w", scanner.ErrNoActiveCamera, camera.ErrNotActive), http.StatusConflict},
		{&save.RejectedError{Reason: "nope"}, http.StatusUnprocessableEntity},
		{save.ErrSaveTransport, http.StatusBadGateway},
		{camera.ErrPermissionDenied, http.StatusForbidden},
		{camera.ErrDeviceNotFound, http.StatusServiceUnavailable},
		{camera.ErrUnknownAcquisition, http.StatusServiceUnavailable},
		{errors.New("jpeg: bad"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			var se interface{ GetStatus() int }
			if !errors.As(scannerError(tt.err), &se) {
				t.Fatalf("scannerError(%v) has no status", tt.err)
			}
			if se.GetStatus() != tt.want {
				t.Errorf("status = %d, want %d", se.GetStatus(), tt.want)
			}
		})
	}
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		method string
		path   string
		status int
		want   slog.Level
	}{
		{http.MethodPost, "/api/scanner/capture", 200, slog.LevelInfo},
		{http.MethodGet, previewPath, 200, slog.LevelDebug},
		{http.MethodGet, "/api/scanner/status", 200, slog.LevelDebug},
		{http.MethodGet, previewPath, 409, slog.LevelWarn},
		{http.MethodOptions, "/api/scanner/save", 204, slog.LevelDebug},
		{http.MethodPost, "/api/scanner/save", 502, slog.LevelError},
	}
	for _, tt := range tests {
		if got := requestLevel(tt.method, tt.path, tt.status); got != tt.want {
			t.Errorf("requestLevel(%s %s %d) = %v, want %v", tt.method, tt.path, tt.status, got, tt.want)
		}
	}
}
