package save

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(endpoint string, retries int) *Client {
	return NewClient(ClientOptions{
		Endpoint:  endpoint,
		Timeout:   2 * time.Second,
		Retries:   retries,
		RetryWait: time.Millisecond,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestClientSaveSuccess(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "docscan/") {
			t.Errorf("User-Agent = %q", ua)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"redirect_url":"/docs/1"}`)
	}))
	defer srv.Close()

	res, err := testClient(srv.URL, 0).Save(context.Background(), Request{
		Image: "data:image/jpeg;base64,AAAA",
		Title: "Scan A",
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !res.Success || res.RedirectURL != "/docs/1" {
		t.Errorf("Save() = %+v", res)
	}

	if got["title"] != "Scan A" || got["image"] != "data:image/jpeg;base64,AAAA" {
		t.Errorf("payload = %v", got)
	}
	if v, ok := got["folder_id"]; !ok || v != nil {
		t.Errorf("folder_id = %v (present %v), want explicit null", v, ok)
	}
}

func TestClientSaveFolder(t *testing.T) {
	var folder any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		folder = body["folder_id"]
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	id := "f-42"
	if _, err := testClient(srv.URL, 0).Save(context.Background(), Request{Title: "x", FolderID: &id}); err != nil {
		t.Fatal(err)
	}
	if folder != "f-42" {
		t.Errorf("folder_id = %v, want f-42", folder)
	}
}

func TestClientSaveRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"success":false,"error":"No image provided"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).Save(context.Background(), Request{Title: "x"})
	if !errors.Is(err, ErrSaveRejected) {
		t.Fatalf("Save() error = %v, want ErrSaveRejected", err)
	}
	if errors.Is(err, ErrSaveTransport) {
		t.Error("rejection must not match ErrSaveTransport")
	}

	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("error %T is not *RejectedError", err)
	}
	if rejected.Reason != "No image provided" || rejected.StatusCode != http.StatusBadRequest {
		t.Errorf("RejectedError = %+v", rejected)
	}
	if err.Error() != "No image provided" {
		t.Errorf("Error() = %q, want the server reason verbatim", err.Error())
	}
}

func TestClientSaveServerErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<html>boom</html>")
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).Save(context.Background(), Request{Title: "x"})
	if !errors.Is(err, ErrSaveTransport) {
		t.Fatalf("Save() error = %v, want ErrSaveTransport", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}
}

func TestClientSaveTransportRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer cannot hijack")
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2).Save(context.Background(), Request{Title: "x"})
	if !errors.Is(err, ErrSaveTransport) {
		t.Fatalf("Save() error = %v, want ErrSaveTransport", err)
	}
	if errors.Is(err, ErrSaveRejected) {
		t.Error("transport failure must not match ErrSaveRejected")
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestClientSaveUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := testClient(url, 0).Save(context.Background(), Request{Title: "x"})
	if !errors.Is(err, ErrSaveTransport) {
		t.Errorf("Save() error = %v, want ErrSaveTransport", err)
	}
}

func TestSaverFunc(t *testing.T) {
	var s Saver = SaverFunc(func(_ context.Context, req Request) (Result, error) {
		return Result{Success: true, RedirectURL: "/documents/" + req.Title}, nil
	})
	res, err := s.Save(context.Background(), Request{Title: "7"})
	if err != nil || res.RedirectURL != "/documents/7" {
		t.Errorf("Save() = %+v, %v", res, err)
	}
}
