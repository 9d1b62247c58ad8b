package serialmux

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func localHostRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

func TestAttachAdminRoutes_Stats(t *testing.T) {
	port := NewTestableSerialPort()
	link := NewLink(port)
	_ = link.Send(-40)
	port.SetReady(false)
	_ = link.Send(-45)

	mux := http.NewServeMux()
	link.AttachAdminRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, localHostRequest(http.MethodGet, "/debug/serial-stats"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"sent 1", "dropped 1", "failed 0"} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
}

func TestAttachAdminRoutes_TailRejectsPost(t *testing.T) {
	link := NewLink(NewTestableSerialPort())
	mux := http.NewServeMux()
	link.AttachAdminRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, localHostRequest(http.MethodPost, "/debug/serial-tail"))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestAttachAdminRoutes_TailStreamsFrames(t *testing.T) {
	link := NewLink(NewTestableSerialPort())
	mux := http.NewServeMux()
	link.AttachAdminRoutes(mux)

	ts := httptest.NewServer(mux)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/debug/serial-tail", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected text/event-stream, got %s", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	if !scanner.Scan() || !strings.HasPrefix(scanner.Text(), ": ping") {
		t.Fatalf("expected initial ping, got %q", scanner.Text())
	}

	// the subscription is registered before the ping is flushed
	if err := link.Send(-75); err != nil {
		t.Fatalf("Send: %v", err)
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line != "data: RSSI value is:  -75" {
			t.Errorf("event line = %q", line)
		}
		return
	}
	t.Fatalf("stream ended without a frame: %v", scanner.Err())
}
