package engine

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tanq16/hauler/internal/utils"
)

func probeTestClient() utils.HTTPDoer {
	return utils.NewHaulerHTTPClient(utils.HTTPClientConfig{})
}

func TestProbeFullCapabilities(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("probe used method %s, want HEAD", r.Method)
		}
		w.Header().Set("Content-Length", "12345")
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Disposition", `attachment; filename="report final.pdf"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	info, err := Probe(probeTestClient(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected probe error: %v", err)
	}
	if info.Size != 12345 {
		t.Errorf("size = %d, want 12345", info.Size)
	}
	if !info.SupportsRanges {
		t.Error("expected range support to be detected")
	}
	if info.Filename != "report final.pdf" {
		t.Errorf("filename = %q, want %q", info.Filename, "report final.pdf")
	}
}

func TestProbeUnknownLength(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	info, err := Probe(probeTestClient(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected probe error: %v", err)
	}
	if info.Size != -1 {
		t.Errorf("size = %d, want -1 for missing Content-Length", info.Size)
	}
	if info.SupportsRanges {
		t.Error("range support detected without Accept-Ranges header")
	}
}

func TestProbeNoRangeSupport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "900")
		w.Header().Set("Accept-Ranges", "none")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	info, err := Probe(probeTestClient(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected probe error: %v", err)
	}
	if info.SupportsRanges {
		t.Error("Accept-Ranges: none should not count as range support")
	}
	if info.Size != 900 {
		t.Errorf("size = %d, want 900", info.Size)
	}
}

func TestProbeHTTPFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := Probe(probeTestClient(), ts.URL)
	if err == nil {
		t.Fatal("expected an error for a 404 probe")
	}
	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("error type = %T, want *ConnectivityError", err)
	}
	if connErr.Status != http.StatusNotFound {
		t.Errorf("status = %d, want %d", connErr.Status, http.StatusNotFound)
	}
}

func TestProbeUnreachableHost(t *testing.T) {
	_, err := Probe(probeTestClient(), "http://127.0.0.1:1/missing")
	if err == nil {
		t.Fatal("expected an error for an unreachable host")
	}
	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("error type = %T, want *ConnectivityError", err)
	}
	if connErr.Unwrap() == nil {
		t.Error("expected a wrapped transport error")
	}
}
