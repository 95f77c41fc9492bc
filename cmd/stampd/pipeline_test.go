package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"requestid-middleware/internal/platform/config"
	"requestid-middleware/internal/platform/httpmw"
	"requestid-middleware/internal/requestid"

	"go.uber.org/zap"
)

func testConfig(strategy, prefix string) *config.Config {
	return &config.Config{
		Service:   config.ServiceConfig{Name: "stampd"},
		RequestID: config.RequestIDConfig{Strategy: strategy, Prefix: prefix, Header: "X-Request-Id"},
	}
}

func echoID(t *testing.T, h http.Handler, upstream string) (string, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/echo", nil)
	if upstream != "" {
		req.Header.Set("X-Request-Id", upstream)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rr.Code, rr.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body["request_id"], rr.Header().Get("X-Request-Id")
}

func TestNewPipeline_PrefixedEndToEnd(t *testing.T) {
	c := requestid.NewCounter()
	p, err := newPipeline(testConfig("prefixed", "edge"), c)
	if err != nil {
		t.Fatalf("newPipeline err=%v", err)
	}
	h := httpmw.BuildEdgeHandler(zap.NewNop(), httpmw.EdgePolicy{Pipeline: p.http}, routes())

	if body, header := echoID(t, h, ""); body != "edge-1" || header != "edge-1" {
		t.Fatalf("body=%q header=%q", body, header)
	}
	if body, header := echoID(t, h, "abc"); body != "abc" || header != "abc" {
		t.Fatalf("body=%q header=%q", body, header)
	}
	if c.Load() != 1 {
		t.Fatalf("counter=%d want 1", c.Load())
	}
}

func TestNewPipeline_RejectsBlankPrefix(t *testing.T) {
	_, err := newPipeline(testConfig("prefixed", " "), requestid.NewCounter())
	if !errors.Is(err, requestid.ErrInvalidConfiguration) {
		t.Fatalf("err=%v", err)
	}
}
