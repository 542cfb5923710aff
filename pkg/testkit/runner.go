package testkit

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	outbound "github.com/hsmarket/storefront/pkg/http"
)

// Run executes one scenario file against handler.
func Run(t *testing.T, handler http.Handler, path string, vars Vars) *httptest.ResponseRecorder {
	t.Helper()

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("%v", err)
	}
	var rec *httptest.ResponseRecorder
	t.Run(s.Name, func(t *testing.T) {
		rec = Exec(t, handler, s, vars)
	})
	return rec
}

// RunDir runs every scenario of dir, in file name order, as subtests.
// Scenarios share the handler, so later files see earlier writes.
func RunDir(t *testing.T, handler http.Handler, dir string, vars Vars) {
	t.Helper()

	scenarios, errs := LoadAllFromDir(dir)
	for _, err := range errs {
		t.Errorf("%v", err)
	}
	for _, s := range scenarios {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			Exec(t, handler, s, vars)
		})
	}
}

// Exec fires s at handler with its mocks installed and asserts the result.
func Exec(t *testing.T, handler http.Handler, s *Scenario, vars Vars) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := s.requestBody()
	if err != nil {
		t.Fatalf("[%s] read request body: %v", s.Name, err)
	}
	var body io.Reader
	if raw != nil {
		body = bytes.NewReader([]byte(vars.expand(string(raw))))
	}

	mt := NewMockTransport(s)
	outbound.DefaultClient.Transport = mt
	defer outbound.ResetTransport()

	req := httptest.NewRequest(strings.ToUpper(s.RequestMethod), vars.expand(s.RequestURL), body)
	req.Header.Set("Accept", "application/json")
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range s.Headers {
		req.Header.Set(k, vars.expand(v))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())

	expected, err := s.expectedBody()
	if err != nil {
		t.Errorf("[%s] read expected body: %v", s.Name, err)
	} else {
		AssertJSONSubset(t, s, expected, rec.Body.Bytes())
	}

	for _, err := range mt.Uncalled() {
		t.Errorf("[%s] %v", s.Name, err)
	}
	return rec
}
