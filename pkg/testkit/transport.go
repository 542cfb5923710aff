package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockTransport answers pkg/http calls from a scenario's mock steps.
type MockTransport struct {
	mu      sync.Mutex
	steps   []mockEntry
	require bool
}

type mockEntry struct {
	step  MockStep
	calls int
}

func NewMockTransport(s *Scenario) *MockTransport {
	mt := &MockTransport{require: s.IsMockRequired}
	for _, step := range s.NetUtilMockStep {
		if step.IsMock {
			mt.steps = append(mt.steps, mockEntry{step: step})
		}
	}
	return mt
}

func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for i := range mt.steps {
		e := &mt.steps[i]
		if e.step.MatchURL != "" && !strings.HasPrefix(req.URL.String(), e.step.MatchURL) {
			continue
		}
		e.calls++
		return mockResponse(req, e.step.ReturnData), nil
	}

	if mt.require {
		return nil, fmt.Errorf("testkit: unexpected outgoing call to %s", req.URL)
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(`{"error":"no mock configured"}`)),
		Request:    req,
	}, nil
}

// Uncalled lists the steps no request matched.
func (mt *MockTransport) Uncalled() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var errs []error
	for _, e := range mt.steps {
		if e.calls == 0 {
			errs = append(errs, fmt.Errorf("testkit: mock step %q (matchUrl=%q) was never called", e.step.Method, e.step.MatchURL))
		}
	}
	return errs
}

func mockResponse(req *http.Request, rd MockReturnData) *http.Response {
	code := rd.StatusCode
	if code == 0 {
		code = http.StatusOK
	}

	body := []byte(rd.Body)
	var text string
	if len(body) > 0 && body[0] == '"' && json.Unmarshal(body, &text) == nil {
		body = []byte(text)
	}

	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}
}
