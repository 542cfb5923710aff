// Package testkit runs JSON-described API scenarios against an
// http.Handler, with outgoing pkg/http calls answered by mocks.
//
//	testdata/scenarios/
//	  submit_order.json
//	  reviews_generated.json
//
//	func TestAPI(t *testing.T) {
//	    testkit.RunDir(t, k.Handler(), "testdata/scenarios", testkit.Vars{"token": tok})
//	}
//
// A scenario:
//
//	{
//	  "name": "reviews come from the model",
//	  "requestMethod": "GET",
//	  "requestUrl": "/api/reviews",
//	  "headers": {"Authorization": "Bearer {{token}}"},
//	  "expectedCode": 200,
//	  "responseBody": {"status": 200},
//	  "netUtilMockStep": [
//	    {"method": "httprequest", "isMock": true, "matchUrl": "https://gemini.test/",
//	     "returnData": {"statusCode": 200, "body": {"candidates": []}}}
//	  ]
//	}
//
// responseBody (or responseFileName) is matched as a subset: every key it
// names must be present with an equal value; other keys are ignored.
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestBody     json.RawMessage   `json:"requestBody"`
	RequestFileName string            `json:"requestFileName"`
	Headers         map[string]string `json:"headers"`

	ExpectedCode     int             `json:"expectedCode"`
	ResponseBody     json.RawMessage `json:"responseBody"`
	ResponseFileName string          `json:"responseFileName"`

	// IsMockRequired fails outgoing calls that match no step instead of
	// answering them with a 404.
	IsMockRequired  bool       `json:"isMockRequired"`
	NetUtilMockStep []MockStep `json:"netUtilMockStep"`

	dir string
}

// MockStep answers outgoing requests whose URL starts with MatchURL (any
// URL when empty). Only the "httprequest" method is understood.
type MockStep struct {
	Method     string         `json:"method"`
	IsMock     bool           `json:"isMock"`
	MatchURL   string         `json:"matchUrl"`
	ReturnData MockReturnData `json:"returnData"`
}

// MockReturnData is the synthetic response. Body is sent verbatim: a JSON
// string value is sent as its text, anything else as JSON.
type MockReturnData struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// Vars are substituted for {{name}} in the URL, headers and request body.
type Vars map[string]string

func (v Vars) expand(s string) string {
	for k, val := range v {
		s = strings.ReplaceAll(s, "{{"+k+"}}", val)
	}
	return s
}

func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}
	s.dir = filepath.Dir(abs)
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	for i, step := range s.NetUtilMockStep {
		if step.Method != "httprequest" {
			return fmt.Errorf("netUtilMockStep[%d]: unsupported method %q", i, step.Method)
		}
	}
	return nil
}

func (s *Scenario) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// requestBody returns the inline body, else the request file, else nil.
func (s *Scenario) requestBody() ([]byte, error) {
	if len(s.RequestBody) > 0 {
		return s.RequestBody, nil
	}
	if p := s.resolve(s.RequestFileName); p != "" {
		return os.ReadFile(p)
	}
	return nil, nil
}

// expectedBody returns the inline expectation, else the response file.
func (s *Scenario) expectedBody() ([]byte, error) {
	if len(s.ResponseBody) > 0 {
		return s.ResponseBody, nil
	}
	if p := s.resolve(s.ResponseFileName); p != "" {
		return os.ReadFile(p)
	}
	return nil, nil
}

// LoadAllFromDir loads every *.json file in dir, sorted by file name.
// Files holding request or response bodies belong in a subdirectory.
func LoadAllFromDir(dir string) ([]*Scenario, []error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(entries) == 0 {
		return nil, []error{fmt.Errorf("testkit: no scenario files found in %q", dir)}
	}
	sort.Strings(entries)

	var (
		scenarios []*Scenario
		errs      []error
	)
	for _, path := range entries {
		s, err := LoadScenario(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, errs
}
