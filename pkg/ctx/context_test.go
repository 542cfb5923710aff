package ctx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appctx "github.com/hsmarket/storefront/pkg/ctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h appctx.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	appctx.Wrap(h)(rec, req)
	return rec
}

func TestSuccessSendsEmptyListForNilSlice(t *testing.T) {
	var products []string
	rec := serve(func(c *appctx.Context) { c.Success(products) },
		httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"data":[]}`, rec.Body.String())
}

func TestBindJSONValidationError(t *testing.T) {
	type input struct {
		City string `json:"city" validate:"required,in=Rabat,Fes"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"city":"Paris"}`))
	rec := serve(func(c *appctx.Context) {
		var in input
		if !c.BindJSON(&in) {
			return
		}
		c.Success(in)
	}, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Errors, "city")
}

func TestBindJSONMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"city":`))
	rec := serve(func(c *appctx.Context) {
		var in map[string]any
		c.BindJSON(&in)
	}, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", appctx.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "196.200.1.1, 10.0.0.1")
	assert.Equal(t, "196.200.1.1", appctx.ClientIP(req))
}

func TestAttachment(t *testing.T) {
	rec := serve(func(c *appctx.Context) {
		c.Attachment("orders.csv", "text/csv; charset=utf-8", []byte("a,b\n"))
	}, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, `attachment; filename="orders.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", rec.Body.String())
}
