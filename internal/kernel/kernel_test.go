package kernel_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsmarket/storefront/app/services"
	"github.com/hsmarket/storefront/internal/kernel"
	"github.com/hsmarket/storefront/pkg/storage"
	"github.com/hsmarket/storefront/pkg/testkit"
)

const adminPassword = "open-sesame"

func newKernel(t *testing.T, mutate ...func(*kernel.Options)) *kernel.Kernel {
	t.Helper()

	disk, err := storage.NewLocalDisk(t.TempDir(), "http://shop.test/storage")
	require.NoError(t, err)

	opts := kernel.Options{
		Disk: disk,
		Auth: services.AuthConfig{Password: adminPassword, Secret: "test-secret"},
		Reviews: services.ReviewConfig{
			APIKey:   "test-key",
			Model:    "gemini-test",
			Endpoint: "https://gemini.test/v1beta",
		},
		UnitPrice: 190,
	}
	for _, m := range mutate {
		m(&opts)
	}

	k, err := kernel.New(opts)
	require.NoError(t, err)
	return k
}

type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func do(t *testing.T, h http.Handler, method, url, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, url, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	rec, env := do(t, h, http.MethodPost, "/api/admin/login", "", map[string]string{"password": adminPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var s services.Session
	require.NoError(t, json.Unmarshal(env.Data, &s))
	require.NotEmpty(t, s.Token)
	return s.Token
}

func submitOrder(t *testing.T, h http.Handler, name string) string {
	t.Helper()
	rec, env := do(t, h, http.MethodPost, "/api/orders", "", map[string]string{
		"fullName":    name,
		"phoneNumber": "0611223344",
		"address":     "Derb Omar 4",
		"city":        "Rabat",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &order))
	return order.ID
}

func TestScenarios(t *testing.T) {
	k := newKernel(t)
	h := k.Handler()
	testkit.RunDir(t, h, "testdata/scenarios", testkit.Vars{"token": login(t, h)})
}

func TestLogin(t *testing.T) {
	h := newKernel(t).Handler()

	rec, _ := do(t, h, http.MethodPost, "/api/admin/login", "", map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := do(t, h, http.MethodPost, "/api/admin/login", "", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Errors, "password")

	assert.NotEmpty(t, login(t, h))
}

func TestLoginDisabledWithoutPassword(t *testing.T) {
	h := newKernel(t, func(o *kernel.Options) { o.Auth = services.AuthConfig{Secret: "s"} }).Handler()

	rec, _ := do(t, h, http.MethodPost, "/api/admin/login", "", map[string]string{"password": "anything"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewRefusesDefaultSecretInProduction(t *testing.T) {
	_, err := kernel.New(kernel.Options{
		Auth: services.AuthConfig{Password: adminPassword, Production: true},
	})
	assert.ErrorIs(t, err, services.ErrWeakSecret)
}

func TestLoginIsRateLimited(t *testing.T) {
	h := newKernel(t).Handler()

	var last int
	for i := 0; i < 11; i++ {
		rec, _ := do(t, h, http.MethodPost, "/api/admin/login", "", map[string]string{"password": "wrong"})
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestLogoutRevokesToken(t *testing.T) {
	h := newKernel(t).Handler()
	token := login(t, h)

	rec, _ := do(t, h, http.MethodGet, "/api/admin/orders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/admin/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/api/admin/orders", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderStatusFlow(t *testing.T) {
	h := newKernel(t).Handler()
	token := login(t, h)
	id := submitOrder(t, h, "Salma")
	submitOrder(t, h, "Omar")

	rec, _ := do(t, h, http.MethodPatch, "/api/admin/orders/"+id+"/status", token, map[string]string{"status": "delivered"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec, env := do(t, h, http.MethodPatch, "/api/admin/orders/"+id+"/status", token, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Errors, "status")

	_, env = do(t, h, http.MethodGet, "/api/admin/orders?status=delivered", token, nil)
	var delivered []struct {
		ID       string `json:"id"`
		FullName string `json:"fullName"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &delivered))
	require.Len(t, delivered, 1)
	assert.Equal(t, "Salma", delivered[0].FullName)

	_, env = do(t, h, http.MethodGet, "/api/admin/orders?q=oma", token, nil)
	var found []struct {
		FullName string `json:"fullName"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Omar", found[0].FullName)

	_, env = do(t, h, http.MethodGet, "/api/admin/orders/summary", token, nil)
	var summary services.OrderSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, services.OrderSummary{Total: 2, New: 1, Revenue: 380, DeliveryRate: 50}, summary)
}

func TestOrderExport(t *testing.T) {
	h := newKernel(t).Handler()
	token := login(t, h)
	submitOrder(t, h, "Hajar")

	rec, _ := do(t, h, http.MethodGet, "/api/admin/orders/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Regexp(t, `attachment; filename="hsmarket-orders-\d{4}-\d{2}-\d{2}\.csv"`, rec.Header().Get("Content-Disposition"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "\ufeff"), "export starts with a BOM")
	assert.Contains(t, body, `"Hajar"`)
	assert.Equal(t, 2, strings.Count(strings.TrimRight(body, "\n"), "\n")+1, "header plus one row")
}

func TestCatalogLifecycle(t *testing.T) {
	h := newKernel(t).Handler()
	token := login(t, h)

	rec, env := do(t, h, http.MethodPost, "/api/admin/categories/seed", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var seeded []struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &seeded))
	require.Len(t, seeded, 4)

	rec, _ = do(t, h, http.MethodPost, "/api/admin/categories/seed", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	audio := seeded[0].ID
	rec, env = do(t, h, http.MethodPost, "/api/admin/products", token, map[string]interface{}{
		"name":          "SonicPod Pro",
		"price":         249,
		"originalPrice": 399,
		"category":      audio,
		"images":        []string{"", "https://img.test/b.jpg"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product struct {
		ID     string   `json:"id"`
		Image  string   `json:"image"`
		Images []string `json:"images"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.NotEmpty(t, product.Image)
	assert.Equal(t, []string{"https://img.test/b.jpg"}, product.Images)

	rec, env = do(t, h, http.MethodPost, "/api/admin/products", token, map[string]interface{}{"name": "", "price": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Errors, "name")
	assert.Contains(t, env.Errors, "price")

	_, env = do(t, h, http.MethodGet, "/api/collections", "", nil)
	var cols []struct {
		ID           string `json:"id"`
		ProductCount int    `json:"productCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cols))
	counts := map[string]int{}
	for _, c := range cols {
		counts[c.ID] = c.ProductCount
	}
	assert.Equal(t, 1, counts[audio])

	rec, _ = do(t, h, http.MethodPut, "/api/admin/products/"+product.ID, token, map[string]interface{}{
		"name":  "SonicPod Pro 2",
		"price": 229,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, env = do(t, h, http.MethodGet, "/api/products/"+product.ID, "", nil)
	var updated struct {
		Name     string `json:"name"`
		Price    float64
		Category string `json:"category"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "SonicPod Pro 2", updated.Name)
	assert.Empty(t, updated.Category, "update replaces the whole record")

	rec, _ = do(t, h, http.MethodPut, "/api/admin/products/missing", token, map[string]interface{}{"name": "x", "price": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodDelete, "/api/admin/products/"+product.ID, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = do(t, h, http.MethodGet, "/api/products/"+product.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(t, h, http.MethodDelete, "/api/admin/products/"+product.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code, "deleting twice is a no-op")

	rec, _ = do(t, h, http.MethodDelete, "/api/admin/categories/"+audio, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	_, env = do(t, h, http.MethodGet, "/api/categories", "", nil)
	var left []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &left))
	assert.Len(t, left, 3)

	rec, _ = do(t, h, http.MethodPost, "/api/admin/categories/seed?confirm=true", token, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestOrderForCatalogProduct(t *testing.T) {
	h := newKernel(t).Handler()
	token := login(t, h)

	_, env := do(t, h, http.MethodPost, "/api/admin/products", token, map[string]interface{}{"name": "FitWatch", "price": 320})
	var product struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &product))

	rec, env := do(t, h, http.MethodPost, "/api/orders", "", map[string]string{
		"fullName":      "Imane",
		"phoneNumber":   "0700000000",
		"address":       "Gueliz",
		"city":          "Marrakech",
		"selectedColor": "Pink",
		"productId":     product.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order struct {
		TotalPrice  float64 `json:"totalPrice"`
		ProductName string  `json:"productName"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, 320.0, order.TotalPrice)
	assert.Equal(t, "FitWatch", order.ProductName)

	rec, env = do(t, h, http.MethodPost, "/api/orders", "", map[string]string{
		"fullName":    "Imane",
		"phoneNumber": "0700000000",
		"address":     "Gueliz",
		"city":        "Marrakech",
		"productId":   "ghost",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Errors, "productId")
}

func multipartUpload(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	h := newKernel(t).Handler()
	token := login(t, h)
	png := []byte("\x89PNG\r\n\x1a\nfake")

	body, ct := multipartUpload(t, "my photo.png", "image/png", png)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Regexp(t, `^http://shop\.test/storage/products/\d+_my_photo\.png$`, env.Data.URL)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(env.Data.URL, "http://shop.test"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, png, rec.Body.Bytes())

	body, ct = multipartUpload(t, "notes.txt", "text/plain", []byte("hello"))
	req = httptest.NewRequest(http.MethodPost, "/api/admin/uploads", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestGraphQL(t *testing.T) {
	h := newKernel(t).Handler()
	token := login(t, h)
	do(t, h, http.MethodPost, "/api/admin/products", token, map[string]interface{}{"name": "SonicPod", "price": 190, "originalPrice": 380})

	req := httptest.NewRequest(http.MethodPost, "/graphql",
		strings.NewReader(`{"query":"{ products { name price discountPercent } }"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Data struct {
			Products []struct {
				Name            string  `json:"name"`
				Price           float64 `json:"price"`
				DiscountPercent int     `json:"discountPercent"`
			} `json:"products"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Empty(t, out.Errors)
	require.Len(t, out.Data.Products, 1)
	assert.Equal(t, "SonicPod", out.Data.Products[0].Name)
	assert.Equal(t, 50, out.Data.Products[0].DiscountPercent)
}

func TestHealthz(t *testing.T) {
	rec, env := do(t, newKernel(t).Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"ok"`)

	down := newKernel(t, func(o *kernel.Options) {
		o.Ping = func(context.Context) error { return errors.New("connection refused") }
	})
	rec, _ = do(t, down.Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRoutesAreNamed(t *testing.T) {
	names := map[string]bool{}
	for _, r := range newKernel(t).Routes() {
		names[r.Name] = true
	}
	for _, want := range []string{"orders.store", "admin.orders.status", "admin.orders.export", "admin.live", "graphql.execute"} {
		assert.True(t, names[want], "route %q registered", want)
	}
}

func TestLiveFeedReceivesOrderEvents(t *testing.T) {
	k := newKernel(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	k.Start(ctx)

	srv := httptest.NewServer(k.Handler())
	t.Cleanup(srv.Close)
	token := login(t, k.Handler())

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/admin/live?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return k.Hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	submitOrder(t, k.Handler(), "Zineb")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev services.OrderEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, services.EventOrderCreated, ev.Type)
	assert.Equal(t, "Zineb", ev.Order.FullName)
}

func TestEventStreamReceivesStatusChanges(t *testing.T) {
	k := newKernel(t)
	h := k.Handler()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	token := login(t, h)
	id := submitOrder(t, h, "Anas")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/admin/orders/stream?token="+token, nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool { return k.Stream.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	rec, _ := do(t, h, http.MethodPatch, "/api/admin/orders/"+id+"/status", token, map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	sc := bufio.NewScanner(resp.Body)
	var event, data string
	for sc.Scan() && data == "" {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
	assert.Equal(t, services.EventOrderStatusChanged, event)

	var ev services.OrderEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, id, ev.Order.ID)
	assert.EqualValues(t, "confirmed", ev.Order.Status)
}

func TestLiveFeedRejectsQueryTokenWithoutUpgrade(t *testing.T) {
	h := newKernel(t).Handler()
	token := login(t, h)

	rec, _ := do(t, h, http.MethodGet, "/api/admin/orders?token="+token, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
