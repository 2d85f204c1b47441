package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/render"
	"github.com/JonMunkholm/catalog/internal/selection"
	"github.com/JonMunkholm/catalog/internal/web/templates"
)

const testCSV = "producto,marca,modelo,imagen\n" +
	"A,brand1,m1,a.jpg\n" +
	"B,brand2,m2,b.jpg\n" +
	"C,brand1,m3,c.jpg\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Session: config.SessionConfig{
			CookieName:   "catalog_visitor",
			CookieMaxAge: time.Hour,
		},
		Export: config.ExportConfig{
			ContactNumber:      "+595983617831",
			MessageEndpoint:    "https://wa.me/",
			DocumentName:       "seleccion-productos.pdf",
			DefaultCountryCode: "+595",
		},
	}
}

func newTestServer(t *testing.T) (*Server, *selection.MemoryBackend) {
	t.Helper()
	cat, err := catalog.Parse(context.Background(), strings.NewReader(testCSV), ',')
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	backend := selection.NewMemoryBackend()
	svc := core.NewService(cat, nil, backend, core.Options{PageSize: 30})
	return NewServer(svc, testConfig()), backend
}

// client replays the visitor cookie across requests.
type client struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.srv.Router().ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "catalog_visitor" {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func TestServer_BrowseFlow(t *testing.T) {
	srv, backend := newTestServer(t)
	c := &client{t: t, srv: srv}

	rec := c.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", rec.Code)
	}
	if c.cookie == nil {
		t.Fatal("no visitor cookie issued")
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "img-src 'self' data: https: http:") {
		t.Errorf("CSP = %q", csp)
	}

	rec = c.post("/actions", url.Values{"action": {"filter"}, "brand": {"brand1"}, "return": {"/"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("filter: status = %d, location = %q", rec.Code, rec.Header().Get("Location"))
	}

	body := c.get("/").Body.String()
	if !strings.Contains(body, `data-id="0"`) || !strings.Contains(body, `data-id="2"`) || strings.Contains(body, `data-id="1"`) {
		t.Errorf("filtered page unexpected: %s", body)
	}

	rec = c.post("/actions", url.Values{"action": {"select"}, "id": {"0"}, "quantity": {"2"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("select status = %d", rec.Code)
	}
	if got := backend.Raw(c.cookie.Value); got != `{"0":{"quantity":2}}` {
		t.Errorf("persisted = %s", got)
	}

	rec = c.post("/actions", url.Values{"action": {"clear"}, "return": {"/seleccionados"}})
	if rec.Header().Get("Location") != "/seleccionados" {
		t.Errorf("clear location = %q", rec.Header().Get("Location"))
	}
	if got := backend.Raw(c.cookie.Value); got != `{}` {
		t.Errorf("persisted after clear = %s", got)
	}
}

func TestServer_SelectedZoom(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, srv: srv}

	c.post("/actions", url.Values{"action": {"select"}, "id": {"1"}})

	body := c.get("/seleccionados").Body.String()
	if !strings.Contains(body, `href="/seleccionados?zoom=1"`) {
		t.Errorf("selected card has no zoom link: %s", body)
	}
	if strings.Contains(body, `id="image-modal"`) {
		t.Error("overlay open without zoom parameter")
	}

	rec := c.get("/seleccionados?zoom=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body = rec.Body.String()
	for _, s := range []string{`id="image-modal"`, `data-close href="/seleccionados"`, `src="b.jpg"`} {
		if !strings.Contains(body, s) {
			t.Errorf("zoomed page missing %q", s)
		}
	}

	// Any catalog row can be zoomed, unknown ids are ignored.
	if body := c.get("/seleccionados?zoom=9").Body.String(); strings.Contains(body, `id="image-modal"`) {
		t.Error("overlay for an id outside the catalog")
	}
}

func TestServer_ScriptAutosubmitModes(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, srv: srv}

	rec := c.get("/static/catalog.js")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	js := rec.Body.String()
	// Input-mode fields must not also submit from the change handler.
	for _, s := range []string{`if (mode(el) !== "change") return;`, `if (mode(el) !== "input") return;`} {
		if !strings.Contains(js, s) {
			t.Errorf("script missing %q", s)
		}
	}
}

func TestServer_ActionErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, srv: srv}

	tests := []struct {
		name string
		form url.Values
		want int
	}{
		{"unknown action", url.Values{"action": {"explode"}}, http.StatusBadRequest},
		{"malformed id", url.Values{"action": {"select"}, "id": {"x"}}, http.StatusBadRequest},
		{"missing row", url.Values{"action": {"select"}, "id": {"99"}}, http.StatusNotFound},
		{"bad page size", url.Values{"action": {"page-size"}, "page_size": {"lots"}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.post("/actions", tt.form)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestServer_ActionJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, srv: srv}

	req := httptest.NewRequest(http.MethodPost, "/actions", strings.NewReader("action=select&id=2&quantity=3"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec := c.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got selection.Record
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["2"].Quantity != 3 || len(got) != 1 {
		t.Errorf("record = %v", got)
	}

	rec = c.get("/api/selection")
	if !strings.Contains(rec.Body.String(), `"2":{"quantity":3}`) {
		t.Errorf("/api/selection = %s", rec.Body.String())
	}
}

func TestServer_ReturnPathIsLocal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/seleccionados", "/seleccionados"},
		{"", "/"},
		{"https://evil.example", "/"},
		{"//evil.example", "/"},
		{"/\\evil.example", "/"},
	}
	for _, tt := range tests {
		if got := safeReturn(tt.in); got != tt.want {
			t.Errorf("safeReturn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestServer_ExportRefusedWhenEmpty(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, srv: srv}

	for _, path := range []string{templates.MessagePath, templates.PDFPath} {
		rec := c.post(path, url.Values{"name": {"Ana"}})
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != templates.SelectedPath {
			t.Fatalf("%s: status = %d, location = %q", path, rec.Code, rec.Header().Get("Location"))
		}

		body := c.get(templates.SelectedPath).Body.String()
		if !strings.Contains(body, render.NoticeEmptyExport) {
			t.Errorf("%s: notice missing from selected page", path)
		}
	}

	body := c.get(templates.SelectedPath).Body.String()
	if strings.Contains(body, render.NoticeEmptyExport) {
		t.Error("notice shown twice")
	}
}

func TestServer_ExportMessage(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, srv: srv}

	c.post("/actions", url.Values{"action": {"select"}, "id": {"1"}, "quantity": {"4"}})
	rec := c.post(templates.MessagePath, url.Values{
		"name":         {"Ana"},
		"country_code": {"+54"},
		"whatsapp":     {"0981"},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.Host != "wa.me" || loc.Path != "/+595983617831" {
		t.Errorf("location = %s", loc)
	}
	text := loc.Query().Get("text")
	for _, want := range []string{"HOLA!", "B (Cantidad: 4)", "NOMBRE Y APELLIDO: Ana", "WHATSAPP: +54981"} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q: %q", want, text)
		}
	}
}

func TestServer_ExportPDF(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, srv: srv}

	c.post("/actions", url.Values{"action": {"select"}, "id": {"0"}})
	rec := c.post(templates.PDFPath, url.Values{"name": {"Ana"}, "country_code": {"+99"}})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "seleccion-productos.pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Error("body is not a PDF")
	}
}

func TestServer_FailedCatalog(t *testing.T) {
	loadErr := errors.New("catalog fetch failed: idcatalog.csv: boom")
	svc := core.NewService(nil, loadErr, selection.NewMemoryBackend(), core.Options{})
	c := &client{t: t, srv: NewServer(svc, testConfig())}

	rec := c.get("/")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET / status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), render.NoticeCatalogFailed) {
		t.Errorf("catalog error page missing: %s", rec.Body.String())
	}

	rec = c.get("/healthz")
	var health HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable || health.Status != "degraded" || health.Error == "" {
		t.Errorf("health = %d %+v", rec.Code, health)
	}

	rec = c.get("/api/brands")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"code":"CAT001"`) {
		t.Errorf("/api/brands = %d %s", rec.Code, rec.Body.String())
	}
}

func TestServer_Brands(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/brands", nil))

	var brands []string
	if err := json.NewDecoder(rec.Body).Decode(&brands); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(brands) != 2 || brands[0] != "brand1" || brands[1] != "brand2" {
		t.Errorf("brands = %v", brands)
	}
}

func TestServer_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1}
	srv := NewServer(core.NewService(catalog.New(nil), nil, selection.NewMemoryBackend(), core.Options{}), cfg)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}
