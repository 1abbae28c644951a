package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/meibo/internal/laytest"
	"github.com/matzehuels/meibo/pkg/cache"
	layio "github.com/matzehuels/meibo/pkg/io"
	"github.com/matzehuels/meibo/pkg/observability"
	"github.com/matzehuels/meibo/pkg/pipeline"
	"github.com/matzehuels/meibo/pkg/registry"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func layFile(t *testing.T) []byte {
	t.Helper()
	return laytest.File(t, laytest.Body(1,
		laytest.Title("個票"),
		laytest.Content(laytest.ObjectList(
			laytest.Field(laytest.Rect(40, 40, 400, 100), 108),
			laytest.Label(laytest.Rect(40, 120, 400, 180), "見出し"),
		)),
		laytest.LayoutEntry(laytest.Title("裏面"), laytest.Content(laytest.ObjectList(
			laytest.Line(0, 10, 100, 10, 1),
		))),
	))
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "kohyo.lay"), layFile(t), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := registry.Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := New(Config{
		Runner:   pipeline.NewRunner(c, nil, nil),
		Registry: reg,
		Scanner:  registry.NewScanner(c, nil, nil),
		Defaults: pipeline.Options{DPI: 72},
	})
	return s, dir
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Status != "ok" {
		t.Errorf("body = %+v, err %v", body, err)
	}
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("request id %q is not a UUID", rec.Header().Get(RequestIDHeader))
	}
	if rec.Header().Get("Server") == "" {
		t.Error("missing Server header")
	}
}

func TestRequestIDPropagates(t *testing.T) {
	s, _ := newTestServer(t)
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	if got := do(t, s, req).Header().Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\r\n")
	if got := do(t, s, req).Header().Get(RequestIDHeader); got == "not-a-uuid\r\n" {
		t.Error("malformed request id should be replaced")
	}
}

func TestLayouts(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/v1/layouts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Layouts []registry.Meta `json:"layouts"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Layouts) != 1 {
		t.Fatalf("got %d layouts", len(body.Layouts))
	}
	m := body.Layouts[0]
	if m.Title != "個票" || m.Layouts != 2 || m.FieldCount != 1 {
		t.Errorf("meta = %+v", m)
	}
}

func TestLayoutByName(t *testing.T) {
	s, _ := newTestServer(t)

	for _, name := range []string{"kohyo", "%E5%80%8B%E7%A5%A8"} {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/v1/layouts/"+name, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d: %s", name, rec.Code, rec.Body.String())
		}
		l, err := layio.ReadJSON(rec.Body)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if l.Title != "個票" {
			t.Errorf("%s: title = %q", name, l.Title)
		}
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/v1/layouts/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing layout status = %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "NOT_FOUND" || body.RequestID == "" {
		t.Errorf("error body = %+v", body)
	}
}

func TestPreview(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/v1/layouts/kohyo/preview?dpi=50", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), pngMagic) {
		t.Error("preview is not a PNG")
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/v1/layouts/kohyo/preview?dpi=9999", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad dpi status = %d", rec.Code)
	}
}

func TestParse(t *testing.T) {
	s, _ := newTestServer(t)
	data := layFile(t)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/v1/parse?layout=%E8%A3%8F%E9%9D%A2", bytes.NewReader(data)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Layout-Count"); got != "2" {
		t.Errorf("X-Layout-Count = %q", got)
	}
	l, err := layio.ReadJSON(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if l.Title != "裏面" || len(l.Objects) != 1 {
		t.Errorf("parsed %q with %d objects", l.Title, len(l.Objects))
	}

	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/v1/parse?all=true", bytes.NewReader(data)))
	if got := rec.Header().Get("X-Cache"); got != "hit" {
		t.Errorf("second parse X-Cache = %q, want hit", got)
	}
	var all struct {
		Layouts []json.RawMessage `json:"layouts"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&all); err != nil || len(all.Layouts) != 2 {
		t.Errorf("all layouts = %d, err %v", len(all.Layouts), err)
	}
}

func TestParseErrors(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name   string
		body   []byte
		status int
		code   string
	}{
		{"empty", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"garbage", []byte("garbage"), http.StatusUnprocessableEntity, "FORMAT_ERROR"},
		{"bad mirror", []byte(`{"format": "other"}`), http.StatusUnprocessableEntity, "FORMAT_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, httptest.NewRequest(http.MethodPost, "/v1/parse", bytes.NewReader(tt.body)))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if body := decodeError(t, rec); body.Error != tt.code {
				t.Errorf("code = %q, want %q", body.Error, tt.code)
			}
		})
	}
}

func TestRenderPlain(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/v1/render?mode=editor", bytes.NewReader(layFile(t))))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if _, err := uuid.Parse(rec.Header().Get("X-Render-Id")); err != nil {
		t.Error("missing render id")
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), pngMagic) {
		t.Error("body is not a PNG")
	}
}

func multipartRequest(t *testing.T, url string, layout []byte, records string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("layout", "kohyo.lay")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(layout)
	if records != "" {
		mw.WriteField("records", records)
	}
	mw.WriteField("options", `{"school_name": "第一中学校"}`)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRenderFilled(t *testing.T) {
	s, _ := newTestServer(t)
	records := `[{"氏名": "山田 太郎"}, {"氏名": "佐藤 花子"}, {}]`

	rec := do(t, s, multipartRequest(t, "/v1/render?page=2", layFile(t), records))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Page-Count"); got != "3" {
		t.Errorf("X-Page-Count = %q, want 3", got)
	}
	if got := rec.Header().Get("X-Fill-Issues"); got != "1" {
		t.Errorf("X-Fill-Issues = %q, want 1 (the empty record)", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), pngMagic) {
		t.Error("body is not a PNG")
	}

	rec = do(t, s, multipartRequest(t, "/v1/render?page=4", layFile(t), records))
	if rec.Code != http.StatusNotFound {
		t.Errorf("out-of-range page status = %d", rec.Code)
	}

	rec = do(t, s, multipartRequest(t, "/v1/render", layFile(t), `{"not": "an array"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad records status = %d", rec.Code)
	}
}

func TestNotFoundRoute(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/v2/anything", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "NOT_FOUND" {
		t.Errorf("error body = %+v", body)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s, _ := newTestServer(t)
	do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	do(t, s, httptest.NewRequest(http.MethodGet, "/v1/layouts/missing", nil))

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.statuses) != 2 || hooks.statuses[0] != 200 || hooks.statuses[1] != 404 {
		t.Errorf("statuses = %v", hooks.statuses)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
