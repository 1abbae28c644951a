package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/meibo/pkg/buildinfo"
	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/fill"
	layio "github.com/matzehuels/meibo/pkg/io"
	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/pipeline"
	"github.com/matzehuels/meibo/pkg/registry"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg, RequestID: RequestID(r.Context())})
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeFormat:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeReference:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err, "request_id", RequestID(r.Context()))
	}
	writeError(w, r, status, code, msg)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleLayouts(w http.ResponseWriter, r *http.Request) {
	metas, err := s.scanner.Scan(r.Context(), s.registry.Dir())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if metas == nil {
		metas = []registry.Meta{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"layouts": metas})
}

func (s *Server) lookup(r *http.Request) (*layout.LayFile, error) {
	name := chi.URLParam(r, "name")
	if err := errors.ValidateLayoutName(name); err != nil {
		return nil, err
	}
	l, ok := s.registry.Lookup(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "layout %q not found", name)
	}
	return l, nil
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	l, err := s.lookup(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeMirror(w, l)
}

func writeMirror(w http.ResponseWriter, l *layout.LayFile) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = layio.WriteJSON(l, w)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	l, err := s.lookup(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts, err := s.options(r, "preview")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePage(w, r, []*layout.LayFile{l}, 0, opts)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty body")
	}
	return data, nil
}

// handleParse returns the JSON mirror of the selected layout, or every
// layout of the file as {"layouts": [...]} when all=true.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	layouts, hit, err := s.runner.ParseWithCacheInfo(r.Context(), "request", data, pipeline.Options{})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("X-Layout-Count", strconv.Itoa(len(layouts)))
	w.Header().Set("X-Cache", cacheStatus(hit))

	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		mirrors := make([]json.RawMessage, len(layouts))
		for i, l := range layouts {
			m, err := layio.Marshal(l)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			mirrors[i] = m
		}
		writeJSON(w, http.StatusOK, map[string]any{"layouts": mirrors})
		return
	}

	l, err := pipeline.SelectLayout(layouts, r.URL.Query().Get("layout"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeMirror(w, l)
}

// handleRender renders one page to PNG.
//
// A plain body is a .lay file or JSON mirror rendered unfilled (preview
// mode unless ?mode= says otherwise). A multipart/form-data body carries
// the layout in part "layout", an optional JSON record array in part
// "records" and optional JSON pipeline options in part "options"; the
// layout is filled, optionally tiled, and page ?page= (1-based) returned.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		s.renderFilled(w, r)
		return
	}

	data, err := s.readBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts, err := s.options(r, "preview")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	layouts, err := s.runner.Parse(r.Context(), "request", data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	l, err := pipeline.SelectLayout(layouts, opts.Layout)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePage(w, r, []*layout.LayFile{l}, 0, opts)
}

func (s *Server) renderFilled(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := r.ParseMultipartForm(s.maxBody); err != nil {
		s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	data, err := formFile(r, "layout")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var records []fill.Record
	if raw, err := formFile(r, "records"); err == nil {
		if records, err = pipeline.ReadRecords(bytes.NewReader(raw)); err != nil {
			s.fail(w, r, err)
			return
		}
	} else if v := r.FormValue("records"); v != "" {
		if records, err = pipeline.ReadRecords(bytes.NewReader([]byte(v))); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	opts := s.defaults
	if v := r.FormValue("options"); v != "" {
		if err := json.Unmarshal([]byte(v), &opts); err != nil {
			s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode options"))
			return
		}
	}
	opts, err = s.applyQuery(r, opts, pipeline.DefaultMode)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx := r.Context()
	layouts, err := s.runner.Parse(ctx, "request", data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	l, err := pipeline.SelectLayout(layouts, opts.Layout)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pages, report, err := s.runner.FillAll(ctx, l, records, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if opts.Tile {
		pages, _ = pipeline.Tile(pages, opts)
	}
	w.Header().Set("X-Fill-Issues", strconv.Itoa(report.Len()))

	page, err := pageParam(r, len(pages))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePage(w, r, pages, page, opts)
}

func formFile(r *http.Request, name string) ([]byte, error) {
	f, _, err := r.FormFile(name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "missing form file %q", name)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read form file %q", name)
	}
	return data, nil
}

// options returns the server defaults overridden by query parameters.
func (s *Server) options(r *http.Request, mode string) (pipeline.Options, error) {
	return s.applyQuery(r, s.defaults, mode)
}

func (s *Server) applyQuery(r *http.Request, opts pipeline.Options, mode string) (pipeline.Options, error) {
	q := r.URL.Query()
	if v := q.Get("layout"); v != "" {
		opts.Layout = v
	}
	if v := q.Get("mode"); v != "" {
		opts.Mode = v
	} else if opts.Mode == "" {
		opts.Mode = mode
	}
	if v := q.Get("dpi"); v != "" {
		dpi, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid dpi %q", v)
		}
		opts.DPI = dpi
	}
	if v := q.Get("tile"); v != "" {
		tile, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid tile %q", v)
		}
		opts.Tile = tile
	}
	if v := q.Get("paper"); v != "" {
		opts.Paper = v
	}
	if v := q.Get("orientation"); v != "" {
		opts.Orientation = v
	}
	if opts.Registry == nil {
		opts.Registry = s.registry
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

func pageParam(r *http.Request, n int) (int, error) {
	v := r.URL.Query().Get("page")
	if v == "" {
		return 0, nil
	}
	p, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid page %q", v)
	}
	if p < 1 || p > n {
		return 0, errors.New(errors.ErrCodeNotFound, "page %d out of range (1-%d)", p, n)
	}
	return p - 1, nil
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, pages []*layout.LayFile, i int, opts pipeline.Options) {
	if len(pages) == 0 {
		s.fail(w, r, errors.New(errors.ErrCodeNotFound, "no pages"))
		return
	}
	data, hit, err := s.runner.RenderPage(r.Context(), pages[i], i, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "image/png")
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("Content-Disposition", fmt.Sprintf("inline; filename=\"page-%d.png\"", i+1))
	h.Set("X-Page-Count", strconv.Itoa(len(pages)))
	h.Set("X-Render-Id", uuid.NewString())
	h.Set("X-Cache", cacheStatus(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
