package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/pixsearch/internal/domain"
	"github.com/kailas-cloud/pixsearch/internal/domain/image"
	dompage "github.com/kailas-cloud/pixsearch/internal/domain/page"
	chiTransport "github.com/kailas-cloud/pixsearch/internal/transport/chi"
	"github.com/kailas-cloud/pixsearch/internal/transport/console"
	"github.com/kailas-cloud/pixsearch/internal/usecase/gallery"
	sessionuc "github.com/kailas-cloud/pixsearch/internal/usecase/session"
)

// --- Mocks ---

type mockFetcher struct {
	total  int
	failOn int
	pages  []int
}

func (m *mockFetcher) FetchPage(_ context.Context, term string, page, pageSize int) (dompage.Page, error) {
	m.pages = append(m.pages, page)
	if page == m.failOn {
		return dompage.Page{}, &domain.StatusError{StatusCode: 500}
	}
	start := (page - 1) * pageSize
	n := min(pageSize, m.total-start)
	items := make([]image.Image, 0, max(n, 0))
	for i := range n {
		id := int64(start + i + 1)
		img, err := image.New(id, "photo", term,
			fmt.Sprintf("https://cdn.example/%d_640.jpg", id),
			fmt.Sprintf("https://cdn.example/%d_1280.jpg", id),
			"owner", image.Stats{})
		if err != nil {
			return dompage.Page{}, err
		}
		items = append(items, img)
	}
	return dompage.New(items, m.total, page), nil
}

// --- Tests ---

func TestSearchPages_LoadsRequestedPages(t *testing.T) {
	f := &mockFetcher{total: 40}
	sess := sessionuc.New(f, gallery.NewRenderer(15))
	var buf bytes.Buffer

	err := searchPages(context.Background(), sess, "cats", 2, console.NewPrinter(&buf, console.FormatText))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.pages) != 2 {
		t.Errorf("fetched pages %v, want [1 2]", f.pages)
	}
	if !strings.Contains(buf.String(), "Showing 30 of 40 images, page 2.") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestSearchPages_StopsAtEnd(t *testing.T) {
	f := &mockFetcher{total: 20}
	sess := sessionuc.New(f, gallery.NewRenderer(15))
	var buf bytes.Buffer

	err := searchPages(context.Background(), sess, "cats", 5, console.NewPrinter(&buf, console.FormatText))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.pages) != 2 {
		t.Errorf("fetched pages %v, want [1 2]", f.pages)
	}
	if !strings.Contains(buf.String(), sessionuc.MsgEndOfResults) {
		t.Errorf("end notice missing:\n%s", buf.String())
	}
}

func TestSearchPages_PrintsBeforeFailing(t *testing.T) {
	f := &mockFetcher{total: 40, failOn: 2}
	sess := sessionuc.New(f, gallery.NewRenderer(15))
	var buf bytes.Buffer

	err := searchPages(context.Background(), sess, "cats", 3, console.NewPrinter(&buf, console.FormatText))
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Showing 15 of 40 images, page 1.") {
		t.Errorf("first page should still be printed:\n%s", out)
	}
	if !strings.Contains(out, "Something went wrong") {
		t.Errorf("failure notice missing:\n%s", out)
	}
}

func TestSearchPages_EmptyTerm(t *testing.T) {
	f := &mockFetcher{total: 40}
	sess := sessionuc.New(f, gallery.NewRenderer(15))
	var buf bytes.Buffer

	err := searchPages(context.Background(), sess, "  ", 1, console.NewPrinter(&buf, console.FormatText))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(f.pages) != 0 {
		t.Errorf("no fetch expected, got %v", f.pages)
	}
	if !strings.Contains(buf.String(), sessionuc.MsgEmptyTerm) {
		t.Errorf("empty term notice missing:\n%s", buf.String())
	}
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "pixsearch dev") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestSearchCmd_RejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no term", []string{"search"}},
		{"zero pages", []string{"search", "cats", "--pages", "0"}},
		{"unknown format", []string{"search", "cats", "--format", "html"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	var resp chiTransport.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Code != chiTransport.CodeInternalError {
		t.Errorf("code: got %q, want %q", resp.Code, chiTransport.CodeInternalError)
	}
}

func TestWideEventMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(zap.New(core)))
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(chiTransport.SessionHeader, "sid-1")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/items/7", http.NoBody))

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["route"] != "/items/{id}" {
		t.Errorf("route: got %v", fields["route"])
	}
	if fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("status: got %v", fields["status"])
	}
	if fields["session_id"] != "sid-1" {
		t.Errorf("session_id: got %v", fields["session_id"])
	}
}
