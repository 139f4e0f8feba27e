package api

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		p, err := ParsePagination(req)
		if err != nil {
			t.Fatal(err)
		}
		if p.Limit != 50 || p.Offset != 0 {
			t.Errorf("got limit=%d offset=%d, want 50/0", p.Limit, p.Offset)
		}
	})

	t.Run("explicit_values", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/?limit=10&offset=20", nil)
		p, err := ParsePagination(req)
		if err != nil {
			t.Fatal(err)
		}
		if p.Limit != 10 || p.Offset != 20 {
			t.Errorf("got limit=%d offset=%d, want 10/20", p.Limit, p.Offset)
		}
	})

	t.Run("invalid_limit", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/?limit=abc", nil)
		if _, err := ParsePagination(req); err == nil {
			t.Error("expected error for non-integer limit")
		}
	})

	t.Run("zero_limit", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/?limit=0", nil)
		if _, err := ParsePagination(req); err == nil {
			t.Error("expected error for limit < 1")
		}
	})

	t.Run("negative_offset", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/?offset=-1", nil)
		if _, err := ParsePagination(req); err == nil {
			t.Error("expected error for negative offset")
		}
	})
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 404, "not found")
	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if got := rec.Body.String(); got != "{\"error\":\"not found\"}\n" {
		t.Errorf("body = %q", got)
	}
}
