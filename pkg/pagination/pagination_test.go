package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(target string) Params {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		target string
		want   Params
	}{
		{"/", Params{Limit: DefaultLimit, Offset: 0}},
		{"/?limit=5&offset=10", Params{Limit: 5, Offset: 10}},
		{"/?limit=500", Params{Limit: MaxLimit, Offset: 0}},
		{"/?limit=-3&offset=-1", Params{Limit: DefaultLimit, Offset: 0}},
		{"/?page=3&page_size=10", Params{Limit: 10, Offset: 20}},
		{"/?page=1", Params{Limit: DefaultLimit, Offset: 0}},
		{"/?page=2&offset=7", Params{Limit: DefaultLimit, Offset: 7}},
		{"/?limit=abc", Params{Limit: DefaultLimit, Offset: 0}},
	}
	for _, tt := range tests {
		if got := paramsFor(tt.target); got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.target, got, tt.want)
		}
	}
}

func TestNewResponse(t *testing.T) {
	r := NewResponse([]int{1, 2}, 45, Params{Limit: 20, Offset: 20})
	if !r.HasMore {
		t.Error("expected more results")
	}
	if r.Page != 2 {
		t.Errorf("expected page 2, got %d", r.Page)
	}

	r = NewResponse([]int{}, 45, Params{Limit: 20, Offset: 40})
	if r.HasMore {
		t.Error("expected last page")
	}
}
