package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestDefaults(t *testing.T) {
	tests := []struct {
		name         string
		in           PageRequest
		wantPage     int
		wantPageSize int
		wantOffset   int
	}{
		{"empty", PageRequest{}, 1, DefaultPageSize, 0},
		{"explicit", PageRequest{Page: 3, PageSize: 5}, 3, 5, 10},
		{"oversized", PageRequest{Page: 2, PageSize: 1000}, 2, MaxPageSize, MaxPageSize},
		{"negative", PageRequest{Page: -1, PageSize: -1}, 1, DefaultPageSize, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Defaults()
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPageSize, p.PageSize)
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	t.Run("rounds pages up", func(t *testing.T) {
		resp := NewPageResponse([]string{"TCS"}, 1, 2, 5)
		assert.Equal(t, 3, resp.TotalPages)
		assert.True(t, resp.HasNext)
	})

	t.Run("last page has no next", func(t *testing.T) {
		resp := NewPageResponse([]string{"SBIN"}, 3, 2, 5)
		assert.False(t, resp.HasNext)
	})

	t.Run("nil data becomes empty", func(t *testing.T) {
		resp := NewPageResponse[string](nil, 1, 20, 0)
		assert.NotNil(t, resp.Data)
		assert.Equal(t, 0, resp.TotalPages)
		assert.False(t, resp.HasNext)
	})
}
