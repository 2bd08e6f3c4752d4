package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLimitParam(t *testing.T) {
	assert.Equal(t, 20, GetLimitParam(httptest.NewRequest("GET", "/api/rounds", nil), 20, 100))
	assert.Equal(t, 50, GetLimitParam(httptest.NewRequest("GET", "/api/rounds?limit=50", nil), 20, 100))
	// Over the cap and junk values fall back.
	assert.Equal(t, 100, GetLimitParam(httptest.NewRequest("GET", "/api/rounds?limit=5000", nil), 20, 100))
	assert.Equal(t, 20, GetLimitParam(httptest.NewRequest("GET", "/api/rounds?limit=abc", nil), 20, 100))
	assert.Equal(t, 20, GetLimitParam(httptest.NewRequest("GET", "/api/rounds?limit=-1", nil), 20, 100))
}

func TestGetOffsetParam(t *testing.T) {
	assert.Equal(t, 0, GetOffsetParam(httptest.NewRequest("GET", "/api/rounds", nil)))
	assert.Equal(t, 40, GetOffsetParam(httptest.NewRequest("GET", "/api/rounds?offset=40", nil)))
	assert.Equal(t, 0, GetOffsetParam(httptest.NewRequest("GET", "/api/rounds?offset=-3", nil)))
}
