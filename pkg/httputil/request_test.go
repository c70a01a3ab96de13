package httputil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectError bool
	}{
		{
			name:        "valid JSON",
			body:        `{"enabled": true}`,
			expectError: false,
		},
		{
			name:        "invalid JSON",
			body:        `{invalid}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("PUT", "/", bytes.NewBufferString(tt.body))
			var dest struct {
				Enabled bool `json:"enabled"`
			}
			err := ParseJSON(r, &dest)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.True(t, dest.Enabled)
			}
		})
	}
}

func TestParseJSONOrError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("PUT", "/", bytes.NewBufferString(`{broken`))
	var dest map[string]interface{}

	ok := ParseJSONOrError(w, r, &dest)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?top=3", nil)
	val, err := ParseQueryInt(r, "top", 5)
	assert.NoError(t, err)
	assert.Equal(t, 3, val)

	r = httptest.NewRequest("GET", "/", nil)
	val, err = ParseQueryInt(r, "top", 5)
	assert.NoError(t, err)
	assert.Equal(t, 5, val)

	r = httptest.NewRequest("GET", "/?top=abc", nil)
	_, err = ParseQueryInt(r, "top", 5)
	assert.Error(t, err)
}

func TestParseQueryBool(t *testing.T) {
	r := httptest.NewRequest("GET", "/?verbose=true", nil)
	val, err := ParseQueryBool(r, "verbose", false)
	assert.NoError(t, err)
	assert.True(t, val)

	r = httptest.NewRequest("GET", "/", nil)
	val, err = ParseQueryBool(r, "verbose", true)
	assert.NoError(t, err)
	assert.True(t, val)

	r = httptest.NewRequest("GET", "/?verbose=banana", nil)
	_, err = ParseQueryBool(r, "verbose", false)
	assert.Error(t, err)
}
