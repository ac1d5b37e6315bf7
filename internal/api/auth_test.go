package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAPIKey(t *testing.T) {
	assert.True(t, ValidateAPIKey("secret", "secret"))
	assert.False(t, ValidateAPIKey("secret", "other"))
	assert.False(t, ValidateAPIKey("", "secret"))
	assert.False(t, ValidateAPIKey("secret", ""))
}

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "missing", wantErr: true},
		{name: "wrong scheme", header: "Basic abc", wantErr: true},
		{name: "empty key", header: "Bearer   ", wantErr: true},
		{name: "valid", header: "Bearer abc", want: "abc"},
		{name: "padded", header: "Bearer  abc ", want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := ExtractAPIKey(req)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
