package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorWithExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithExtras(rec, http.StatusServiceUnavailable, "offline", map[string]interface{}{
		"category": "network",
		"status":   999,
	})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "offline", body["detail"])
	assert.Equal(t, "network", body["category"])
	assert.Equal(t, float64(http.StatusServiceUnavailable), body["status"])
	assert.Equal(t, "Service Unavailable", body["title"])
	assert.Contains(t, body["type"], "rfc9110")
}

func TestRespondError_UnknownStatusType(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusTeapot, "")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "about:blank", body["type"])
	assert.NotContains(t, body, "detail")
}

func TestParseJSON(t *testing.T) {
	type payload struct {
		Name OptionalString `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
		present bool
		value   string
		ok      bool
	}{
		{name: "value", body: `{"name":"Work"}`, present: true, value: "Work", ok: true},
		{name: "empty string", body: `{"name":""}`, present: true, value: "", ok: true},
		{name: "null", body: `{"name":null}`, present: true},
		{name: "absent", body: `{}`},
		{name: "empty body", body: ``, wantErr: true},
		{name: "unknown field", body: `{"nme":"x"}`, wantErr: true},
		{name: "trailing data", body: `{"name":"a"}{"name":"b"}`, wantErr: true},
		{name: "wrong type", body: `{"name":3}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got payload
			err := ParseJSON(httptest.NewRecorder(), r, &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.present, got.Name.Present)
			value, ok := got.Name.Get()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.value, value)
		})
	}
}
