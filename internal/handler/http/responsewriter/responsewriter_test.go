package responsewriter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_DefaultsTo200(t *testing.T) {
	w := Wrap(httptest.NewRecorder())

	assert.Equal(t, http.StatusOK, w.StatusCode())
	assert.Equal(t, 0, w.BytesWritten())
}

func TestResponseWriter_RecordsStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "ok", status: http.StatusOK},
		{name: "movie not found", status: http.StatusNotFound},
		{name: "recommendations unavailable", status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			w := Wrap(rec)
			w.WriteHeader(tt.status)

			assert.Equal(t, tt.status, w.StatusCode())
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	w := Wrap(rec)

	w.WriteHeader(http.StatusBadRequest)
	w.WriteHeader(http.StatusOK)

	assert.Equal(t, http.StatusBadRequest, w.StatusCode())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResponseWriter_CountsBytesAcrossWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	w := Wrap(rec)

	n, err := w.Write([]byte(`{"movies":[`))
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	_, err = w.Write([]byte(`]}`))
	require.NoError(t, err)

	assert.Equal(t, 13, w.BytesWritten())
	assert.Equal(t, `{"movies":[]}`, rec.Body.String())
}

func TestResponseWriter_WriteImplies200(t *testing.T) {
	rec := httptest.NewRecorder()
	w := Wrap(rec)

	_, err := w.Write([]byte("ok"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, w.StatusCode())
	assert.Equal(t, http.StatusOK, rec.Code)

	// The implicit 200 is locked in; a later explicit status is ignored.
	w.WriteHeader(http.StatusInternalServerError)
	assert.Equal(t, http.StatusOK, w.StatusCode())
}

func TestResponseWriter_UnwrapExposesUnderlying(t *testing.T) {
	rec := httptest.NewRecorder()
	w := Wrap(rec)

	require.Equal(t, http.ResponseWriter(rec), w.Unwrap())
}
