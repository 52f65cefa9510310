package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, []string{"2026-02-08"}, "ok")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":200,"success":true,"message":"ok","data":["2026-02-08"]}`, rec.Body.String())
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]string{"date": "2026-02-08"}, "saved")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":201,"success":true,"message":"saved","data":{"date":"2026-02-08"}}`, rec.Body.String())
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusConflict, "sermon already exists", "2026-02-08")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"status":409,"success":false,"message":"sermon already exists","errors":"2026-02-08"}`, rec.Body.String())
}

func TestEncodeMatchesSuccess(t *testing.T) {
	body, err := Encode([]int{1, 2}, "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	Raw(rec, http.StatusOK, body)

	want := httptest.NewRecorder()
	Success(want, []int{1, 2}, "")
	assert.JSONEq(t, want.Body.String(), rec.Body.String())
	assert.Equal(t, want.Header().Get("Content-Type"), rec.Header().Get("Content-Type"))
}
