package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"payment-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestOK(t *testing.T) {
	c, w := testContext()
	OK(c, map[string]string{"status": "healthy"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestCreatedRaw_ByteIdentical(t *testing.T) {
	body := []byte(`{"id":"pay_abc","status":"pending"}`)

	c, w := testContext()
	CreatedRaw(c, body)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, string(body), w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestError_AppError(t *testing.T) {
	c, w := testContext()
	Error(c, apperror.ErrAmountTooSmall())

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "BAD_REQUEST_ERROR", body.Error.Code)
	assert.Equal(t, "amount must be at least 100", body.Error.Description)
}

func TestError_UnknownError(t *testing.T) {
	c, w := testContext()
	Error(c, fmt.Errorf("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "SERVER_ERROR", body.Error.Code)
}
