package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analyzeForm struct {
	Symbol    string `json:"symbol" validate:"required"`
	Timeframe string `json:"timeframe" validate:"oneof=1h 4h" default:"1h"`
	Limit     int    `json:"limit" validate:"gte=1,lte=500" default:"100"`
}

func bindCtx(t *testing.T, body string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestReadAndValidateRequest_FillsDefaults(t *testing.T) {
	var f analyzeForm
	require.Nil(t, ReadAndValidateRequest(bindCtx(t, `{"symbol":"XAUUSD"}`), &f))
	assert.Equal(t, "1h", f.Timeframe)
	assert.Equal(t, 100, f.Limit)
}

func TestReadAndValidateRequest_CollectsFieldErrors(t *testing.T) {
	var f analyzeForm
	out := ReadAndValidateRequest(bindCtx(t, `{"timeframe":"2h"}`), &f)
	require.NotNil(t, out)

	errs, ok := out.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 2)

	codes := map[string]ValidationError{}
	for _, e := range errs {
		codes[e.Code] = e
	}
	require.Contains(t, codes, "ERR_REQUIRED")
	assert.Equal(t, "Symbol", codes["ERR_REQUIRED"].Field)
	require.Contains(t, codes, "ERR_ONEOF")
	assert.Equal(t, []string{"1h", "4h"}, codes["ERR_ONEOF"].Params["options"])
	assert.Contains(t, codes["ERR_ONEOF"].Message, "must be one of")
}

func TestReadAndValidateRequest_RangeBounds(t *testing.T) {
	var f analyzeForm
	out := ReadAndValidateRequest(bindCtx(t, `{"symbol":"XAUUSD","timeframe":"1h","limit":9000}`), &f)
	require.NotNil(t, out)

	errs, ok := out.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_LTE", errs[0].Code)
	assert.Equal(t, "500", errs[0].Params["max"])
	assert.Contains(t, errs[0].Message, "less than or equal to 500")
}

func TestReadAndValidateRequest_MalformedJSON(t *testing.T) {
	var f analyzeForm
	out := ReadAndValidateRequest(bindCtx(t, `{"symbol":`), &f)
	require.NotNil(t, out)

	errs, ok := out.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_UNKNOWN", errs[0].Code)
}
