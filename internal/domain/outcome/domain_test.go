package outcome

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Total(t *testing.T) {
	for code := 100; code <= 599; code++ {
		c := Classify(code)
		switch {
		case code >= 400 && code < 500:
			assert.Equal(t, ClassClientError, c, "code %d", code)
		case code >= 500:
			assert.Equal(t, ClassServerError, c, "code %d", code)
		default:
			assert.Equal(t, ClassHealthy, c, "code %d", code)
		}
	}
	assert.Equal(t, ClassHealthy, Classify(StatusFalsePositive))
}

func TestClass_ErrorType(t *testing.T) {
	assert.Equal(t, ClientError, ClassClientError.ErrorType())
	assert.Equal(t, ServerError, ClassServerError.ErrorType())
	assert.Empty(t, ClassHealthy.ErrorType())
}

func TestStatusCode_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A StatusCode `json:"a"`
		B StatusCode `json:"b"`
	}{HTTPStatus(404), TimeoutStatus()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":404,"b":"Timeout"}`, string(b))

	var got struct {
		A StatusCode `json:"a"`
		B StatusCode `json:"b"`
		C StatusCode `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":503,"b":"Error","c":"410"}`), &got))
	assert.Equal(t, HTTPStatus(503), got.A)
	assert.Equal(t, ErrorStatus(), got.B)
	assert.Equal(t, HTTPStatus(410), got.C)
	assert.False(t, got.B.IsHTTP())
	assert.Equal(t, "Error", got.B.String())
}
