package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelopeSuccess(t *testing.T) {
	var out struct {
		Name string `json:"name"`
	}
	err := decodeEnvelope([]byte(`{"success":true,"data":{"name":"two-sum"},"timestamp":"2026-01-01T00:00:00Z"}`), &out)
	require.NoError(t, err)
	assert.Equal(t, "two-sum", out.Name)
}

func TestDecodeEnvelopeNullData(t *testing.T) {
	var out map[string]string
	require.NoError(t, decodeEnvelope([]byte(`{"success":true,"data":null}`), &out))
	assert.Nil(t, out)

	require.NoError(t, decodeEnvelope([]byte(`{"success":true}`), &out))
	assert.Nil(t, out)
}

func TestDecodeEnvelopeFailure(t *testing.T) {
	err := decodeEnvelope([]byte(`{"success":false,"error":{"code":"not_found","message":"problem not found"}}`), nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "not_found", apiErr.Code)
	assert.Equal(t, "problem not found", apiErr.Error())
}

func TestDecodeEnvelopeFailureWithoutMessage(t *testing.T) {
	for _, body := range []string{
		`{"success":false}`,
		`{"success":false,"error":{"code":"oops"}}`,
	} {
		err := decodeEnvelope([]byte(body), nil)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr), "body %s", body)
		assert.Equal(t, "request failed", apiErr.Error())
	}
}

func TestDecodeEnvelopeFailureKeepsDetails(t *testing.T) {
	err := decodeEnvelope([]byte(`{"success":false,"error":{"message":"invalid","details":{"field":"title"}}}`), nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.JSONEq(t, `{"field":"title"}`, string(apiErr.Details))
}

func TestDecodeEnvelopePassthrough(t *testing.T) {
	// No success key: the body is already the payload.
	var out struct {
		Status string `json:"status"`
	}
	require.NoError(t, decodeEnvelope([]byte(`{"status":"ok"}`), &out))
	assert.Equal(t, "ok", out.Status)

	// Non-object bodies pass through too.
	var list []int
	require.NoError(t, decodeEnvelope([]byte(`[1,2,3]`), &list))
	assert.Equal(t, []int{1, 2, 3}, list)
}
