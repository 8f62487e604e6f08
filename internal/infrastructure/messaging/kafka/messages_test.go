package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/molscore/pkg/errors"
)

func TestDecodeScoreRequest(t *testing.T) {
	req, err := DecodeScoreRequest(&Message{Value: []byte(`{"request_id":"r-1","molecule":"CCO","property":"mw"}`)})
	require.NoError(t, err)
	assert.Equal(t, ScoreRequestMessage{RequestID: "r-1", Molecule: "CCO", Property: "mw"}, *req)
}

func TestDecodeScoreRequest_RequestIDFromHeader(t *testing.T) {
	req, err := DecodeScoreRequest(&Message{
		Value:   []byte(`{"molecule":"CCO"}`),
		Headers: map[string]string{HeaderRequestID: "hdr-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hdr-1", req.RequestID)
}

func TestDecodeScoreRequest_Malformed(t *testing.T) {
	for _, v := range []string{"", "{", "[]"} {
		_, err := DecodeScoreRequest(&Message{Value: []byte(v)})
		require.Error(t, err, v)
		assert.True(t, IsPermanent(err), v)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSerialization), v)
	}
}

func TestNewJSONMessage(t *testing.T) {
	msg, err := NewJSONMessage("res", "r-1", ScoreResultMessage{RequestID: "r-1", Error: &ErrorPayload{Code: "SCR_001", Message: "unknown property"}})
	require.NoError(t, err)
	assert.Equal(t, "res", msg.Topic)
	assert.Equal(t, ContentTypeJSON, msg.Headers[HeaderContentType])
	assert.Equal(t, "r-1", msg.Headers[HeaderRequestID])
	assert.Contains(t, string(msg.Value), `"error":{"code":"SCR_001"`)
	assert.NotContains(t, string(msg.Value), `"value"`)
}

func TestPermanent(t *testing.T) {
	assert.Nil(t, Permanent(nil))
	assert.False(t, IsPermanent(assert.AnError))
	assert.True(t, IsPermanent(Permanent(assert.AnError)))
}

//Personal.AI order the ending
