package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	now := time.Date(2026, 10, 14, 15, 10, 0, 0, time.UTC)
	payload := []byte(`{"location_id":23,"latitude":50.2632,"longitude":-5.051,"start_date":"1940-01-01","end_date":"1974-12-22"}`)

	msg, err := buildMessage("historic-weather", payload, now)
	require.NoError(t, err)

	assert.Equal(t, "historic-weather", msg.Topic)
	assert.Equal(t, []byte("23"), msg.Key)
	assert.JSONEq(t, string(payload), string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "unit", msg.Headers[0].Key)
	assert.Equal(t, []byte("historic-weather"), msg.Headers[0].Value)
	assert.Equal(t, "submitted_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-10-14T15:10:00Z"), msg.Headers[1].Value)
}

func TestBuildMessage_NoLocationKey(t *testing.T) {
	msg, err := buildMessage("sweep", []byte(`{}`), time.Now())
	require.NoError(t, err)
	assert.Nil(t, msg.Key)
}

func TestBuildMessage_InvalidPayload(t *testing.T) {
	_, err := buildMessage("historic-weather", []byte("not json"), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "historic-weather")
}
