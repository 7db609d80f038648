package webhook_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/zipwhip-bridge/webhook"
)

const fullPayload = `{
	"body": "hi",
	"bodySize": 2,
	"address": "ptn:/+12025550100",
	"finalSource": "+12025550100",
	"finalDestination": "+13105550199",
	"messageType": "sms",
	"fingerprint": "fp-1",
	"id": 1,
	"cc": "+14155550123",
	"bcc": "+16175550456",
	"read": false,
	"contactId": 7,
	"scheduledDate": "2024-01-01T12:00:00Z",
	"deviceId": 42,
	"dateDeleted": "2024-01-03T12:00:00Z",
	"messageTransport": 0,
	"hasAttachment": false,
	"dateCreated": "2024-01-01T11:59:58Z",
	"deleted": false,
	"dateRead": "2024-01-02T09:00:00Z",
	"statusCode": 200
}`

func TestParse(t *testing.T) {
	t.Run("success - full payload with all optional fields", func(t *testing.T) {
		wh, err := webhook.Parse([]byte(fullPayload))
		require.NoError(t, err)

		assert.Equal(t, "hi", wh.Body)
		assert.Equal(t, 2, wh.BodySize)
		assert.Equal(t, "ptn:/+12025550100", wh.Address)
		assert.Equal(t, "+12025550100", wh.FinalSource)
		assert.Equal(t, "+13105550199", wh.FinalDestination)
		assert.Equal(t, "sms", wh.MessageType)
		assert.Equal(t, "fp-1", wh.Fingerprint)
		assert.Equal(t, int64(1), wh.ID)
		require.NotNil(t, wh.CC)
		assert.Equal(t, "+14155550123", *wh.CC)
		require.NotNil(t, wh.DeviceID)
		assert.Equal(t, int64(42), *wh.DeviceID)
		assert.Equal(t, int64(7), wh.ContactID)
		assert.Equal(t, 200, wh.StatusCode)
	})

	t.Run("success - parse then reserialize is lossless", func(t *testing.T) {
		wh, err := webhook.Parse([]byte(fullPayload))
		require.NoError(t, err)

		bytes, err := wh.Bytes()
		require.NoError(t, err)

		again, err := webhook.Parse(bytes)
		require.NoError(t, err)
		assert.Equal(t, wh, again)
		assert.JSONEq(t, fullPayload, string(bytes))
	})

	t.Run("success - optional fields absent", func(t *testing.T) {
		wh, err := webhook.Parse([]byte(minimalPayload(t)))
		require.NoError(t, err)
		assert.Nil(t, wh.CC)
		assert.Nil(t, wh.BCC)
		assert.Nil(t, wh.ScheduledDate)
		assert.Nil(t, wh.DeviceID)
		assert.Nil(t, wh.DateCreated)
		assert.Nil(t, wh.DateDeleted)
		assert.Nil(t, wh.DateRead)
	})

	t.Run("success - optional fields present and null", func(t *testing.T) {
		payload := mutatePayload(t, map[string]any{"cc": nil, "bcc": nil, "deviceId": nil, "scheduledDate": nil})
		wh, err := webhook.Parse(payload)
		require.NoError(t, err)
		assert.Nil(t, wh.CC)
		assert.Nil(t, wh.BCC)
		assert.Nil(t, wh.DeviceID)
		assert.Nil(t, wh.ScheduledDate)
	})

	t.Run("success - bodySize is an untrusted hint", func(t *testing.T) {
		payload := mutatePayload(t, map[string]any{"bodySize": 9999})
		wh, err := webhook.Parse(payload)
		require.NoError(t, err)
		assert.Equal(t, 9999, wh.BodySize)
	})

	t.Run("error - missing fingerprint", func(t *testing.T) {
		payload := dropField(t, "fingerprint")
		_, err := webhook.Parse(payload)
		require.Error(t, err)

		var malformed *webhook.MalformedPayloadError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "fingerprint", malformed.Field)
	})

	t.Run("error - empty fingerprint", func(t *testing.T) {
		payload := mutatePayload(t, map[string]any{"fingerprint": ""})
		_, err := webhook.Parse(payload)
		require.Error(t, err)

		var malformed *webhook.MalformedPayloadError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "fingerprint", malformed.Field)
	})

	t.Run("error - missing id", func(t *testing.T) {
		payload := dropField(t, "id")
		_, err := webhook.Parse(payload)
		require.Error(t, err)

		var malformed *webhook.MalformedPayloadError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "id", malformed.Field)
	})

	t.Run("error - non-numeric id", func(t *testing.T) {
		payload := mutatePayload(t, map[string]any{"id": "not-a-number"})
		_, err := webhook.Parse(payload)
		require.Error(t, err)

		var malformed *webhook.MalformedPayloadError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "id", malformed.Field)
	})

	t.Run("error - missing body", func(t *testing.T) {
		payload := dropField(t, "body")
		_, err := webhook.Parse(payload)
		require.Error(t, err)

		var malformed *webhook.MalformedPayloadError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "body", malformed.Field)
	})

	t.Run("error - invalid JSON", func(t *testing.T) {
		_, err := webhook.Parse([]byte(`{invalid json}`))
		require.Error(t, err)

		var malformed *webhook.MalformedPayloadError
		require.True(t, errors.As(err, &malformed))
	})
}

func TestDedupeKey(t *testing.T) {
	t.Run("derived from fingerprint and id", func(t *testing.T) {
		wh := webhook.ReceiveWebhook{Fingerprint: "fp-1", ID: 1}
		assert.Equal(t, "fp-1:1", wh.DedupeKey())
	})

	t.Run("distinct ids yield distinct keys", func(t *testing.T) {
		a := webhook.ReceiveWebhook{Fingerprint: "fp-1", ID: 1}
		b := webhook.ReceiveWebhook{Fingerprint: "fp-1", ID: 2}
		assert.NotEqual(t, a.DedupeKey(), b.DedupeKey())
	})
}

// minimalPayload returns the full payload with every optional field removed
func minimalPayload(t *testing.T) string {
	t.Helper()
	fields := decodePayload(t)
	for _, opt := range []string{"cc", "bcc", "scheduledDate", "deviceId", "dateDeleted", "dateCreated", "dateRead"} {
		delete(fields, opt)
	}
	return encodePayload(t, fields)
}

func dropField(t *testing.T, name string) []byte {
	t.Helper()
	fields := decodePayload(t)
	delete(fields, name)
	return []byte(encodePayload(t, fields))
}

func mutatePayload(t *testing.T, changes map[string]any) []byte {
	t.Helper()
	fields := decodePayload(t)
	for name, value := range changes {
		fields[name] = value
	}
	return []byte(encodePayload(t, fields))
}

func decodePayload(t *testing.T) map[string]any {
	t.Helper()
	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(fullPayload), &fields))
	return fields
}

func encodePayload(t *testing.T, fields map[string]any) string {
	t.Helper()
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	return string(data)
}
