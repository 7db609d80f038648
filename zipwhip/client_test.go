package zipwhip_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/zipwhip-bridge/zipwhip"
)

func testAction() zipwhip.Action {
	return zipwhip.Action{
		CorrelationID: "fp-1:1",
		Source:        "+12025550100",
		Destination:   "+13105550199",
		Body:          "hi",
		MessageType:   "sms",
	}
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("success - sends session, contacts and body", func(t *testing.T) {
		var gotSession, gotContacts, gotBody string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotSession = r.PostFormValue("session")
			gotContacts = r.PostFormValue("contacts")
			gotBody = r.PostFormValue("body")
			w.Write([]byte(`{"success":true,"response":{"root":"msg-42"}}`))
		}))
		defer server.Close()

		client := zipwhip.NewClient(server.URL, "session-key", time.Second)
		ack, err := client.Dispatch(ctx, testAction())

		require.NoError(t, err)
		assert.Equal(t, "fp-1:1", ack.CorrelationID)
		assert.Equal(t, "msg-42", ack.ProviderRef)
		assert.Equal(t, "session-key", gotSession)
		assert.Equal(t, "+13105550199", gotContacts)
		assert.Equal(t, "hi", gotBody)
	})

	t.Run("success - missing provider ref gets a generated one", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true}`))
		}))
		defer server.Close()

		client := zipwhip.NewClient(server.URL, "session-key", time.Second)
		ack, err := client.Dispatch(ctx, testAction())

		require.NoError(t, err)
		assert.NotEmpty(t, ack.ProviderRef)
	})

	t.Run("error - 500 is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := zipwhip.NewClient(server.URL, "session-key", time.Second)
		_, err := client.Dispatch(ctx, testAction())

		require.Error(t, err)
		assert.True(t, zipwhip.IsTransient(err))
	})

	t.Run("error - 429 is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := zipwhip.NewClient(server.URL, "session-key", time.Second)
		_, err := client.Dispatch(ctx, testAction())

		require.Error(t, err)
		assert.True(t, zipwhip.IsTransient(err))
	})

	t.Run("error - 401 is an authentication failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := zipwhip.NewClient(server.URL, "session-key", time.Second)
		_, err := client.Dispatch(ctx, testAction())

		require.Error(t, err)
		assert.True(t, zipwhip.IsAuthenticationFailed(err))
	})

	t.Run("error - 400 is a permanent rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := zipwhip.NewClient(server.URL, "session-key", time.Second)
		_, err := client.Dispatch(ctx, testAction())

		require.Error(t, err)
		assert.True(t, zipwhip.IsRejected(err))
	})

	t.Run("error - refused session key is an authentication failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"response":"Session not valid"}`))
		}))
		defer server.Close()

		client := zipwhip.NewClient(server.URL, "bad-key", time.Second)
		_, err := client.Dispatch(ctx, testAction())

		require.Error(t, err)
		assert.True(t, zipwhip.IsAuthenticationFailed(err))
	})

	t.Run("error - provider failure is a permanent rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"response":"Invalid recipient"}`))
		}))
		defer server.Close()

		client := zipwhip.NewClient(server.URL, "session-key", time.Second)
		_, err := client.Dispatch(ctx, testAction())

		require.Error(t, err)
		assert.True(t, zipwhip.IsRejected(err))
	})

	t.Run("error - exceeded deadline is transient", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer server.Close()
		defer close(release)

		client := zipwhip.NewClient(server.URL, "session-key", 50*time.Millisecond)
		_, err := client.Dispatch(ctx, testAction())

		require.Error(t, err)
		assert.True(t, zipwhip.IsTransient(err))
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("error - unreachable provider is transient", func(t *testing.T) {
		client := zipwhip.NewClient("http://127.0.0.1:1", "session-key", time.Second)
		_, err := client.Dispatch(ctx, testAction())

		require.Error(t, err)
		assert.True(t, zipwhip.IsTransient(err))
	})
}
