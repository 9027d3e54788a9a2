package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoframe/yo-pipeline/internal/domain/jobs"
)

func bulkJob(url string) jobs.NotificationsBulk {
	return jobs.NotificationsBulk{
		Notifications:  []jobs.Recipient{{FID: 1, Token: "tok-1"}, {FID: 2, Token: "tok-2"}},
		URL:            url,
		Title:          "yo",
		Body:           "from alice",
		TargetURL:      "https://yo.example.com",
		NotificationID: "n-1",
	}
}

func TestPushSenderSend(t *testing.T) {
	t.Run("delivers the batch", func(t *testing.T) {
		var got pushRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"result":{"rateLimitedTokens":[]}}`))
		}))
		defer srv.Close()

		err := NewPushSender(time.Second).Send(context.Background(), bulkJob(srv.URL))
		require.NoError(t, err)
		assert.Equal(t, "n-1", got.NotificationID)
		assert.Equal(t, []string{"tok-1", "tok-2"}, got.Tokens)
		assert.Equal(t, "https://yo.example.com", got.TargetURL)
	})

	t.Run("rate limited tokens fail the batch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":{"rateLimitedTokens":["tok-2"]}}`))
		}))
		defer srv.Close()

		err := NewPushSender(time.Second).Send(context.Background(), bulkJob(srv.URL))
		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("missing result envelope is malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		err := NewPushSender(time.Second).Send(context.Background(), bulkJob(srv.URL))
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("result without rateLimitedTokens is malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":{}}`))
		}))
		defer srv.Close()

		err := NewPushSender(time.Second).Send(context.Background(), bulkJob(srv.URL))
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("undecodable body is malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<!doctype html>`))
		}))
		defer srv.Close()

		err := NewPushSender(time.Second).Send(context.Background(), bulkJob(srv.URL))
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("non-200 status fails", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "tokens expired", http.StatusGone)
		}))
		defer srv.Close()

		err := NewPushSender(time.Second).Send(context.Background(), bulkJob(srv.URL))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "410")
	})
}
