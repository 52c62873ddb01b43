package hookstore

import (
	"context"
	"crypto/hmac"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/hookstore/internal/crypto"
)

func TestSign_AcceptedByServerVerifier(t *testing.T) {
	body := []byte(`{"message_id":"m1"}`)
	secret := []byte("test-secret-123")

	assert.True(t, crypto.VerifyHMAC(body, Sign(body, secret), secret).Valid)
	assert.False(t, crypto.VerifyHMAC(body, Sign(body, []byte("other")), secret).Valid)
}

func TestSend_SignsExactBody(t *testing.T) {
	secret := []byte("test-secret-123")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sig, err := hex.DecodeString(r.Header.Get(SignatureHeader))
		require.NoError(t, err)
		want, _ := hex.DecodeString(Sign(body, secret))
		if !hmac.Equal(sig, want) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	text := "Hello"
	c := NewClient(srv.URL, secret)
	err := c.Send(context.Background(), Message{MessageID: "m1", From: "+1", To: "+2", TS: "2025-01-15T10:00:00Z", Text: &text})
	assert.NoError(t, err)

	c.Secret = []byte("wrong")
	err = c.Send(context.Background(), Message{MessageID: "m1", From: "+1", To: "+2", TS: "2025-01-15T10:00:00Z"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestMessages_QueryString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "10", r.URL.Query().Get("offset"))
		assert.Equal(t, "+111", r.URL.Query().Get("from"))
		assert.Equal(t, "hi", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(Page{Data: []Message{{MessageID: "m1"}}, Total: 1, Limit: 5, Offset: 10})
	}))
	defer srv.Close()

	page, err := NewClient(srv.URL, nil).Messages(context.Background(), ListOptions{Limit: 5, Offset: 10, From: "+111", Q: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "m1", page.Data[0].MessageID)
}

func TestReady(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	ready, err := c.Ready(context.Background())
	require.NoError(t, err)
	assert.False(t, ready)

	status.Store(http.StatusOK)
	ready, err = c.Ready(context.Background())
	require.NoError(t, err)
	assert.True(t, ready)
}
