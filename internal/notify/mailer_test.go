package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/backend-store/internal/notify"
)

func TestProviderMailerSendsPayload(t *testing.T) {
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	mailer := notify.NewProviderMailer(srv.URL, "secret", "no-reply@bookhaven.example", time.Second, zerolog.Nop())
	err := mailer.Send(context.Background(), "reader@example.com", "Hello", "<p>Hi</p>")
	require.NoError(t, err)
	require.Equal(t, "Bearer secret", auth)
	require.Equal(t, "reader@example.com", got["to"])
	require.Equal(t, "no-reply@bookhaven.example", got["from"])
	require.Equal(t, "Hello", got["subject"])
}

func TestProviderMailerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	mailer := notify.NewProviderMailer(srv.URL, "", "no-reply@bookhaven.example", time.Second, zerolog.Nop())
	err := mailer.Send(context.Background(), "reader@example.com", "Hello", "<p>Hi</p>")
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}
