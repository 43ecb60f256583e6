package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewClientWithoutToken(t *testing.T) {
	assert.Nil(t, NewClient("", zaptest.NewLogger(t)))
}

func TestLookup(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"city": "Amsterdam",
			"region": "North Holland",
			"country": "NL",
			"org": "AS1136 KPN B.V.",
			"timezone": "Europe/Amsterdam"
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-token", zaptest.NewLogger(t))
	require.NotNil(t, c)
	c.baseURL = srv.URL

	info, err := c.Lookup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", auth)
	assert.Equal(t, "Amsterdam", info.City)
	assert.Equal(t, "NL", info.Country)
	assert.Equal(t, "AS1136 KPN B.V.", info.Org)
}

func TestLookupServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-token", zaptest.NewLogger(t))
	c.baseURL = srv.URL

	_, err := c.Lookup(context.Background())
	assert.Error(t, err)
}
