package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferCall(t *testing.T) {
	var gotPath, gotTwiml, gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotTwiml = r.PostFormValue("Twiml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"sid": "CA123", "status": "in-progress"}`))
	}))
	defer srv.Close()

	tw := NewTwilioWithBaseURL("AC999", "secret", srv.URL)
	ok, err := tw.TransferCall(context.Background(), "CA123", "+1 (555) 123-4567")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/2010-04-01/Accounts/AC999/Calls/CA123.json", gotPath)
	assert.Equal(t, "AC999", gotUser)
	assert.Equal(t, "secret", gotPass)
	assert.Equal(t, "<Response><Dial>+15551234567</Dial></Response>", gotTwiml)
}

func TestTransferCallAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code": 20003, "message": "Authenticate"}`))
	}))
	defer srv.Close()

	tw := NewTwilioWithBaseURL("AC999", "wrong", srv.URL)
	ok, err := tw.TransferCall(context.Background(), "CA123", "+15551234567")

	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTransferCallNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	tw := NewTwilioWithBaseURL("AC999", "secret", srv.URL)
	ok, err := tw.TransferCall(context.Background(), "CA123", "+15551234567")

	assert.False(t, ok)
	assert.Error(t, err)
}

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+15551234567", "+15551234567"},
		{"+1 (555) 123-4567", "+15551234567"},
		{"555.123.4567", "5551234567"},
		{" +44 20 7946 0958 ", "+442079460958"},
		{"15+551234567", "15551234567"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhoneNumber(tt.in), "input %q", tt.in)
	}
}
