package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPhoneNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare ten digit", "5551234567", "+15551234567"},
		{"formatted us", "(555) 123-4567", "+15551234567"},
		{"leading one", "15551234567", "+15551234567"},
		{"already e164", "+15551234567", "+15551234567"},
		{"international", "+447911123456", "+447911123456"},
		{"too short", "12345", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPhoneNumber(tt.in))
		})
	}
}

func TestTwilioSenderPostsForm(t *testing.T) {
	var got struct {
		to, from, body string
		path           string
		authOK         bool
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got.to = r.PostForm.Get("To")
		got.from = r.PostForm.Get("From")
		got.body = r.PostForm.Get("Body")
		got.path = r.URL.Path
		user, pass, ok := r.BasicAuth()
		got.authOK = ok && user == "AC123" && pass == "token"
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	sender := NewTwilioSender("AC123", "token", "+15550000000", srv.URL, srv.Client())
	err := sender.Send(context.Background(), SMS{To: "(555) 123-4567", Body: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "+15551234567", got.to)
	assert.Equal(t, "+15550000000", got.from)
	assert.Equal(t, "hello", got.body)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", got.path)
	assert.True(t, got.authOK)
}

func TestTwilioSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":21211}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	sender := NewTwilioSender("AC123", "token", "+15550000000", srv.URL, srv.Client())
	err := sender.Send(context.Background(), SMS{To: "5551234567", Body: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestTwilioSenderRejectsBadNumber(t *testing.T) {
	sender := NewTwilioSender("AC123", "token", "+15550000000", "http://unused", nil)
	err := sender.Send(context.Background(), SMS{To: "n/a", Body: "hello"})
	require.Error(t, err)
}
