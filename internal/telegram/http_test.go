package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiCall struct {
	method string
	form   map[string]string
}

// fakeAPI records Bot API calls and answers each with a canned result.
type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := make(map[string]string)
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				form[k] = v[0]
			}
		}

		f.mu.Lock()
		f.calls = append(f.calls, apiCall{method: r.URL.Path, form: form})
		f.mu.Unlock()

		var result any = true
		if r.URL.Path == "/bottest-token/sendMessage" {
			result = map[string]any{
				"message_id": 1,
				"date":       0,
				"chat":       map[string]any{"id": 123, "type": "private"},
				"text":       form["text"],
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
	}
}

func newTestClient(t *testing.T) (*HTTPClient, *fakeAPI) {
	api := &fakeAPI{}
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	client, err := NewHTTPClient("test-token", WithServerURL(server.URL))
	require.NoError(t, err)
	return client, api
}

func TestHTTPClient_NewHTTPClient(t *testing.T) {
	client, err := NewHTTPClient("test-token", WithDebug(), WithWebhookSecret("s3cret"))
	require.NoError(t, err)
	assert.NotNil(t, client.bot)
	assert.NotNil(t, client.WebhookHandler())
}

func TestHTTPClient_SendText(t *testing.T) {
	client, api := newTestClient(t)

	msg, err := client.SendText(context.Background(), 123, "✅ 설교가 저장되었습니다!")
	require.NoError(t, err)
	assert.Equal(t, "✅ 설교가 저장되었습니다!", msg.Text)

	require.Len(t, api.calls, 1)
	assert.Equal(t, "/bottest-token/sendMessage", api.calls[0].method)
	assert.Equal(t, "123", api.calls[0].form["chat_id"])
	assert.Equal(t, "✅ 설교가 저장되었습니다!", api.calls[0].form["text"])
}

func TestHTTPClient_ReplyToMessage(t *testing.T) {
	client, api := newTestClient(t)

	_, err := client.ReplyToMessage(context.Background(), 123, 77, "ok")
	require.NoError(t, err)

	require.Len(t, api.calls, 1)
	assert.Contains(t, api.calls[0].form["reply_parameters"], `"message_id":77`)
}

func TestHTTPClient_SetWebhook(t *testing.T) {
	client, api := newTestClient(t)

	require.NoError(t, client.SetWebhook(context.Background(), "https://example.com/telegram/webhook", "s3cret"))
	require.NoError(t, client.DeleteWebhook(context.Background()))

	require.Len(t, api.calls, 2)
	assert.Equal(t, "/bottest-token/setWebhook", api.calls[0].method)
	assert.Equal(t, "https://example.com/telegram/webhook", api.calls[0].form["url"])
	assert.Equal(t, "s3cret", api.calls[0].form["secret_token"])
	assert.Equal(t, "/bottest-token/deleteWebhook", api.calls[1].method)
}

func TestHTTPClient_SetCommands(t *testing.T) {
	client, api := newTestClient(t)

	err := client.SetCommands(context.Background(), []models.BotCommand{
		{Command: "cancel", Description: "discard draft"},
	})
	require.NoError(t, err)

	require.Len(t, api.calls, 1)
	assert.Equal(t, "/bottest-token/setMyCommands", api.calls[0].method)
	assert.Contains(t, api.calls[0].form["commands"], `"command":"cancel"`)
}
