package misc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local-mcps/telegram-mcp/config"
	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
)

type fakeTelegram struct {
	self    *telegram.Entity
	pingErr error

	sentPollRef common.ChatRef
	sentPoll    telegram.PollSpec
	sendPollErr error

	draftRef       common.ChatRef
	draftMessage   string
	draftReplyTo   int
	draftNoWebpage bool
	saveDraftErr   error

	drafts    []telegram.Draft
	draftsErr error

	clearedRef    common.ChatRef
	clearDraftErr error
}

func (f *fakeTelegram) Self() *telegram.Entity {
	return f.self
}

func (f *fakeTelegram) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeTelegram) SendPoll(ctx context.Context, ref common.ChatRef, spec telegram.PollSpec) error {
	f.sentPollRef = ref
	f.sentPoll = spec
	return f.sendPollErr
}

func (f *fakeTelegram) SaveDraft(ctx context.Context, ref common.ChatRef, message string, replyTo int, noWebpage bool) error {
	f.draftRef = ref
	f.draftMessage = message
	f.draftReplyTo = replyTo
	f.draftNoWebpage = noWebpage
	return f.saveDraftErr
}

func (f *fakeTelegram) Drafts(ctx context.Context) ([]telegram.Draft, error) {
	return f.drafts, f.draftsErr
}

func (f *fakeTelegram) ClearDraft(ctx context.Context, ref common.ChatRef) error {
	f.clearedRef = ref
	return f.clearDraftErr
}

func newTestServer(f *fakeTelegram) *Server {
	return NewServer(&config.MiscConfig{Enabled: true}, f)
}

func TestCreatePoll(t *testing.T) {
	t.Run("creates poll", func(t *testing.T) {
		fake := &fakeTelegram{}
		server := newTestServer(fake)
		result, err := server.handleCreatePoll(context.Background(), map[string]interface{}{
			"chat_id":  123,
			"question": "Lunch?",
			"options":  []interface{}{"Pizza", "Sushi"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Poll created successfully in chat 123.", result.Content[0].Text)
		assert.Equal(t, common.ChatRef{ID: 123}, fake.sentPollRef)
		assert.Equal(t, "Lunch?", fake.sentPoll.Question)
		assert.Equal(t, []string{"Pizza", "Sushi"}, fake.sentPoll.Options)
		assert.False(t, fake.sentPoll.MultipleChoice)
		assert.True(t, fake.sentPoll.PublicVoters)
	})

	t.Run("too few options", func(t *testing.T) {
		server := newTestServer(&fakeTelegram{})
		result, err := server.handleCreatePoll(context.Background(), map[string]interface{}{
			"chat_id":  123,
			"question": "Lunch?",
			"options":  []interface{}{"Pizza"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Error: Poll must have at least 2 options.", result.Content[0].Text)
	})

	t.Run("too many options", func(t *testing.T) {
		options := make([]interface{}, 11)
		for i := range options {
			options[i] = "option"
		}
		server := newTestServer(&fakeTelegram{})
		result, err := server.handleCreatePoll(context.Background(), map[string]interface{}{
			"chat_id":  123,
			"question": "Lunch?",
			"options":  options,
		})
		require.NoError(t, err)
		assert.Equal(t, "Error: Poll can have at most 10 options.", result.Content[0].Text)
	})

	t.Run("parses close date", func(t *testing.T) {
		fake := &fakeTelegram{}
		server := newTestServer(fake)
		_, err := server.handleCreatePoll(context.Background(), map[string]interface{}{
			"chat_id":    123,
			"question":   "Lunch?",
			"options":    []interface{}{"Pizza", "Sushi"},
			"close_date": "2024-06-01 18:00:00",
		})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC), fake.sentPoll.CloseDate)
	})

	t.Run("invalid close date", func(t *testing.T) {
		server := newTestServer(&fakeTelegram{})
		result, err := server.handleCreatePoll(context.Background(), map[string]interface{}{
			"chat_id":    123,
			"question":   "Lunch?",
			"options":    []interface{}{"Pizza", "Sushi"},
			"close_date": "tomorrow",
		})
		require.NoError(t, err)
		assert.Equal(t, "Invalid close_date format. Use YYYY-MM-DD HH:MM:SS format.", result.Content[0].Text)
	})

	t.Run("send failure is formatted", func(t *testing.T) {
		server := newTestServer(&fakeTelegram{sendPollErr: assert.AnError})
		result, err := server.handleCreatePoll(context.Background(), map[string]interface{}{
			"chat_id":  123,
			"question": "Lunch?",
			"options":  []interface{}{"Pizza", "Sushi"},
		})
		require.NoError(t, err)
		assert.Contains(t, result.Content[0].Text, "An error occurred (code: GEN-ERR-")
	})
}

func TestSaveDraft(t *testing.T) {
	t.Run("saves draft", func(t *testing.T) {
		fake := &fakeTelegram{}
		server := newTestServer(fake)
		result, err := server.handleSaveDraft(context.Background(), map[string]interface{}{
			"chat_id": "@alice",
			"message": "hello",
		})
		require.NoError(t, err)
		assert.Equal(t, "Draft saved to chat @alice. Open the chat in Telegram to see and send it.", result.Content[0].Text)
		assert.Equal(t, common.ChatRef{Username: "@alice"}, fake.draftRef)
		assert.Equal(t, "hello", fake.draftMessage)
	})

	t.Run("records reply and preview flags", func(t *testing.T) {
		fake := &fakeTelegram{}
		server := newTestServer(fake)
		_, err := server.handleSaveDraft(context.Background(), map[string]interface{}{
			"chat_id":         123,
			"message":         "hello",
			"reply_to_msg_id": 7,
			"no_webpage":      true,
		})
		require.NoError(t, err)
		assert.Equal(t, 7, fake.draftReplyTo)
		assert.True(t, fake.draftNoWebpage)
	})

	t.Run("invalid chat id", func(t *testing.T) {
		server := newTestServer(&fakeTelegram{})
		result, err := server.handleSaveDraft(context.Background(), map[string]interface{}{
			"chat_id": true,
			"message": "hello",
		})
		require.NoError(t, err)
		assert.Equal(t, "Invalid chat_id: true. Type must be an integer or a string.", result.Content[0].Text)
	})
}

func TestGetDrafts(t *testing.T) {
	t.Run("lists drafts", func(t *testing.T) {
		fake := &fakeTelegram{drafts: []telegram.Draft{
			{
				PeerID:    100,
				Message:   "hi",
				Date:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
				ReplyToID: 7,
			},
			{
				PeerID:    -200,
				Message:   "draft",
				NoWebpage: true,
			},
		}}
		server := newTestServer(fake)
		result, err := server.handleGetDrafts(context.Background(), map[string]interface{}{})
		require.NoError(t, err)
		expected := `{
  "drafts": [
    {
      "peer_id": 100,
      "message": "hi",
      "date": "2024-05-01T10:00:00+00:00",
      "no_webpage": false,
      "reply_to_msg_id": 7
    },
    {
      "peer_id": -200,
      "message": "draft",
      "date": null,
      "no_webpage": true,
      "reply_to_msg_id": null
    }
  ],
  "count": 2
}`
		assert.Equal(t, expected, result.Content[0].Text)
	})

	t.Run("no drafts", func(t *testing.T) {
		server := newTestServer(&fakeTelegram{})
		result, err := server.handleGetDrafts(context.Background(), map[string]interface{}{})
		require.NoError(t, err)
		assert.Equal(t, "No drafts found.", result.Content[0].Text)
	})
}

func TestClearDraft(t *testing.T) {
	t.Run("clears draft", func(t *testing.T) {
		fake := &fakeTelegram{}
		server := newTestServer(fake)
		result, err := server.handleClearDraft(context.Background(), map[string]interface{}{
			"chat_id": 123,
		})
		require.NoError(t, err)
		assert.Equal(t, "Draft cleared from chat 123.", result.Content[0].Text)
		assert.Equal(t, common.ChatRef{ID: 123}, fake.clearedRef)
	})
}

func TestGetServerStatus(t *testing.T) {
	t.Run("reports running state", func(t *testing.T) {
		fake := &fakeTelegram{self: &telegram.Entity{ID: 100, Kind: telegram.KindUser, Username: "alice"}}
		server := newTestServer(fake)
		result, err := server.handleGetServerStatus(context.Background(), map[string]interface{}{})
		require.NoError(t, err)
		assert.Contains(t, result.Content[0].Text, `"status": "running"`)
		assert.Contains(t, result.Content[0].Text, `"connected": true`)
		assert.Contains(t, result.Content[0].Text, `"account_id": 100`)
		assert.Contains(t, result.Content[0].Text, `"uptime_seconds"`)
	})

	t.Run("reports lost connection", func(t *testing.T) {
		server := newTestServer(&fakeTelegram{pingErr: assert.AnError})
		result, err := server.handleGetServerStatus(context.Background(), map[string]interface{}{})
		require.NoError(t, err)
		assert.Contains(t, result.Content[0].Text, `"connected": false`)
		assert.Contains(t, result.Content[0].Text, assert.AnError.Error())
	})
}
