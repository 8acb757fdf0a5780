package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	t.Run("stable across calls", func(t *testing.T) {
		first := ErrorCode(CategoryChat, "get_chats")
		second := ErrorCode(CategoryChat, "get_chats")
		assert.Equal(t, first, second)
	})

	t.Run("category prefix and shape", func(t *testing.T) {
		code := ErrorCode(CategoryMsg, "send_message")
		assert.Regexp(t, `^MSG-ERR-\d{3}$`, code)
	})

	t.Run("empty category falls back to GEN", func(t *testing.T) {
		code := ErrorCode("", "anything")
		assert.Regexp(t, `^GEN-ERR-\d{3}$`, code)
	})

	t.Run("different functions get different codes", func(t *testing.T) {
		assert.NotEqual(t, ErrorCode(CategoryChat, "get_chats"), ErrorCode(CategoryChat, "get_chat"))
	})
}

func TestErrorFormatter(t *testing.T) {
	f := NewErrorFormatter(CategoryChat)

	t.Run("generic message carries the code", func(t *testing.T) {
		msg := f.Format("get_chats", errors.New("rpc boom"), "page", 2)
		expected := fmt.Sprintf("An error occurred (code: %s). Check mcp_errors.log for details.", ErrorCode(CategoryChat, "get_chats"))
		assert.Equal(t, expected, msg)
	})

	t.Run("validation errors pass through verbatim", func(t *testing.T) {
		ve := NewValidationError("Invalid chat_id: 'ab'. Must be a valid integer ID, or a username string.")
		msg := f.Format("get_chat", ve, "chat_id", "ab")
		assert.Equal(t, ve.Message, msg)
	})

	t.Run("wrapped validation errors pass through", func(t *testing.T) {
		ve := NewValidationError("Invalid user_id: 1.5. Type must be an integer or a string.")
		msg := f.Format("block_user", fmt.Errorf("validate: %w", ve))
		assert.Equal(t, ve.Message, msg)
	})

	t.Run("authored message overrides the generic one", func(t *testing.T) {
		msg := f.FormatWithMessage("invite_to_group", errors.New("USER_NOT_MUTUAL_CONTACT"),
			"Error: Cannot invite users who are not mutual contacts.")
		assert.Equal(t, "Error: Cannot invite users who are not mutual contacts.", msg)
	})
}

func TestValidationErrorDetection(t *testing.T) {
	require.True(t, IsValidationError(NewValidationError("bad input")))
	require.True(t, IsValidationError(fmt.Errorf("wrap: %w", NewValidationError("bad input"))))
	require.False(t, IsValidationError(errors.New("bad input")))
}

func TestFormatKeyvals(t *testing.T) {
	assert.Equal(t, "", formatKeyvals(nil))
	assert.Equal(t, "chat_id=5", formatKeyvals([]interface{}{"chat_id", 5}))
	assert.Equal(t, "chat_id=5, page=2", formatKeyvals([]interface{}{"chat_id", 5, "page", 2}))
}
