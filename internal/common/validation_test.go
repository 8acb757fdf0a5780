package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	t.Run("json number id", func(t *testing.T) {
		ref, err := ValidateID("chat_id", json.Number("-1001234567890123"))
		require.NoError(t, err)
		assert.Equal(t, int64(-1001234567890123), ref.ID)
		assert.False(t, ref.IsUsername())
	})

	t.Run("json number out of range", func(t *testing.T) {
		_, err := ValidateID("chat_id", json.Number("9223372036854775808"))
		require.Error(t, err)
		assert.Equal(t, "Invalid chat_id: 9223372036854775808. ID is out of the valid integer range.", err.Error())
		assert.True(t, IsValidationError(err))
	})

	t.Run("fractional json number", func(t *testing.T) {
		_, err := ValidateID("chat_id", json.Number("1.5"))
		require.Error(t, err)
		assert.Equal(t, "Invalid chat_id: 1.5. Type must be an integer or a string.", err.Error())
	})

	t.Run("numeric string converts to id", func(t *testing.T) {
		ref, err := ValidateID("user_id", "123456789")
		require.NoError(t, err)
		assert.Equal(t, int64(123456789), ref.ID)
		assert.False(t, ref.IsUsername())
	})

	t.Run("negative numeric string", func(t *testing.T) {
		ref, err := ValidateID("chat_id", "-1001234567890")
		require.NoError(t, err)
		assert.Equal(t, int64(-1001234567890), ref.ID)
	})

	t.Run("numeric string out of range", func(t *testing.T) {
		_, err := ValidateID("user_id", "99999999999999999999")
		require.Error(t, err)
		assert.Equal(t, "Invalid user_id: 99999999999999999999. ID is out of the valid integer range.", err.Error())
	})

	t.Run("username", func(t *testing.T) {
		ref, err := ValidateID("chat_id", "telegram")
		require.NoError(t, err)
		assert.True(t, ref.IsUsername())
		assert.Equal(t, "telegram", ref.Username)
	})

	t.Run("username with at sign", func(t *testing.T) {
		ref, err := ValidateID("chat_id", "@some_user")
		require.NoError(t, err)
		assert.Equal(t, "@some_user", ref.Username)
	})

	t.Run("short username rejected", func(t *testing.T) {
		_, err := ValidateID("chat_id", "abc")
		require.Error(t, err)
		assert.Equal(t, "Invalid chat_id: 'abc'. Must be a valid integer ID, or a username string.", err.Error())
	})

	t.Run("username with invalid characters", func(t *testing.T) {
		_, err := ValidateID("chat_id", "bad name!")
		require.Error(t, err)
		assert.Equal(t, "Invalid chat_id: 'bad name!'. Must be a valid integer ID, or a username string.", err.Error())
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := ValidateID("chat_id", true)
		require.Error(t, err)
		assert.Equal(t, "Invalid chat_id: true. Type must be an integer or a string.", err.Error())
	})

	t.Run("native ints accepted", func(t *testing.T) {
		ref, err := ValidateID("chat_id", int64(42))
		require.NoError(t, err)
		assert.Equal(t, int64(42), ref.ID)

		ref, err = ValidateID("chat_id", 42)
		require.NoError(t, err)
		assert.Equal(t, int64(42), ref.ID)
	})
}

func TestValidateIDList(t *testing.T) {
	t.Run("mixed ids and usernames", func(t *testing.T) {
		refs, err := ValidateIDList("user_ids", []interface{}{json.Number("111"), "some_user", "222"})
		require.NoError(t, err)
		require.Len(t, refs, 3)
		assert.Equal(t, int64(111), refs[0].ID)
		assert.Equal(t, "some_user", refs[1].Username)
		assert.Equal(t, int64(222), refs[2].ID)
	})

	t.Run("bad element names the parameter", func(t *testing.T) {
		_, err := ValidateIDList("user_ids", []interface{}{json.Number("111"), "ab"})
		require.Error(t, err)
		assert.Equal(t, "Invalid user_ids: 'ab'. Must be a valid integer ID, or a username string.", err.Error())
	})

	t.Run("empty list", func(t *testing.T) {
		refs, err := ValidateIDList("user_ids", nil)
		require.NoError(t, err)
		assert.Empty(t, refs)
	})
}

func TestChatRefString(t *testing.T) {
	assert.Equal(t, "12345", ChatRef{ID: 12345}.String())
	assert.Equal(t, "@durov", ChatRef{Username: "@durov"}.String())
}
