package admin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local-mcps/telegram-mcp/config"
	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/files"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
)

type fakeTelegram struct {
	entities map[string]*telegram.Entity

	editAdminUserID int64
	editAdminRights telegram.AdminRights
	editAdminRank   string
	editAdminErr    error

	bannedUserID int64
	bannedState  bool
	bannedErr    error

	admins    []telegram.Entity
	adminsErr error

	banned    []telegram.Entity
	listErr   error

	logEntries []telegram.AdminLogEntry
	logLimit   int
	logErr     error

	photoPath      string
	photoErr       error
	photoDeleteErr error
}

func (f *fakeTelegram) ResolveEntity(ctx context.Context, ref common.ChatRef) (*telegram.Entity, error) {
	if e, ok := f.entities[ref.String()]; ok {
		return e, nil
	}
	return nil, telegram.ErrPeerNotFound
}

func (f *fakeTelegram) EditAdmin(ctx context.Context, ref common.ChatRef, userID int64, rights telegram.AdminRights, rank string) error {
	f.editAdminUserID = userID
	f.editAdminRights = rights
	f.editAdminRank = rank
	return f.editAdminErr
}

func (f *fakeTelegram) EditBanned(ctx context.Context, ref common.ChatRef, userID int64, banned bool) error {
	f.bannedUserID = userID
	f.bannedState = banned
	return f.bannedErr
}

func (f *fakeTelegram) AdminParticipants(ctx context.Context, ref common.ChatRef) ([]telegram.Entity, error) {
	return f.admins, f.adminsErr
}

func (f *fakeTelegram) BannedParticipants(ctx context.Context, ref common.ChatRef) ([]telegram.Entity, error) {
	return f.banned, f.listErr
}

func (f *fakeTelegram) AdminLog(ctx context.Context, ref common.ChatRef, limit int) ([]telegram.AdminLogEntry, error) {
	f.logLimit = limit
	return f.logEntries, f.logErr
}

func (f *fakeTelegram) EditChatPhoto(ctx context.Context, ref common.ChatRef, path string) error {
	f.photoPath = path
	return f.photoErr
}

func (f *fakeTelegram) DeleteChatPhoto(ctx context.Context, ref common.ChatRef) error {
	return f.photoDeleteErr
}

func newTestServer(t *testing.T, f *fakeTelegram) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	resolver := files.NewResolver(files.NewNegotiator([]string{root}))
	return NewServer(&config.AdminConfig{Enabled: true}, f, resolver), root
}

func devTeam() map[string]*telegram.Entity {
	return map[string]*telegram.Entity{
		"-100200": {ID: 200, Kind: telegram.KindChannel, Title: "Dev Team", Megagroup: true},
	}
}

func TestPromoteAdmin(t *testing.T) {
	t.Run("promotes by id", func(t *testing.T) {
		fake := &fakeTelegram{entities: devTeam()}
		server, _ := newTestServer(t, fake)
		result, err := server.handlePromoteAdmin(context.Background(), map[string]interface{}{
			"chat_id": -100200,
			"user_id": 42,
		})
		require.NoError(t, err)
		assert.Equal(t, "Successfully promoted user 42 to admin in Dev Team", result.Content[0].Text)
		assert.Equal(t, int64(42), fake.editAdminUserID)
		assert.Equal(t, telegram.DefaultAdminRights(), fake.editAdminRights)
		assert.Equal(t, "Admin", fake.editAdminRank)
	})

	t.Run("promotes by username", func(t *testing.T) {
		entities := devTeam()
		entities["@ann"] = &telegram.Entity{ID: 42, Kind: telegram.KindUser, FirstName: "Ann"}
		fake := &fakeTelegram{entities: entities}
		server, _ := newTestServer(t, fake)
		result, err := server.handlePromoteAdmin(context.Background(), map[string]interface{}{
			"chat_id": -100200,
			"user_id": "@ann",
		})
		require.NoError(t, err)
		assert.Equal(t, "Successfully promoted user @ann to admin in Dev Team", result.Content[0].Text)
		assert.Equal(t, int64(42), fake.editAdminUserID)
	})

	t.Run("not a mutual contact", func(t *testing.T) {
		fake := &fakeTelegram{entities: devTeam(), editAdminErr: telegram.ErrNotMutualContact}
		server, _ := newTestServer(t, fake)
		result, err := server.handlePromoteAdmin(context.Background(), map[string]interface{}{
			"chat_id": -100200,
			"user_id": 42,
		})
		require.NoError(t, err)
		assert.Equal(t, "Error: Cannot promote users who are not mutual contacts. Please ensure the user is in your contacts and has added you back.", result.Content[0].Text)
	})
}

func TestDemoteAdmin(t *testing.T) {
	t.Run("demotes", func(t *testing.T) {
		fake := &fakeTelegram{entities: devTeam()}
		server, _ := newTestServer(t, fake)
		result, err := server.handleDemoteAdmin(context.Background(), map[string]interface{}{
			"chat_id": -100200,
			"user_id": 42,
		})
		require.NoError(t, err)
		assert.Equal(t, "Successfully demoted user 42 from admin in Dev Team", result.Content[0].Text)
		assert.Equal(t, telegram.AdminRights{}, fake.editAdminRights)
		assert.Equal(t, "", fake.editAdminRank)
	})

	t.Run("not a mutual contact", func(t *testing.T) {
		fake := &fakeTelegram{entities: devTeam(), editAdminErr: telegram.ErrNotMutualContact}
		server, _ := newTestServer(t, fake)
		result, err := server.handleDemoteAdmin(context.Background(), map[string]interface{}{
			"chat_id": -100200,
			"user_id": 42,
		})
		require.NoError(t, err)
		assert.Equal(t, "Error: Cannot modify admin status of users who are not mutual contacts. Please ensure the user is in your contacts and has added you back.", result.Content[0].Text)
	})
}

func TestBanUser(t *testing.T) {
	t.Run("bans", func(t *testing.T) {
		fake := &fakeTelegram{entities: devTeam()}
		server, _ := newTestServer(t, fake)
		result, err := server.handleBanUser(context.Background(), map[string]interface{}{
			"chat_id": -100200,
			"user_id": 42,
		})
		require.NoError(t, err)
		assert.Equal(t, "User 42 banned from chat Dev Team (ID: -100200).", result.Content[0].Text)
		assert.Equal(t, int64(42), fake.bannedUserID)
		assert.True(t, fake.bannedState)
	})

	t.Run("not a mutual contact", func(t *testing.T) {
		fake := &fakeTelegram{entities: devTeam(), bannedErr: telegram.ErrNotMutualContact}
		server, _ := newTestServer(t, fake)
		result, err := server.handleBanUser(context.Background(), map[string]interface{}{
			"chat_id": -100200,
			"user_id": 42,
		})
		require.NoError(t, err)
		assert.Equal(t, "Error: Cannot ban users who are not mutual contacts. Please ensure the user is in your contacts and has added you back.", result.Content[0].Text)
	})
}

func TestUnbanUser(t *testing.T) {
	t.Run("unbans", func(t *testing.T) {
		fake := &fakeTelegram{entities: devTeam()}
		server, _ := newTestServer(t, fake)
		result, err := server.handleUnbanUser(context.Background(), map[string]interface{}{
			"chat_id": -100200,
			"user_id": 42,
		})
		require.NoError(t, err)
		assert.Equal(t, "User 42 unbanned from chat Dev Team (ID: -100200).", result.Content[0].Text)
		assert.False(t, fake.bannedState)
	})

	t.Run("not a mutual contact", func(t *testing.T) {
		fake := &fakeTelegram{entities: devTeam(), bannedErr: telegram.ErrNotMutualContact}
		server, _ := newTestServer(t, fake)
		result, err := server.handleUnbanUser(context.Background(), map[string]interface{}{
			"chat_id": -100200,
			"user_id": 42,
		})
		require.NoError(t, err)
		assert.Equal(t, "Error: Cannot modify status of users who are not mutual contacts. Please ensure the user is in your contacts and has added you back.", result.Content[0].Text)
	})
}

func TestGetAdmins(t *testing.T) {
	t.Run("listing", func(t *testing.T) {
		fake := &fakeTelegram{admins: []telegram.Entity{
			{ID: 1, FirstName: "Ann", LastName: "Lee"},
			{ID: 2, FirstName: "Bob"},
		}}
		server, _ := newTestServer(t, fake)
		result, err := server.handleGetAdmins(context.Background(), map[string]interface{}{
			"chat_id": -100200,
		})
		require.NoError(t, err)
		assert.Equal(t, "ID: 1, Name: Ann Lee\nID: 2, Name: Bob", result.Content[0].Text)
	})

	t.Run("none", func(t *testing.T) {
		server, _ := newTestServer(t, &fakeTelegram{})
		result, err := server.handleGetAdmins(context.Background(), map[string]interface{}{
			"chat_id": -100200,
		})
		require.NoError(t, err)
		assert.Equal(t, "No admins found.", result.Content[0].Text)
	})
}

func TestGetBannedUsers(t *testing.T) {
	t.Run("listing", func(t *testing.T) {
		fake := &fakeTelegram{banned: []telegram.Entity{{ID: 9, FirstName: "Troll"}}}
		server, _ := newTestServer(t, fake)
		result, err := server.handleGetBannedUsers(context.Background(), map[string]interface{}{
			"chat_id": -100200,
		})
		require.NoError(t, err)
		assert.Equal(t, "ID: 9, Name: Troll", result.Content[0].Text)
	})

	t.Run("none", func(t *testing.T) {
		server, _ := newTestServer(t, &fakeTelegram{})
		result, err := server.handleGetBannedUsers(context.Background(), map[string]interface{}{
			"chat_id": -100200,
		})
		require.NoError(t, err)
		assert.Equal(t, "No banned users found.", result.Content[0].Text)
	})
}

func TestGetRecentActions(t *testing.T) {
	t.Run("log entries", func(t *testing.T) {
		fake := &fakeTelegram{logEntries: []telegram.AdminLogEntry{
			{ID: 1, Date: "2024-05-01 10:00:00+00:00", UserID: 42, Action: "ParticipantJoin"},
		}}
		server, _ := newTestServer(t, fake)
		result, err := server.handleGetRecentActions(context.Background(), map[string]interface{}{
			"chat_id": -100200,
		})
		require.NoError(t, err)
		assert.Contains(t, result.Content[0].Text, `"action": "ParticipantJoin"`)
		assert.Contains(t, result.Content[0].Text, `"user_id": 42`)
		assert.Equal(t, 20, fake.logLimit)
	})

	t.Run("empty log", func(t *testing.T) {
		server, _ := newTestServer(t, &fakeTelegram{})
		result, err := server.handleGetRecentActions(context.Background(), map[string]interface{}{
			"chat_id": -100200,
		})
		require.NoError(t, err)
		assert.Equal(t, "No recent admin actions found.", result.Content[0].Text)
	})
}

func TestEditChatPhoto(t *testing.T) {
	t.Run("updates photo", func(t *testing.T) {
		fake := &fakeTelegram{entities: devTeam()}
		server, root := newTestServer(t, fake)
		photo := filepath.Join(root, "logo.jpg")
		require.NoError(t, os.WriteFile(photo, []byte("jpg"), 0644))

		result, err := server.handleEditChatPhoto(context.Background(), map[string]interface{}{
			"chat_id":   -100200,
			"file_path": "logo.jpg",
		})
		require.NoError(t, err)
		assert.Equal(t, "Chat -100200 photo updated.", result.Content[0].Text)
		assert.Equal(t, photo, fake.photoPath)
	})

	t.Run("file missing", func(t *testing.T) {
		fake := &fakeTelegram{entities: devTeam()}
		server, root := newTestServer(t, fake)
		result, err := server.handleEditChatPhoto(context.Background(), map[string]interface{}{
			"chat_id":   -100200,
			"file_path": "missing.jpg",
		})
		require.NoError(t, err)
		assert.Equal(t, "Photo file not found: "+filepath.Join(root, "missing.jpg"), result.Content[0].Text)
	})

	t.Run("traversal denied", func(t *testing.T) {
		server, _ := newTestServer(t, &fakeTelegram{entities: devTeam()})
		result, err := server.handleEditChatPhoto(context.Background(), map[string]interface{}{
			"chat_id":   -100200,
			"file_path": "../escape.jpg",
		})
		require.NoError(t, err)
		assert.Equal(t, "Path traversal is not allowed.", result.Content[0].Text)
	})

	t.Run("user entity rejected", func(t *testing.T) {
		fake := &fakeTelegram{entities: map[string]*telegram.Entity{
			"42": {ID: 42, Kind: telegram.KindUser, FirstName: "Ann"},
		}}
		server, root := newTestServer(t, fake)
		require.NoError(t, os.WriteFile(filepath.Join(root, "p.jpg"), []byte("jpg"), 0644))
		result, err := server.handleEditChatPhoto(context.Background(), map[string]interface{}{
			"chat_id":   42,
			"file_path": "p.jpg",
		})
		require.NoError(t, err)
		assert.Equal(t, "Cannot edit photo for this entity type (user).", result.Content[0].Text)
	})
}

func TestDeleteChatPhoto(t *testing.T) {
	t.Run("deletes", func(t *testing.T) {
		server, _ := newTestServer(t, &fakeTelegram{entities: devTeam()})
		result, err := server.handleDeleteChatPhoto(context.Background(), map[string]interface{}{
			"chat_id": -100200,
		})
		require.NoError(t, err)
		assert.Equal(t, "Chat -100200 photo deleted.", result.Content[0].Text)
	})

	t.Run("user entity rejected", func(t *testing.T) {
		fake := &fakeTelegram{entities: map[string]*telegram.Entity{
			"42": {ID: 42, Kind: telegram.KindUser, FirstName: "Ann"},
		}}
		server, _ := newTestServer(t, fake)
		result, err := server.handleDeleteChatPhoto(context.Background(), map[string]interface{}{
			"chat_id": 42,
		})
		require.NoError(t, err)
		assert.Equal(t, "Cannot delete photo for this entity type (user).", result.Content[0].Text)
	})
}
