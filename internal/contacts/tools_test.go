package contacts

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
	entities map[string]*telegram.Entity

	contacts    []telegram.Entity
	contactsErr error

	contactIDs    []int
	contactIDsErr error

	searchFound []telegram.Entity
	searchErr   error
	searchLimit int

	dialogs    []telegram.Dialog
	dialogsErr error

	commonChats    []telegram.Entity
	commonChatsErr error

	history    []*telegram.Message
	historyErr error

	imported      *telegram.ImportResult
	importErr     error
	importEntries []telegram.PhoneContact

	deletedUserID int64
	deleteErr     error

	blockedRef   common.ChatRef
	blockErr     error
	unblockedRef common.ChatRef
	unblockErr   error

	blockedUsers []telegram.Entity
	blockedErr   error
	blockedLimit int
}

func (f *fakeTelegram) ResolveEntity(ctx context.Context, ref common.ChatRef) (*telegram.Entity, error) {
	if e, ok := f.entities[ref.String()]; ok {
		return e, nil
	}
	return nil, telegram.ErrPeerNotFound
}

func (f *fakeTelegram) Contacts(ctx context.Context) ([]telegram.Entity, error) {
	return f.contacts, f.contactsErr
}

func (f *fakeTelegram) ContactIDs(ctx context.Context) ([]int, error) {
	return f.contactIDs, f.contactIDsErr
}

func (f *fakeTelegram) SearchPublic(ctx context.Context, query string, limit int) ([]telegram.Entity, error) {
	f.searchLimit = limit
	return f.searchFound, f.searchErr
}

func (f *fakeTelegram) Dialogs(ctx context.Context, limit int) ([]telegram.Dialog, error) {
	return f.dialogs, f.dialogsErr
}

func (f *fakeTelegram) CommonChats(ctx context.Context, userID int64) ([]telegram.Entity, error) {
	return f.commonChats, f.commonChatsErr
}

func (f *fakeTelegram) HistoryPage(ctx context.Context, ref common.ChatRef, addOffset, limit int) ([]*telegram.Message, error) {
	return f.history, f.historyErr
}

func (f *fakeTelegram) ImportContacts(ctx context.Context, contacts []telegram.PhoneContact) (*telegram.ImportResult, error) {
	f.importEntries = contacts
	return f.imported, f.importErr
}

func (f *fakeTelegram) DeleteContact(ctx context.Context, userID int64) error {
	f.deletedUserID = userID
	return f.deleteErr
}

func (f *fakeTelegram) BlockPeer(ctx context.Context, ref common.ChatRef) error {
	f.blockedRef = ref
	return f.blockErr
}

func (f *fakeTelegram) UnblockPeer(ctx context.Context, ref common.ChatRef) error {
	f.unblockedRef = ref
	return f.unblockErr
}

func (f *fakeTelegram) BlockedUsers(ctx context.Context, limit int) ([]telegram.Entity, error) {
	f.blockedLimit = limit
	return f.blockedUsers, f.blockedErr
}

func newTestServer(f *fakeTelegram) *Server {
	return NewServer(&config.ContactsConfig{Enabled: true}, f)
}

var alice = telegram.Entity{
	ID: 100, Kind: telegram.KindUser,
	FirstName: "Alice", LastName: "Smith",
	Username: "alice", Phone: "+15550100", Contact: true,
}

func TestListContacts(t *testing.T) {
	t.Run("listing", func(t *testing.T) {
		fake := &fakeTelegram{contacts: []telegram.Entity{
			alice,
			{ID: 101, Kind: telegram.KindUser, FirstName: "Bob"},
		}}
		server := newTestServer(fake)
		result, err := server.handleListContacts(context.Background(), map[string]interface{}{})
		require.NoError(t, err)
		assert.Equal(t,
			"ID: 100, Name: Alice Smith, Username: @alice, Phone: +15550100\n"+
				"ID: 101, Name: Bob",
			result.Content[0].Text)
	})

	t.Run("no contacts", func(t *testing.T) {
		server := newTestServer(&fakeTelegram{})
		result, err := server.handleListContacts(context.Background(), map[string]interface{}{})
		require.NoError(t, err)
		assert.Equal(t, "No contacts found.", result.Content[0].Text)
	})
}

func TestSearchContacts(t *testing.T) {
	t.Run("results", func(t *testing.T) {
		fake := &fakeTelegram{searchFound: []telegram.Entity{alice}}
		server := newTestServer(fake)
		result, err := server.handleSearchContacts(context.Background(), map[string]interface{}{
			"query": "alice",
		})
		require.NoError(t, err)
		assert.Equal(t, "ID: 100, Name: Alice Smith, Username: @alice, Phone: +15550100", result.Content[0].Text)
		assert.Equal(t, 50, fake.searchLimit)
	})

	t.Run("no results", func(t *testing.T) {
		server := newTestServer(&fakeTelegram{})
		result, err := server.handleSearchContacts(context.Background(), map[string]interface{}{
			"query": "zara",
		})
		require.NoError(t, err)
		assert.Equal(t, "No contacts found matching 'zara'.", result.Content[0].Text)
	})
}

func TestGetContactIDs(t *testing.T) {
	t.Run("ids", func(t *testing.T) {
		fake := &fakeTelegram{contactIDs: []int{100, 101, 102}}
		server := newTestServer(fake)
		result, err := server.handleGetContactIDs(context.Background(), map[string]interface{}{})
		require.NoError(t, err)
		assert.Equal(t, "Contact IDs: 100, 101, 102", result.Content[0].Text)
	})

	t.Run("empty", func(t *testing.T) {
		server := newTestServer(&fakeTelegram{})
		result, err := server.handleGetContactIDs(context.Background(), map[string]interface{}{})
		require.NoError(t, err)
		assert.Equal(t, "No contact IDs found.", result.Content[0].Text)
	})
}

func TestGetDirectChatByContact(t *testing.T) {
	t.Run("chat found", func(t *testing.T) {
		fake := &fakeTelegram{
			contacts: []telegram.Entity{alice},
			dialogs: []telegram.Dialog{
				{Entity: alice, UnreadCount: 3},
				{Entity: telegram.Entity{ID: 500, Kind: telegram.KindChannel, Title: "News"}},
			},
		}
		server := newTestServer(fake)
		result, err := server.handleGetDirectChatByContact(context.Background(), map[string]interface{}{
			"contact_query": "alice",
		})
		require.NoError(t, err)
		assert.Equal(t, "Chat ID: 100, Contact: Alice Smith, Username: @alice, Unread: 3", result.Content[0].Text)
	})

	t.Run("contact without chat", func(t *testing.T) {
		fake := &fakeTelegram{contacts: []telegram.Entity{alice}}
		server := newTestServer(fake)
		result, err := server.handleGetDirectChatByContact(context.Background(), map[string]interface{}{
			"contact_query": "smith",
		})
		require.NoError(t, err)
		assert.Equal(t, "Found contacts: Alice Smith, but no direct chats were found with them.", result.Content[0].Text)
	})

	t.Run("no matching contact", func(t *testing.T) {
		fake := &fakeTelegram{contacts: []telegram.Entity{alice}}
		server := newTestServer(fake)
		result, err := server.handleGetDirectChatByContact(context.Background(), map[string]interface{}{
			"contact_query": "zara",
		})
		require.NoError(t, err)
		assert.Equal(t, "No contacts found matching 'zara'.", result.Content[0].Text)
	})
}

func TestGetContactChats(t *testing.T) {
	t.Run("direct and common chats", func(t *testing.T) {
		a := alice
		fake := &fakeTelegram{
			entities: map[string]*telegram.Entity{"100": &a},
			dialogs:  []telegram.Dialog{{Entity: alice, UnreadCount: 2}},
			commonChats: []telegram.Entity{
				{ID: 300, Kind: telegram.KindChannel, Title: "Team", Megagroup: true},
				{ID: 400, Kind: telegram.KindChannel, Title: "Updates", Broadcast: true},
			},
		}
		server := newTestServer(fake)
		result, err := server.handleGetContactChats(context.Background(), map[string]interface{}{
			"contact_id": 100,
		})
		require.NoError(t, err)
		assert.Equal(t,
			"Chats with Alice Smith (ID: 100):\n"+
				"Direct Chat ID: 100, Type: Private, Unread: 2\n"+
				"Chat ID: 300, Title: Team, Type: Group\n"+
				"Chat ID: 400, Title: Updates, Type: Channel",
			result.Content[0].Text)
	})

	t.Run("common groups unavailable", func(t *testing.T) {
		a := alice
		fake := &fakeTelegram{
			entities:       map[string]*telegram.Entity{"100": &a},
			commonChatsErr: assert.AnError,
		}
		server := newTestServer(fake)
		result, err := server.handleGetContactChats(context.Background(), map[string]interface{}{
			"contact_id": 100,
		})
		require.NoError(t, err)
		assert.Equal(t,
			"Chats with Alice Smith (ID: 100):\nCould not retrieve common groups.",
			result.Content[0].Text)
	})

	t.Run("not a user", func(t *testing.T) {
		fake := &fakeTelegram{entities: map[string]*telegram.Entity{
			"-100200": {ID: 200, Kind: telegram.KindGroup, Title: "Old Group"},
		}}
		server := newTestServer(fake)
		result, err := server.handleGetContactChats(context.Background(), map[string]interface{}{
			"contact_id": -100200,
		})
		require.NoError(t, err)
		assert.Equal(t, "ID -100200 is not a user/contact.", result.Content[0].Text)
	})

	t.Run("no chats at all", func(t *testing.T) {
		a := alice
		fake := &fakeTelegram{
			entities: map[string]*telegram.Entity{"100": &a},
		}
		server := newTestServer(fake)
		result, err := server.handleGetContactChats(context.Background(), map[string]interface{}{
			"contact_id": 100,
		})
		require.NoError(t, err)
		assert.Equal(t, "No chats found with Alice Smith (ID: 100).", result.Content[0].Text)
	})
}

func TestGetLastInteraction(t *testing.T) {
	date := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("recent messages", func(t *testing.T) {
		a := alice
		fake := &fakeTelegram{
			entities: map[string]*telegram.Entity{"100": &a},
			history: []*telegram.Message{
				{ID: 2, Date: date.Add(time.Minute), Text: "sure", Out: true},
				{ID: 1, Date: date},
			},
		}
		server := newTestServer(fake)
		result, err := server.handleGetLastInteraction(context.Background(), map[string]interface{}{
			"contact_id": 100,
		})
		require.NoError(t, err)
		assert.Equal(t,
			"Last interactions with Alice Smith (ID: 100):\n"+
				"Date: 2024-05-01 10:01:00+00:00, From: You, Message: sure\n"+
				"Date: 2024-05-01 10:00:00+00:00, From: Alice Smith, Message: [Media/No text]",
			result.Content[0].Text)
	})

	t.Run("no messages", func(t *testing.T) {
		a := alice
		fake := &fakeTelegram{entities: map[string]*telegram.Entity{"100": &a}}
		server := newTestServer(fake)
		result, err := server.handleGetLastInteraction(context.Background(), map[string]interface{}{
			"contact_id": 100,
		})
		require.NoError(t, err)
		assert.Equal(t, "No messages found with Alice Smith (ID: 100).", result.Content[0].Text)
	})
}

func TestAddContact(t *testing.T) {
	t.Run("added", func(t *testing.T) {
		fake := &fakeTelegram{imported: &telegram.ImportResult{Imported: 1}}
		server := newTestServer(fake)
		result, err := server.handleAddContact(context.Background(), map[string]interface{}{
			"phone":      "+15550100",
			"first_name": "Jane",
			"last_name":  "Doe",
		})
		require.NoError(t, err)
		assert.Equal(t, "Contact Jane Doe added successfully.", result.Content[0].Text)
		require.Len(t, fake.importEntries, 1)
		assert.Equal(t, "+15550100", fake.importEntries[0].Phone)
	})

	t.Run("not registered on telegram", func(t *testing.T) {
		fake := &fakeTelegram{imported: &telegram.ImportResult{Retry: []int64{0}}}
		server := newTestServer(fake)
		result, err := server.handleAddContact(context.Background(), map[string]interface{}{
			"phone":      "+15550199",
			"first_name": "Jane",
		})
		require.NoError(t, err)
		assert.Equal(t, "Contact not added. Response: imported=0, retry=1", result.Content[0].Text)
	})
}

func TestDeleteContact(t *testing.T) {
	fake := &fakeTelegram{}
	server := newTestServer(fake)
	result, err := server.handleDeleteContact(context.Background(), map[string]interface{}{
		"user_id": 42,
	})
	require.NoError(t, err)
	assert.Equal(t, "Contact with user ID 42 deleted.", result.Content[0].Text)
	assert.Equal(t, int64(42), fake.deletedUserID)
}

func TestBlockAndUnblock(t *testing.T) {
	fake := &fakeTelegram{}
	server := newTestServer(fake)

	result, err := server.handleBlockUser(context.Background(), map[string]interface{}{
		"user_id": 42,
	})
	require.NoError(t, err)
	assert.Equal(t, "User 42 blocked.", result.Content[0].Text)
	assert.Equal(t, int64(42), fake.blockedRef.ID)

	result, err = server.handleUnblockUser(context.Background(), map[string]interface{}{
		"user_id": 42,
	})
	require.NoError(t, err)
	assert.Equal(t, "User 42 unblocked.", result.Content[0].Text)
	assert.Equal(t, int64(42), fake.unblockedRef.ID)
}

func TestImportContacts(t *testing.T) {
	t.Run("imports a batch", func(t *testing.T) {
		fake := &fakeTelegram{imported: &telegram.ImportResult{Imported: 2}}
		server := newTestServer(fake)
		result, err := server.handleImportContacts(context.Background(), map[string]interface{}{
			"contacts": []interface{}{
				map[string]interface{}{"phone": "+15550100", "first_name": "Jane"},
				map[string]interface{}{"phone": "+15550101", "first_name": "John", "last_name": "Doe"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Imported 2 contacts.", result.Content[0].Text)
		require.Len(t, fake.importEntries, 2)
		assert.Equal(t, "Doe", fake.importEntries[1].LastName)
	})

	t.Run("rejects non-array", func(t *testing.T) {
		server := newTestServer(&fakeTelegram{})
		_, err := server.handleImportContacts(context.Background(), map[string]interface{}{
			"contacts": "not a list",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be an array")
	})
}

func TestExportContacts(t *testing.T) {
	fake := &fakeTelegram{contacts: []telegram.Entity{alice}}
	server := newTestServer(fake)
	result, err := server.handleExportContacts(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, `[
  {
    "id": 100,
    "name": "Alice Smith",
    "type": "user",
    "username": "alice",
    "phone": "+15550100"
  }
]`, result.Content[0].Text)
}

func TestGetBlockedUsers(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		fake := &fakeTelegram{}
		server := newTestServer(fake)
		result, err := server.handleGetBlockedUsers(context.Background(), map[string]interface{}{})
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Content[0].Text)
		assert.Equal(t, 100, fake.blockedLimit)
	})

	t.Run("listing", func(t *testing.T) {
		fake := &fakeTelegram{blockedUsers: []telegram.Entity{
			{ID: 666, Kind: telegram.KindUser, FirstName: "Spam"},
		}}
		server := newTestServer(fake)
		result, err := server.handleGetBlockedUsers(context.Background(), map[string]interface{}{})
		require.NoError(t, err)
		assert.Contains(t, result.Content[0].Text, `"id": 666`)
		assert.Contains(t, result.Content[0].Text, `"name": "Spam"`)
	})
}

func TestResolveUsername(t *testing.T) {
	t.Run("resolved", func(t *testing.T) {
		a := alice
		fake := &fakeTelegram{entities: map[string]*telegram.Entity{"alice": &a}}
		server := newTestServer(fake)
		result, err := server.handleResolveUsername(context.Background(), map[string]interface{}{
			"username": "alice",
		})
		require.NoError(t, err)
		assert.Contains(t, result.Content[0].Text, `"name": "Alice Smith"`)
		assert.Contains(t, result.Content[0].Text, `"type": "user"`)
	})

	t.Run("unknown username", func(t *testing.T) {
		server := newTestServer(&fakeTelegram{})
		result, err := server.handleResolveUsername(context.Background(), map[string]interface{}{
			"username": "ghost",
		})
		require.NoError(t, err)
		assert.Contains(t, result.Content[0].Text, "An error occurred (code: CONTACT-ERR-")
	})
}
