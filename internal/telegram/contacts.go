package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"github.com/local-mcps/telegram-mcp/internal/common"
)

// PhoneContact is one entry for a contact import.
type PhoneContact struct {
	Phone     string
	FirstName string
	LastName  string
}

// ImportResult reports the outcome of a contact import.
type ImportResult struct {
	Imported int
	Users    []Entity
	Retry    []int64
}

// Contacts lists the account's saved contacts.
func (c *Client) Contacts(ctx context.Context) ([]Entity, error) {
	res, err := c.api.ContactsGetContacts(ctx, 0)
	if err != nil {
		return nil, err
	}
	contacts, ok := res.(*tg.ContactsContacts)
	if !ok {
		return nil, nil
	}
	c.rememberUsers(contacts.Users)
	out := make([]Entity, 0, len(contacts.Users))
	for _, uc := range contacts.Users {
		if u, ok := uc.(*tg.User); ok {
			out = append(out, entityFromUser(u))
		}
	}
	return out, nil
}

// ContactIDs lists the ids of the account's saved contacts.
func (c *Client) ContactIDs(ctx context.Context) ([]int, error) {
	return c.api.ContactsGetContactIDs(ctx, 0)
}

// ImportContacts adds contacts by phone number. Entries that are not on
// Telegram come back in Retry.
func (c *Client) ImportContacts(ctx context.Context, contacts []PhoneContact) (*ImportResult, error) {
	inputs := make([]tg.InputPhoneContact, 0, len(contacts))
	for i, pc := range contacts {
		inputs = append(inputs, tg.InputPhoneContact{
			ClientID:  int64(i),
			Phone:     pc.Phone,
			FirstName: pc.FirstName,
			LastName:  pc.LastName,
		})
	}
	res, err := c.api.ContactsImportContacts(ctx, inputs)
	if err != nil {
		return nil, err
	}
	c.rememberUsers(res.Users)
	result := &ImportResult{
		Imported: len(res.Imported),
		Retry:    res.RetryContacts,
	}
	for _, uc := range res.Users {
		if u, ok := uc.(*tg.User); ok {
			result.Users = append(result.Users, entityFromUser(u))
		}
	}
	return result, nil
}

// DeleteContact removes a user from the account's contacts.
func (c *Client) DeleteContact(ctx context.Context, userID int64) error {
	entry, err := c.entryByMarked(ctx, userID)
	if err != nil {
		return err
	}
	u, ok := entry.inputUser()
	if !ok {
		return fmt.Errorf("peer is not a user")
	}
	_, err = c.api.ContactsDeleteContacts(ctx, []tg.InputUserClass{u})
	return err
}

// BlockPeer adds a peer to the block list.
func (c *Client) BlockPeer(ctx context.Context, ref common.ChatRef) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	_, err = c.api.ContactsBlock(ctx, &tg.ContactsBlockRequest{ID: peer})
	return err
}

// UnblockPeer removes a peer from the block list.
func (c *Client) UnblockPeer(ctx context.Context, ref common.ChatRef) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	_, err = c.api.ContactsUnblock(ctx, &tg.ContactsUnblockRequest{ID: peer})
	return err
}

// BlockedUsers lists blocked users.
func (c *Client) BlockedUsers(ctx context.Context, limit int) ([]Entity, error) {
	res, err := c.api.ContactsGetBlocked(ctx, &tg.ContactsGetBlockedRequest{
		Offset: 0,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	var users []tg.UserClass
	switch b := res.(type) {
	case *tg.ContactsBlocked:
		c.remember(b.Users, b.Chats)
		users = b.Users
	case *tg.ContactsBlockedSlice:
		c.remember(b.Users, b.Chats)
		users = b.Users
	}
	out := make([]Entity, 0, len(users))
	for _, uc := range users {
		if u, ok := uc.(*tg.User); ok {
			out = append(out, entityFromUser(u))
		}
	}
	return out, nil
}

// CommonChats lists the chats shared with a user.
func (c *Client) CommonChats(ctx context.Context, userID int64) ([]Entity, error) {
	entry, err := c.entryByMarked(ctx, userID)
	if err != nil {
		return nil, err
	}
	u, ok := entry.inputUser()
	if !ok {
		return nil, fmt.Errorf("peer is not a user")
	}
	res, err := c.api.MessagesGetCommonChats(ctx, &tg.MessagesGetCommonChatsRequest{
		UserID: u,
		MaxID:  0,
		Limit:  100,
	})
	if err != nil {
		return nil, err
	}
	var chats []tg.ChatClass
	switch m := res.(type) {
	case *tg.MessagesChats:
		c.rememberChats(m.Chats)
		chats = m.Chats
	case *tg.MessagesChatsSlice:
		c.rememberChats(m.Chats)
		chats = m.Chats
	}
	out := make([]Entity, 0, len(chats))
	for _, cc := range chats {
		switch v := cc.(type) {
		case *tg.Chat:
			out = append(out, entityFromChat(v))
		case *tg.Channel:
			out = append(out, entityFromChannel(v))
		}
	}
	return out, nil
}
