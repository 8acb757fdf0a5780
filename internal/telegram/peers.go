package telegram

import (
	"context"
	"strings"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/local-mcps/telegram-mcp/internal/common"
)

type peerKind int

const (
	peerUser peerKind = iota
	peerChat
	peerChannel
)

type peerKey struct {
	kind peerKind
	id   int64
}

// peerEntry is one cached peer with the access hash needed to address it.
type peerEntry struct {
	kind       peerKind
	id         int64
	accessHash int64
	entity     Entity
}

func (e *peerEntry) inputPeer() tg.InputPeerClass {
	switch e.kind {
	case peerUser:
		return &tg.InputPeerUser{UserID: e.id, AccessHash: e.accessHash}
	case peerChat:
		return &tg.InputPeerChat{ChatID: e.id}
	default:
		return &tg.InputPeerChannel{ChannelID: e.id, AccessHash: e.accessHash}
	}
}

func (e *peerEntry) inputUser() (*tg.InputUser, bool) {
	if e.kind != peerUser {
		return nil, false
	}
	return &tg.InputUser{UserID: e.id, AccessHash: e.accessHash}, true
}

func (e *peerEntry) inputChannel() (*tg.InputChannel, bool) {
	if e.kind != peerChannel {
		return nil, false
	}
	return &tg.InputChannel{ChannelID: e.id, AccessHash: e.accessHash}, true
}

// ResolveEntity resolves a chat reference (numeric id in any of the accepted
// forms, or a username) to a known peer. Unknown ids trigger one dialog
// sweep before giving up with ErrPeerNotFound.
func (c *Client) ResolveEntity(ctx context.Context, ref common.ChatRef) (*Entity, error) {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	entity := entry.entity
	return &entity, nil
}

// ResolveMarked resolves a Bot-API style marked peer id against the cache,
// sweeping dialogs on a miss.
func (c *Client) ResolveMarked(ctx context.Context, marked int64) (*Entity, error) {
	entry, err := c.entryByMarked(ctx, marked)
	if err != nil {
		return nil, err
	}
	entity := entry.entity
	return &entity, nil
}

func (c *Client) inputPeer(ctx context.Context, ref common.ChatRef) (tg.InputPeerClass, *peerEntry, error) {
	if ref.IsUsername() {
		return c.resolveUsername(ctx, ref.Username)
	}
	entry, err := c.entryByMarked(ctx, ref.ID)
	if err != nil {
		return nil, nil, err
	}
	return entry.inputPeer(), entry, nil
}

func (c *Client) entryByMarked(ctx context.Context, id int64) (*peerEntry, error) {
	if entry, ok := c.lookupID(id); ok {
		return entry, nil
	}
	if err := c.sweepPeers(ctx); err != nil {
		return nil, err
	}
	if entry, ok := c.lookupID(id); ok {
		return entry, nil
	}
	// Basic groups are addressable without an access hash, so an uncached
	// one can still be fetched directly.
	if id < 0 && id > -1000000000000 {
		return c.fetchBasicGroup(ctx, -id)
	}
	return nil, ErrPeerNotFound
}

func (c *Client) lookupID(id int64) (*peerEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case id < -1000000000000:
		return c.get(peerKey{peerChannel, -id - 1000000000000})
	case id < 0:
		return c.get(peerKey{peerChat, -id})
	default:
		for _, kind := range []peerKind{peerUser, peerChannel, peerChat} {
			if entry, ok := c.get(peerKey{kind, id}); ok {
				return entry, true
			}
		}
		return nil, false
	}
}

func (c *Client) get(key peerKey) (*peerEntry, bool) {
	entry, ok := c.peers[key]
	return entry, ok
}

func (c *Client) resolveUsername(ctx context.Context, username string) (tg.InputPeerClass, *peerEntry, error) {
	name := strings.ToLower(strings.TrimPrefix(username, "@"))

	c.mu.Lock()
	key, ok := c.usernames[name]
	if ok {
		if entry, found := c.get(key); found {
			c.mu.Unlock()
			return entry.inputPeer(), entry, nil
		}
	}
	c.mu.Unlock()

	res, err := c.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: name})
	if err != nil {
		if tgerr.Is(err, "USERNAME_NOT_OCCUPIED", "USERNAME_INVALID") {
			return nil, nil, ErrPeerNotFound
		}
		return nil, nil, err
	}
	c.remember(res.Users, res.Chats)
	entry, ok := c.lookupID(markedID(res.Peer))
	if !ok {
		return nil, nil, ErrPeerNotFound
	}
	return entry.inputPeer(), entry, nil
}

func (c *Client) fetchBasicGroup(ctx context.Context, chatID int64) (*peerEntry, error) {
	res, err := c.api.MessagesGetChats(ctx, []int64{chatID})
	if err != nil {
		return nil, err
	}
	c.remember(nil, res.GetChats())
	if entry, ok := c.lookupID(-chatID); ok {
		return entry, nil
	}
	return nil, ErrPeerNotFound
}

// sweepPeers walks the full dialog list once, which populates the peer
// cache as a side effect.
func (c *Client) sweepPeers(ctx context.Context) error {
	c.logger.Debug("Sweeping dialogs to refresh the peer cache")
	_, err := c.Dialogs(ctx, 0)
	return err
}

func (c *Client) remember(users []tg.UserClass, chats []tg.ChatClass) {
	c.rememberUsers(users)
	c.rememberChats(chats)
}

func (c *Client) rememberUsers(users []tg.UserClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, uc := range users {
		u, ok := uc.(*tg.User)
		if !ok {
			continue
		}
		entry := &peerEntry{kind: peerUser, id: u.ID, accessHash: u.AccessHash, entity: entityFromUser(u)}
		c.peers[peerKey{peerUser, u.ID}] = entry
		if u.Username != "" {
			c.usernames[strings.ToLower(u.Username)] = peerKey{peerUser, u.ID}
		}
	}
}

func (c *Client) rememberChats(chats []tg.ChatClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cc := range chats {
		switch chat := cc.(type) {
		case *tg.Chat:
			c.peers[peerKey{peerChat, chat.ID}] = &peerEntry{kind: peerChat, id: chat.ID, entity: entityFromChat(chat)}
		case *tg.ChatForbidden:
			entity := Entity{ID: chat.ID, Kind: KindGroup, Title: chat.Title}
			c.peers[peerKey{peerChat, chat.ID}] = &peerEntry{kind: peerChat, id: chat.ID, entity: entity}
		case *tg.Channel:
			entry := &peerEntry{kind: peerChannel, id: chat.ID, accessHash: chat.AccessHash, entity: entityFromChannel(chat)}
			c.peers[peerKey{peerChannel, chat.ID}] = entry
			if chat.Username != "" {
				c.usernames[strings.ToLower(chat.Username)] = peerKey{peerChannel, chat.ID}
			}
		case *tg.ChannelForbidden:
			entity := Entity{ID: chat.ID, Kind: KindChannel, Title: chat.Title, Broadcast: chat.Broadcast, Megagroup: chat.Megagroup}
			c.peers[peerKey{peerChannel, chat.ID}] = &peerEntry{kind: peerChannel, id: chat.ID, accessHash: chat.AccessHash, entity: entity}
		}
	}
}

func entityFromUser(u *tg.User) Entity {
	return Entity{
		ID:        u.ID,
		Kind:      KindUser,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Phone:     u.Phone,
		Bot:       u.Bot,
		Verified:  u.Verified,
		Contact:   u.Contact,
		Mutual:    u.MutualContact,
	}
}

func entityFromChat(chat *tg.Chat) Entity {
	return Entity{ID: chat.ID, Kind: KindGroup, Title: chat.Title}
}

func entityFromChannel(ch *tg.Channel) Entity {
	return Entity{
		ID:        ch.ID,
		Kind:      KindChannel,
		Title:     ch.Title,
		Username:  ch.Username,
		Verified:  ch.Verified,
		Broadcast: ch.Broadcast,
		Megagroup: ch.Megagroup,
		Forum:     ch.Forum,
	}
}

// markedID converts a peer reference into its Bot-API style id.
func markedID(peer tg.PeerClass) int64 {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return p.UserID
	case *tg.PeerChat:
		return -p.ChatID
	case *tg.PeerChannel:
		return -1000000000000 - p.ChannelID
	}
	return 0
}
