package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/tg"

	"github.com/local-mcps/telegram-mcp/internal/common"
)

type topKey struct {
	peer int64
	id   int
}

// Dialogs fetches the dialog list, most recent first. limit <= 0 fetches
// every page. All users and chats carried by the pages are remembered in
// the peer cache.
func (c *Client) Dialogs(ctx context.Context, limit int) ([]Dialog, error) {
	const chunk = 100
	var (
		out        []Dialog
		offsetDate int
		offsetID   int
		offsetPeer tg.InputPeerClass = &tg.InputPeerEmpty{}
	)
	for {
		res, err := c.api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
			OffsetDate: offsetDate,
			OffsetID:   offsetID,
			OffsetPeer: offsetPeer,
			Limit:      chunk,
		})
		if err != nil {
			return nil, err
		}

		var (
			dialogs  []tg.DialogClass
			messages []tg.MessageClass
		)
		switch d := res.(type) {
		case *tg.MessagesDialogs:
			c.remember(d.Users, d.Chats)
			dialogs, messages = d.Dialogs, d.Messages
		case *tg.MessagesDialogsSlice:
			c.remember(d.Users, d.Chats)
			dialogs, messages = d.Dialogs, d.Messages
		case *tg.MessagesDialogsNotModified:
			return out, nil
		default:
			return nil, fmt.Errorf("unexpected dialogs result %T", res)
		}

		top := indexTopMessages(c, messages)
		for _, dc := range dialogs {
			d, ok := dc.(*tg.Dialog)
			if !ok {
				continue
			}
			marked := markedID(d.Peer)
			entry, ok := c.lookupID(marked)
			if !ok {
				continue
			}
			dlg := Dialog{
				Entity:       entry.entity,
				UnreadCount:  d.UnreadCount,
				UnreadMark:   d.UnreadMark,
				TopMessageID: d.TopMessage,
			}
			if folder, ok := d.GetFolderID(); ok && folder == 1 {
				dlg.Archived = true
			}
			if m, ok := top[topKey{marked, d.TopMessage}]; ok {
				dlg.LastMessage = m
			}
			out = append(out, dlg)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}

		if len(dialogs) < chunk {
			return out, nil
		}
		prevDate, prevID := offsetDate, offsetID
		advanced := false
		for i := len(dialogs) - 1; i >= 0; i-- {
			d, ok := dialogs[i].(*tg.Dialog)
			if !ok {
				continue
			}
			marked := markedID(d.Peer)
			m, ok := top[topKey{marked, d.TopMessage}]
			if !ok {
				continue
			}
			entry, ok := c.lookupID(marked)
			if !ok {
				continue
			}
			offsetDate = int(m.Date.Unix())
			offsetID = m.ID
			offsetPeer = entry.inputPeer()
			advanced = true
			break
		}
		if !advanced || (offsetDate == prevDate && offsetID == prevID) {
			return out, nil
		}
	}
}

func indexTopMessages(c *Client, messages []tg.MessageClass) map[topKey]*Message {
	top := make(map[topKey]*Message, len(messages))
	for _, mc := range messages {
		m := c.messageFromTL(mc)
		if m == nil {
			continue
		}
		var peer tg.PeerClass
		switch raw := mc.(type) {
		case *tg.Message:
			peer = raw.PeerID
		case *tg.MessageService:
			peer = raw.PeerID
		default:
			continue
		}
		top[topKey{markedID(peer), m.ID}] = m
	}
	return top
}

// PeerDialog fetches the dialog row of a single chat, including its unread
// counter and last message.
func (c *Client) PeerDialog(ctx context.Context, ref common.ChatRef) (*Dialog, error) {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	res, err := c.api.MessagesGetPeerDialogs(ctx, []tg.InputDialogPeerClass{
		&tg.InputDialogPeer{Peer: peer},
	})
	if err != nil {
		return nil, err
	}
	c.remember(res.Users, res.Chats)
	top := indexTopMessages(c, res.Messages)
	for _, dc := range res.Dialogs {
		d, ok := dc.(*tg.Dialog)
		if !ok {
			continue
		}
		marked := markedID(d.Peer)
		entry, ok := c.lookupID(marked)
		if !ok {
			continue
		}
		dlg := Dialog{
			Entity:       entry.entity,
			UnreadCount:  d.UnreadCount,
			UnreadMark:   d.UnreadMark,
			TopMessageID: d.TopMessage,
		}
		if folder, ok := d.GetFolderID(); ok && folder == 1 {
			dlg.Archived = true
		}
		if m, ok := top[topKey{marked, d.TopMessage}]; ok {
			dlg.LastMessage = m
		}
		return &dlg, nil
	}
	return nil, fmt.Errorf("no dialog found for peer")
}

// ParticipantsCount reports how many members a group or channel has.
func (c *Client) ParticipantsCount(ctx context.Context, ref common.ChatRef) (int, error) {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return 0, err
	}
	if channel, ok := entry.inputChannel(); ok {
		full, err := c.api.ChannelsGetFullChannel(ctx, channel)
		if err != nil {
			return 0, err
		}
		c.remember(full.Users, full.Chats)
		if cf, ok := full.FullChat.(*tg.ChannelFull); ok {
			if n, ok := cf.GetParticipantsCount(); ok {
				return n, nil
			}
		}
		return 0, nil
	}
	if entry.kind == peerChat {
		full, err := c.api.MessagesGetFullChat(ctx, entry.id)
		if err != nil {
			return 0, err
		}
		c.remember(full.Users, full.Chats)
		if cf, ok := full.FullChat.(*tg.ChatFull); ok {
			if ps, ok := cf.Participants.(*tg.ChatParticipants); ok {
				return len(ps.Participants), nil
			}
		}
		return 0, nil
	}
	return 0, fmt.Errorf("participant count not available for users")
}

// Participants lists the members of a group or channel.
func (c *Client) Participants(ctx context.Context, ref common.ChatRef) ([]Entity, error) {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	if channel, ok := entry.inputChannel(); ok {
		return c.channelParticipants(ctx, channel, &tg.ChannelParticipantsRecent{}, 200)
	}
	if entry.kind == peerChat {
		full, err := c.api.MessagesGetFullChat(ctx, entry.id)
		if err != nil {
			return nil, err
		}
		c.remember(full.Users, full.Chats)
		out := make([]Entity, 0, len(full.Users))
		for _, uc := range full.Users {
			if u, ok := uc.(*tg.User); ok {
				out = append(out, entityFromUser(u))
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("peer has no participant list")
}

func (c *Client) channelParticipants(ctx context.Context, channel tg.InputChannelClass, filter tg.ChannelParticipantsFilterClass, limit int) ([]Entity, error) {
	res, err := c.api.ChannelsGetParticipants(ctx, &tg.ChannelsGetParticipantsRequest{
		Channel: channel,
		Filter:  filter,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	participants, ok := res.(*tg.ChannelsChannelParticipants)
	if !ok {
		return nil, nil
	}
	c.remember(participants.Users, participants.Chats)
	out := make([]Entity, 0, len(participants.Users))
	for _, uc := range participants.Users {
		if u, ok := uc.(*tg.User); ok {
			out = append(out, entityFromUser(u))
		}
	}
	return out, nil
}

// JoinChannel joins a public channel or supergroup.
func (c *Client) JoinChannel(ctx context.Context, ref common.ChatRef) error {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	channel, ok := entry.inputChannel()
	if !ok {
		return fmt.Errorf("cannot join a %s", entry.entity.Kind)
	}
	if _, err := c.api.ChannelsJoinChannel(ctx, channel); err != nil {
		return translateRPC(err)
	}
	return nil
}

// LeaveChannel leaves a channel or supergroup.
func (c *Client) LeaveChannel(ctx context.Context, ref common.ChatRef) error {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	channel, ok := entry.inputChannel()
	if !ok {
		return fmt.Errorf("cannot leave a %s", entry.entity.Kind)
	}
	if _, err := c.api.ChannelsLeaveChannel(ctx, channel); err != nil {
		return translateRPC(err)
	}
	return nil
}

// LeaveBasicGroup removes the account from a basic group.
func (c *Client) LeaveBasicGroup(ctx context.Context, ref common.ChatRef) error {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	if entry.kind != peerChat {
		return fmt.Errorf("cannot leave a %s", entry.entity.Kind)
	}
	_, err = c.api.MessagesDeleteChatUser(ctx, &tg.MessagesDeleteChatUserRequest{
		ChatID: entry.id,
		UserID: &tg.InputUserSelf{},
	})
	return translateRPC(err)
}

// CreateGroup creates a basic group with the given members and returns the
// new chat.
func (c *Client) CreateGroup(ctx context.Context, title string, userIDs []int64) (*Entity, error) {
	users, err := c.inputUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	res, err := c.api.MessagesCreateChat(ctx, &tg.MessagesCreateChatRequest{
		Users: users,
		Title: title,
	})
	if err != nil {
		return nil, translateRPC(err)
	}
	entity, ok := c.chatFromUpdates(res.Updates)
	if !ok {
		return nil, fmt.Errorf("create chat returned no chat")
	}
	return entity, nil
}

// InviteToGroup adds users to a group or channel.
func (c *Client) InviteToGroup(ctx context.Context, ref common.ChatRef, userIDs []int64) error {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	users, err := c.inputUsers(ctx, userIDs)
	if err != nil {
		return err
	}
	if channel, ok := entry.inputChannel(); ok {
		if _, err := c.api.ChannelsInviteToChannel(ctx, &tg.ChannelsInviteToChannelRequest{
			Channel: channel,
			Users:   users,
		}); err != nil {
			return translateRPC(err)
		}
		return nil
	}
	if entry.kind != peerChat {
		return fmt.Errorf("cannot invite users to a %s", entry.entity.Kind)
	}
	for _, u := range users {
		if _, err := c.api.MessagesAddChatUser(ctx, &tg.MessagesAddChatUserRequest{
			ChatID:   entry.id,
			UserID:   u,
			FwdLimit: 100,
		}); err != nil {
			return translateRPC(err)
		}
	}
	return nil
}

// CreateChannel creates a broadcast channel, or a supergroup when megagroup
// is set, and returns the new chat.
func (c *Client) CreateChannel(ctx context.Context, title, about string, megagroup bool) (*Entity, error) {
	res, err := c.api.ChannelsCreateChannel(ctx, &tg.ChannelsCreateChannelRequest{
		Broadcast: !megagroup,
		Megagroup: megagroup,
		Title:     title,
		About:     about,
	})
	if err != nil {
		return nil, translateRPC(err)
	}
	entity, ok := c.chatFromUpdates(res)
	if !ok {
		return nil, fmt.Errorf("create channel returned no channel")
	}
	return entity, nil
}

// EditChannelTitle renames a channel or supergroup.
func (c *Client) EditChannelTitle(ctx context.Context, ref common.ChatRef, title string) error {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	channel, ok := entry.inputChannel()
	if !ok {
		return fmt.Errorf("peer is not a channel")
	}
	_, err = c.api.ChannelsEditTitle(ctx, &tg.ChannelsEditTitleRequest{
		Channel: channel,
		Title:   title,
	})
	return err
}

// EditBasicGroupTitle renames a basic group.
func (c *Client) EditBasicGroupTitle(ctx context.Context, ref common.ChatRef, title string) error {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	if entry.kind != peerChat {
		return fmt.Errorf("peer is not a basic group")
	}
	_, err = c.api.MessagesEditChatTitle(ctx, &tg.MessagesEditChatTitleRequest{
		ChatID: entry.id,
		Title:  title,
	})
	return err
}

// ForumTopics lists the topics of a forum supergroup.
func (c *Client) ForumTopics(ctx context.Context, ref common.ChatRef) ([]Topic, error) {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	channel, ok := entry.inputChannel()
	if !ok {
		return nil, fmt.Errorf("peer has no forum topics")
	}
	res, err := c.api.ChannelsGetForumTopics(ctx, &tg.ChannelsGetForumTopicsRequest{
		Channel: channel,
		Limit:   100,
	})
	if err != nil {
		return nil, err
	}
	c.remember(res.Users, res.Chats)
	topics := make([]Topic, 0, len(res.Topics))
	for _, tc := range res.Topics {
		t, ok := tc.(*tg.ForumTopic)
		if !ok {
			continue
		}
		topics = append(topics, Topic{
			ID:          t.ID,
			Title:       t.Title,
			UnreadCount: t.UnreadCount,
			Closed:      t.Closed,
			Hidden:      t.Hidden,
			LastDate:    time.Unix(int64(t.Date), 0).UTC(),
		})
	}
	return topics, nil
}

// SearchPublic searches global public chats and returns the matched users
// and bots.
func (c *Client) SearchPublic(ctx context.Context, query string, limit int) ([]Entity, error) {
	res, err := c.api.ContactsSearch(ctx, &tg.ContactsSearchRequest{
		Q:     query,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	c.remember(res.Users, res.Chats)
	out := make([]Entity, 0, len(res.Users))
	for _, uc := range res.Users {
		if u, ok := uc.(*tg.User); ok {
			out = append(out, entityFromUser(u))
		}
	}
	return out, nil
}

// SetMuteUntil changes a chat's mute deadline. Zero unmutes.
func (c *Client) SetMuteUntil(ctx context.Context, ref common.ChatRef, until int) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	settings := tg.InputPeerNotifySettings{}
	settings.SetMuteUntil(until)
	_, err = c.api.AccountUpdateNotifySettings(ctx, &tg.AccountUpdateNotifySettingsRequest{
		Peer:     &tg.InputNotifyPeer{Peer: peer},
		Settings: settings,
	})
	return err
}

// SetDialogFolder moves a chat between the main dialog list (folder 0) and
// the archive (folder 1).
func (c *Client) SetDialogFolder(ctx context.Context, ref common.ChatRef, folderID int) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	_, err = c.api.FoldersEditPeerFolders(ctx, []tg.InputFolderPeer{
		{Peer: peer, FolderID: folderID},
	})
	return err
}

// ExportInvite creates a fresh invite link for a chat.
func (c *Client) ExportInvite(ctx context.Context, ref common.ChatRef) (string, error) {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return "", err
	}
	res, err := c.api.MessagesExportChatInvite(ctx, &tg.MessagesExportChatInviteRequest{Peer: peer})
	if err != nil {
		return "", err
	}
	invite, ok := res.(*tg.ChatInviteExported)
	if !ok {
		return "", fmt.Errorf("chat only issues join request links")
	}
	return invite.Link, nil
}

// FullChatInviteLink reads the invite link already stored on the full chat,
// if any.
func (c *Client) FullChatInviteLink(ctx context.Context, ref common.ChatRef) (string, error) {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return "", err
	}
	var full tg.ChatFullClass
	if channel, ok := entry.inputChannel(); ok {
		res, err := c.api.ChannelsGetFullChannel(ctx, channel)
		if err != nil {
			return "", err
		}
		c.remember(res.Users, res.Chats)
		full = res.FullChat
	} else if entry.kind == peerChat {
		res, err := c.api.MessagesGetFullChat(ctx, entry.id)
		if err != nil {
			return "", err
		}
		c.remember(res.Users, res.Chats)
		full = res.FullChat
	} else {
		return "", fmt.Errorf("users do not have invite links")
	}

	var invite tg.ExportedChatInviteClass
	switch f := full.(type) {
	case *tg.ChatFull:
		invite, _ = f.GetExportedInvite()
	case *tg.ChannelFull:
		invite, _ = f.GetExportedInvite()
	}
	if exported, ok := invite.(*tg.ChatInviteExported); ok {
		return exported.Link, nil
	}
	return "", nil
}

// CheckInvite previews an invite link without joining.
func (c *Client) CheckInvite(ctx context.Context, hash string) (*InviteInfo, error) {
	res, err := c.api.MessagesCheckChatInvite(ctx, hash)
	if err != nil {
		return nil, translateRPC(err)
	}
	switch invite := res.(type) {
	case *tg.ChatInviteAlready:
		c.rememberChats([]tg.ChatClass{invite.Chat})
		return &InviteInfo{Title: chatTitle(invite.Chat), Already: true}, nil
	case *tg.ChatInvitePeek:
		c.rememberChats([]tg.ChatClass{invite.Chat})
		return &InviteInfo{Title: chatTitle(invite.Chat)}, nil
	case *tg.ChatInvite:
		return &InviteInfo{Title: invite.Title}, nil
	}
	return &InviteInfo{}, nil
}

// ImportInvite joins a chat through an invite hash and returns the chat
// title when the server reports it.
func (c *Client) ImportInvite(ctx context.Context, hash string) (string, error) {
	res, err := c.api.MessagesImportChatInvite(ctx, hash)
	if err != nil {
		return "", translateRPC(err)
	}
	if entity, ok := c.chatFromUpdates(res); ok {
		return entity.Title, nil
	}
	return "", nil
}

func (c *Client) inputUsers(ctx context.Context, userIDs []int64) ([]tg.InputUserClass, error) {
	users := make([]tg.InputUserClass, 0, len(userIDs))
	for _, id := range userIDs {
		entry, err := c.entryByMarked(ctx, id)
		if err != nil {
			return nil, err
		}
		u, ok := entry.inputUser()
		if !ok {
			return nil, ErrPeerNotFound
		}
		users = append(users, u)
	}
	return users, nil
}

// chatFromUpdates remembers the entities carried by an updates result and
// returns the first chat or channel among them.
func (c *Client) chatFromUpdates(u tg.UpdatesClass) (*Entity, bool) {
	var (
		users []tg.UserClass
		chats []tg.ChatClass
	)
	switch up := u.(type) {
	case *tg.Updates:
		users, chats = up.Users, up.Chats
	case *tg.UpdatesCombined:
		users, chats = up.Users, up.Chats
	default:
		return nil, false
	}
	c.remember(users, chats)
	for _, ch := range chats {
		switch v := ch.(type) {
		case *tg.Chat:
			e := entityFromChat(v)
			return &e, true
		case *tg.Channel:
			e := entityFromChannel(v)
			return &e, true
		}
	}
	return nil, false
}

func chatTitle(chat tg.ChatClass) string {
	switch ch := chat.(type) {
	case *tg.Chat:
		return ch.Title
	case *tg.Channel:
		return ch.Title
	case *tg.ChatForbidden:
		return ch.Title
	case *tg.ChannelForbidden:
		return ch.Title
	}
	return "Unknown Chat"
}
