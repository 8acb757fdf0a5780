package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gotd/td/tg"

	"github.com/local-mcps/telegram-mcp/internal/common"
)

// EditAdmin grants or revokes admin rights of one member. An all-false
// rights set with an empty rank demotes.
func (c *Client) EditAdmin(ctx context.Context, ref common.ChatRef, userID int64, rights AdminRights, rank string) error {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	channel, ok := entry.inputChannel()
	if !ok {
		return fmt.Errorf("admin rights require a channel or supergroup")
	}
	userEntry, err := c.entryByMarked(ctx, userID)
	if err != nil {
		return err
	}
	u, ok := userEntry.inputUser()
	if !ok {
		return fmt.Errorf("peer is not a user")
	}
	_, err = c.api.ChannelsEditAdmin(ctx, &tg.ChannelsEditAdminRequest{
		Channel: channel,
		UserID:  u,
		AdminRights: tg.ChatAdminRights{
			ChangeInfo:     rights.ChangeInfo,
			PostMessages:   rights.PostMessages,
			EditMessages:   rights.EditMessages,
			DeleteMessages: rights.DeleteMessages,
			BanUsers:       rights.BanUsers,
			InviteUsers:    rights.InviteUsers,
			PinMessages:    rights.PinMessages,
			AddAdmins:      rights.AddAdmins,
			Anonymous:      rights.Anonymous,
			ManageCall:     rights.ManageCall,
			Other:          rights.Other,
		},
		Rank: rank,
	})
	return translateRPC(err)
}

// EditBanned bans a member from a channel or supergroup, or lifts the ban.
func (c *Client) EditBanned(ctx context.Context, ref common.ChatRef, userID int64, banned bool) error {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	channel, ok := entry.inputChannel()
	if !ok {
		return fmt.Errorf("bans require a channel or supergroup")
	}
	userEntry, err := c.entryByMarked(ctx, userID)
	if err != nil {
		return err
	}
	peer := userEntry.inputPeer()
	rights := tg.ChatBannedRights{}
	if banned {
		rights = tg.ChatBannedRights{
			ViewMessages: true,
			SendMessages: true,
			SendMedia:    true,
			SendStickers: true,
			SendGifs:     true,
			SendGames:    true,
			SendInline:   true,
			EmbedLinks:   true,
		}
	}
	_, err = c.api.ChannelsEditBanned(ctx, &tg.ChannelsEditBannedRequest{
		Channel:      channel,
		Participant:  peer,
		BannedRights: rights,
	})
	return translateRPC(err)
}

// AdminParticipants lists the admins of a group or channel.
func (c *Client) AdminParticipants(ctx context.Context, ref common.ChatRef) ([]Entity, error) {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	if channel, ok := entry.inputChannel(); ok {
		return c.channelParticipants(ctx, channel, &tg.ChannelParticipantsAdmins{}, 200)
	}
	if entry.kind != peerChat {
		return nil, fmt.Errorf("peer has no admin list")
	}
	full, err := c.api.MessagesGetFullChat(ctx, entry.id)
	if err != nil {
		return nil, err
	}
	c.remember(full.Users, full.Chats)
	cf, ok := full.FullChat.(*tg.ChatFull)
	if !ok {
		return nil, nil
	}
	participants, ok := cf.Participants.(*tg.ChatParticipants)
	if !ok {
		return nil, nil
	}
	var out []Entity
	for _, pc := range participants.Participants {
		var userID int64
		switch p := pc.(type) {
		case *tg.ChatParticipantAdmin:
			userID = p.UserID
		case *tg.ChatParticipantCreator:
			userID = p.UserID
		default:
			continue
		}
		if e, ok := c.lookupID(userID); ok {
			out = append(out, e.entity)
		}
	}
	return out, nil
}

// BannedParticipants lists the users banned from a channel or supergroup.
func (c *Client) BannedParticipants(ctx context.Context, ref common.ChatRef) ([]Entity, error) {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	channel, ok := entry.inputChannel()
	if !ok {
		return nil, fmt.Errorf("ban list requires a channel or supergroup")
	}
	return c.channelParticipants(ctx, channel, &tg.ChannelParticipantsKicked{Q: ""}, 200)
}

// AdminLog fetches recent entries of a channel's admin event log.
func (c *Client) AdminLog(ctx context.Context, ref common.ChatRef, limit int) ([]AdminLogEntry, error) {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	channel, ok := entry.inputChannel()
	if !ok {
		return nil, fmt.Errorf("admin log requires a channel or supergroup")
	}
	res, err := c.api.ChannelsGetAdminLog(ctx, &tg.ChannelsGetAdminLogRequest{
		Channel: channel,
		Q:       "",
		MaxID:   0,
		MinID:   0,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	c.remember(res.Users, res.Chats)
	entries := make([]AdminLogEntry, 0, len(res.Events))
	for _, ev := range res.Events {
		entries = append(entries, AdminLogEntry{
			ID:     ev.ID,
			Date:   time.Unix(int64(ev.Date), 0).UTC(),
			UserID: ev.UserID,
			Action: strings.TrimPrefix(fmt.Sprintf("%T", ev.Action), "*tg."),
		})
	}
	return entries, nil
}

// EditChatPhoto uploads a new photo for a group or channel.
func (c *Client) EditChatPhoto(ctx context.Context, ref common.ChatRef, path string) error {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	file, err := c.uploadFile(ctx, path)
	if err != nil {
		return err
	}
	photo := &tg.InputChatUploadedPhoto{}
	photo.SetFile(file)
	return c.setChatPhoto(ctx, entry, photo)
}

// DeleteChatPhoto removes the photo of a group or channel.
func (c *Client) DeleteChatPhoto(ctx context.Context, ref common.ChatRef) error {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	return c.setChatPhoto(ctx, entry, &tg.InputChatPhotoEmpty{})
}

func (c *Client) setChatPhoto(ctx context.Context, entry *peerEntry, photo tg.InputChatPhotoClass) error {
	if channel, ok := entry.inputChannel(); ok {
		_, err := c.api.ChannelsEditPhoto(ctx, &tg.ChannelsEditPhotoRequest{
			Channel: channel,
			Photo:   photo,
		})
		return err
	}
	if entry.kind != peerChat {
		return fmt.Errorf("cannot change the photo of a %s", entry.entity.Kind)
	}
	_, err := c.api.MessagesEditChatPhoto(ctx, &tg.MessagesEditChatPhotoRequest{
		ChatID: entry.id,
		Photo:  photo,
	})
	return err
}
