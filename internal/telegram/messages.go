package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gotd/td/tg"

	"github.com/local-mcps/telegram-mcp/internal/common"
)

// HistoryPage fetches one page of a chat's history, newest first. addOffset
// skips that many messages from the top, which is how page numbers map onto
// the history.
func (c *Client) HistoryPage(ctx context.Context, ref common.ChatRef, addOffset, limit int) ([]*Message, error) {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	res, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:      peer,
		AddOffset: addOffset,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return c.collectMessages(res)
}

// History fetches up to limit messages older than offsetID, newest first.
// A zero offsetID starts from the top of the history.
func (c *Client) History(ctx context.Context, ref common.ChatRef, offsetID, limit int) ([]*Message, error) {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	res, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:     peer,
		OffsetID: offsetID,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	return c.collectMessages(res)
}

// SearchHistory searches a chat's history server side. Empty query and zero
// dates are not sent, so any combination of filters works.
func (c *Client) SearchHistory(ctx context.Context, ref common.ChatRef, query string, minDate, maxDate time.Time, limit int) ([]*Message, error) {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	req := &tg.MessagesSearchRequest{
		Peer:   peer,
		Q:      query,
		Filter: &tg.InputMessagesFilterEmpty{},
		Limit:  limit,
	}
	if !minDate.IsZero() {
		req.MinDate = int(minDate.Unix())
	}
	if !maxDate.IsZero() {
		req.MaxDate = int(maxDate.Unix())
	}
	res, err := c.api.MessagesSearch(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.collectMessages(res)
}

// PinnedMessages lists the pinned messages of a chat, newest first.
func (c *Client) PinnedMessages(ctx context.Context, ref common.ChatRef, limit int) ([]*Message, error) {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	res, err := c.api.MessagesSearch(ctx, &tg.MessagesSearchRequest{
		Peer:   peer,
		Filter: &tg.InputMessagesFilterPinned{},
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return c.collectMessages(res)
}

// GetMessage fetches a single message by id. ErrMessageNotFound is returned
// when the id does not exist in the chat.
func (c *Client) GetMessage(ctx context.Context, ref common.ChatRef, id int) (*Message, error) {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}

	var res tg.MessagesMessagesClass
	if channel, ok := entry.inputChannel(); ok {
		res, err = c.api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
			Channel: channel,
			ID:      []tg.InputMessageClass{&tg.InputMessageID{ID: id}},
		})
	} else {
		res, err = c.api.MessagesGetMessages(ctx, []tg.InputMessageClass{&tg.InputMessageID{ID: id}})
	}
	if err != nil {
		return nil, err
	}
	msgs, err := c.collectMessages(res)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, ErrMessageNotFound
}

// HistoryBefore returns up to limit messages immediately older than the
// given id, newest first.
func (c *Client) HistoryBefore(ctx context.Context, ref common.ChatRef, beforeID, limit int) ([]*Message, error) {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	res, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  peer,
		MaxID: beforeID,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return c.collectMessages(res)
}

// HistoryAfter returns up to limit messages immediately newer than the
// given id, newest first. The negative add offset shifts the window past
// the anchor message.
func (c *Client) HistoryAfter(ctx context.Context, ref common.ChatRef, afterID, limit int) ([]*Message, error) {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	res, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:      peer,
		OffsetID:  afterID,
		AddOffset: -limit,
		Limit:     limit,
		MinID:     afterID,
	})
	if err != nil {
		return nil, err
	}
	return c.collectMessages(res)
}

// SendMessage sends a plain text message.
func (c *Client) SendMessage(ctx context.Context, ref common.ChatRef, text string) error {
	return c.sendMessage(ctx, ref, text, 0)
}

// SendReply sends a text message replying to another message.
func (c *Client) SendReply(ctx context.Context, ref common.ChatRef, replyTo int, text string) error {
	return c.sendMessage(ctx, ref, text, replyTo)
}

func (c *Client) sendMessage(ctx context.Context, ref common.ChatRef, text string, replyTo int) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	req := &tg.MessagesSendMessageRequest{
		Peer:     peer,
		Message:  text,
		RandomID: randomID(),
	}
	if replyTo != 0 {
		req.ReplyTo = &tg.InputReplyToMessage{ReplyToMsgID: replyTo}
	}
	_, err = c.api.MessagesSendMessage(ctx, req)
	return err
}

// ForwardMessage forwards one message between chats.
func (c *Client) ForwardMessage(ctx context.Context, from, to common.ChatRef, messageID int) error {
	fromPeer, _, err := c.inputPeer(ctx, from)
	if err != nil {
		return err
	}
	toPeer, _, err := c.inputPeer(ctx, to)
	if err != nil {
		return err
	}
	_, err = c.api.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
		FromPeer: fromPeer,
		ID:       []int{messageID},
		RandomID: []int64{randomID()},
		ToPeer:   toPeer,
	})
	return err
}

// EditMessage replaces the text of a sent message.
func (c *Client) EditMessage(ctx context.Context, ref common.ChatRef, messageID int, text string) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	req := &tg.MessagesEditMessageRequest{
		Peer: peer,
		ID:   messageID,
	}
	req.SetMessage(text)
	_, err = c.api.MessagesEditMessage(ctx, req)
	return err
}

// DeleteMessage deletes a message for all participants.
func (c *Client) DeleteMessage(ctx context.Context, ref common.ChatRef, messageID int) error {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	if channel, ok := entry.inputChannel(); ok {
		_, err = c.api.ChannelsDeleteMessages(ctx, &tg.ChannelsDeleteMessagesRequest{
			Channel: channel,
			ID:      []int{messageID},
		})
		return err
	}
	_, err = c.api.MessagesDeleteMessages(ctx, &tg.MessagesDeleteMessagesRequest{
		ID:     []int{messageID},
		Revoke: true,
	})
	return err
}

// PinMessage pins or unpins a message.
func (c *Client) PinMessage(ctx context.Context, ref common.ChatRef, messageID int, pin bool) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	_, err = c.api.MessagesUpdatePinnedMessage(ctx, &tg.MessagesUpdatePinnedMessageRequest{
		Peer:  peer,
		ID:    messageID,
		Unpin: !pin,
	})
	return err
}

// MarkRead acknowledges all messages of a chat.
func (c *Client) MarkRead(ctx context.Context, ref common.ChatRef) error {
	peer, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	if channel, ok := entry.inputChannel(); ok {
		_, err = c.api.ChannelsReadHistory(ctx, &tg.ChannelsReadHistoryRequest{Channel: channel})
		return err
	}
	_, err = c.api.MessagesReadHistory(ctx, &tg.MessagesReadHistoryRequest{Peer: peer})
	return err
}

// PressButton sends the callback data of an inline button and returns the
// bot's answer.
func (c *Client) PressButton(ctx context.Context, ref common.ChatRef, messageID int, data []byte) (*CallbackAnswer, error) {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	req := &tg.MessagesGetBotCallbackAnswerRequest{
		Peer:  peer,
		MsgID: messageID,
	}
	req.SetData(data)
	res, err := c.api.MessagesGetBotCallbackAnswer(ctx, req)
	if err != nil {
		return nil, err
	}
	return &CallbackAnswer{Message: res.Message, Alert: res.Alert}, nil
}

// SendReaction sets an emoji reaction on a message. An empty emoji clears
// the account's reaction.
func (c *Client) SendReaction(ctx context.Context, ref common.ChatRef, messageID int, emoji string, big bool) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	req := &tg.MessagesSendReactionRequest{
		Peer:  peer,
		MsgID: messageID,
		Big:   big,
	}
	if emoji != "" {
		req.SetReaction([]tg.ReactionClass{&tg.ReactionEmoji{Emoticon: emoji}})
	} else {
		req.SetReaction([]tg.ReactionClass{})
	}
	_, err = c.api.MessagesSendReaction(ctx, req)
	return err
}

// MessageReactions lists who reacted to a message with what.
func (c *Client) MessageReactions(ctx context.Context, ref common.ChatRef, messageID, limit int) ([]Reaction, error) {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	res, err := c.api.MessagesGetMessageReactionsList(ctx, &tg.MessagesGetMessageReactionsListRequest{
		Peer:  peer,
		ID:    messageID,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	c.remember(res.Users, res.Chats)

	reactions := make([]Reaction, 0, len(res.Reactions))
	for _, r := range res.Reactions {
		item := Reaction{Date: time.Unix(int64(r.Date), 0).UTC()}
		if p, ok := r.PeerID.(*tg.PeerUser); ok {
			item.UserID = p.UserID
		}
		switch emoji := r.Reaction.(type) {
		case *tg.ReactionEmoji:
			item.Emoji = emoji.Emoticon
		case *tg.ReactionCustomEmoji:
			item.Emoji = fmt.Sprintf("custom:%d", emoji.DocumentID)
		}
		reactions = append(reactions, item)
	}
	return reactions, nil
}

// collectMessages unpacks a messages result, remembers the entities it
// carries and converts the messages in their returned order.
func (c *Client) collectMessages(res tg.MessagesMessagesClass) ([]*Message, error) {
	var raw []tg.MessageClass
	switch m := res.(type) {
	case *tg.MessagesMessages:
		c.remember(m.Users, m.Chats)
		raw = m.Messages
	case *tg.MessagesMessagesSlice:
		c.remember(m.Users, m.Chats)
		raw = m.Messages
	case *tg.MessagesChannelMessages:
		c.remember(m.Users, m.Chats)
		raw = m.Messages
	default:
		return nil, fmt.Errorf("unexpected messages result %T", res)
	}

	out := make([]*Message, 0, len(raw))
	for _, mc := range raw {
		if msg := c.messageFromTL(mc); msg != nil {
			out = append(out, msg)
		}
	}
	return out, nil
}

// messageFromTL converts a raw message, resolving the sender name against
// the peer cache. Empty placeholders convert to nil.
func (c *Client) messageFromTL(mc tg.MessageClass) *Message {
	switch m := mc.(type) {
	case *tg.Message:
		msg := &Message{
			ID:     m.ID,
			Date:   time.Unix(int64(m.Date), 0).UTC(),
			Text:   m.Message,
			Out:    m.Out,
			Pinned: m.Pinned,
		}
		msg.SenderID = senderMarkedID(m.FromID, m.PeerID)
		msg.SenderName = c.displayNameByMarked(msg.SenderID)
		if reply, ok := m.GetReplyTo(); ok {
			if header, ok := reply.(*tg.MessageReplyHeader); ok {
				if id, ok := header.GetReplyToMsgID(); ok {
					msg.ReplyToID = id
				}
			}
		}
		if media, ok := m.GetMedia(); ok {
			msg.MediaType = mediaTypeName(media)
		}
		if views, ok := m.GetViews(); ok {
			msg.Views = views
			msg.HasViews = true
		}
		if forwards, ok := m.GetForwards(); ok {
			msg.Forwards = forwards
			msg.HasForwards = true
		}
		if reactions, ok := m.GetReactions(); ok {
			msg.HasReactions = true
			for _, r := range reactions.Results {
				msg.ReactionCount += r.Count
			}
		}
		if grouped, ok := m.GetGroupedID(); ok {
			msg.GroupedID = grouped
		}
		if markup, ok := m.GetReplyMarkup(); ok {
			msg.Buttons = buttonsFromMarkup(markup)
		}
		return msg
	case *tg.MessageService:
		msg := &Message{
			ID:      m.ID,
			Date:    time.Unix(int64(m.Date), 0).UTC(),
			Out:     m.Out,
			Service: true,
		}
		msg.SenderID = senderMarkedID(m.FromID, m.PeerID)
		msg.SenderName = c.displayNameByMarked(msg.SenderID)
		return msg
	default:
		return nil
	}
}

func senderMarkedID(from tg.PeerClass, peer tg.PeerClass) int64 {
	if from != nil {
		if id := markedID(from); id != 0 {
			return id
		}
	}
	return markedID(peer)
}

func (c *Client) displayNameByMarked(marked int64) string {
	if entry, ok := c.lookupID(marked); ok {
		return entry.entity.DisplayName()
	}
	return "Unknown"
}

func mediaTypeName(media tg.MessageMediaClass) string {
	if media == nil {
		return ""
	}
	if _, ok := media.(*tg.MessageMediaEmpty); ok {
		return ""
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", media), "*tg.")
}

func buttonsFromMarkup(markup tg.ReplyMarkupClass) [][]Button {
	inline, ok := markup.(*tg.ReplyInlineMarkup)
	if !ok {
		return nil
	}
	rows := make([][]Button, 0, len(inline.Rows))
	for _, row := range inline.Rows {
		buttons := make([]Button, 0, len(row.Buttons))
		for _, bc := range row.Buttons {
			switch b := bc.(type) {
			case *tg.KeyboardButtonCallback:
				buttons = append(buttons, Button{Text: b.Text, Data: b.Data})
			case *tg.KeyboardButtonURL:
				buttons = append(buttons, Button{Text: b.Text, URL: b.URL})
			default:
				var text string
				if t, ok := bc.(interface{ GetText() string }); ok {
					text = t.GetText()
				}
				buttons = append(buttons, Button{Text: text})
			}
		}
		rows = append(rows, buttons)
	}
	return rows
}
