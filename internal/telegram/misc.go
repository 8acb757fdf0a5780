package telegram

import (
	"context"
	"time"

	"github.com/gotd/td/tg"

	"github.com/local-mcps/telegram-mcp/internal/common"
)

// SendPoll posts a poll to a chat.
func (c *Client) SendPoll(ctx context.Context, ref common.ChatRef, spec PollSpec) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	answers := make([]tg.PollAnswer, 0, len(spec.Options))
	for i, opt := range spec.Options {
		answers = append(answers, tg.PollAnswer{
			Text:   tg.TextWithEntities{Text: opt},
			Option: []byte{byte(i)},
		})
	}
	poll := tg.Poll{
		Question:       tg.TextWithEntities{Text: spec.Question},
		Answers:        answers,
		MultipleChoice: spec.MultipleChoice,
		Quiz:           spec.Quiz,
		PublicVoters:   spec.PublicVoters,
	}
	if !spec.CloseDate.IsZero() {
		poll.SetCloseDate(int(spec.CloseDate.Unix()))
	}
	return c.sendMedia(ctx, peer, &tg.InputMediaPoll{Poll: poll}, "")
}

// SaveDraft stores a draft message on a chat.
func (c *Client) SaveDraft(ctx context.Context, ref common.ChatRef, message string, replyTo int, noWebpage bool) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	req := &tg.MessagesSaveDraftRequest{
		Peer:      peer,
		Message:   message,
		NoWebpage: noWebpage,
	}
	if replyTo != 0 {
		req.SetReplyTo(&tg.InputReplyToMessage{ReplyToMsgID: replyTo})
	}
	_, err = c.api.MessagesSaveDraft(ctx, req)
	return err
}

// Drafts lists the account's open drafts.
func (c *Client) Drafts(ctx context.Context) ([]Draft, error) {
	res, err := c.api.MessagesGetAllDrafts(ctx)
	if err != nil {
		return nil, err
	}
	updates, ok := res.(*tg.Updates)
	if !ok {
		return nil, nil
	}
	c.remember(updates.Users, updates.Chats)
	var drafts []Draft
	for _, uc := range updates.Updates {
		upd, ok := uc.(*tg.UpdateDraftMessage)
		if !ok {
			continue
		}
		dm, ok := upd.Draft.(*tg.DraftMessage)
		if !ok {
			continue
		}
		draft := Draft{
			PeerID:    markedID(upd.Peer),
			Message:   dm.Message,
			NoWebpage: dm.NoWebpage,
		}
		if dm.Date != 0 {
			draft.Date = time.Unix(int64(dm.Date), 0).UTC()
		}
		if replyTo, ok := dm.GetReplyTo(); ok {
			if r, ok := replyTo.(*tg.InputReplyToMessage); ok {
				draft.ReplyToID = r.ReplyToMsgID
			}
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

// Ping issues a lightweight API call to confirm the session is alive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.UpdatesGetState(ctx)
	return translateRPC(err)
}

// ClearDraft drops the draft on a chat.
func (c *Client) ClearDraft(ctx context.Context, ref common.ChatRef) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	_, err = c.api.MessagesSaveDraft(ctx, &tg.MessagesSaveDraftRequest{
		Peer:    peer,
		Message: "",
	})
	return err
}
