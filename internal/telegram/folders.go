package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"
)

// Folders lists the account's custom dialog folders. The default "All
// chats" view is not part of the list.
func (c *Client) Folders(ctx context.Context) ([]Folder, error) {
	res, err := c.api.MessagesGetDialogFilters(ctx)
	if err != nil {
		return nil, err
	}
	folders := make([]Folder, 0, len(res.Filters))
	for _, fc := range res.Filters {
		f, ok := fc.(*tg.DialogFilter)
		if !ok {
			continue
		}
		folder := Folder{
			ID:              f.ID,
			Title:           f.Title,
			Contacts:        f.Contacts,
			NonContacts:     f.NonContacts,
			Groups:          f.Groups,
			Broadcasts:      f.Broadcasts,
			Bots:            f.Bots,
			ExcludeMuted:    f.ExcludeMuted,
			ExcludeRead:     f.ExcludeRead,
			ExcludeArchived: f.ExcludeArchived,
			IncludePeerIDs:  c.markedFromInput(f.IncludePeers),
			ExcludePeerIDs:  c.markedFromInput(f.ExcludePeers),
			PinnedPeerIDs:   c.markedFromInput(f.PinnedPeers),
		}
		if emoticon, ok := f.GetEmoticon(); ok {
			folder.Emoticon = emoticon
		}
		folders = append(folders, folder)
	}
	return folders, nil
}

// SaveFolder creates or replaces a dialog folder. Every referenced peer
// must be resolvable.
func (c *Client) SaveFolder(ctx context.Context, folder Folder) error {
	include, err := c.inputPeersFromMarked(ctx, folder.IncludePeerIDs)
	if err != nil {
		return err
	}
	exclude, err := c.inputPeersFromMarked(ctx, folder.ExcludePeerIDs)
	if err != nil {
		return err
	}
	pinned, err := c.inputPeersFromMarked(ctx, folder.PinnedPeerIDs)
	if err != nil {
		return err
	}
	filter := &tg.DialogFilter{
		ID:              folder.ID,
		Title:           folder.Title,
		Contacts:        folder.Contacts,
		NonContacts:     folder.NonContacts,
		Groups:          folder.Groups,
		Broadcasts:      folder.Broadcasts,
		Bots:            folder.Bots,
		ExcludeMuted:    folder.ExcludeMuted,
		ExcludeRead:     folder.ExcludeRead,
		ExcludeArchived: folder.ExcludeArchived,
		IncludePeers:    include,
		ExcludePeers:    exclude,
		PinnedPeers:     pinned,
	}
	if folder.Emoticon != "" {
		filter.SetEmoticon(folder.Emoticon)
	}
	req := &tg.MessagesUpdateDialogFilterRequest{ID: folder.ID}
	req.SetFilter(filter)
	_, err = c.api.MessagesUpdateDialogFilter(ctx, req)
	return err
}

// DeleteFolder removes a dialog folder. The chats inside are untouched.
func (c *Client) DeleteFolder(ctx context.Context, id int) error {
	_, err := c.api.MessagesUpdateDialogFilter(ctx, &tg.MessagesUpdateDialogFilterRequest{ID: id})
	return err
}

// ReorderFolders applies a new folder order.
func (c *Client) ReorderFolders(ctx context.Context, order []int) error {
	_, err := c.api.MessagesUpdateDialogFiltersOrder(ctx, order)
	return err
}

func (c *Client) markedFromInput(peers []tg.InputPeerClass) []int64 {
	out := make([]int64, 0, len(peers))
	for _, p := range peers {
		switch v := p.(type) {
		case *tg.InputPeerUser:
			out = append(out, v.UserID)
		case *tg.InputPeerChat:
			out = append(out, -v.ChatID)
		case *tg.InputPeerChannel:
			out = append(out, -1000000000000-v.ChannelID)
		case *tg.InputPeerSelf:
			if c.self != nil {
				out = append(out, c.self.ID)
			}
		}
	}
	return out
}

func (c *Client) inputPeersFromMarked(ctx context.Context, ids []int64) ([]tg.InputPeerClass, error) {
	peers := make([]tg.InputPeerClass, 0, len(ids))
	for _, id := range ids {
		entry, err := c.entryByMarked(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve peer %d: %w", id, err)
		}
		peers = append(peers, entry.inputPeer())
	}
	return peers, nil
}
