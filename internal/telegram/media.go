package telegram

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"

	"github.com/local-mcps/telegram-mcp/internal/common"
)

// MediaInfo summarizes the media attached to a message.
type MediaInfo struct {
	Type     string `json:"type"`
	ID       int64  `json:"id,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Date     string `json:"date,omitempty"`
}

func (c *Client) uploadFile(ctx context.Context, path string) (tg.InputFileClass, error) {
	return uploader.NewUploader(c.api).FromPath(ctx, path)
}

func (c *Client) sendMedia(ctx context.Context, peer tg.InputPeerClass, media tg.InputMediaClass, caption string) error {
	_, err := c.api.MessagesSendMedia(ctx, &tg.MessagesSendMediaRequest{
		Peer:     peer,
		Media:    media,
		Message:  caption,
		RandomID: randomID(),
	})
	return err
}

// SendFile uploads a local file and sends it to a chat. Common image
// extensions go out as photos, everything else as a document.
func (c *Client) SendFile(ctx context.Context, ref common.ChatRef, path, caption string) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	file, err := c.uploadFile(ctx, path)
	if err != nil {
		return err
	}
	return c.sendMedia(ctx, peer, mediaForUpload(file, path), caption)
}

func mediaForUpload(file tg.InputFileClass, path string) tg.InputMediaClass {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return &tg.InputMediaUploadedPhoto{File: file}
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return &tg.InputMediaUploadedDocument{
		File:     file,
		MimeType: strings.TrimSpace(mimeType),
		Attributes: []tg.DocumentAttributeClass{
			&tg.DocumentAttributeFilename{FileName: filepath.Base(path)},
		},
	}
}

// SendVoice uploads an OGG/Opus file and sends it as a voice note.
func (c *Client) SendVoice(ctx context.Context, ref common.ChatRef, path string) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	file, err := c.uploadFile(ctx, path)
	if err != nil {
		return err
	}
	media := &tg.InputMediaUploadedDocument{
		File:     file,
		MimeType: "audio/ogg",
		Attributes: []tg.DocumentAttributeClass{
			&tg.DocumentAttributeAudio{Voice: true},
			&tg.DocumentAttributeFilename{FileName: filepath.Base(path)},
		},
	}
	return c.sendMedia(ctx, peer, media, "")
}

// SendSticker uploads a WebP file and sends it as a sticker.
func (c *Client) SendSticker(ctx context.Context, ref common.ChatRef, path string) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	file, err := c.uploadFile(ctx, path)
	if err != nil {
		return err
	}
	media := &tg.InputMediaUploadedDocument{
		File:     file,
		MimeType: "image/webp",
		Attributes: []tg.DocumentAttributeClass{
			&tg.DocumentAttributeFilename{FileName: filepath.Base(path)},
		},
	}
	return c.sendMedia(ctx, peer, media, "")
}

// DownloadMedia saves the media of a message to a local path.
func (c *Client) DownloadMedia(ctx context.Context, ref common.ChatRef, messageID int, path string) error {
	media, err := c.messageMedia(ctx, ref, messageID)
	if err != nil {
		return err
	}
	loc, err := mediaLocation(media)
	if err != nil {
		return err
	}
	_, err = downloader.NewDownloader().Download(c.api, loc).ToPath(ctx, path)
	return err
}

// MediaDescription reports what kind of media a message carries.
func (c *Client) MediaDescription(ctx context.Context, ref common.ChatRef, messageID int) (*MediaInfo, error) {
	media, err := c.messageMedia(ctx, ref, messageID)
	if err != nil {
		return nil, err
	}
	info := &MediaInfo{Type: mediaTypeName(media)}
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		if p, ok := m.GetPhoto(); ok {
			if photo, ok := p.(*tg.Photo); ok {
				info.ID = photo.ID
				info.Date = FormatTimeISO(time.Unix(int64(photo.Date), 0))
			}
		}
	case *tg.MessageMediaDocument:
		if d, ok := m.GetDocument(); ok {
			if doc, ok := d.(*tg.Document); ok {
				info.ID = doc.ID
				info.MimeType = doc.MimeType
				info.Size = doc.Size
				info.Date = FormatTimeISO(time.Unix(int64(doc.Date), 0))
				for _, ac := range doc.Attributes {
					if name, ok := ac.(*tg.DocumentAttributeFilename); ok {
						info.FileName = name.FileName
					}
				}
			}
		}
	}
	return info, nil
}

func (c *Client) messageMedia(ctx context.Context, ref common.ChatRef, messageID int) (tg.MessageMediaClass, error) {
	msg, err := c.rawMessage(ctx, ref, messageID)
	if err != nil {
		return nil, err
	}
	media, ok := msg.GetMedia()
	if !ok {
		return nil, ErrNoMedia
	}
	if _, empty := media.(*tg.MessageMediaEmpty); empty {
		return nil, ErrNoMedia
	}
	return media, nil
}

func (c *Client) rawMessage(ctx context.Context, ref common.ChatRef, id int) (*tg.Message, error) {
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
	for _, mc := range raw {
		switch m := mc.(type) {
		case *tg.Message:
			if m.ID == id {
				return m, nil
			}
		case *tg.MessageService:
			if m.ID == id {
				return nil, ErrNoMedia
			}
		}
	}
	return nil, ErrMessageNotFound
}

func mediaLocation(media tg.MessageMediaClass) (tg.InputFileLocationClass, error) {
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		p, ok := m.GetPhoto()
		if !ok {
			return nil, ErrNoMedia
		}
		photo, ok := p.(*tg.Photo)
		if !ok {
			return nil, ErrNoMedia
		}
		return &tg.InputPhotoFileLocation{
			ID:            photo.ID,
			AccessHash:    photo.AccessHash,
			FileReference: photo.FileReference,
			ThumbSize:     largestPhotoSize(photo),
		}, nil
	case *tg.MessageMediaDocument:
		d, ok := m.GetDocument()
		if !ok {
			return nil, ErrNoMedia
		}
		doc, ok := d.(*tg.Document)
		if !ok {
			return nil, ErrNoMedia
		}
		return &tg.InputDocumentFileLocation{
			ID:            doc.ID,
			AccessHash:    doc.AccessHash,
			FileReference: doc.FileReference,
		}, nil
	}
	return nil, fmt.Errorf("cannot download media of type %s", mediaTypeName(media))
}

func largestPhotoSize(photo *tg.Photo) string {
	best := ""
	bestSize := -1
	for _, sc := range photo.Sizes {
		switch s := sc.(type) {
		case *tg.PhotoSize:
			if s.Size > bestSize {
				best, bestSize = s.Type, s.Size
			}
		case *tg.PhotoSizeProgressive:
			max := 0
			for _, n := range s.Sizes {
				if n > max {
					max = n
				}
			}
			if max > bestSize {
				best, bestSize = s.Type, max
			}
		case *tg.PhotoCachedSize:
			if len(s.Bytes) > bestSize {
				best, bestSize = s.Type, len(s.Bytes)
			}
		}
	}
	if best == "" {
		best = "x"
	}
	return best
}

// StickerSetTitles lists the titles of the account's installed sticker
// sets.
func (c *Client) StickerSetTitles(ctx context.Context) ([]string, error) {
	res, err := c.api.MessagesGetAllStickers(ctx, 0)
	if err != nil {
		return nil, err
	}
	all, ok := res.(*tg.MessagesAllStickers)
	if !ok {
		return nil, nil
	}
	titles := make([]string, 0, len(all.Sets))
	for _, set := range all.Sets {
		titles = append(titles, set.Title)
	}
	return titles, nil
}

// GifSearch queries the inline gif bot and returns matching document ids.
// The documents are cached so SendGif can reference them by id.
func (c *Client) GifSearch(ctx context.Context, query string, limit int) ([]int64, error) {
	bot, err := c.gifBot(ctx)
	if err != nil {
		return nil, err
	}
	res, err := c.api.MessagesGetInlineBotResults(ctx, &tg.MessagesGetInlineBotResultsRequest{
		Bot:   bot,
		Peer:  &tg.InputPeerSelf{},
		Query: query,
	})
	if err != nil {
		return nil, err
	}
	var ids []int64
	c.mu.Lock()
	for _, rc := range res.Results {
		m, ok := rc.(*tg.BotInlineMediaResult)
		if !ok {
			continue
		}
		d, ok := m.GetDocument()
		if !ok {
			continue
		}
		doc, ok := d.(*tg.Document)
		if !ok {
			continue
		}
		c.gifs[doc.ID] = &tg.InputDocument{
			ID:            doc.ID,
			AccessHash:    doc.AccessHash,
			FileReference: doc.FileReference,
		}
		ids = append(ids, doc.ID)
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	c.mu.Unlock()
	return ids, nil
}

func (c *Client) gifBot(ctx context.Context) (tg.InputUserClass, error) {
	_, entry, err := c.resolveUsername(ctx, "gif")
	if err != nil {
		return nil, err
	}
	u, ok := entry.inputUser()
	if !ok {
		return nil, fmt.Errorf("inline gif bot unavailable")
	}
	return u, nil
}

// SendGif sends a gif document found by an earlier search.
func (c *Client) SendGif(ctx context.Context, ref common.ChatRef, gifID int64) error {
	peer, _, err := c.inputPeer(ctx, ref)
	if err != nil {
		return err
	}
	c.mu.Lock()
	doc, ok := c.gifs[gifID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown gif document id %d, run a gif search first", gifID)
	}
	return c.sendMedia(ctx, peer, &tg.InputMediaDocument{ID: doc}, "")
}

// BotInfo fetches the profile of a bot by username.
func (c *Client) BotInfo(ctx context.Context, username string) (*BotInfo, error) {
	_, entry, err := c.resolveUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	u, ok := entry.inputUser()
	if !ok {
		return nil, fmt.Errorf("peer is not a user")
	}
	full, err := c.api.UsersGetFullUser(ctx, u)
	if err != nil {
		return nil, err
	}
	c.remember(full.Users, full.Chats)
	info := &BotInfo{
		ID:        entry.entity.ID,
		Username:  entry.entity.Username,
		FirstName: entry.entity.FirstName,
		LastName:  entry.entity.LastName,
		IsBot:     entry.entity.Bot,
		Verified:  entry.entity.Verified,
	}
	if about, ok := full.FullUser.GetAbout(); ok {
		info.About = about
	}
	return info, nil
}

// SetBotCommands replaces the default command list of the logged in bot.
func (c *Client) SetBotCommands(ctx context.Context, commands []BotCommand) error {
	tlCommands := make([]tg.BotCommand, 0, len(commands))
	for _, cmd := range commands {
		tlCommands = append(tlCommands, tg.BotCommand{
			Command:     cmd.Command,
			Description: cmd.Description,
		})
	}
	_, err := c.api.BotsSetBotCommands(ctx, &tg.BotsSetBotCommandsRequest{
		Scope:    &tg.BotCommandScopeDefault{},
		LangCode: "en",
		Commands: tlCommands,
	})
	return err
}
