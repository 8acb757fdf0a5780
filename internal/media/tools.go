package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/files"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

func (s *Server) sendFileTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "send_file",
		Description: "Send a local file to a chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":   mcp.IDProperty("Chat ID or username"),
				"file_path": mcp.StringProperty("Path to the file inside an allowed root"),
				"caption":   mcp.StringProperty("Optional caption"),
			},
			[]string{"chat_id", "file_path"},
		),
		Handler: s.handleSendFile,
	}
}

func (s *Server) handleSendFile(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("send_file", err, "chat_id", params["chat_id"])), nil
	}
	rawPath, err := mcp.GetStringParam(params, "file_path", true)
	if err != nil {
		return nil, err
	}
	caption, err := mcp.GetStringParam(params, "caption", false)
	if err != nil {
		return nil, err
	}

	path, err := s.resolver.ResolveReadable(ctx, files.PeerFromContext(ctx), rawPath, "send_file")
	if err != nil {
		return mcp.TextResult(err.Error()), nil
	}
	if _, err := os.Stat(path); err != nil {
		return mcp.TextResult(fmt.Sprintf("File not found: %s", path)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return mcp.TextResult(fmt.Sprintf("File is not readable: %s", path)), nil
	}
	f.Close()

	if err := s.tg.SendFile(ctx, ref, path, caption); err != nil {
		return mcp.TextResult(s.errors.Format("send_file", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("File sent to chat %s.", ref)), nil
}

func (s *Server) downloadMediaTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "download_media",
		Description: "Download the media of a message to a local file",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":    mcp.IDProperty("Chat ID or username"),
				"message_id": mcp.IntProperty("Message carrying the media"),
				"file_path":  mcp.StringProperty("Destination path; defaults to the downloads directory"),
			},
			[]string{"chat_id", "message_id"},
		),
		Handler: s.handleDownloadMedia,
	}
}

func (s *Server) handleDownloadMedia(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("download_media", err, "chat_id", params["chat_id"])), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", true, 0)
	if err != nil {
		return nil, err
	}
	rawPath, err := mcp.GetStringParam(params, "file_path", false)
	if err != nil {
		return nil, err
	}

	info, err := s.tg.MediaDescription(ctx, ref, messageID)
	if errors.Is(err, telegram.ErrNoMedia) {
		return mcp.TextResult("No media found in the specified message."), nil
	}
	if err != nil {
		return mcp.TextResult(s.errors.Format("download_media", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}

	defaultName := info.FileName
	if defaultName == "" {
		if info.Type == "MessageMediaPhoto" {
			defaultName = fmt.Sprintf("photo_%d.jpg", messageID)
		} else {
			defaultName = fmt.Sprintf("file_%d", messageID)
		}
	}

	path, err := s.resolver.ResolveWritable(ctx, files.PeerFromContext(ctx), rawPath, defaultName, "download_media")
	if err != nil {
		return mcp.TextResult(err.Error()), nil
	}

	dir := filepath.Dir(path)
	probe, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return mcp.TextResult(fmt.Sprintf("Directory not writable: %s", dir)), nil
	}
	probe.Close()
	os.Remove(probe.Name())

	if err := s.tg.DownloadMedia(ctx, ref, messageID, path); err != nil {
		return mcp.TextResult(s.errors.Format("download_media", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}
	if _, err := os.Stat(path); err != nil {
		return mcp.TextResult(fmt.Sprintf("Download failed: file not created at %s", path)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Media downloaded to %s.", path)), nil
}

func (s *Server) sendVoiceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "send_voice",
		Description: "Send a voice message from a local audio file",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":   mcp.IDProperty("Chat ID or username"),
				"file_path": mcp.StringProperty("Path to an .ogg or .opus file inside an allowed root"),
			},
			[]string{"chat_id", "file_path"},
		),
		Handler: s.handleSendVoice,
	}
}

func (s *Server) handleSendVoice(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("send_voice", err, "chat_id", params["chat_id"])), nil
	}
	rawPath, err := mcp.GetStringParam(params, "file_path", true)
	if err != nil {
		return nil, err
	}

	path, err := s.resolver.ResolveReadable(ctx, files.PeerFromContext(ctx), rawPath, "send_voice")
	if err != nil {
		return mcp.TextResult(err.Error()), nil
	}
	if _, err := os.Stat(path); err != nil {
		return mcp.TextResult(fmt.Sprintf("Voice file not found: %s", path)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return mcp.TextResult(fmt.Sprintf("Voice file is not readable: %s", path)), nil
	}
	f.Close()

	if err := s.tg.SendVoice(ctx, ref, path); err != nil {
		return mcp.TextResult(s.errors.Format("send_voice", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Voice message sent to chat %s.", ref)), nil
}

func (s *Server) getMediaInfoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_media_info",
		Description: "Describe the media attached to a message",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":    mcp.IDProperty("Chat ID or username"),
				"message_id": mcp.IntProperty("Message carrying the media"),
			},
			[]string{"chat_id", "message_id"},
		),
		Handler: s.handleGetMediaInfo,
	}
}

func (s *Server) handleGetMediaInfo(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_media_info", err, "chat_id", params["chat_id"])), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", true, 0)
	if err != nil {
		return nil, err
	}

	info, err := s.tg.MediaDescription(ctx, ref, messageID)
	if errors.Is(err, telegram.ErrNoMedia) {
		return mcp.TextResult("No media found in the specified message."), nil
	}
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_media_info", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}
	return mcp.JSONResult(info)
}

func (s *Server) getStickerSetsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_sticker_sets",
		Description: "List the titles of installed sticker sets",
		InputSchema: mcp.BuildInputSchema(map[string]interface{}{}, nil),
		Handler:     s.handleGetStickerSets,
	}
}

func (s *Server) handleGetStickerSets(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	titles, err := s.tg.StickerSetTitles(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_sticker_sets", err)), nil
	}
	if titles == nil {
		titles = []string{}
	}
	return mcp.JSONResult(titles)
}

func (s *Server) sendStickerTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "send_sticker",
		Description: "Send a sticker from a local .webp file",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":   mcp.IDProperty("Chat ID or username"),
				"file_path": mcp.StringProperty("Path to a .webp file inside an allowed root"),
			},
			[]string{"chat_id", "file_path"},
		),
		Handler: s.handleSendSticker,
	}
}

func (s *Server) handleSendSticker(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("send_sticker", err, "chat_id", params["chat_id"])), nil
	}
	rawPath, err := mcp.GetStringParam(params, "file_path", true)
	if err != nil {
		return nil, err
	}

	path, err := s.resolver.ResolveReadable(ctx, files.PeerFromContext(ctx), rawPath, "send_sticker")
	if err != nil {
		return mcp.TextResult(err.Error()), nil
	}
	if _, err := os.Stat(path); err != nil {
		return mcp.TextResult(fmt.Sprintf("Sticker file not found: %s", path)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return mcp.TextResult(fmt.Sprintf("Sticker file is not readable: %s", path)), nil
	}
	f.Close()

	if err := s.tg.SendSticker(ctx, ref, path); err != nil {
		return mcp.TextResult(s.errors.Format("send_sticker", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Sticker sent to chat %s.", ref)), nil
}

func (s *Server) getGifSearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_gif_search",
		Description: "Search GIFs and return their document IDs",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"query": mcp.StringProperty("Search terms"),
				"limit": mcp.IntProperty("Maximum number of results"),
			},
			[]string{"query"},
		),
		Handler: s.handleGetGifSearch,
	}
}

func (s *Server) handleGetGifSearch(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	query, err := mcp.GetStringParam(params, "query", true)
	if err != nil {
		return nil, err
	}
	limit, err := mcp.GetIntParam(params, "limit", false, 10)
	if err != nil {
		return nil, err
	}

	ids, err := s.tg.GifSearch(ctx, query, limit)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_gif_search", err, "query", query)), nil
	}
	if ids == nil {
		ids = []int64{}
	}
	return mcp.JSONResult(ids)
}

func (s *Server) sendGifTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "send_gif",
		Description: "Send a GIF by its document ID",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
				"gif_id":  mcp.IntProperty("GIF document ID from get_gif_search"),
			},
			[]string{"chat_id", "gif_id"},
		),
		Handler: s.handleSendGif,
	}
}

func (s *Server) handleSendGif(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("send_gif", err, "chat_id", params["chat_id"])), nil
	}
	gifID, err := mcp.GetIntParam(params, "gif_id", true, 0)
	if err != nil {
		return mcp.TextResult("gif_id must be a Telegram document ID (integer), not a file path. Use get_gif_search to find IDs."), nil
	}

	if err := s.tg.SendGif(ctx, ref, int64(gifID)); err != nil {
		return mcp.TextResult(s.errors.Format("send_gif", err, "chat_id", ref.String(), "gif_id", gifID)), nil
	}
	return mcp.TextResult(fmt.Sprintf("GIF sent to chat %s.", ref)), nil
}

func (s *Server) getBotInfoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_bot_info",
		Description: "Get details about a bot by username",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"bot_username": mcp.StringProperty("Bot username, with or without @"),
			},
			[]string{"bot_username"},
		),
		Handler: s.handleGetBotInfo,
	}
}

func (s *Server) handleGetBotInfo(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	username, err := mcp.GetStringParam(params, "bot_username", true)
	if err != nil {
		return nil, err
	}

	info, err := s.tg.BotInfo(ctx, username)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_bot_info", err, "bot_username", username)), nil
	}
	return mcp.JSONResult(struct {
		BotInfo *telegram.BotInfo `json:"bot_info"`
	}{info})
}

func (s *Server) setBotCommandsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "set_bot_commands",
		Description: "Set the command menu of the logged-in bot account",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"commands": mcp.ArrayProperty("object", "Commands to set, each with command and description"),
			},
			[]string{"commands"},
		),
		Handler: s.handleSetBotCommands,
	}
}

func (s *Server) handleSetBotCommands(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	self := s.tg.Self()
	if self == nil || !self.Bot {
		return mcp.TextResult("Error: This function can only be used by bot accounts. Your current Telegram account is a regular user account, not a bot."), nil
	}

	raw, ok := params["commands"]
	if !ok {
		return nil, fmt.Errorf("missing required parameter: commands")
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("parameter commands must be an array")
	}

	commands := make([]telegram.BotCommand, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("parameter commands must be an array of objects")
		}
		var cmd telegram.BotCommand
		if v, ok := m["command"].(string); ok {
			cmd.Command = v
		}
		if v, ok := m["description"].(string); ok {
			cmd.Description = v
		}
		commands = append(commands, cmd)
	}

	if err := s.tg.SetBotCommands(ctx, commands); err != nil {
		return mcp.TextResult(s.errors.Format("set_bot_commands", err)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Bot commands set for %s.", self.Username)), nil
}
