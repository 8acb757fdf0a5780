package media

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/local-mcps/telegram-mcp/config"
	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/files"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

// Telegram is the slice of the client API the media tools use.
type Telegram interface {
	Self() *telegram.Entity
	SendFile(ctx context.Context, ref common.ChatRef, path, caption string) error
	SendVoice(ctx context.Context, ref common.ChatRef, path string) error
	SendSticker(ctx context.Context, ref common.ChatRef, path string) error
	DownloadMedia(ctx context.Context, ref common.ChatRef, messageID int, path string) error
	MediaDescription(ctx context.Context, ref common.ChatRef, messageID int) (*telegram.MediaInfo, error)
	StickerSetTitles(ctx context.Context) ([]string, error)
	GifSearch(ctx context.Context, query string, limit int) ([]int64, error)
	SendGif(ctx context.Context, ref common.ChatRef, gifID int64) error
	BotInfo(ctx context.Context, username string) (*telegram.BotInfo, error)
	SetBotCommands(ctx context.Context, commands []telegram.BotCommand) error
}

// Server provides media transfer tools. Every path crossing the process
// boundary goes through the roots resolver.
type Server struct {
	config   *config.MediaConfig
	tg       Telegram
	resolver *files.Resolver
	errors   *common.ErrorFormatter
	logger   *log.Logger
}

func NewServer(cfg *config.MediaConfig, tg Telegram, resolver *files.Resolver) *Server {
	return &Server{
		config:   cfg,
		tg:       tg,
		resolver: resolver,
		errors:   common.NewErrorFormatter(common.CategoryMedia),
		logger:   common.Logger().With("module", "media"),
	}
}

// RegisterTools registers all media tools on the MCP server.
func (s *Server) RegisterTools(server *mcp.Server) {
	server.RegisterTool(s.sendFileTool())
	server.RegisterTool(s.downloadMediaTool())
	server.RegisterTool(s.sendVoiceTool())
	server.RegisterTool(s.getMediaInfoTool())
	server.RegisterTool(s.getStickerSetsTool())
	server.RegisterTool(s.sendStickerTool())
	server.RegisterTool(s.getGifSearchTool())
	server.RegisterTool(s.sendGifTool())
	server.RegisterTool(s.getBotInfoTool())
	server.RegisterTool(s.setBotCommandsTool())
}
