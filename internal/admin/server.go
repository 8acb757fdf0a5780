package admin

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/local-mcps/telegram-mcp/config"
	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/files"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

// Telegram is the slice of the client API the admin tools use.
type Telegram interface {
	ResolveEntity(ctx context.Context, ref common.ChatRef) (*telegram.Entity, error)
	EditAdmin(ctx context.Context, ref common.ChatRef, userID int64, rights telegram.AdminRights, rank string) error
	EditBanned(ctx context.Context, ref common.ChatRef, userID int64, banned bool) error
	AdminParticipants(ctx context.Context, ref common.ChatRef) ([]telegram.Entity, error)
	BannedParticipants(ctx context.Context, ref common.ChatRef) ([]telegram.Entity, error)
	AdminLog(ctx context.Context, ref common.ChatRef, limit int) ([]telegram.AdminLogEntry, error)
	EditChatPhoto(ctx context.Context, ref common.ChatRef, path string) error
	DeleteChatPhoto(ctx context.Context, ref common.ChatRef) error
}

// Server provides group and channel administration tools.
type Server struct {
	config   *config.AdminConfig
	tg       Telegram
	resolver *files.Resolver
	errors   *common.ErrorFormatter
	logger   *log.Logger
}

func NewServer(cfg *config.AdminConfig, tg Telegram, resolver *files.Resolver) *Server {
	return &Server{
		config:   cfg,
		tg:       tg,
		resolver: resolver,
		errors:   common.NewErrorFormatter(common.CategoryAdmin),
		logger:   common.Logger().With("module", "admin"),
	}
}

// RegisterTools registers all admin tools on the MCP server.
func (s *Server) RegisterTools(server *mcp.Server) {
	server.RegisterTool(s.promoteAdminTool())
	server.RegisterTool(s.demoteAdminTool())
	server.RegisterTool(s.banUserTool())
	server.RegisterTool(s.unbanUserTool())
	server.RegisterTool(s.getAdminsTool())
	server.RegisterTool(s.getBannedUsersTool())
	server.RegisterTool(s.getRecentActionsTool())
	server.RegisterTool(s.editChatPhotoTool())
	server.RegisterTool(s.deleteChatPhotoTool())
}
