package folders

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/local-mcps/telegram-mcp/config"
	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

// Telegram is the slice of the client API the folder tools use.
type Telegram interface {
	ResolveEntity(ctx context.Context, ref common.ChatRef) (*telegram.Entity, error)
	ResolveMarked(ctx context.Context, marked int64) (*telegram.Entity, error)
	Folders(ctx context.Context) ([]telegram.Folder, error)
	SaveFolder(ctx context.Context, folder telegram.Folder) error
	DeleteFolder(ctx context.Context, id int) error
	ReorderFolders(ctx context.Context, order []int) error
}

// Server provides dialog-filter (folder) management tools.
type Server struct {
	config *config.FoldersConfig
	tg     Telegram
	errors *common.ErrorFormatter
	logger *log.Logger
}

func NewServer(cfg *config.FoldersConfig, tg Telegram) *Server {
	return &Server{
		config: cfg,
		tg:     tg,
		errors: common.NewErrorFormatter(common.CategoryFolder),
		logger: common.Logger().With("module", "folders"),
	}
}

// RegisterTools registers all folder tools on the MCP server.
func (s *Server) RegisterTools(server *mcp.Server) {
	server.RegisterTool(s.listFoldersTool())
	server.RegisterTool(s.getFolderTool())
	server.RegisterTool(s.createFolderTool())
	server.RegisterTool(s.addChatToFolderTool())
	server.RegisterTool(s.removeChatFromFolderTool())
	server.RegisterTool(s.deleteFolderTool())
	server.RegisterTool(s.reorderFoldersTool())
}
