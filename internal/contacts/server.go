package contacts

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/local-mcps/telegram-mcp/config"
	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

// Telegram is the slice of the client API the contact tools use.
type Telegram interface {
	ResolveEntity(ctx context.Context, ref common.ChatRef) (*telegram.Entity, error)
	Contacts(ctx context.Context) ([]telegram.Entity, error)
	ContactIDs(ctx context.Context) ([]int, error)
	SearchPublic(ctx context.Context, query string, limit int) ([]telegram.Entity, error)
	Dialogs(ctx context.Context, limit int) ([]telegram.Dialog, error)
	CommonChats(ctx context.Context, userID int64) ([]telegram.Entity, error)
	HistoryPage(ctx context.Context, ref common.ChatRef, addOffset, limit int) ([]*telegram.Message, error)
	ImportContacts(ctx context.Context, contacts []telegram.PhoneContact) (*telegram.ImportResult, error)
	DeleteContact(ctx context.Context, userID int64) error
	BlockPeer(ctx context.Context, ref common.ChatRef) error
	UnblockPeer(ctx context.Context, ref common.ChatRef) error
	BlockedUsers(ctx context.Context, limit int) ([]telegram.Entity, error)
}

// Server provides contact listing, lookup and management tools.
type Server struct {
	config *config.ContactsConfig
	tg     Telegram
	errors *common.ErrorFormatter
	logger *log.Logger
}

func NewServer(cfg *config.ContactsConfig, tg Telegram) *Server {
	return &Server{
		config: cfg,
		tg:     tg,
		errors: common.NewErrorFormatter(common.CategoryContact),
		logger: common.Logger().With("module", "contacts"),
	}
}

// RegisterTools registers all contact tools on the MCP server.
func (s *Server) RegisterTools(server *mcp.Server) {
	server.RegisterTool(s.listContactsTool())
	server.RegisterTool(s.searchContactsTool())
	server.RegisterTool(s.getContactIDsTool())
	server.RegisterTool(s.getDirectChatByContactTool())
	server.RegisterTool(s.getContactChatsTool())
	server.RegisterTool(s.getLastInteractionTool())
	server.RegisterTool(s.addContactTool())
	server.RegisterTool(s.deleteContactTool())
	server.RegisterTool(s.blockUserTool())
	server.RegisterTool(s.unblockUserTool())
	server.RegisterTool(s.importContactsTool())
	server.RegisterTool(s.exportContactsTool())
	server.RegisterTool(s.getBlockedUsersTool())
	server.RegisterTool(s.resolveUsernameTool())
}
