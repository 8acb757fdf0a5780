package misc

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/local-mcps/telegram-mcp/config"
	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

// Telegram is the slice of the client API the miscellaneous tools use.
type Telegram interface {
	Self() *telegram.Entity
	Ping(ctx context.Context) error
	SendPoll(ctx context.Context, ref common.ChatRef, spec telegram.PollSpec) error
	SaveDraft(ctx context.Context, ref common.ChatRef, message string, replyTo int, noWebpage bool) error
	Drafts(ctx context.Context) ([]telegram.Draft, error)
	ClearDraft(ctx context.Context, ref common.ChatRef) error
}

// Server provides polls, drafts and server diagnostics.
type Server struct {
	config    *config.MiscConfig
	tg        Telegram
	errors    *common.ErrorFormatter
	logger    *log.Logger
	startedAt time.Time
}

func NewServer(cfg *config.MiscConfig, tg Telegram) *Server {
	return &Server{
		config:    cfg,
		tg:        tg,
		errors:    common.NewErrorFormatter(common.CategoryGeneral),
		logger:    common.Logger().With("module", "misc"),
		startedAt: time.Now(),
	}
}

// RegisterTools registers all miscellaneous tools on the MCP server.
func (s *Server) RegisterTools(server *mcp.Server) {
	server.RegisterTool(s.createPollTool())
	server.RegisterTool(s.saveDraftTool())
	server.RegisterTool(s.getDraftsTool())
	server.RegisterTool(s.clearDraftTool())
	server.RegisterTool(s.getServerStatusTool())
}
