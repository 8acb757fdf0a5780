package messages

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/local-mcps/telegram-mcp/config"
	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

// Telegram is the slice of the client API the message tools use.
type Telegram interface {
	HistoryPage(ctx context.Context, ref common.ChatRef, addOffset, limit int) ([]*telegram.Message, error)
	History(ctx context.Context, ref common.ChatRef, offsetID, limit int) ([]*telegram.Message, error)
	SearchHistory(ctx context.Context, ref common.ChatRef, query string, minDate, maxDate time.Time, limit int) ([]*telegram.Message, error)
	PinnedMessages(ctx context.Context, ref common.ChatRef, limit int) ([]*telegram.Message, error)
	GetMessage(ctx context.Context, ref common.ChatRef, id int) (*telegram.Message, error)
	HistoryBefore(ctx context.Context, ref common.ChatRef, beforeID, limit int) ([]*telegram.Message, error)
	HistoryAfter(ctx context.Context, ref common.ChatRef, afterID, limit int) ([]*telegram.Message, error)
	SendMessage(ctx context.Context, ref common.ChatRef, text string) error
	SendReply(ctx context.Context, ref common.ChatRef, replyTo int, text string) error
	ForwardMessage(ctx context.Context, from, to common.ChatRef, messageID int) error
	EditMessage(ctx context.Context, ref common.ChatRef, messageID int, text string) error
	DeleteMessage(ctx context.Context, ref common.ChatRef, messageID int) error
	PinMessage(ctx context.Context, ref common.ChatRef, messageID int, pin bool) error
	MarkRead(ctx context.Context, ref common.ChatRef) error
	PressButton(ctx context.Context, ref common.ChatRef, messageID int, data []byte) (*telegram.CallbackAnswer, error)
	SendReaction(ctx context.Context, ref common.ChatRef, messageID int, emoji string, big bool) error
	MessageReactions(ctx context.Context, ref common.ChatRef, messageID, limit int) ([]telegram.Reaction, error)
}

// Server provides message reading, sending and interaction tools.
type Server struct {
	config *config.MessagesConfig
	tg     Telegram
	errors *common.ErrorFormatter
	logger *log.Logger
}

func NewServer(cfg *config.MessagesConfig, tg Telegram) *Server {
	return &Server{
		config: cfg,
		tg:     tg,
		errors: common.NewErrorFormatter(common.CategoryMsg),
		logger: common.Logger().With("module", "messages"),
	}
}

// RegisterTools registers all message tools on the MCP server.
func (s *Server) RegisterTools(server *mcp.Server) {
	server.RegisterTool(s.getMessagesTool())
	server.RegisterTool(s.sendMessageTool())
	server.RegisterTool(s.listMessagesTool())
	server.RegisterTool(s.getMessageContextTool())
	server.RegisterTool(s.forwardMessageTool())
	server.RegisterTool(s.editMessageTool())
	server.RegisterTool(s.deleteMessageTool())
	server.RegisterTool(s.pinMessageTool())
	server.RegisterTool(s.unpinMessageTool())
	server.RegisterTool(s.markAsReadTool())
	server.RegisterTool(s.replyToMessageTool())
	server.RegisterTool(s.searchMessagesTool())
	server.RegisterTool(s.getHistoryTool())
	server.RegisterTool(s.getPinnedMessagesTool())
	server.RegisterTool(s.listInlineButtonsTool())
	server.RegisterTool(s.pressInlineButtonTool())
	server.RegisterTool(s.sendReactionTool())
	server.RegisterTool(s.removeReactionTool())
	server.RegisterTool(s.getMessageReactionsTool())
}
