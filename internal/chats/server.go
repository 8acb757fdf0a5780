package chats

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/local-mcps/telegram-mcp/config"
	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

// Telegram is the slice of the client API the chat tools use.
type Telegram interface {
	ResolveEntity(ctx context.Context, ref common.ChatRef) (*telegram.Entity, error)
	Dialogs(ctx context.Context, limit int) ([]telegram.Dialog, error)
	PeerDialog(ctx context.Context, ref common.ChatRef) (*telegram.Dialog, error)
	ParticipantsCount(ctx context.Context, ref common.ChatRef) (int, error)
	Participants(ctx context.Context, ref common.ChatRef) ([]telegram.Entity, error)
	JoinChannel(ctx context.Context, ref common.ChatRef) error
	LeaveChannel(ctx context.Context, ref common.ChatRef) error
	LeaveBasicGroup(ctx context.Context, ref common.ChatRef) error
	CreateGroup(ctx context.Context, title string, userIDs []int64) (*telegram.Entity, error)
	InviteToGroup(ctx context.Context, ref common.ChatRef, userIDs []int64) error
	CreateChannel(ctx context.Context, title, about string, megagroup bool) (*telegram.Entity, error)
	EditChannelTitle(ctx context.Context, ref common.ChatRef, title string) error
	EditBasicGroupTitle(ctx context.Context, ref common.ChatRef, title string) error
	ForumTopics(ctx context.Context, ref common.ChatRef) ([]telegram.Topic, error)
	SearchPublic(ctx context.Context, query string, limit int) ([]telegram.Entity, error)
	SetMuteUntil(ctx context.Context, ref common.ChatRef, until int) error
	SetDialogFolder(ctx context.Context, ref common.ChatRef, folderID int) error
	ExportInvite(ctx context.Context, ref common.ChatRef) (string, error)
	FullChatInviteLink(ctx context.Context, ref common.ChatRef) (string, error)
	CheckInvite(ctx context.Context, hash string) (*telegram.InviteInfo, error)
	ImportInvite(ctx context.Context, hash string) (string, error)
}

// Server provides chat listing, membership and invite tools.
type Server struct {
	config *config.ChatsConfig
	tg     Telegram
	chats  *common.ErrorFormatter
	groups *common.ErrorFormatter
	logger *log.Logger
}

func NewServer(cfg *config.ChatsConfig, tg Telegram) *Server {
	return &Server{
		config: cfg,
		tg:     tg,
		chats:  common.NewErrorFormatter(common.CategoryChat),
		groups: common.NewErrorFormatter(common.CategoryGroup),
		logger: common.Logger().With("module", "chats"),
	}
}

// RegisterTools registers all chat tools on the MCP server.
func (s *Server) RegisterTools(server *mcp.Server) {
	server.RegisterTool(s.getChatsTool())
	server.RegisterTool(s.listChatsTool())
	server.RegisterTool(s.getChatTool())
	server.RegisterTool(s.subscribePublicChannelTool())
	server.RegisterTool(s.leaveChatTool())
	server.RegisterTool(s.getParticipantsTool())
	server.RegisterTool(s.createGroupTool())
	server.RegisterTool(s.inviteToGroupTool())
	server.RegisterTool(s.createChannelTool())
	server.RegisterTool(s.editChatTitleTool())
	server.RegisterTool(s.listTopicsTool())
	server.RegisterTool(s.searchPublicChatsTool())
	server.RegisterTool(s.muteChatTool())
	server.RegisterTool(s.unmuteChatTool())
	server.RegisterTool(s.archiveChatTool())
	server.RegisterTool(s.unarchiveChatTool())
	server.RegisterTool(s.getInviteLinkTool())
	server.RegisterTool(s.joinChatByLinkTool())
	server.RegisterTool(s.exportChatInviteTool())
	server.RegisterTool(s.importChatInviteTool())
}
