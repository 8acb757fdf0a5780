package profile

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/local-mcps/telegram-mcp/config"
	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/files"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

// Telegram is the slice of the client API the profile tools use.
type Telegram interface {
	Self() *telegram.Entity
	ResolveEntity(ctx context.Context, ref common.ChatRef) (*telegram.Entity, error)
	UpdateProfile(ctx context.Context, firstName, lastName, about *string) error
	SetProfilePhoto(ctx context.Context, path string) error
	DeleteProfilePhoto(ctx context.Context) (bool, error)
	UserPhotos(ctx context.Context, ref common.ChatRef, limit int) ([]int64, error)
	UserStatus(ctx context.Context, ref common.ChatRef) (string, error)
	PrivacyRules(ctx context.Context, key string) (*telegram.PrivacyRules, error)
	SetPrivacy(ctx context.Context, key string, allowIDs, disallowIDs []int64) error
}

// Server provides profile and privacy tools for the logged-in account.
type Server struct {
	config   *config.ProfileConfig
	tg       Telegram
	resolver *files.Resolver
	errors   *common.ErrorFormatter
	logger   *log.Logger
}

func NewServer(cfg *config.ProfileConfig, tg Telegram, resolver *files.Resolver) *Server {
	return &Server{
		config:   cfg,
		tg:       tg,
		resolver: resolver,
		errors:   common.NewErrorFormatter(common.CategoryProfile),
		logger:   common.Logger().With("module", "profile"),
	}
}

// RegisterTools registers all profile tools on the MCP server.
func (s *Server) RegisterTools(server *mcp.Server) {
	server.RegisterTool(s.getMeTool())
	server.RegisterTool(s.updateProfileTool())
	server.RegisterTool(s.setProfilePhotoTool())
	server.RegisterTool(s.deleteProfilePhotoTool())
	server.RegisterTool(s.getPrivacySettingsTool())
	server.RegisterTool(s.setPrivacySettingsTool())
	server.RegisterTool(s.getUserPhotosTool())
	server.RegisterTool(s.getUserStatusTool())
}
