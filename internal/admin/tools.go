package admin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/files"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

// resolveUserID turns a validated user reference into the numeric ID the
// admin RPCs need, resolving usernames through the client.
func (s *Server) resolveUserID(ctx context.Context, ref common.ChatRef) (int64, error) {
	if !ref.IsUsername() {
		return ref.ID, nil
	}
	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return 0, err
	}
	return entity.ID, nil
}

func participantLines(users []telegram.Entity) string {
	lines := make([]string, 0, len(users))
	for _, u := range users {
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("ID: %d, Name: %s %s", u.ID, u.FirstName, u.LastName)))
	}
	return strings.Join(lines, "\n")
}

func (s *Server) promoteAdminTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "promote_admin",
		Description: "Promote a user to admin in a group or channel",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Group or channel ID or username"),
				"user_id": mcp.IDProperty("User to promote"),
			},
			[]string{"chat_id", "user_id"},
		),
		Handler: s.handlePromoteAdmin,
	}
}

func (s *Server) handlePromoteAdmin(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("promote_admin", err, "chat_id", params["chat_id"])), nil
	}
	userRef, err := common.ValidateID("user_id", params["user_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("promote_admin", err, "user_id", params["user_id"])), nil
	}

	chat, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("promote_admin", err, "chat_id", ref.String())), nil
	}
	userID, err := s.resolveUserID(ctx, userRef)
	if err != nil {
		return mcp.TextResult(s.errors.Format("promote_admin", err, "user_id", userRef.String())), nil
	}

	err = s.tg.EditAdmin(ctx, ref, userID, telegram.DefaultAdminRights(), "Admin")
	if errors.Is(err, telegram.ErrNotMutualContact) {
		return mcp.TextResult("Error: Cannot promote users who are not mutual contacts. Please ensure the user is in your contacts and has added you back."), nil
	}
	if err != nil {
		return mcp.TextResult(s.errors.Format("promote_admin", err, "chat_id", ref.String(), "user_id", userRef.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Successfully promoted user %s to admin in %s", userRef, chat.Title)), nil
}

func (s *Server) demoteAdminTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "demote_admin",
		Description: "Remove admin rights from a user",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Group or channel ID or username"),
				"user_id": mcp.IDProperty("User to demote"),
			},
			[]string{"chat_id", "user_id"},
		),
		Handler: s.handleDemoteAdmin,
	}
}

func (s *Server) handleDemoteAdmin(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("demote_admin", err, "chat_id", params["chat_id"])), nil
	}
	userRef, err := common.ValidateID("user_id", params["user_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("demote_admin", err, "user_id", params["user_id"])), nil
	}

	chat, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("demote_admin", err, "chat_id", ref.String())), nil
	}
	userID, err := s.resolveUserID(ctx, userRef)
	if err != nil {
		return mcp.TextResult(s.errors.Format("demote_admin", err, "user_id", userRef.String())), nil
	}

	err = s.tg.EditAdmin(ctx, ref, userID, telegram.AdminRights{}, "")
	if errors.Is(err, telegram.ErrNotMutualContact) {
		return mcp.TextResult("Error: Cannot modify admin status of users who are not mutual contacts. Please ensure the user is in your contacts and has added you back."), nil
	}
	if err != nil {
		return mcp.TextResult(s.errors.Format("demote_admin", err, "chat_id", ref.String(), "user_id", userRef.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Successfully demoted user %s from admin in %s", userRef, chat.Title)), nil
}

func (s *Server) banUserTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ban_user",
		Description: "Ban a user from a group or channel",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Group or channel ID or username"),
				"user_id": mcp.IDProperty("User to ban"),
			},
			[]string{"chat_id", "user_id"},
		),
		Handler: s.handleBanUser,
	}
}

func (s *Server) handleBanUser(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("ban_user", err, "chat_id", params["chat_id"])), nil
	}
	userRef, err := common.ValidateID("user_id", params["user_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("ban_user", err, "user_id", params["user_id"])), nil
	}

	chat, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("ban_user", err, "chat_id", ref.String())), nil
	}
	userID, err := s.resolveUserID(ctx, userRef)
	if err != nil {
		return mcp.TextResult(s.errors.Format("ban_user", err, "user_id", userRef.String())), nil
	}

	err = s.tg.EditBanned(ctx, ref, userID, true)
	if errors.Is(err, telegram.ErrNotMutualContact) {
		return mcp.TextResult("Error: Cannot ban users who are not mutual contacts. Please ensure the user is in your contacts and has added you back."), nil
	}
	if err != nil {
		return mcp.TextResult(s.errors.Format("ban_user", err, "chat_id", ref.String(), "user_id", userRef.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("User %s banned from chat %s (ID: %s).", userRef, chat.Title, ref)), nil
}

func (s *Server) unbanUserTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "unban_user",
		Description: "Lift a ban from a user in a group or channel",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Group or channel ID or username"),
				"user_id": mcp.IDProperty("User to unban"),
			},
			[]string{"chat_id", "user_id"},
		),
		Handler: s.handleUnbanUser,
	}
}

func (s *Server) handleUnbanUser(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("unban_user", err, "chat_id", params["chat_id"])), nil
	}
	userRef, err := common.ValidateID("user_id", params["user_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("unban_user", err, "user_id", params["user_id"])), nil
	}

	chat, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("unban_user", err, "chat_id", ref.String())), nil
	}
	userID, err := s.resolveUserID(ctx, userRef)
	if err != nil {
		return mcp.TextResult(s.errors.Format("unban_user", err, "user_id", userRef.String())), nil
	}

	err = s.tg.EditBanned(ctx, ref, userID, false)
	if errors.Is(err, telegram.ErrNotMutualContact) {
		return mcp.TextResult("Error: Cannot modify status of users who are not mutual contacts. Please ensure the user is in your contacts and has added you back."), nil
	}
	if err != nil {
		return mcp.TextResult(s.errors.Format("unban_user", err, "chat_id", ref.String(), "user_id", userRef.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("User %s unbanned from chat %s (ID: %s).", userRef, chat.Title, ref)), nil
}

func (s *Server) getAdminsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_admins",
		Description: "List the admins of a group or channel",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Group or channel ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleGetAdmins,
	}
}

func (s *Server) handleGetAdmins(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_admins", err, "chat_id", params["chat_id"])), nil
	}

	admins, err := s.tg.AdminParticipants(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_admins", err, "chat_id", ref.String())), nil
	}
	if len(admins) == 0 {
		return mcp.TextResult("No admins found."), nil
	}
	return mcp.TextResult(participantLines(admins)), nil
}

func (s *Server) getBannedUsersTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_banned_users",
		Description: "List the banned users of a group or channel",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Group or channel ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleGetBannedUsers,
	}
}

func (s *Server) handleGetBannedUsers(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_banned_users", err, "chat_id", params["chat_id"])), nil
	}

	banned, err := s.tg.BannedParticipants(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_banned_users", err, "chat_id", ref.String())), nil
	}
	if len(banned) == 0 {
		return mcp.TextResult("No banned users found."), nil
	}
	return mcp.TextResult(participantLines(banned)), nil
}

func (s *Server) getRecentActionsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_recent_actions",
		Description: "Get the recent admin log of a group or channel",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Group or channel ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleGetRecentActions,
	}
}

func (s *Server) handleGetRecentActions(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_recent_actions", err, "chat_id", params["chat_id"])), nil
	}

	entries, err := s.tg.AdminLog(ctx, ref, 20)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_recent_actions", err, "chat_id", ref.String())), nil
	}
	if len(entries) == 0 {
		return mcp.TextResult("No recent admin actions found."), nil
	}
	return mcp.JSONResult(entries)
}

func (s *Server) editChatPhotoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "edit_chat_photo",
		Description: "Set the photo of a group or channel from a local file",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":   mcp.IDProperty("Group or channel ID or username"),
				"file_path": mcp.StringProperty("Path to the photo inside an allowed root"),
			},
			[]string{"chat_id", "file_path"},
		),
		Handler: s.handleEditChatPhoto,
	}
}

func (s *Server) handleEditChatPhoto(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("edit_chat_photo", err, "chat_id", params["chat_id"])), nil
	}
	rawPath, err := mcp.GetStringParam(params, "file_path", true)
	if err != nil {
		return nil, err
	}

	path, err := s.resolver.ResolveReadable(ctx, files.PeerFromContext(ctx), rawPath, "edit_chat_photo")
	if err != nil {
		return mcp.TextResult(err.Error()), nil
	}
	if _, err := os.Stat(path); err != nil {
		return mcp.TextResult(fmt.Sprintf("Photo file not found: %s", path)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return mcp.TextResult(fmt.Sprintf("Photo file not readable: %s", path)), nil
	}
	f.Close()

	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("edit_chat_photo", err, "chat_id", ref.String())), nil
	}
	if entity.Kind == telegram.KindUser {
		return mcp.TextResult(fmt.Sprintf("Cannot edit photo for this entity type (%s).", entity.Kind)), nil
	}

	if err := s.tg.EditChatPhoto(ctx, ref, path); err != nil {
		return mcp.TextResult(s.errors.Format("edit_chat_photo", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Chat %s photo updated.", ref)), nil
}

func (s *Server) deleteChatPhotoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "delete_chat_photo",
		Description: "Remove the photo of a group or channel",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Group or channel ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleDeleteChatPhoto,
	}
}

func (s *Server) handleDeleteChatPhoto(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("delete_chat_photo", err, "chat_id", params["chat_id"])), nil
	}

	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("delete_chat_photo", err, "chat_id", ref.String())), nil
	}
	if entity.Kind == telegram.KindUser {
		return mcp.TextResult(fmt.Sprintf("Cannot delete photo for this entity type (%s).", entity.Kind)), nil
	}

	if err := s.tg.DeleteChatPhoto(ctx, ref); err != nil {
		return mcp.TextResult(s.errors.Format("delete_chat_photo", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Chat %s photo deleted.", ref)), nil
}
