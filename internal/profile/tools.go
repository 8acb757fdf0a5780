package profile

import (
	"context"
	"fmt"

	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/files"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

func (s *Server) getMeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_me",
		Description: "Get details about the logged-in account",
		InputSchema: mcp.BuildInputSchema(map[string]interface{}{}, nil),
		Handler:     s.handleGetMe,
	}
}

func (s *Server) handleGetMe(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	return mcp.JSONResult(s.tg.Self().View())
}

func (s *Server) updateProfileTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "update_profile",
		Description: "Update the account's name or bio",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"first_name": mcp.StringProperty("New first name"),
				"last_name":  mcp.StringProperty("New last name"),
				"about":      mcp.StringProperty("New bio text"),
			},
			nil,
		),
		Handler: s.handleUpdateProfile,
	}
}

func (s *Server) handleUpdateProfile(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	// Only fields present in the request are changed; an explicit empty
	// string clears the field.
	var firstName, lastName, about *string
	if _, ok := params["first_name"]; ok {
		v, err := mcp.GetStringParam(params, "first_name", false)
		if err != nil {
			return nil, err
		}
		firstName = &v
	}
	if _, ok := params["last_name"]; ok {
		v, err := mcp.GetStringParam(params, "last_name", false)
		if err != nil {
			return nil, err
		}
		lastName = &v
	}
	if _, ok := params["about"]; ok {
		v, err := mcp.GetStringParam(params, "about", false)
		if err != nil {
			return nil, err
		}
		about = &v
	}

	if err := s.tg.UpdateProfile(ctx, firstName, lastName, about); err != nil {
		return mcp.TextResult(s.errors.Format("update_profile", err)), nil
	}
	return mcp.TextResult("Profile updated."), nil
}

func (s *Server) setProfilePhotoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "set_profile_photo",
		Description: "Set the account's profile photo from a local file",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"file_path": mcp.StringProperty("Path to the photo inside an allowed root"),
			},
			[]string{"file_path"},
		),
		Handler: s.handleSetProfilePhoto,
	}
}

func (s *Server) handleSetProfilePhoto(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	rawPath, err := mcp.GetStringParam(params, "file_path", true)
	if err != nil {
		return nil, err
	}

	path, err := s.resolver.ResolveReadable(ctx, files.PeerFromContext(ctx), rawPath, "set_profile_photo")
	if err != nil {
		return mcp.TextResult(err.Error()), nil
	}

	if err := s.tg.SetProfilePhoto(ctx, path); err != nil {
		return mcp.TextResult(s.errors.Format("set_profile_photo", err)), nil
	}
	return mcp.TextResult("Profile photo updated."), nil
}

func (s *Server) deleteProfilePhotoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "delete_profile_photo",
		Description: "Delete the account's current profile photo",
		InputSchema: mcp.BuildInputSchema(map[string]interface{}{}, nil),
		Handler:     s.handleDeleteProfilePhoto,
	}
}

func (s *Server) handleDeleteProfilePhoto(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	deleted, err := s.tg.DeleteProfilePhoto(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("delete_profile_photo", err)), nil
	}
	if !deleted {
		return mcp.TextResult("No profile photo to delete."), nil
	}
	return mcp.TextResult("Profile photo deleted."), nil
}

func (s *Server) getPrivacySettingsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_privacy_settings",
		Description: "Get the last-seen privacy settings of the account",
		InputSchema: mcp.BuildInputSchema(map[string]interface{}{}, nil),
		Handler:     s.handleGetPrivacySettings,
	}
}

func (s *Server) handleGetPrivacySettings(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	rules, err := s.tg.PrivacyRules(ctx, "status")
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_privacy_settings", err)), nil
	}
	return mcp.JSONResult(rules)
}

func (s *Server) setPrivacySettingsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "set_privacy_settings",
		Description: "Update privacy rules for last seen, phone or profile photo",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"key":            mcp.StringProperty("Privacy key: status, phone or profile_photo"),
				"allow_users":    mcp.IDListProperty("Users always allowed to see the value"),
				"disallow_users": mcp.IDListProperty("Users never allowed to see the value"),
			},
			[]string{"key"},
		),
		Handler: s.handleSetPrivacySettings,
	}
}

func (s *Server) handleSetPrivacySettings(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	key, err := mcp.GetStringParam(params, "key", true)
	if err != nil {
		return nil, err
	}
	switch key {
	case "status", "phone", "profile_photo":
	default:
		return mcp.TextResult(fmt.Sprintf("Error: Unsupported privacy key '%s'. Supported keys: status, phone, profile_photo", key)), nil
	}

	allowIDs, result := s.resolveUserList(ctx, params, "allow_users")
	if result != nil {
		return result, nil
	}
	disallowIDs, result := s.resolveUserList(ctx, params, "disallow_users")
	if result != nil {
		return result, nil
	}

	if err := s.tg.SetPrivacy(ctx, key, allowIDs, disallowIDs); err != nil {
		return mcp.TextResult(s.errors.Format("set_privacy_settings", err, "key", key)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Privacy settings for %s updated successfully.", key)), nil
}

// resolveUserList turns an optional list parameter of IDs or usernames into
// resolved user IDs. A non-nil result reports the failure to the client.
func (s *Server) resolveUserList(ctx context.Context, params map[string]interface{}, name string) ([]int64, *mcp.ToolResult) {
	raw, ok := params[name].([]interface{})
	if !ok {
		return nil, nil
	}
	refs, err := common.ValidateIDList(name, raw)
	if err != nil {
		return nil, mcp.TextResult(s.errors.Format("set_privacy_settings", err, name, raw))
	}

	ids := make([]int64, 0, len(refs))
	for _, ref := range refs {
		entity, err := s.tg.ResolveEntity(ctx, ref)
		if err != nil {
			return nil, mcp.TextResult(s.errors.Format("set_privacy_settings", err, name, ref.String()))
		}
		ids = append(ids, entity.ID)
	}
	return ids, nil
}

func (s *Server) getUserPhotosTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_user_photos",
		Description: "List the profile photo IDs of a user",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"user_id": mcp.IDProperty("User ID or username"),
				"limit":   mcp.IntProperty("Maximum number of photos"),
			},
			[]string{"user_id"},
		),
		Handler: s.handleGetUserPhotos,
	}
}

func (s *Server) handleGetUserPhotos(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("user_id", params["user_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_user_photos", err, "user_id", params["user_id"])), nil
	}
	limit, err := mcp.GetIntParam(params, "limit", false, 10)
	if err != nil {
		return nil, err
	}

	photos, err := s.tg.UserPhotos(ctx, ref, limit)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_user_photos", err, "user_id", ref.String())), nil
	}
	if photos == nil {
		photos = []int64{}
	}
	return mcp.JSONResult(photos)
}

func (s *Server) getUserStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_user_status",
		Description: "Get the online status of a user",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"user_id": mcp.IDProperty("User ID or username"),
			},
			[]string{"user_id"},
		),
		Handler: s.handleGetUserStatus,
	}
}

func (s *Server) handleGetUserStatus(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("user_id", params["user_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_user_status", err, "user_id", params["user_id"])), nil
	}

	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_user_status", err, "user_id", ref.String())), nil
	}
	if entity.Kind != telegram.KindUser {
		return mcp.TextResult("Status not available for this entity type."), nil
	}

	status, err := s.tg.UserStatus(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_user_status", err, "user_id", ref.String())), nil
	}
	return mcp.TextResult(status), nil
}
