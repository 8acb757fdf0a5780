package chats

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

// muteForever is the sentinel mute_until value Telegram treats as "forever".
const muteForever = 2147483647

// chatTypeName maps an entity onto the user/group/channel naming the listing
// tools use. Supergroups count as groups.
func chatTypeName(e *telegram.Entity) string {
	switch {
	case e.Kind == telegram.KindUser:
		return "user"
	case e.Kind == telegram.KindGroup || e.Megagroup:
		return "group"
	default:
		return "channel"
	}
}

func (s *Server) getChatsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_chats",
		Description: "Get a paginated list of chats",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"page":      mcp.IntProperty("Page number (1-based)"),
				"page_size": mcp.IntProperty("Number of chats per page"),
			},
			nil,
		),
		Handler: s.handleGetChats,
	}
}

func (s *Server) handleGetChats(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	page, err := mcp.GetIntParam(params, "page", false, 1)
	if err != nil {
		return nil, err
	}
	pageSize, err := mcp.GetIntParam(params, "page_size", false, 20)
	if err != nil {
		return nil, err
	}

	dialogs, err := s.tg.Dialogs(ctx, 0)
	if err != nil {
		return mcp.TextResult(s.chats.Format("get_chats", err, "page", page)), nil
	}

	start := (page - 1) * pageSize
	if start < 0 || start >= len(dialogs) {
		return mcp.TextResult("Page out of range."), nil
	}
	end := start + pageSize
	if end > len(dialogs) {
		end = len(dialogs)
	}

	lines := make([]string, 0, end-start)
	for _, d := range dialogs[start:end] {
		title := d.Entity.Title
		if title == "" {
			title = d.Entity.FirstName
		}
		if title == "" {
			title = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("Chat ID: %d, Title: %s", d.Entity.ID, title))
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) listChatsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_chats",
		Description: "List chats with metadata and unread counts",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_type": mcp.StringProperty("Filter by type: user, group or channel"),
				"limit":     mcp.IntProperty("Maximum number of chats to list"),
			},
			nil,
		),
		Handler: s.handleListChats,
	}
}

func (s *Server) handleListChats(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	chatType, err := mcp.GetStringParam(params, "chat_type", false)
	if err != nil {
		return nil, err
	}
	limit, err := mcp.GetIntParam(params, "limit", false, 20)
	if err != nil {
		return nil, err
	}

	dialogs, err := s.tg.Dialogs(ctx, limit)
	if err != nil {
		return mcp.TextResult(s.chats.Format("list_chats", err, "chat_type", chatType)), nil
	}

	var lines []string
	for _, d := range dialogs {
		e := d.Entity
		switch chatType {
		case "user":
			if e.Kind != telegram.KindUser {
				continue
			}
		case "group":
			if e.Kind != telegram.KindGroup && !(e.Kind == telegram.KindChannel && e.Megagroup) {
				continue
			}
		case "channel":
			if e.Kind != telegram.KindChannel || e.Megagroup {
				continue
			}
		}

		line := fmt.Sprintf("Chat ID: %d", e.ID)
		if e.Kind == telegram.KindUser {
			line += fmt.Sprintf(", Name: %s", strings.TrimSpace(e.FirstName+" "+e.LastName))
		} else {
			line += fmt.Sprintf(", Title: %s", e.Title)
		}
		line += fmt.Sprintf(", Type: %s", chatTypeName(&e))
		if e.Username != "" {
			line += fmt.Sprintf(", Username: @%s", e.Username)
		}
		switch {
		case d.UnreadCount > 0:
			line += fmt.Sprintf(", Unread: %d", d.UnreadCount)
		case d.UnreadMark:
			line += ", Unread: marked"
		default:
			line += ", No unread messages"
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return mcp.TextResult("No chats found matching the criteria."), nil
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) getChatTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_chat",
		Description: "Get detailed information about a chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleGetChat,
	}
}

func (s *Server) handleGetChat(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.chats.Format("get_chat", err, "chat_id", params["chat_id"])), nil
	}

	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.chats.Format("get_chat", err, "chat_id", ref.String())), nil
	}

	lines := []string{fmt.Sprintf("ID: %d", entity.ID)}
	if entity.Kind == telegram.KindUser {
		lines = append(lines, fmt.Sprintf("Name: %s", strings.TrimSpace(entity.FirstName+" "+entity.LastName)))
		lines = append(lines, "Type: User")
		if entity.Username != "" {
			lines = append(lines, fmt.Sprintf("Username: @%s", entity.Username))
		}
		if entity.Phone != "" {
			lines = append(lines, fmt.Sprintf("Phone: %s", entity.Phone))
		}
		lines = append(lines, fmt.Sprintf("Bot: %s", yesNo(entity.Bot)))
		lines = append(lines, fmt.Sprintf("Verified: %s", yesNo(entity.Verified)))
	} else {
		lines = append(lines, fmt.Sprintf("Title: %s", entity.Title))
		switch {
		case entity.Kind == telegram.KindGroup:
			lines = append(lines, "Type: Group (Basic)")
		case entity.Broadcast:
			lines = append(lines, "Type: Channel")
		default:
			lines = append(lines, "Type: Supergroup")
		}
		if entity.Username != "" {
			lines = append(lines, fmt.Sprintf("Username: @%s", entity.Username))
		}
		if count, cerr := s.tg.ParticipantsCount(ctx, ref); cerr != nil {
			lines = append(lines, fmt.Sprintf("Participants: Error fetching (%v)", cerr))
		} else {
			lines = append(lines, fmt.Sprintf("Participants: %d", count))
		}
	}

	if dialog, derr := s.tg.PeerDialog(ctx, ref); derr != nil {
		s.logger.Debug("dialog info unavailable", "chat_id", ref.String(), "error", derr)
	} else {
		lines = append(lines, fmt.Sprintf("Unread Messages: %d", dialog.UnreadCount))
		if m := dialog.LastMessage; m != nil {
			lines = append(lines, fmt.Sprintf("Last Message: From %s at %s", m.SenderName, telegram.FormatTime(m.Date)))
			text := m.Text
			if text == "" {
				text = "[Media/No text]"
			}
			lines = append(lines, fmt.Sprintf("Message: %s", text))
		}
	}

	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func (s *Server) subscribePublicChannelTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "subscribe_public_channel",
		Description: "Subscribe to a public channel by username",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"channel_username": mcp.StringProperty("Public channel username"),
			},
			[]string{"channel_username"},
		),
		Handler: s.handleSubscribePublicChannel,
	}
}

func (s *Server) handleSubscribePublicChannel(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	username, err := mcp.GetStringParam(params, "channel_username", true)
	if err != nil {
		return nil, err
	}

	ref := common.ChatRef{Username: username}
	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.chats.Format("subscribe_public_channel", err, "channel_username", username)), nil
	}

	err = s.tg.JoinChannel(ctx, ref)
	switch {
	case errors.Is(err, telegram.ErrAlreadyParticipant):
		return mcp.TextResult(fmt.Sprintf("Already subscribed to %s.", entity.Title)), nil
	case errors.Is(err, telegram.ErrChannelPrivate):
		return mcp.TextResult("Cannot subscribe: this channel is private or requires an invite link."), nil
	case err != nil:
		return mcp.TextResult(s.chats.Format("subscribe_public_channel", err, "channel_username", username)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Subscribed to %s.", entity.Title)), nil
}

func (s *Server) leaveChatTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "leave_chat",
		Description: "Leave a group or channel",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleLeaveChat,
	}
}

func (s *Server) handleLeaveChat(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.chats.Format("leave_chat", err, "chat_id", params["chat_id"])), nil
	}

	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.chats.Format("leave_chat", err, "chat_id", ref.String())), nil
	}

	switch entity.Kind {
	case telegram.KindChannel:
		if err := s.tg.LeaveChannel(ctx, ref); err != nil {
			return mcp.TextResult(s.chats.Format("leave_chat", err, "chat_id", ref.String())), nil
		}
		return mcp.TextResult(fmt.Sprintf("Left channel/supergroup %s (ID: %s).", entity.Title, ref)), nil
	case telegram.KindGroup:
		if err := s.tg.LeaveBasicGroup(ctx, ref); err != nil {
			return mcp.TextResult(s.chats.Format("leave_chat", err, "chat_id", ref.String())), nil
		}
		return mcp.TextResult(fmt.Sprintf("Left basic group %s (ID: %s).", entity.Title, ref)), nil
	default:
		err := fmt.Errorf("cannot leave chat ID %s of type %s, this function is for groups and channels only", ref, entity.Kind)
		return mcp.TextResult(s.chats.Format("leave_chat", err, "chat_id", ref.String())), nil
	}
}

func (s *Server) getParticipantsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_participants",
		Description: "List participants of a group or channel",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleGetParticipants,
	}
}

func (s *Server) handleGetParticipants(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.chats.Format("get_participants", err, "chat_id", params["chat_id"])), nil
	}

	users, err := s.tg.Participants(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.chats.Format("get_participants", err, "chat_id", ref.String())), nil
	}

	lines := make([]string, 0, len(users))
	for _, u := range users {
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("ID: %d, Name: %s %s", u.ID, u.FirstName, u.LastName)))
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) createGroupTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_group",
		Description: "Create a new basic group with initial members",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"title":    mcp.StringProperty("Group title"),
				"user_ids": mcp.IDListProperty("Users to add, by ID or username"),
			},
			[]string{"title", "user_ids"},
		),
		Handler: s.handleCreateGroup,
	}
}

func (s *Server) handleCreateGroup(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	title, err := mcp.GetStringParam(params, "title", true)
	if err != nil {
		return nil, err
	}
	raw, ok := params["user_ids"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("parameter user_ids must be an array")
	}

	refs, err := common.ValidateIDList("user_ids", raw)
	if err != nil {
		return mcp.TextResult(s.groups.Format("create_group", err, "title", title)), nil
	}

	ids := make([]int64, 0, len(refs))
	for _, r := range refs {
		user, rerr := s.tg.ResolveEntity(ctx, r)
		if rerr != nil {
			return mcp.TextResult(fmt.Sprintf("Error: Could not find user with ID %s", r)), nil
		}
		ids = append(ids, user.ID)
	}
	if len(ids) == 0 {
		return mcp.TextResult("Error: No valid users provided"), nil
	}

	created, err := s.tg.CreateGroup(ctx, title, ids)
	if errors.Is(err, telegram.ErrPeerFlood) {
		return mcp.TextResult("Error: Cannot create group due to Telegram limits. Try again later."), nil
	}
	if err != nil {
		return mcp.TextResult(s.groups.Format("create_group", err, "title", title)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Group created with ID: %d", created.ID)), nil
}

func (s *Server) inviteToGroupTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "invite_to_group",
		Description: "Invite users to a group or channel",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"group_id": mcp.IDProperty("Group or channel ID or username"),
				"user_ids": mcp.IDListProperty("Users to invite, by ID or username"),
			},
			[]string{"group_id", "user_ids"},
		),
		Handler: s.handleInviteToGroup,
	}
}

func (s *Server) handleInviteToGroup(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("group_id", params["group_id"])
	if err != nil {
		return mcp.TextResult(s.groups.Format("invite_to_group", err, "group_id", params["group_id"])), nil
	}
	raw, ok := params["user_ids"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("parameter user_ids must be an array")
	}
	refs, err := common.ValidateIDList("user_ids", raw)
	if err != nil {
		return mcp.TextResult(s.groups.Format("invite_to_group", err, "group_id", ref.String())), nil
	}

	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.groups.Format("invite_to_group", err, "group_id", ref.String())), nil
	}

	ids := make([]int64, 0, len(refs))
	for _, r := range refs {
		user, rerr := s.tg.ResolveEntity(ctx, r)
		if rerr != nil {
			return mcp.TextResult(fmt.Sprintf("Error: User with ID %s could not be found. %v", r, rerr)), nil
		}
		ids = append(ids, user.ID)
	}

	err = s.tg.InviteToGroup(ctx, ref, ids)
	switch {
	case errors.Is(err, telegram.ErrNotMutualContact):
		return mcp.TextResult("Error: Cannot invite users who are not mutual contacts. Please ensure the users are in your contacts and have added you back."), nil
	case errors.Is(err, telegram.ErrPrivacyRestricted):
		return mcp.TextResult("Error: One or more users have privacy settings that prevent you from adding them."), nil
	case err != nil:
		return mcp.TextResult(s.groups.Format("invite_to_group", err, "group_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Successfully invited %d users to %s", len(ids), entity.Title)), nil
}

func (s *Server) createChannelTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_channel",
		Description: "Create a new channel or supergroup",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"title":     mcp.StringProperty("Channel title"),
				"about":     mcp.StringProperty("Channel description"),
				"megagroup": mcp.BoolProperty("Create a supergroup instead of a broadcast channel"),
			},
			[]string{"title"},
		),
		Handler: s.handleCreateChannel,
	}
}

func (s *Server) handleCreateChannel(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	title, err := mcp.GetStringParam(params, "title", true)
	if err != nil {
		return nil, err
	}
	about, err := mcp.GetStringParam(params, "about", false)
	if err != nil {
		return nil, err
	}
	megagroup, err := mcp.GetBoolParam(params, "megagroup", false)
	if err != nil {
		return nil, err
	}

	created, err := s.tg.CreateChannel(ctx, title, about, megagroup)
	if err != nil {
		return mcp.TextResult(s.groups.Format("create_channel", err, "title", title)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Channel '%s' created with ID: %d", title, created.ID)), nil
}

func (s *Server) editChatTitleTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "edit_chat_title",
		Description: "Change the title of a group or channel",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
				"title":   mcp.StringProperty("New title"),
			},
			[]string{"chat_id", "title"},
		),
		Handler: s.handleEditChatTitle,
	}
}

func (s *Server) handleEditChatTitle(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.chats.Format("edit_chat_title", err, "chat_id", params["chat_id"])), nil
	}
	title, err := mcp.GetStringParam(params, "title", true)
	if err != nil {
		return nil, err
	}

	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.chats.Format("edit_chat_title", err, "chat_id", ref.String())), nil
	}

	switch entity.Kind {
	case telegram.KindChannel:
		err = s.tg.EditChannelTitle(ctx, ref, title)
	case telegram.KindGroup:
		err = s.tg.EditBasicGroupTitle(ctx, ref, title)
	default:
		return mcp.TextResult(fmt.Sprintf("Cannot edit title for this entity type (%s).", entity.Kind)), nil
	}
	if err != nil {
		return mcp.TextResult(s.chats.Format("edit_chat_title", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Chat %s title updated to '%s'.", ref, title)), nil
}

func (s *Server) listTopicsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_topics",
		Description: "List forum topics of a supergroup",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Supergroup ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleListTopics,
	}
}

func (s *Server) handleListTopics(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.chats.Format("list_topics", err, "chat_id", params["chat_id"])), nil
	}

	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.chats.Format("list_topics", err, "chat_id", ref.String())), nil
	}
	if !entity.Megagroup {
		return mcp.TextResult("The specified chat is not a supergroup."), nil
	}
	if !entity.Forum {
		return mcp.TextResult("The specified supergroup does not have forum topics enabled."), nil
	}

	topics, err := s.tg.ForumTopics(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.chats.Format("list_topics", err, "chat_id", ref.String())), nil
	}
	if len(topics) == 0 {
		return mcp.TextResult("No topics found for this chat."), nil
	}

	lines := make([]string, 0, len(topics))
	for _, t := range topics {
		title := t.Title
		if title == "" {
			title = "(no title)"
		}
		parts := []string{
			fmt.Sprintf("Topic ID: %d", t.ID),
			fmt.Sprintf("Title: %s", title),
		}
		if t.UnreadCount > 0 {
			parts = append(parts, fmt.Sprintf("Unread: %d", t.UnreadCount))
		}
		if t.Closed {
			parts = append(parts, "Closed: Yes")
		}
		if t.Hidden {
			parts = append(parts, "Hidden: Yes")
		}
		if !t.LastDate.IsZero() {
			parts = append(parts, fmt.Sprintf("Last Activity: %s", telegram.FormatTimeISO(t.LastDate)))
		}
		lines = append(lines, strings.Join(parts, " | "))
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) searchPublicChatsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_public_chats",
		Description: "Search Telegram for public users by name or username",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"query": mcp.StringProperty("Search query"),
			},
			[]string{"query"},
		),
		Handler: s.handleSearchPublicChats,
	}
}

func (s *Server) handleSearchPublicChats(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	query, err := mcp.GetStringParam(params, "query", true)
	if err != nil {
		return nil, err
	}

	found, err := s.tg.SearchPublic(ctx, query, 20)
	if err != nil {
		return mcp.TextResult(s.chats.Format("search_public_chats", err, "query", query)), nil
	}

	views := make([]telegram.EntityView, 0, len(found))
	for i := range found {
		views = append(views, found[i].View())
	}
	return mcp.JSONResult(views)
}

func (s *Server) muteChatTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "mute_chat",
		Description: "Mute notifications for a chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleMuteChat,
	}
}

func (s *Server) handleMuteChat(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.chats.Format("mute_chat", err, "chat_id", params["chat_id"])), nil
	}
	if err := s.tg.SetMuteUntil(ctx, ref, muteForever); err != nil {
		return mcp.TextResult(s.chats.Format("mute_chat", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Chat %s muted.", ref)), nil
}

func (s *Server) unmuteChatTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "unmute_chat",
		Description: "Unmute notifications for a chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleUnmuteChat,
	}
}

func (s *Server) handleUnmuteChat(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.chats.Format("unmute_chat", err, "chat_id", params["chat_id"])), nil
	}
	if err := s.tg.SetMuteUntil(ctx, ref, 0); err != nil {
		return mcp.TextResult(s.chats.Format("unmute_chat", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Chat %s unmuted.", ref)), nil
}

func (s *Server) archiveChatTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "archive_chat",
		Description: "Move a chat to the archive folder",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleArchiveChat,
	}
}

func (s *Server) handleArchiveChat(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.chats.Format("archive_chat", err, "chat_id", params["chat_id"])), nil
	}
	if err := s.tg.SetDialogFolder(ctx, ref, 1); err != nil {
		return mcp.TextResult(s.chats.Format("archive_chat", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Chat %s archived.", ref)), nil
}

func (s *Server) unarchiveChatTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "unarchive_chat",
		Description: "Move a chat out of the archive folder",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleUnarchiveChat,
	}
}

func (s *Server) handleUnarchiveChat(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.chats.Format("unarchive_chat", err, "chat_id", params["chat_id"])), nil
	}
	if err := s.tg.SetDialogFolder(ctx, ref, 0); err != nil {
		return mcp.TextResult(s.chats.Format("unarchive_chat", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Chat %s unarchived.", ref)), nil
}

func (s *Server) getInviteLinkTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_invite_link",
		Description: "Get an invite link for a group or channel",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleGetInviteLink,
	}
}

func (s *Server) handleGetInviteLink(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.chats.Format("get_invite_link", err, "chat_id", params["chat_id"])), nil
	}

	link, err := s.tg.ExportInvite(ctx, ref)
	if err == nil && link != "" {
		return mcp.TextResult(link), nil
	}
	if err != nil {
		s.logger.Warn("export invite failed, falling back to full chat info", "chat_id", ref.String(), "error", err)
	}

	link, err = s.tg.FullChatInviteLink(ctx, ref)
	if err != nil {
		s.logger.Warn("full chat invite lookup failed", "chat_id", ref.String(), "error", err)
		return mcp.TextResult("Could not retrieve invite link for this chat."), nil
	}
	if link == "" {
		return mcp.TextResult("No invite link available."), nil
	}
	return mcp.TextResult(link), nil
}

func (s *Server) joinChatByLinkTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "join_chat_by_link",
		Description: "Join a chat by invite link",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"link": mcp.StringProperty("Invite link or hash"),
			},
			[]string{"link"},
		),
		Handler: s.handleJoinChatByLink,
	}
}

func (s *Server) handleJoinChatByLink(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	link, err := mcp.GetStringParam(params, "link", true)
	if err != nil {
		return nil, err
	}

	hash := link
	if i := strings.LastIndex(hash, "/"); i >= 0 {
		hash = hash[i+1:]
	}
	hash = strings.TrimPrefix(hash, "+")

	info, checkErr := s.tg.CheckInvite(ctx, hash)
	if checkErr == nil && info.Already {
		return mcp.TextResult(fmt.Sprintf("You are already a member of this chat: %s", info.Title)), nil
	}
	if checkErr != nil {
		s.logger.Debug("invite check failed", "hash", hash, "error", checkErr)
	}

	title, err := s.tg.ImportInvite(ctx, hash)
	switch {
	case errors.Is(err, telegram.ErrInviteExpired):
		return mcp.TextResult("The invite hash has expired and is no longer valid."), nil
	case errors.Is(err, telegram.ErrInviteInvalid):
		return mcp.TextResult("The invite hash is invalid or malformed."), nil
	case errors.Is(err, telegram.ErrAlreadyParticipant):
		return mcp.TextResult("You are already a member of this chat."), nil
	case err != nil:
		return mcp.TextResult(fmt.Sprintf("Error joining chat: %v", err)), nil
	}
	if title != "" {
		return mcp.TextResult(fmt.Sprintf("Successfully joined chat: %s", title)), nil
	}
	return mcp.TextResult("Joined chat via invite hash."), nil
}

func (s *Server) exportChatInviteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "export_chat_invite",
		Description: "Export a fresh invite link for a chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleExportChatInvite,
	}
}

func (s *Server) handleExportChatInvite(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.chats.Format("export_chat_invite", err, "chat_id", params["chat_id"])), nil
	}

	link, err := s.tg.ExportInvite(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.chats.Format("export_chat_invite", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(link), nil
}

func (s *Server) importChatInviteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "import_chat_invite",
		Description: "Join a chat by invite hash",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"hash": mcp.StringProperty("Invite hash, without the t.me prefix"),
			},
			[]string{"hash"},
		),
		Handler: s.handleImportChatInvite,
	}
}

func (s *Server) handleImportChatInvite(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	hash, err := mcp.GetStringParam(params, "hash", true)
	if err != nil {
		return nil, err
	}
	hash = strings.TrimPrefix(hash, "+")

	title, err := s.tg.ImportInvite(ctx, hash)
	switch {
	case errors.Is(err, telegram.ErrInviteExpired):
		return mcp.TextResult("The invite hash has expired and is no longer valid."), nil
	case errors.Is(err, telegram.ErrInviteInvalid):
		return mcp.TextResult("The invite hash is invalid or malformed."), nil
	case errors.Is(err, telegram.ErrAlreadyParticipant):
		return mcp.TextResult("You are already a member of this chat."), nil
	case errors.Is(err, telegram.ErrInviteRequestPending):
		return mcp.TextResult("Cannot join this chat - requires admin approval."), nil
	case errors.Is(err, telegram.ErrChatFull):
		return mcp.TextResult("Cannot join this chat - it has reached maximum number of participants."), nil
	case err != nil:
		return mcp.TextResult(s.chats.Format("import_chat_invite", err, "hash", hash)), nil
	}
	if title != "" {
		return mcp.TextResult(fmt.Sprintf("Successfully joined chat: %s", title)), nil
	}
	return mcp.TextResult("Joined chat via invite hash."), nil
}
