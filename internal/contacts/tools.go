package contacts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

func contactLine(e telegram.Entity) string {
	line := fmt.Sprintf("ID: %d, Name: %s", e.ID, e.DisplayName())
	if e.Username != "" {
		line += fmt.Sprintf(", Username: @%s", e.Username)
	}
	if e.Phone != "" {
		line += fmt.Sprintf(", Phone: %s", e.Phone)
	}
	return line
}

// matchesQuery reports whether a contact matches a free-form search string
// by name, username or phone number.
func matchesQuery(e telegram.Entity, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(e.DisplayName()), q) {
		return true
	}
	if e.Username != "" && strings.Contains(strings.ToLower(e.Username), q) {
		return true
	}
	if e.Phone != "" && strings.Contains(e.Phone, q) {
		return true
	}
	return false
}

func (s *Server) listContactsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_contacts",
		Description: "List all contacts of the account",
		InputSchema: mcp.BuildInputSchema(map[string]interface{}{}, nil),
		Handler:     s.handleListContacts,
	}
}

func (s *Server) handleListContacts(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	contacts, err := s.tg.Contacts(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("list_contacts", err)), nil
	}
	if len(contacts) == 0 {
		return mcp.TextResult("No contacts found."), nil
	}

	lines := make([]string, 0, len(contacts))
	for _, c := range contacts {
		lines = append(lines, contactLine(c))
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) searchContactsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_contacts",
		Description: "Search Telegram users by name, username or phone",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"query": mcp.StringProperty("Name, username or phone to search for"),
			},
			[]string{"query"},
		),
		Handler: s.handleSearchContacts,
	}
}

func (s *Server) handleSearchContacts(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	query, err := mcp.GetStringParam(params, "query", true)
	if err != nil {
		return nil, err
	}

	found, err := s.tg.SearchPublic(ctx, query, 50)
	if err != nil {
		return mcp.TextResult(s.errors.Format("search_contacts", err, "query", query)), nil
	}
	if len(found) == 0 {
		return mcp.TextResult(fmt.Sprintf("No contacts found matching '%s'.", query)), nil
	}

	lines := make([]string, 0, len(found))
	for _, c := range found {
		lines = append(lines, contactLine(c))
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) getContactIDsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_contact_ids",
		Description: "Get the user IDs of all saved contacts",
		InputSchema: mcp.BuildInputSchema(map[string]interface{}{}, nil),
		Handler:     s.handleGetContactIDs,
	}
}

func (s *Server) handleGetContactIDs(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ids, err := s.tg.ContactIDs(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_contact_ids", err)), nil
	}
	if len(ids) == 0 {
		return mcp.TextResult("No contact IDs found."), nil
	}

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return mcp.TextResult("Contact IDs: " + strings.Join(parts, ", ")), nil
}

func (s *Server) getDirectChatByContactTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_direct_chat_by_contact",
		Description: "Find the direct chat with a contact by name, username or phone",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"contact_query": mcp.StringProperty("Name, username or phone of the contact"),
			},
			[]string{"contact_query"},
		),
		Handler: s.handleGetDirectChatByContact,
	}
}

func (s *Server) handleGetDirectChatByContact(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	query, err := mcp.GetStringParam(params, "contact_query", true)
	if err != nil {
		return nil, err
	}

	contacts, err := s.tg.Contacts(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_direct_chat_by_contact", err, "contact_query", query)), nil
	}

	matched := make(map[int64]telegram.Entity)
	for _, c := range contacts {
		if matchesQuery(c, query) {
			matched[c.ID] = c
		}
	}
	if len(matched) == 0 {
		return mcp.TextResult(fmt.Sprintf("No contacts found matching '%s'.", query)), nil
	}

	dialogs, err := s.tg.Dialogs(ctx, 0)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_direct_chat_by_contact", err, "contact_query", query)), nil
	}

	var lines []string
	for _, d := range dialogs {
		if d.Entity.Kind != telegram.KindUser {
			continue
		}
		c, ok := matched[d.Entity.ID]
		if !ok {
			continue
		}
		line := fmt.Sprintf("Chat ID: %d, Contact: %s", d.Entity.ID, c.DisplayName())
		if c.Username != "" {
			line += fmt.Sprintf(", Username: @%s", c.Username)
		}
		if d.UnreadCount > 0 {
			line += fmt.Sprintf(", Unread: %d", d.UnreadCount)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		names := make([]string, 0, len(matched))
		for _, c := range contacts {
			if _, ok := matched[c.ID]; ok {
				names = append(names, c.DisplayName())
			}
		}
		return mcp.TextResult(fmt.Sprintf("Found contacts: %s, but no direct chats were found with them.", strings.Join(names, ", "))), nil
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) getContactChatsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_contact_chats",
		Description: "List the chats shared with a contact",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"contact_id": mcp.IDProperty("Contact user ID or username"),
			},
			[]string{"contact_id"},
		),
		Handler: s.handleGetContactChats,
	}
}

func (s *Server) handleGetContactChats(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("contact_id", params["contact_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_contact_chats", err, "contact_id", params["contact_id"])), nil
	}

	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_contact_chats", err, "contact_id", ref.String())), nil
	}
	if entity.Kind != telegram.KindUser {
		return mcp.TextResult(fmt.Sprintf("ID %s is not a user/contact.", ref)), nil
	}
	name := entity.DisplayName()

	var lines []string
	dialogs, err := s.tg.Dialogs(ctx, 0)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_contact_chats", err, "contact_id", ref.String())), nil
	}
	for _, d := range dialogs {
		if d.Entity.Kind == telegram.KindUser && d.Entity.ID == entity.ID {
			line := "Direct Chat ID: " + strconv.FormatInt(d.Entity.ID, 10) + ", Type: Private"
			if d.UnreadCount > 0 {
				line += fmt.Sprintf(", Unread: %d", d.UnreadCount)
			}
			lines = append(lines, line)
		}
	}

	shared, err := s.tg.CommonChats(ctx, entity.ID)
	if err != nil {
		lines = append(lines, "Could not retrieve common groups.")
	} else {
		for _, c := range shared {
			kind := "Group"
			if c.Kind == telegram.KindChannel && c.Broadcast {
				kind = "Channel"
			}
			lines = append(lines, fmt.Sprintf("Chat ID: %d, Title: %s, Type: %s", c.ID, c.Title, kind))
		}
	}

	if len(lines) == 0 {
		return mcp.TextResult(fmt.Sprintf("No chats found with %s (ID: %s).", name, ref)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Chats with %s (ID: %s):\n", name, ref) + strings.Join(lines, "\n")), nil
}

func (s *Server) getLastInteractionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_last_interaction",
		Description: "Get the most recent messages exchanged with a contact",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"contact_id": mcp.IDProperty("Contact user ID or username"),
			},
			[]string{"contact_id"},
		),
		Handler: s.handleGetLastInteraction,
	}
}

func (s *Server) handleGetLastInteraction(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("contact_id", params["contact_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_last_interaction", err, "contact_id", params["contact_id"])), nil
	}

	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_last_interaction", err, "contact_id", ref.String())), nil
	}
	name := entity.DisplayName()

	msgs, err := s.tg.HistoryPage(ctx, ref, 0, 5)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_last_interaction", err, "contact_id", ref.String())), nil
	}
	if len(msgs) == 0 {
		return mcp.TextResult(fmt.Sprintf("No messages found with %s (ID: %s).", name, ref)), nil
	}

	lines := []string{fmt.Sprintf("Last interactions with %s (ID: %s):", name, ref)}
	for _, m := range msgs {
		sender := name
		if m.Out {
			sender = "You"
		}
		text := m.Text
		if text == "" {
			text = "[Media/No text]"
		}
		lines = append(lines, fmt.Sprintf("Date: %s, From: %s, Message: %s", telegram.FormatTime(m.Date), sender, text))
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) addContactTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a contact by phone number",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"phone":      mcp.StringProperty("Phone number in international format"),
				"first_name": mcp.StringProperty("First name"),
				"last_name":  mcp.StringProperty("Last name"),
			},
			[]string{"phone", "first_name"},
		),
		Handler: s.handleAddContact,
	}
}

func (s *Server) handleAddContact(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	phone, err := mcp.GetStringParam(params, "phone", true)
	if err != nil {
		return nil, err
	}
	firstName, err := mcp.GetStringParam(params, "first_name", true)
	if err != nil {
		return nil, err
	}
	lastName, err := mcp.GetStringParam(params, "last_name", false)
	if err != nil {
		return nil, err
	}

	result, err := s.tg.ImportContacts(ctx, []telegram.PhoneContact{
		{Phone: phone, FirstName: firstName, LastName: lastName},
	})
	if err != nil {
		return mcp.TextResult(s.errors.Format("add_contact", err, "phone", phone)), nil
	}
	if result.Imported == 0 {
		return mcp.TextResult(fmt.Sprintf("Contact not added. Response: imported=%d, retry=%d", result.Imported, len(result.Retry))), nil
	}
	return mcp.TextResult(fmt.Sprintf("Contact %s %s added successfully.", firstName, lastName)), nil
}

func (s *Server) deleteContactTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "delete_contact",
		Description: "Delete a contact by user ID",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"user_id": mcp.IntProperty("User ID of the contact to delete"),
			},
			[]string{"user_id"},
		),
		Handler: s.handleDeleteContact,
	}
}

func (s *Server) handleDeleteContact(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	userID, err := mcp.GetIntParam(params, "user_id", true, 0)
	if err != nil {
		return nil, err
	}

	if err := s.tg.DeleteContact(ctx, int64(userID)); err != nil {
		return mcp.TextResult(s.errors.Format("delete_contact", err, "user_id", userID)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Contact with user ID %d deleted.", userID)), nil
}

func (s *Server) blockUserTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "block_user",
		Description: "Block a user",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"user_id": mcp.IDProperty("User ID or username to block"),
			},
			[]string{"user_id"},
		),
		Handler: s.handleBlockUser,
	}
}

func (s *Server) handleBlockUser(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("user_id", params["user_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("block_user", err, "user_id", params["user_id"])), nil
	}

	if err := s.tg.BlockPeer(ctx, ref); err != nil {
		return mcp.TextResult(s.errors.Format("block_user", err, "user_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("User %s blocked.", ref)), nil
}

func (s *Server) unblockUserTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "unblock_user",
		Description: "Unblock a user",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"user_id": mcp.IDProperty("User ID or username to unblock"),
			},
			[]string{"user_id"},
		),
		Handler: s.handleUnblockUser,
	}
}

func (s *Server) handleUnblockUser(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("user_id", params["user_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("unblock_user", err, "user_id", params["user_id"])), nil
	}

	if err := s.tg.UnblockPeer(ctx, ref); err != nil {
		return mcp.TextResult(s.errors.Format("unblock_user", err, "user_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("User %s unblocked.", ref)), nil
}

func (s *Server) importContactsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "import_contacts",
		Description: "Import multiple contacts at once",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"contacts": mcp.ArrayProperty("object", "Contacts to import, each with phone, first_name and last_name"),
			},
			[]string{"contacts"},
		),
		Handler: s.handleImportContacts,
	}
}

func (s *Server) handleImportContacts(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	raw, ok := params["contacts"]
	if !ok {
		return nil, fmt.Errorf("missing required parameter: contacts")
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("parameter contacts must be an array")
	}

	entries := make([]telegram.PhoneContact, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("parameter contacts must be an array of objects")
		}
		var pc telegram.PhoneContact
		if v, ok := m["phone"].(string); ok {
			pc.Phone = v
		}
		if v, ok := m["first_name"].(string); ok {
			pc.FirstName = v
		}
		if v, ok := m["last_name"].(string); ok {
			pc.LastName = v
		}
		entries = append(entries, pc)
	}

	result, err := s.tg.ImportContacts(ctx, entries)
	if err != nil {
		return mcp.TextResult(s.errors.Format("import_contacts", err)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Imported %d contacts.", result.Imported)), nil
}

func (s *Server) exportContactsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "export_contacts",
		Description: "Export all contacts as JSON",
		InputSchema: mcp.BuildInputSchema(map[string]interface{}{}, nil),
		Handler:     s.handleExportContacts,
	}
}

func (s *Server) handleExportContacts(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	contacts, err := s.tg.Contacts(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("export_contacts", err)), nil
	}

	views := make([]telegram.EntityView, 0, len(contacts))
	for _, c := range contacts {
		views = append(views, c.View())
	}
	return mcp.JSONResult(views)
}

func (s *Server) getBlockedUsersTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_blocked_users",
		Description: "List blocked users",
		InputSchema: mcp.BuildInputSchema(map[string]interface{}{}, nil),
		Handler:     s.handleGetBlockedUsers,
	}
}

func (s *Server) handleGetBlockedUsers(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	blocked, err := s.tg.BlockedUsers(ctx, 100)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_blocked_users", err)), nil
	}

	views := make([]telegram.EntityView, 0, len(blocked))
	for _, b := range blocked {
		views = append(views, b.View())
	}
	return mcp.JSONResult(views)
}

func (s *Server) resolveUsernameTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "resolve_username",
		Description: "Resolve a username to its user or chat details",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"username": mcp.StringProperty("Username to resolve, with or without @"),
			},
			[]string{"username"},
		),
		Handler: s.handleResolveUsername,
	}
}

func (s *Server) handleResolveUsername(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	username, err := mcp.GetStringParam(params, "username", true)
	if err != nil {
		return nil, err
	}

	entity, err := s.tg.ResolveEntity(ctx, common.ChatRef{Username: username})
	if err != nil {
		return mcp.TextResult(s.errors.Format("resolve_username", err, "username", username)), nil
	}
	return mcp.JSONResult(entity.View())
}
