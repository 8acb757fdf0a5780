package messages

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

const dateLayout = "2006-01-02"

// messageLine renders the one-line listing format shared by the history and
// search tools. Engagement counters are omitted by the search tool, and only
// some tools substitute a placeholder for empty message bodies.
func messageLine(m *telegram.Message, withEngagement, placeholder bool) string {
	line := fmt.Sprintf("ID: %d | %s | Date: %s", m.ID, m.SenderName, telegram.FormatTime(m.Date))
	if m.ReplyToID != 0 {
		line += fmt.Sprintf(" | reply to %d", m.ReplyToID)
	}
	if withEngagement {
		line += engagementSuffix(m)
	}
	text := m.Text
	if placeholder && text == "" {
		text = "[Media/No text]"
	}
	return line + fmt.Sprintf(" | Message: %s", text)
}

func engagementSuffix(m *telegram.Message) string {
	var parts []string
	if m.HasViews {
		parts = append(parts, fmt.Sprintf("views:%d", m.Views))
	}
	if m.HasForwards {
		parts = append(parts, fmt.Sprintf("forwards:%d", m.Forwards))
	}
	if m.HasReactions {
		parts = append(parts, fmt.Sprintf("reactions:%d", m.ReactionCount))
	}
	if len(parts) == 0 {
		return ""
	}
	return " | " + strings.Join(parts, ", ")
}

func textOrPlaceholder(text string) string {
	if text == "" {
		return "[Media/No text]"
	}
	return text
}

func (s *Server) getMessagesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_messages",
		Description: "Get a paginated page of messages from a chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":   mcp.IDProperty("Chat ID or username"),
				"page":      mcp.IntProperty("Page number (1-based)"),
				"page_size": mcp.IntProperty("Number of messages per page"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleGetMessages,
	}
}

func (s *Server) handleGetMessages(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_messages", err, "chat_id", params["chat_id"])), nil
	}
	page, err := mcp.GetIntParam(params, "page", false, 1)
	if err != nil {
		return nil, err
	}
	pageSize, err := mcp.GetIntParam(params, "page_size", false, 20)
	if err != nil {
		return nil, err
	}

	msgs, err := s.tg.HistoryPage(ctx, ref, (page-1)*pageSize, pageSize)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_messages", err, "chat_id", ref.String(), "page", page)), nil
	}
	if len(msgs) == 0 {
		return mcp.TextResult("No messages found for this page."), nil
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, messageLine(m, true, false))
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) sendMessageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "send_message",
		Description: "Send a text message to a chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
				"message": mcp.StringProperty("Message text"),
			},
			[]string{"chat_id", "message"},
		),
		Handler: s.handleSendMessage,
	}
}

func (s *Server) handleSendMessage(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("send_message", err, "chat_id", params["chat_id"])), nil
	}
	message, err := mcp.GetStringParam(params, "message", true)
	if err != nil {
		return nil, err
	}

	if err := s.tg.SendMessage(ctx, ref, message); err != nil {
		return mcp.TextResult(s.errors.Format("send_message", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult("Message sent successfully."), nil
}

func (s *Server) listMessagesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_messages",
		Description: "List messages in a chat with optional text and date filters",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":      mcp.IDProperty("Chat ID or username"),
				"limit":        mcp.IntProperty("Maximum number of messages"),
				"search_query": mcp.StringProperty("Filter messages containing this text"),
				"from_date":    mcp.StringProperty("Oldest date to include, YYYY-MM-DD"),
				"to_date":      mcp.StringProperty("Newest date to include, YYYY-MM-DD"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleListMessages,
	}
}

func (s *Server) handleListMessages(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("list_messages", err, "chat_id", params["chat_id"])), nil
	}
	limit, err := mcp.GetIntParam(params, "limit", false, 20)
	if err != nil {
		return nil, err
	}
	searchQuery, err := mcp.GetStringParam(params, "search_query", false)
	if err != nil {
		return nil, err
	}
	fromDate, err := mcp.GetStringParam(params, "from_date", false)
	if err != nil {
		return nil, err
	}
	toDate, err := mcp.GetStringParam(params, "to_date", false)
	if err != nil {
		return nil, err
	}

	var minDate, maxDate time.Time
	if fromDate != "" {
		minDate, err = time.Parse(dateLayout, fromDate)
		if err != nil {
			return mcp.TextResult("Invalid from_date format. Use YYYY-MM-DD."), nil
		}
	}
	if toDate != "" {
		parsed, perr := time.Parse(dateLayout, toDate)
		if perr != nil {
			return mcp.TextResult("Invalid to_date format. Use YYYY-MM-DD."), nil
		}
		// Inclusive upper bound: the whole of to_date counts.
		maxDate = parsed.Add(24*time.Hour - time.Microsecond)
	}

	msgs, err := s.tg.SearchHistory(ctx, ref, searchQuery, minDate, maxDate, limit)
	if err != nil {
		return mcp.TextResult(s.errors.Format("list_messages", err, "chat_id", ref.String())), nil
	}
	if len(msgs) == 0 {
		return mcp.TextResult("No messages found matching the criteria."), nil
	}

	// With a lower date bound the listing reads oldest first.
	if fromDate != "" {
		for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
			msgs[i], msgs[j] = msgs[j], msgs[i]
		}
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, messageLine(m, true, true))
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) getMessageContextTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_message_context",
		Description: "Get the messages surrounding a specific message",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":      mcp.IDProperty("Chat ID or username"),
				"message_id":   mcp.IntProperty("Message to center the context on"),
				"context_size": mcp.IntProperty("Messages to include on each side"),
			},
			[]string{"chat_id", "message_id"},
		),
		Handler: s.handleGetMessageContext,
	}
}

func (s *Server) handleGetMessageContext(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_message_context", err, "chat_id", params["chat_id"])), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", true, 0)
	if err != nil {
		return nil, err
	}
	contextSize, err := mcp.GetIntParam(params, "context_size", false, 5)
	if err != nil {
		return nil, err
	}

	target, err := s.tg.GetMessage(ctx, ref, messageID)
	if errors.Is(err, telegram.ErrMessageNotFound) {
		return mcp.TextResult(fmt.Sprintf("Message with ID %d not found in chat %s.", messageID, ref)), nil
	}
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_message_context", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}

	before, err := s.tg.HistoryBefore(ctx, ref, messageID, contextSize)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_message_context", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}
	after, err := s.tg.HistoryAfter(ctx, ref, messageID, contextSize)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_message_context", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}

	window := make([]*telegram.Message, 0, len(before)+len(after)+1)
	window = append(window, before...)
	window = append(window, target)
	window = append(window, after...)
	sort.Slice(window, func(i, j int) bool { return window[i].ID < window[j].ID })

	lines := []string{fmt.Sprintf("Context for message %d in chat %s:", messageID, ref)}
	for _, m := range window {
		head := fmt.Sprintf("ID: %d | %s | %s", m.ID, m.SenderName, telegram.FormatTime(m.Date))
		if m.ID == messageID {
			head += " [THIS MESSAGE]"
		}
		if m.ReplyToID != 0 {
			replied, rerr := s.tg.GetMessage(ctx, ref, m.ReplyToID)
			if rerr != nil {
				head += fmt.Sprintf(" | reply to %d (original message not found)", m.ReplyToID)
			} else {
				head += fmt.Sprintf(" | reply to %d\n  → Replied message: [%s] %s",
					m.ReplyToID, replied.SenderName, textOrPlaceholder(replied.Text))
			}
		}
		lines = append(lines, head+"\n"+textOrPlaceholder(m.Text)+"\n")
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) forwardMessageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "forward_message",
		Description: "Forward a message to another chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"from_chat_id": mcp.IDProperty("Source chat ID or username"),
				"to_chat_id":   mcp.IDProperty("Destination chat ID or username"),
				"message_id":   mcp.IntProperty("Message to forward"),
			},
			[]string{"from_chat_id", "to_chat_id", "message_id"},
		),
		Handler: s.handleForwardMessage,
	}
}

func (s *Server) handleForwardMessage(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	from, err := common.ValidateID("from_chat_id", params["from_chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("forward_message", err, "from_chat_id", params["from_chat_id"])), nil
	}
	to, err := common.ValidateID("to_chat_id", params["to_chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("forward_message", err, "to_chat_id", params["to_chat_id"])), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", true, 0)
	if err != nil {
		return nil, err
	}

	if err := s.tg.ForwardMessage(ctx, from, to, messageID); err != nil {
		return mcp.TextResult(s.errors.Format("forward_message", err, "from_chat_id", from.String(), "to_chat_id", to.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Message %d forwarded from %s to %s.", messageID, from, to)), nil
}

func (s *Server) editMessageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "edit_message",
		Description: "Edit a previously sent message",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":    mcp.IDProperty("Chat ID or username"),
				"message_id": mcp.IntProperty("Message to edit"),
				"new_text":   mcp.StringProperty("Replacement text"),
			},
			[]string{"chat_id", "message_id", "new_text"},
		),
		Handler: s.handleEditMessage,
	}
}

func (s *Server) handleEditMessage(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("edit_message", err, "chat_id", params["chat_id"])), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", true, 0)
	if err != nil {
		return nil, err
	}
	newText, err := mcp.GetStringParam(params, "new_text", true)
	if err != nil {
		return nil, err
	}

	if err := s.tg.EditMessage(ctx, ref, messageID, newText); err != nil {
		return mcp.TextResult(s.errors.Format("edit_message", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Message %d edited.", messageID)), nil
}

func (s *Server) deleteMessageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "delete_message",
		Description: "Delete a message for all participants",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":    mcp.IDProperty("Chat ID or username"),
				"message_id": mcp.IntProperty("Message to delete"),
			},
			[]string{"chat_id", "message_id"},
		),
		Handler: s.handleDeleteMessage,
	}
}

func (s *Server) handleDeleteMessage(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("delete_message", err, "chat_id", params["chat_id"])), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", true, 0)
	if err != nil {
		return nil, err
	}

	if err := s.tg.DeleteMessage(ctx, ref, messageID); err != nil {
		return mcp.TextResult(s.errors.Format("delete_message", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Message %d deleted.", messageID)), nil
}

func (s *Server) pinMessageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "pin_message",
		Description: "Pin a message in a chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":    mcp.IDProperty("Chat ID or username"),
				"message_id": mcp.IntProperty("Message to pin"),
			},
			[]string{"chat_id", "message_id"},
		),
		Handler: s.handlePinMessage,
	}
}

func (s *Server) handlePinMessage(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("pin_message", err, "chat_id", params["chat_id"])), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", true, 0)
	if err != nil {
		return nil, err
	}

	if err := s.tg.PinMessage(ctx, ref, messageID, true); err != nil {
		return mcp.TextResult(s.errors.Format("pin_message", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Message %d pinned in chat %s.", messageID, ref)), nil
}

func (s *Server) unpinMessageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "unpin_message",
		Description: "Unpin a message in a chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":    mcp.IDProperty("Chat ID or username"),
				"message_id": mcp.IntProperty("Message to unpin"),
			},
			[]string{"chat_id", "message_id"},
		),
		Handler: s.handleUnpinMessage,
	}
}

func (s *Server) handleUnpinMessage(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("unpin_message", err, "chat_id", params["chat_id"])), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", true, 0)
	if err != nil {
		return nil, err
	}

	if err := s.tg.PinMessage(ctx, ref, messageID, false); err != nil {
		return mcp.TextResult(s.errors.Format("unpin_message", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Message %d unpinned in chat %s.", messageID, ref)), nil
}

func (s *Server) markAsReadTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "mark_as_read",
		Description: "Mark all messages in a chat as read",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleMarkAsRead,
	}
}

func (s *Server) handleMarkAsRead(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("mark_as_read", err, "chat_id", params["chat_id"])), nil
	}

	if err := s.tg.MarkRead(ctx, ref); err != nil {
		return mcp.TextResult(s.errors.Format("mark_as_read", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Marked all messages as read in chat %s.", ref)), nil
}

func (s *Server) replyToMessageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "reply_to_message",
		Description: "Reply to a specific message",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":    mcp.IDProperty("Chat ID or username"),
				"message_id": mcp.IntProperty("Message to reply to"),
				"text":       mcp.StringProperty("Reply text"),
			},
			[]string{"chat_id", "message_id", "text"},
		),
		Handler: s.handleReplyToMessage,
	}
}

func (s *Server) handleReplyToMessage(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("reply_to_message", err, "chat_id", params["chat_id"])), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", true, 0)
	if err != nil {
		return nil, err
	}
	text, err := mcp.GetStringParam(params, "text", true)
	if err != nil {
		return nil, err
	}

	if err := s.tg.SendReply(ctx, ref, messageID, text); err != nil {
		return mcp.TextResult(s.errors.Format("reply_to_message", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Replied to message %d in chat %s.", messageID, ref)), nil
}

func (s *Server) searchMessagesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_messages",
		Description: "Search messages in a chat by text",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
				"query":   mcp.StringProperty("Text to search for"),
				"limit":   mcp.IntProperty("Maximum number of results"),
			},
			[]string{"chat_id", "query"},
		),
		Handler: s.handleSearchMessages,
	}
}

func (s *Server) handleSearchMessages(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("search_messages", err, "chat_id", params["chat_id"])), nil
	}
	query, err := mcp.GetStringParam(params, "query", true)
	if err != nil {
		return nil, err
	}
	limit, err := mcp.GetIntParam(params, "limit", false, 20)
	if err != nil {
		return nil, err
	}

	msgs, err := s.tg.SearchHistory(ctx, ref, query, time.Time{}, time.Time{}, limit)
	if err != nil {
		return mcp.TextResult(s.errors.Format("search_messages", err, "chat_id", ref.String(), "query", query)), nil
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, messageLine(m, false, true))
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) getHistoryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_history",
		Description: "Get chat history older than a given message ID",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":   mcp.IDProperty("Chat ID or username"),
				"limit":     mcp.IntProperty("Maximum number of messages"),
				"offset_id": mcp.IntProperty("Fetch messages older than this ID"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleGetHistory,
	}
}

func (s *Server) handleGetHistory(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_history", err, "chat_id", params["chat_id"])), nil
	}
	limit, err := mcp.GetIntParam(params, "limit", false, 100)
	if err != nil {
		return nil, err
	}
	offsetID, err := mcp.GetIntParam(params, "offset_id", false, 0)
	if err != nil {
		return nil, err
	}

	msgs, err := s.tg.History(ctx, ref, offsetID, limit)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_history", err, "chat_id", ref.String())), nil
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, messageLine(m, true, false))
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) getPinnedMessagesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_pinned_messages",
		Description: "List the pinned messages of a chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleGetPinnedMessages,
	}
}

func (s *Server) handleGetPinnedMessages(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_pinned_messages", err, "chat_id", params["chat_id"])), nil
	}

	msgs, err := s.tg.PinnedMessages(ctx, ref, 50)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_pinned_messages", err, "chat_id", ref.String())), nil
	}
	if len(msgs) == 0 {
		return mcp.TextResult("No pinned messages found in this chat."), nil
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, messageLine(m, true, true))
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func (s *Server) listInlineButtonsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_inline_buttons",
		Description: "List the inline keyboard buttons of a message",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":    mcp.IDProperty("Chat ID or username"),
				"message_id": mcp.IntProperty("Message carrying the buttons"),
			},
			[]string{"chat_id", "message_id"},
		),
		Handler: s.handleListInlineButtons,
	}
}

func (s *Server) handleListInlineButtons(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("list_inline_buttons", err, "chat_id", params["chat_id"])), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", true, 0)
	if err != nil {
		return mcp.TextResult("message_id must be an integer."), nil
	}

	msg, err := s.tg.GetMessage(ctx, ref, messageID)
	if err != nil {
		return mcp.TextResult("No message with inline buttons found."), nil
	}
	buttons := msg.FlatButtons()
	if len(buttons) == 0 {
		return mcp.TextResult(fmt.Sprintf("Message %d does not contain inline buttons.", messageID)), nil
	}

	lines := []string{fmt.Sprintf("Buttons for message %d (date %s):", msg.ID, telegram.FormatTime(msg.Date))}
	for i, b := range buttons {
		lines = append(lines, buttonLine(i, b))
	}
	return mcp.TextResult(strings.Join(lines, "\n")), nil
}

func buttonLine(index int, b telegram.Button) string {
	text := b.Text
	if text == "" {
		text = "<no text>"
	}
	callback := "no"
	if len(b.Data) > 0 {
		callback = "yes"
	}
	line := fmt.Sprintf("[%d] text='%s', callback=%s", index, text, callback)
	if b.URL != "" {
		line += fmt.Sprintf(", url=%s", b.URL)
	}
	return line
}

func (s *Server) pressInlineButtonTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "press_inline_button",
		Description: "Press an inline keyboard button by text or index",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":      mcp.IDProperty("Chat ID or username"),
				"button_text":  mcp.StringProperty("Visible text of the button to press"),
				"button_index": mcp.IntProperty("Zero-based index over the flattened button rows"),
				"message_id":   mcp.IntProperty("Message carrying the buttons; the latest one is scanned when omitted"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handlePressInlineButton,
	}
}

func (s *Server) handlePressInlineButton(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("press_inline_button", err, "chat_id", params["chat_id"])), nil
	}
	buttonText, err := mcp.GetStringParam(params, "button_text", false)
	if err != nil {
		return nil, err
	}
	_, hasIndex := params["button_index"]
	if buttonText == "" && !hasIndex {
		return mcp.TextResult("Provide button_text or button_index to choose a button."), nil
	}
	buttonIndex, err := mcp.GetIntParam(params, "button_index", false, -1)
	if err != nil {
		return mcp.TextResult("button_index must be an integer."), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", false, 0)
	if err != nil {
		return nil, err
	}

	var msg *telegram.Message
	if messageID != 0 {
		m, merr := s.tg.GetMessage(ctx, ref, messageID)
		if merr != nil || len(m.FlatButtons()) == 0 {
			return mcp.TextResult(fmt.Sprintf("Message %d does not contain inline buttons.", messageID)), nil
		}
		msg = m
	} else {
		recent, herr := s.tg.HistoryPage(ctx, ref, 0, 50)
		if herr != nil {
			return mcp.TextResult(s.errors.Format("press_inline_button", herr, "chat_id", ref.String())), nil
		}
		for _, m := range recent {
			if len(m.FlatButtons()) > 0 {
				msg = m
				break
			}
		}
		if msg == nil {
			return mcp.TextResult("No message with inline buttons found. Specify message_id to target a specific message."), nil
		}
	}

	buttons := msg.FlatButtons()
	var chosen *telegram.Button
	if hasIndex {
		if buttonIndex < 0 || buttonIndex >= len(buttons) {
			return mcp.TextResult(fmt.Sprintf("button_index out of range. Valid indices: 0-%d.", len(buttons)-1)), nil
		}
		chosen = &buttons[buttonIndex]
	} else {
		for i := range buttons {
			if buttons[i].Text == buttonText {
				chosen = &buttons[i]
				break
			}
		}
		if chosen == nil {
			available := make([]string, 0, len(buttons))
			for i, b := range buttons {
				available = append(available, fmt.Sprintf("[%d] %s", i, b.Text))
			}
			return mcp.TextResult(fmt.Sprintf("Button not found. Available buttons: %s", strings.Join(available, ", "))), nil
		}
	}

	if chosen.URL != "" {
		return mcp.TextResult(fmt.Sprintf("Selected button opens a URL instead of sending a callback: %s", chosen.URL)), nil
	}
	if len(chosen.Data) == 0 {
		return mcp.TextResult("Selected button does not provide callback data to press."), nil
	}

	answer, err := s.tg.PressButton(ctx, ref, msg.ID, chosen.Data)
	if err != nil {
		return mcp.TextResult(s.errors.Format("press_inline_button", err, "chat_id", ref.String(), "message_id", msg.ID)), nil
	}

	var parts []string
	if answer.Message != "" {
		parts = append(parts, answer.Message)
	}
	if answer.Alert {
		parts = append(parts, "Telegram displayed an alert to the user.")
	}
	if len(parts) == 0 {
		return mcp.TextResult("Button pressed successfully."), nil
	}
	return mcp.TextResult(strings.Join(parts, " ")), nil
}

func (s *Server) sendReactionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "send_reaction",
		Description: "React to a message with an emoji",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":    mcp.IDProperty("Chat ID or username"),
				"message_id": mcp.IntProperty("Message to react to"),
				"emoji":      mcp.StringProperty("Reaction emoji"),
				"big":        mcp.BoolProperty("Send an enlarged reaction animation"),
			},
			[]string{"chat_id", "message_id", "emoji"},
		),
		Handler: s.handleSendReaction,
	}
}

func (s *Server) handleSendReaction(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("send_reaction", err, "chat_id", params["chat_id"])), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", true, 0)
	if err != nil {
		return nil, err
	}
	emoji, err := mcp.GetStringParam(params, "emoji", true)
	if err != nil {
		return nil, err
	}
	big, err := mcp.GetBoolParam(params, "big", false)
	if err != nil {
		return nil, err
	}

	if err := s.tg.SendReaction(ctx, ref, messageID, emoji, big); err != nil {
		return mcp.TextResult(s.errors.Format("send_reaction", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Reaction '%s' sent to message %d in chat %s.", emoji, messageID, ref)), nil
}

func (s *Server) removeReactionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "remove_reaction",
		Description: "Remove your reaction from a message",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":    mcp.IDProperty("Chat ID or username"),
				"message_id": mcp.IntProperty("Message to clear the reaction from"),
			},
			[]string{"chat_id", "message_id"},
		),
		Handler: s.handleRemoveReaction,
	}
}

func (s *Server) handleRemoveReaction(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("remove_reaction", err, "chat_id", params["chat_id"])), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", true, 0)
	if err != nil {
		return nil, err
	}

	if err := s.tg.SendReaction(ctx, ref, messageID, "", false); err != nil {
		return mcp.TextResult(s.errors.Format("remove_reaction", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Reaction removed from message %d in chat %s.", messageID, ref)), nil
}

// reactionView keeps nullable fields as pointers so absent values encode as
// JSON null, matching the reaction listing shape.
type reactionView struct {
	UserID *int64  `json:"user_id"`
	Emoji  *string `json:"emoji"`
	Date   *string `json:"date"`
}

type reactionsPayload struct {
	MessageID int            `json:"message_id"`
	ChatID    string         `json:"chat_id"`
	Reactions []reactionView `json:"reactions"`
	Count     int            `json:"count"`
}

func (s *Server) getMessageReactionsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_message_reactions",
		Description: "List who reacted to a message and how",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":    mcp.IDProperty("Chat ID or username"),
				"message_id": mcp.IntProperty("Message to inspect"),
				"limit":      mcp.IntProperty("Maximum number of reactions"),
			},
			[]string{"chat_id", "message_id"},
		),
		Handler: s.handleGetMessageReactions,
	}
}

func (s *Server) handleGetMessageReactions(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_message_reactions", err, "chat_id", params["chat_id"])), nil
	}
	messageID, err := mcp.GetIntParam(params, "message_id", true, 0)
	if err != nil {
		return nil, err
	}
	limit, err := mcp.GetIntParam(params, "limit", false, 100)
	if err != nil {
		return nil, err
	}

	reactions, err := s.tg.MessageReactions(ctx, ref, messageID, limit)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_message_reactions", err, "chat_id", ref.String(), "message_id", messageID)), nil
	}
	if len(reactions) == 0 {
		return mcp.TextResult(fmt.Sprintf("No reactions on message %d in chat %s.", messageID, ref)), nil
	}

	views := make([]reactionView, 0, len(reactions))
	for _, r := range reactions {
		var v reactionView
		if r.UserID != 0 {
			id := r.UserID
			v.UserID = &id
		}
		if r.Emoji != "" {
			emoji := r.Emoji
			v.Emoji = &emoji
		}
		if !r.Date.IsZero() {
			date := telegram.FormatTimeISO(r.Date)
			v.Date = &date
		}
		views = append(views, v)
	}

	return mcp.JSONResult(reactionsPayload{
		MessageID: messageID,
		ChatID:    ref.String(),
		Reactions: views,
		Count:     len(views),
	})
}
