package misc

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	gopsProcess "github.com/shirou/gopsutil/v3/process"

	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

const closeDateLayout = "2006-01-02 15:04:05"

func (s *Server) createPollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_poll",
		Description: "Create a native poll in a chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":         mcp.IntProperty("Chat ID to send the poll to"),
				"question":        mcp.StringProperty("Poll question"),
				"options":         mcp.ArrayProperty("string", "Answer options (2-10)"),
				"multiple_choice": mcp.BoolProperty("Allow selecting multiple answers"),
				"quiz_mode":       mcp.BoolProperty("Quiz with a correct answer"),
				"public_votes":    mcp.BoolProperty("Votes are public (default true)"),
				"close_date":      mcp.StringProperty("Close date, YYYY-MM-DD HH:MM:SS"),
			},
			[]string{"chat_id", "question", "options"},
		),
		Handler: s.handleCreatePoll,
	}
}

func (s *Server) handleCreatePoll(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	chatID, err := mcp.GetIntParam(params, "chat_id", true, 0)
	if err != nil {
		return nil, err
	}
	question, err := mcp.GetStringParam(params, "question", true)
	if err != nil {
		return nil, err
	}
	options, err := mcp.GetStringArrayParam(params, "options", true)
	if err != nil {
		return nil, err
	}
	multipleChoice, err := mcp.GetBoolParam(params, "multiple_choice", false)
	if err != nil {
		return nil, err
	}
	quizMode, err := mcp.GetBoolParam(params, "quiz_mode", false)
	if err != nil {
		return nil, err
	}
	publicVotes, err := mcp.GetBoolParam(params, "public_votes", true)
	if err != nil {
		return nil, err
	}
	closeDate, err := mcp.GetStringParam(params, "close_date", false)
	if err != nil {
		return nil, err
	}

	if len(options) < 2 {
		return mcp.TextResult("Error: Poll must have at least 2 options."), nil
	}
	if len(options) > 10 {
		return mcp.TextResult("Error: Poll can have at most 10 options."), nil
	}

	spec := telegram.PollSpec{
		Question:       question,
		Options:        options,
		MultipleChoice: multipleChoice,
		Quiz:           quizMode,
		PublicVoters:   publicVotes,
	}
	if closeDate != "" {
		parsed, perr := time.Parse(closeDateLayout, closeDate)
		if perr != nil {
			return mcp.TextResult("Invalid close_date format. Use YYYY-MM-DD HH:MM:SS format."), nil
		}
		spec.CloseDate = parsed
	}

	if err := s.tg.SendPoll(ctx, common.ChatRef{ID: int64(chatID)}, spec); err != nil {
		return mcp.TextResult(s.errors.Format("create_poll", err, "chat_id", chatID, "question", question)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Poll created successfully in chat %d.", chatID)), nil
}

func (s *Server) saveDraftTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "save_draft",
		Description: "Save a draft message to a chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":         mcp.IDProperty("Chat ID or username"),
				"message":         mcp.StringProperty("Draft text"),
				"reply_to_msg_id": mcp.IntProperty("Message ID the draft replies to"),
				"no_webpage":      mcp.BoolProperty("Disable the link preview"),
			},
			[]string{"chat_id", "message"},
		),
		Handler: s.handleSaveDraft,
	}
}

func (s *Server) handleSaveDraft(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("save_draft", err, "chat_id", params["chat_id"])), nil
	}
	message, err := mcp.GetStringParam(params, "message", true)
	if err != nil {
		return nil, err
	}
	replyTo, err := mcp.GetIntParam(params, "reply_to_msg_id", false, 0)
	if err != nil {
		return nil, err
	}
	noWebpage, err := mcp.GetBoolParam(params, "no_webpage", false)
	if err != nil {
		return nil, err
	}

	if err := s.tg.SaveDraft(ctx, ref, message, replyTo, noWebpage); err != nil {
		return mcp.TextResult(s.errors.Format("save_draft", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Draft saved to chat %s. Open the chat in Telegram to see and send it.", ref)), nil
}

func (s *Server) getDraftsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_drafts",
		Description: "List all draft messages across chats",
		InputSchema: mcp.BuildInputSchema(map[string]interface{}{}, nil),
		Handler:     s.handleGetDrafts,
	}
}

type draftView struct {
	PeerID    int64   `json:"peer_id"`
	Message   string  `json:"message"`
	Date      *string `json:"date"`
	NoWebpage bool    `json:"no_webpage"`
	ReplyToID *int    `json:"reply_to_msg_id"`
}

type draftsPayload struct {
	Drafts []draftView `json:"drafts"`
	Count  int         `json:"count"`
}

func (s *Server) handleGetDrafts(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	drafts, err := s.tg.Drafts(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_drafts", err)), nil
	}
	if len(drafts) == 0 {
		return mcp.TextResult("No drafts found."), nil
	}

	views := make([]draftView, 0, len(drafts))
	for _, d := range drafts {
		view := draftView{
			PeerID:    d.PeerID,
			Message:   d.Message,
			NoWebpage: d.NoWebpage,
		}
		if !d.Date.IsZero() {
			date := telegram.FormatTimeISO(d.Date)
			view.Date = &date
		}
		if d.ReplyToID != 0 {
			replyTo := d.ReplyToID
			view.ReplyToID = &replyTo
		}
		views = append(views, view)
	}
	return mcp.JSONResult(draftsPayload{Drafts: views, Count: len(views)})
}

func (s *Server) clearDraftTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "clear_draft",
		Description: "Clear the draft of a chat",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id": mcp.IDProperty("Chat ID or username"),
			},
			[]string{"chat_id"},
		),
		Handler: s.handleClearDraft,
	}
}

func (s *Server) handleClearDraft(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("clear_draft", err, "chat_id", params["chat_id"])), nil
	}
	if err := s.tg.ClearDraft(ctx, ref); err != nil {
		return mcp.TextResult(s.errors.Format("clear_draft", err, "chat_id", ref.String())), nil
	}
	return mcp.TextResult(fmt.Sprintf("Draft cleared from chat %s.", ref)), nil
}

func (s *Server) getServerStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_server_status",
		Description: "Report server uptime, Telegram connectivity and resource usage",
		InputSchema: mcp.BuildInputSchema(map[string]interface{}{}, nil),
		Handler:     s.handleGetServerStatus,
	}
}

func (s *Server) handleGetServerStatus(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	result := map[string]interface{}{
		"status":         "running",
		"started_at":     s.startedAt.UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	}

	connectivity := map[string]interface{}{"connected": true}
	if err := s.tg.Ping(ctx); err != nil {
		connectivity["connected"] = false
		connectivity["error"] = err.Error()
	}
	if self := s.tg.Self(); self != nil && self.ID != 0 {
		connectivity["account_id"] = self.ID
		connectivity["username"] = self.Username
		connectivity["bot"] = self.Bot
	}
	result["telegram"] = connectivity

	if p, err := gopsProcess.NewProcess(int32(os.Getpid())); err == nil {
		proc := map[string]interface{}{"pid": os.Getpid()}
		if memInfo, err := p.MemoryInfo(); err == nil && memInfo != nil {
			proc["memory_mb"] = float64(memInfo.RSS) / (1024 * 1024)
		}
		if cpuPercent, err := p.CPUPercent(); err == nil {
			proc["cpu_percent"] = cpuPercent
		}
		result["process"] = proc
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		result["host_memory"] = map[string]interface{}{
			"total_gb":      float64(memInfo.Total) / (1024 * 1024 * 1024),
			"available_gb":  float64(memInfo.Available) / (1024 * 1024 * 1024),
			"usage_percent": memInfo.UsedPercent,
		}
	}

	return mcp.JSONResult(result)
}
