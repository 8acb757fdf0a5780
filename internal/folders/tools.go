package folders

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

// Custom folders start at ID 2; lower IDs belong to Telegram itself.
const firstCustomFolderID = 2

type folderSummary struct {
	ID                 int     `json:"id"`
	Title              string  `json:"title"`
	Emoticon           *string `json:"emoticon"`
	Contacts           bool    `json:"contacts"`
	NonContacts        bool    `json:"non_contacts"`
	Groups             bool    `json:"groups"`
	Broadcasts         bool    `json:"broadcasts"`
	Bots               bool    `json:"bots"`
	ExcludeMuted       bool    `json:"exclude_muted"`
	ExcludeRead        bool    `json:"exclude_read"`
	ExcludeArchived    bool    `json:"exclude_archived"`
	IncludedPeersCount int     `json:"included_peers_count"`
	ExcludedPeersCount int     `json:"excluded_peers_count"`
	PinnedPeersCount   int     `json:"pinned_peers_count"`
}

type foldersPayload struct {
	Folders []folderSummary `json:"folders"`
	Count   int             `json:"count"`
}

type folderChat struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
}

type folderFilters struct {
	Contacts        bool `json:"contacts"`
	NonContacts     bool `json:"non_contacts"`
	Groups          bool `json:"groups"`
	Broadcasts      bool `json:"broadcasts"`
	Bots            bool `json:"bots"`
	ExcludeMuted    bool `json:"exclude_muted"`
	ExcludeRead     bool `json:"exclude_read"`
	ExcludeArchived bool `json:"exclude_archived"`
}

type folderDetail struct {
	ID            int           `json:"id"`
	Title         string        `json:"title"`
	Emoticon      *string       `json:"emoticon"`
	Filters       folderFilters `json:"filters"`
	IncludedChats []folderChat  `json:"included_chats"`
	ExcludedChats []folderChat  `json:"excluded_chats"`
	PinnedChats   []folderChat  `json:"pinned_chats"`
}

func emoticonOrNull(emoticon string) *string {
	if emoticon == "" {
		return nil
	}
	return &emoticon
}

// listRepr renders ints the way the reorder confirmations show them,
// e.g. [2, 3, 4].
func listRepr(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// setRepr renders a sorted id set as {3, 4}.
func setRepr(ids []int) string {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	parts := make([]string, 0, len(sorted))
	for _, id := range sorted {
		parts = append(parts, strconv.Itoa(id))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func intListParam(params map[string]interface{}, key string) ([]int, error) {
	raw, ok := params[key]
	if !ok {
		return nil, fmt.Errorf("missing required parameter: %s", key)
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("parameter %s must be an array", key)
	}

	out := make([]int, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return nil, fmt.Errorf("parameter %s must be an array of integers", key)
			}
			out = append(out, int(n))
		case float64:
			out = append(out, int(v))
		case int:
			out = append(out, v)
		case int64:
			out = append(out, int(v))
		default:
			return nil, fmt.Errorf("parameter %s must be an array of integers", key)
		}
	}
	return out, nil
}

func (s *Server) folderChats(ctx context.Context, peerIDs []int64) []folderChat {
	chats := make([]folderChat, 0, len(peerIDs))
	for _, marked := range peerIDs {
		entity, err := s.tg.ResolveMarked(ctx, marked)
		if err != nil {
			chats = append(chats, folderChat{ID: marked, Name: "Unknown", Type: "Unknown"})
			continue
		}
		chats = append(chats, folderChat{
			ID:       marked,
			Name:     entity.DisplayName(),
			Type:     folderChatType(entity),
			Username: entity.Username,
		})
	}
	return chats
}

func folderChatType(e *telegram.Entity) string {
	switch e.Kind {
	case telegram.KindUser:
		return "User"
	case telegram.KindGroup:
		return "Chat"
	default:
		return "Channel"
	}
}

func (s *Server) listFoldersTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_folders",
		Description: "List all chat folders of the account",
		InputSchema: mcp.BuildInputSchema(map[string]interface{}{}, nil),
		Handler:     s.handleListFolders,
	}
}

func (s *Server) handleListFolders(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	folders, err := s.tg.Folders(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("list_folders", err)), nil
	}
	if len(folders) == 0 {
		return mcp.TextResult("No folders found. Create one with create_folder tool."), nil
	}

	summaries := make([]folderSummary, 0, len(folders))
	for _, f := range folders {
		summaries = append(summaries, folderSummary{
			ID:                 f.ID,
			Title:              f.Title,
			Emoticon:           emoticonOrNull(f.Emoticon),
			Contacts:           f.Contacts,
			NonContacts:        f.NonContacts,
			Groups:             f.Groups,
			Broadcasts:         f.Broadcasts,
			Bots:               f.Bots,
			ExcludeMuted:       f.ExcludeMuted,
			ExcludeRead:        f.ExcludeRead,
			ExcludeArchived:    f.ExcludeArchived,
			IncludedPeersCount: len(f.IncludePeerIDs),
			ExcludedPeersCount: len(f.ExcludePeerIDs),
			PinnedPeersCount:   len(f.PinnedPeerIDs),
		})
	}
	return mcp.JSONResult(foldersPayload{Folders: summaries, Count: len(summaries)})
}

func (s *Server) getFolderTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_folder",
		Description: "Get one folder with its filters and resolved chat lists",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"folder_id": mcp.IntProperty("Folder ID from list_folders"),
			},
			[]string{"folder_id"},
		),
		Handler: s.handleGetFolder,
	}
}

func (s *Server) handleGetFolder(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	folderID, err := mcp.GetIntParam(params, "folder_id", true, 0)
	if err != nil {
		return nil, err
	}

	folders, err := s.tg.Folders(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("get_folder", err, "folder_id", folderID)), nil
	}

	var folder *telegram.Folder
	for i := range folders {
		if folders[i].ID == folderID {
			folder = &folders[i]
			break
		}
	}
	if folder == nil {
		return mcp.TextResult(fmt.Sprintf("Folder with ID %d not found. Use list_folders to see available folders.", folderID)), nil
	}

	return mcp.JSONResult(folderDetail{
		ID:       folder.ID,
		Title:    folder.Title,
		Emoticon: emoticonOrNull(folder.Emoticon),
		Filters: folderFilters{
			Contacts:        folder.Contacts,
			NonContacts:     folder.NonContacts,
			Groups:          folder.Groups,
			Broadcasts:      folder.Broadcasts,
			Bots:            folder.Bots,
			ExcludeMuted:    folder.ExcludeMuted,
			ExcludeRead:     folder.ExcludeRead,
			ExcludeArchived: folder.ExcludeArchived,
		},
		IncludedChats: s.folderChats(ctx, folder.IncludePeerIDs),
		ExcludedChats: s.folderChats(ctx, folder.ExcludePeerIDs),
		PinnedChats:   s.folderChats(ctx, folder.PinnedPeerIDs),
	})
}

func (s *Server) createFolderTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_folder",
		Description: "Create a chat folder",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"title":            mcp.StringProperty("Folder title"),
				"included_chats":   mcp.IDListProperty("Chats to include, by ID or username"),
				"emoticon":         mcp.StringProperty("Optional folder emoticon"),
				"exclude_muted":    mcp.BoolProperty("Hide muted chats"),
				"exclude_read":     mcp.BoolProperty("Hide read chats"),
				"exclude_archived": mcp.BoolProperty("Hide archived chats (default true)"),
			},
			[]string{"title", "included_chats"},
		),
		Handler: s.handleCreateFolder,
	}
}

func (s *Server) handleCreateFolder(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	title, err := mcp.GetStringParam(params, "title", true)
	if err != nil {
		return nil, err
	}
	emoticon, err := mcp.GetStringParam(params, "emoticon", false)
	if err != nil {
		return nil, err
	}
	excludeMuted, err := mcp.GetBoolParam(params, "exclude_muted", false)
	if err != nil {
		return nil, err
	}
	excludeRead, err := mcp.GetBoolParam(params, "exclude_read", false)
	if err != nil {
		return nil, err
	}
	excludeArchived, err := mcp.GetBoolParam(params, "exclude_archived", true)
	if err != nil {
		return nil, err
	}
	raw, ok := params["included_chats"]
	if !ok {
		return nil, fmt.Errorf("missing required parameter: included_chats")
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("parameter included_chats must be an array")
	}

	existing, err := s.tg.Folders(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("create_folder", err, "title", title)), nil
	}
	if len(existing) >= 10 {
		return mcp.TextResult("Cannot create folder: Telegram limit is 10 folders. Delete one first."), nil
	}

	markedIDs := make([]int64, 0, len(list))
	for _, item := range list {
		ref, verr := common.ValidateID("included_chats", item)
		if verr != nil {
			return mcp.TextResult(fmt.Sprintf("Failed to resolve chat '%v': %v", item, verr)), nil
		}
		entity, rerr := s.tg.ResolveEntity(ctx, ref)
		if rerr != nil {
			return mcp.TextResult(fmt.Sprintf("Failed to resolve chat '%v': %v", item, rerr)), nil
		}
		markedIDs = append(markedIDs, entity.MarkedID())
	}

	used := make(map[int]bool, len(existing))
	for _, f := range existing {
		used[f.ID] = true
	}
	folderID := firstCustomFolderID
	for used[folderID] {
		folderID++
	}

	folder := telegram.Folder{
		ID:              folderID,
		Title:           title,
		Emoticon:        emoticon,
		ExcludeMuted:    excludeMuted,
		ExcludeRead:     excludeRead,
		ExcludeArchived: excludeArchived,
		IncludePeerIDs:  markedIDs,
	}
	if err := s.tg.SaveFolder(ctx, folder); err != nil {
		return mcp.TextResult(s.errors.Format("create_folder", err, "title", title)), nil
	}

	return mcp.JSONResult(struct {
		Success            bool   `json:"success"`
		FolderID           int    `json:"folder_id"`
		Title              string `json:"title"`
		Emoticon           string `json:"emoticon"`
		IncludedChatsCount int    `json:"included_chats_count"`
	}{true, folderID, title, emoticon, len(markedIDs)})
}

func (s *Server) addChatToFolderTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "add_chat_to_folder",
		Description: "Add a chat to an existing folder",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":   mcp.IDProperty("Chat ID or username"),
				"folder_id": mcp.IntProperty("Folder ID from list_folders"),
				"pinned":    mcp.BoolProperty("Also pin the chat inside the folder"),
			},
			[]string{"chat_id", "folder_id"},
		),
		Handler: s.handleAddChatToFolder,
	}
}

func (s *Server) handleAddChatToFolder(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("add_chat_to_folder", err, "chat_id", params["chat_id"])), nil
	}
	folderID, err := mcp.GetIntParam(params, "folder_id", true, 0)
	if err != nil {
		return nil, err
	}
	pinned, err := mcp.GetBoolParam(params, "pinned", false)
	if err != nil {
		return nil, err
	}

	folders, err := s.tg.Folders(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("add_chat_to_folder", err, "folder_id", folderID)), nil
	}
	var folder *telegram.Folder
	for i := range folders {
		if folders[i].ID == folderID {
			folder = &folders[i]
			break
		}
	}
	if folder == nil {
		return mcp.TextResult(fmt.Sprintf("Folder with ID %d not found. Use list_folders to see available folders.", folderID)), nil
	}

	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("add_chat_to_folder", err, "chat_id", ref.String())), nil
	}
	marked := entity.MarkedID()

	included, _ := folder.Contains(marked)
	if included {
		return mcp.TextResult(fmt.Sprintf("Chat %s is already in folder %d.", ref, folderID)), nil
	}

	folder.IncludePeerIDs = append(folder.IncludePeerIDs, marked)
	if pinned {
		folder.PinnedPeerIDs = append(folder.PinnedPeerIDs, marked)
	}
	if err := s.tg.SaveFolder(ctx, *folder); err != nil {
		return mcp.TextResult(s.errors.Format("add_chat_to_folder", err, "chat_id", ref.String(), "folder_id", folderID)), nil
	}

	if pinned {
		return mcp.TextResult(fmt.Sprintf("Chat %s added to folder %d (pinned).", ref, folderID)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Chat %s added to folder %d.", ref, folderID)), nil
}

func (s *Server) removeChatFromFolderTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "remove_chat_from_folder",
		Description: "Remove a chat from a folder",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"chat_id":   mcp.IDProperty("Chat ID or username"),
				"folder_id": mcp.IntProperty("Folder ID from list_folders"),
			},
			[]string{"chat_id", "folder_id"},
		),
		Handler: s.handleRemoveChatFromFolder,
	}
}

func (s *Server) handleRemoveChatFromFolder(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	ref, err := common.ValidateID("chat_id", params["chat_id"])
	if err != nil {
		return mcp.TextResult(s.errors.Format("remove_chat_from_folder", err, "chat_id", params["chat_id"])), nil
	}
	folderID, err := mcp.GetIntParam(params, "folder_id", true, 0)
	if err != nil {
		return nil, err
	}

	folders, err := s.tg.Folders(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("remove_chat_from_folder", err, "folder_id", folderID)), nil
	}
	var folder *telegram.Folder
	for i := range folders {
		if folders[i].ID == folderID {
			folder = &folders[i]
			break
		}
	}
	if folder == nil {
		return mcp.TextResult(fmt.Sprintf("Folder with ID %d not found. Use list_folders to see available folders.", folderID)), nil
	}

	entity, err := s.tg.ResolveEntity(ctx, ref)
	if err != nil {
		return mcp.TextResult(s.errors.Format("remove_chat_from_folder", err, "chat_id", ref.String())), nil
	}
	marked := entity.MarkedID()

	included, _ := folder.Contains(marked)
	if !included {
		return mcp.TextResult(fmt.Sprintf("Chat %s was not in folder %d.", ref, folderID)), nil
	}

	folder.IncludePeerIDs = removeID(folder.IncludePeerIDs, marked)
	folder.PinnedPeerIDs = removeID(folder.PinnedPeerIDs, marked)
	if err := s.tg.SaveFolder(ctx, *folder); err != nil {
		return mcp.TextResult(s.errors.Format("remove_chat_from_folder", err, "chat_id", ref.String(), "folder_id", folderID)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Chat %s removed from folder %d.", ref, folderID)), nil
}

func removeID(ids []int64, target int64) []int64 {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func (s *Server) deleteFolderTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "delete_folder",
		Description: "Delete a custom folder",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"folder_id": mcp.IntProperty("Folder ID from list_folders"),
			},
			[]string{"folder_id"},
		),
		Handler: s.handleDeleteFolder,
	}
}

func (s *Server) handleDeleteFolder(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	folderID, err := mcp.GetIntParam(params, "folder_id", true, 0)
	if err != nil {
		return nil, err
	}
	if folderID < firstCustomFolderID {
		return mcp.TextResult(fmt.Sprintf("Cannot delete system folder (ID %d). Only custom folders can be deleted.", folderID)), nil
	}

	folders, err := s.tg.Folders(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("delete_folder", err, "folder_id", folderID)), nil
	}
	var folder *telegram.Folder
	for i := range folders {
		if folders[i].ID == folderID {
			folder = &folders[i]
			break
		}
	}
	if folder == nil {
		return mcp.TextResult(fmt.Sprintf("Folder with ID %d not found (may already be deleted).", folderID)), nil
	}

	if err := s.tg.DeleteFolder(ctx, folderID); err != nil {
		return mcp.TextResult(s.errors.Format("delete_folder", err, "folder_id", folderID)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Folder '%s' (ID %d) deleted. Chats are preserved.", folder.Title, folderID)), nil
}

func (s *Server) reorderFoldersTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "reorder_folders",
		Description: "Reorder the custom folders",
		InputSchema: mcp.BuildInputSchema(
			map[string]interface{}{
				"order": mcp.ArrayProperty("integer", "All folder IDs in the desired order"),
			},
			[]string{"order"},
		),
		Handler: s.handleReorderFolders,
	}
}

func (s *Server) handleReorderFolders(ctx context.Context, params map[string]interface{}) (*mcp.ToolResult, error) {
	order, err := intListParam(params, "order")
	if err != nil {
		return nil, err
	}

	folders, err := s.tg.Folders(ctx)
	if err != nil {
		return mcp.TextResult(s.errors.Format("reorder_folders", err)), nil
	}
	existing := make(map[int]bool, len(folders))
	for _, f := range folders {
		existing[f.ID] = true
	}

	requested := make(map[int]bool, len(order))
	for _, id := range order {
		if !existing[id] {
			return mcp.TextResult(fmt.Sprintf("Folder ID %d not found. Use list_folders to see available folders.", id)), nil
		}
		requested[id] = true
	}

	var missing []int
	for id := range existing {
		if !requested[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return mcp.TextResult(fmt.Sprintf("All folder IDs must be included. Missing: %s", setRepr(missing))), nil
	}

	if err := s.tg.ReorderFolders(ctx, order); err != nil {
		return mcp.TextResult(s.errors.Format("reorder_folders", err)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Folders reordered: %s", listRepr(order))), nil
}
