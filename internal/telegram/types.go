package telegram

import (
	"errors"
	"strings"
	"time"
)

// Entity kinds as reported by Kind.
const (
	KindUser    = "user"
	KindGroup   = "group"
	KindChannel = "channel"
)

// Well-known remote error conditions, translated from RPC error strings so
// tools can branch on them instead of substring-matching.
var (
	ErrPeerNotFound         = errors.New("peer not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNoMedia              = errors.New("message has no media")
	ErrAlreadyParticipant   = errors.New("already a participant")
	ErrChannelPrivate       = errors.New("channel is private")
	ErrNotMutualContact     = errors.New("user is not a mutual contact")
	ErrPrivacyRestricted    = errors.New("user privacy settings forbid this")
	ErrInviteExpired        = errors.New("invite hash expired")
	ErrInviteInvalid        = errors.New("invite hash invalid")
	ErrInviteRequestPending = errors.New("join requires admin approval")
	ErrChatFull             = errors.New("chat participant limit reached")
	ErrPeerFlood            = errors.New("peer flood limit hit")
	ErrNotAuthorized        = errors.New("session is not authorized")
)

// Entity is a resolved Telegram peer: a user, a basic group, or a channel
// (broadcast channels and supergroups are both channels).
type Entity struct {
	ID        int64
	Kind      string
	Title     string
	FirstName string
	LastName  string
	Username  string
	Phone     string
	Bot       bool
	Verified  bool
	Contact   bool
	Mutual    bool
	Broadcast bool
	Megagroup bool
	Forum     bool
}

// DisplayName returns the title for groups and channels, the joined
// first/last name for users, or "Unknown" when nothing is set.
func (e *Entity) DisplayName() string {
	if e.Title != "" {
		return e.Title
	}
	name := strings.TrimSpace(e.FirstName + " " + e.LastName)
	if name == "" {
		return "Unknown"
	}
	return name
}

// MarkedID returns the Bot-API style identifier: positive for users,
// negated for basic groups and -100-prefixed for channels.
func (e *Entity) MarkedID() int64 {
	switch e.Kind {
	case KindGroup:
		return -e.ID
	case KindChannel:
		return -1000000000000 - e.ID
	}
	return e.ID
}

// EntityView is the JSON shape shared by entity-listing tools. Username and
// phone appear for users only.
type EntityView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// View renders the entity in the shared JSON shape.
func (e *Entity) View() EntityView {
	v := EntityView{ID: e.ID}
	if e.Kind == KindUser {
		v.Name = strings.TrimSpace(e.FirstName + " " + e.LastName)
		v.Type = "user"
		v.Username = e.Username
		v.Phone = e.Phone
		return v
	}
	v.Name = e.Title
	if e.Kind == KindGroup {
		v.Type = "group"
	} else {
		v.Type = "channel"
	}
	return v
}

// Dialog is one entry of the dialog list.
type Dialog struct {
	Entity       Entity
	UnreadCount  int
	UnreadMark   bool
	TopMessageID int
	Archived     bool
	LastMessage  *Message
}

// Button is one inline keyboard button of a message.
type Button struct {
	Text string
	Data []byte
	URL  string
}

// Message is a chat message with the fields the tools render.
type Message struct {
	ID          int
	Date        time.Time
	Text        string
	Out         bool
	Pinned      bool
	Service     bool
	SenderID    int64
	SenderName  string
	ReplyToID   int
	MediaType   string
	GroupedID   int64
	Views       int
	Forwards    int
	HasViews    bool
	HasForwards bool
	HasReactions bool
	ReactionCount int
	Buttons     [][]Button
}

// HasMedia reports whether the message carries a media attachment.
func (m *Message) HasMedia() bool {
	return m.MediaType != ""
}

// FlatButtons returns the inline buttons flattened row by row.
func (m *Message) FlatButtons() []Button {
	var out []Button
	for _, row := range m.Buttons {
		out = append(out, row...)
	}
	return out
}

// Topic is a forum topic of a supergroup.
type Topic struct {
	ID          int
	Title       string
	UnreadCount int
	Closed      bool
	Hidden      bool
	LastDate    time.Time
}

// Reaction is a single user's reaction on a message.
type Reaction struct {
	UserID int64
	Emoji  string
	Date   time.Time
}

// CallbackAnswer is the bot's response to a pressed inline button.
type CallbackAnswer struct {
	Message string
	Alert   bool
}

// InviteInfo describes an invite link checked before joining.
type InviteInfo struct {
	Title   string
	Already bool
}

// AdminRights mirrors the channel admin-rights flags.
type AdminRights struct {
	ChangeInfo     bool
	PostMessages   bool
	EditMessages   bool
	DeleteMessages bool
	BanUsers       bool
	InviteUsers    bool
	PinMessages    bool
	AddAdmins      bool
	Anonymous      bool
	ManageCall     bool
	Other          bool
}

// DefaultAdminRights is the right set granted when a promotion request does
// not specify one.
func DefaultAdminRights() AdminRights {
	return AdminRights{
		ChangeInfo:     true,
		PostMessages:   true,
		EditMessages:   true,
		DeleteMessages: true,
		BanUsers:       true,
		InviteUsers:    true,
		PinMessages:    true,
		ManageCall:     true,
		Other:          true,
	}
}

// Folder is a dialog filter with its peers reduced to marked IDs.
type Folder struct {
	ID              int
	Title           string
	Emoticon        string
	Contacts        bool
	NonContacts     bool
	Groups          bool
	Broadcasts      bool
	Bots            bool
	ExcludeMuted    bool
	ExcludeRead     bool
	ExcludeArchived bool
	IncludePeerIDs  []int64
	ExcludePeerIDs  []int64
	PinnedPeerIDs   []int64
}

// Contains reports whether the marked peer id is in the folder's include or
// pinned list.
func (f *Folder) Contains(peerID int64) (included, pinned bool) {
	for _, id := range f.IncludePeerIDs {
		if id == peerID {
			included = true
			break
		}
	}
	for _, id := range f.PinnedPeerIDs {
		if id == peerID {
			pinned = true
			break
		}
	}
	return included, pinned
}

// Draft is a pending draft message of one chat.
type Draft struct {
	PeerID    int64
	Message   string
	Date      time.Time
	NoWebpage bool
	ReplyToID int
}

// PollSpec describes a poll to send.
type PollSpec struct {
	Question       string
	Options        []string
	MultipleChoice bool
	Quiz           bool
	PublicVoters   bool
	CloseDate      time.Time
}

// BotCommand is one command of a bot's command list.
type BotCommand struct {
	Command     string
	Description string
}

// BotInfo is the profile of a bot account.
type BotInfo struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsBot     bool   `json:"is_bot"`
	Verified  bool   `json:"verified"`
	About     string `json:"about,omitempty"`
}

// AdminLogEntry is one event of a channel's admin log.
type AdminLogEntry struct {
	ID     int64  `json:"id"`
	Date   string `json:"date"`
	UserID int64  `json:"user_id"`
	Action string `json:"action"`
}

// PrivacyRules is the rule set attached to one privacy key.
type PrivacyRules struct {
	Key   string       `json:"key"`
	Rules []PrivacyRule `json:"rules"`
}

// PrivacyRule is one allow/disallow privacy rule.
type PrivacyRule struct {
	Type    string  `json:"type"`
	UserIDs []int64 `json:"user_ids,omitempty"`
}

// FormatTime renders a UTC timestamp the way chat listings show dates,
// e.g. "2024-01-15 10:30:45+00:00".
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05-07:00")
}

// FormatTimeISO renders a UTC timestamp in ISO-8601 form with an explicit
// offset, e.g. "2024-01-15T10:30:45+00:00".
func FormatTimeISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05-07:00")
}
