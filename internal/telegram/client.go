package telegram

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net/url"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gotd/contrib/middleware/floodwait"
	"github.com/gotd/contrib/middleware/ratelimit"
	"github.com/gotd/td/session"
	tgclient "github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"

	"github.com/local-mcps/telegram-mcp/internal/common"
)

// Config carries the MTProto connection settings.
type Config struct {
	APIID         int
	APIHash       string
	SessionString string
	SessionName   string
	ProxyURL      string

	// RequestInterval and RequestBurst feed the rate-limit middleware.
	RequestInterval time.Duration
	RequestBurst    int

	// Debug enables verbose MTProto logging.
	Debug bool
}

// Client wraps a connected Telegram session. It owns a peer cache filled
// from dialog sweeps and username resolution, so repeated tool calls do not
// re-resolve the same chats.
type Client struct {
	api    *tg.Client
	self   *tg.User
	logger *charmlog.Logger

	mu        sync.Mutex
	peers     map[peerKey]*peerEntry
	usernames map[string]peerKey
	gifs      map[int64]tg.InputDocumentClass
}

// Connect establishes the session described by cfg and runs fn with a ready
// client. It returns once fn returns or the connection is torn down.
func Connect(ctx context.Context, cfg Config, fn func(ctx context.Context, c *Client) error) error {
	storage, err := sessionStorage(ctx, cfg)
	if err != nil {
		return err
	}

	opts := tgclient.Options{
		SessionStorage: storage,
		Middlewares: []tgclient.Middleware{
			floodwait.NewSimpleWaiter(),
			ratelimit.New(rate.Every(cfg.RequestInterval), cfg.RequestBurst),
		},
	}
	if cfg.Debug {
		opts.Logger = zap.Must(zap.NewDevelopment())
	}
	if cfg.ProxyURL != "" {
		dialer, err := proxyDialer(cfg.ProxyURL)
		if err != nil {
			return err
		}
		opts.Resolver = dcs.Plain(dcs.PlainOptions{Dial: dialer.DialContext})
	}

	tc := tgclient.NewClient(cfg.APIID, cfg.APIHash, opts)
	return tc.Run(ctx, func(ctx context.Context) error {
		status, err := tc.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("checking authorization: %w", err)
		}
		if !status.Authorized {
			return fmt.Errorf("%w: generate a session string and set TELEGRAM_SESSION_STRING", ErrNotAuthorized)
		}
		self, err := tc.Self(ctx)
		if err != nil {
			return fmt.Errorf("fetching own user: %w", err)
		}

		c := &Client{
			api:       tc.API(),
			self:      self,
			logger:    common.Logger().With("module", "telegram"),
			peers:     make(map[peerKey]*peerEntry),
			usernames: make(map[string]peerKey),
			gifs:      make(map[int64]tg.InputDocumentClass),
		}
		c.rememberUsers([]tg.UserClass{self})
		c.logger.Info("Connected to Telegram",
			"user_id", self.ID,
			"username", self.Username,
			"bot", self.Bot)
		return fn(ctx, c)
	})
}

// sessionStorage selects the session backend: an in-memory copy of a
// Telethon string session when one is configured, otherwise a JSON session
// file derived from the session name.
func sessionStorage(ctx context.Context, cfg Config) (session.Storage, error) {
	if cfg.SessionString != "" {
		data, err := session.TelethonSession(cfg.SessionString)
		if err != nil {
			return nil, fmt.Errorf("parsing session string: %w", err)
		}
		storage := new(session.StorageMemory)
		loader := session.Loader{Storage: storage}
		if err := loader.Save(ctx, data); err != nil {
			return nil, fmt.Errorf("importing session string: %w", err)
		}
		return storage, nil
	}
	return &session.FileStorage{Path: cfg.SessionName + ".session.json"}, nil
}

func proxyDialer(raw string) (proxy.ContextDialer, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing proxy url: %w", err)
	}
	if u.Scheme != "socks5" && u.Scheme != "socks5h" {
		return nil, fmt.Errorf("unsupported proxy scheme %q, only socks5 is supported", u.Scheme)
	}
	var auth *proxy.Auth
	if u.User != nil {
		password, _ := u.User.Password()
		auth = &proxy.Auth{User: u.User.Username(), Password: password}
	}
	dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("building socks5 dialer: %w", err)
	}
	cd, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks5 dialer does not support contexts")
	}
	return cd, nil
}

// Self returns the account's own user as an entity.
func (c *Client) Self() *Entity {
	e := entityFromUser(c.self)
	return &e
}

// translateRPC maps well-known RPC error types onto the package sentinels.
// Unrecognized errors pass through unchanged.
func translateRPC(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case tgerr.Is(err, "USER_ALREADY_PARTICIPANT"):
		return ErrAlreadyParticipant
	case tgerr.Is(err, "CHANNEL_PRIVATE"):
		return ErrChannelPrivate
	case tgerr.Is(err, "USER_NOT_MUTUAL_CONTACT"):
		return ErrNotMutualContact
	case tgerr.Is(err, "USER_PRIVACY_RESTRICTED"):
		return ErrPrivacyRestricted
	case tgerr.Is(err, "INVITE_HASH_EXPIRED"):
		return ErrInviteExpired
	case tgerr.Is(err, "INVITE_HASH_INVALID"):
		return ErrInviteInvalid
	case tgerr.Is(err, "INVITE_REQUEST_SENT"):
		return ErrInviteRequestPending
	case tgerr.Is(err, "USERS_TOO_MUCH"):
		return ErrChatFull
	case tgerr.Is(err, "PEER_FLOOD"):
		return ErrPeerFlood
	}
	return err
}

// randomID produces the client-side random identifier Telegram requires on
// outgoing messages.
func randomID() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]) & (1<<63 - 1))
}
