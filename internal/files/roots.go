package files

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

// RootLister is the slice of the MCP session the negotiator queries for
// client-declared roots.
type RootLister interface {
	ListRoots(ctx context.Context) ([]mcp.Root, error)
}

// PeerFromContext adapts the MCP session carried in ctx to a RootLister.
// Returns nil for direct invocation with no connected peer.
func PeerFromContext(ctx context.Context) RootLister {
	if s := mcp.SessionFromContext(ctx); s != nil {
		return s
	}
	return nil
}

// RootsSource records how the effective root list was decided.
type RootsSource int

const (
	// RootsFromServer means the static configuration applies: either no peer
	// was connected or the peer does not implement roots negotiation.
	RootsFromServer RootsSource = iota
	// RootsFromClient means the peer answered the roots query; its answer
	// replaces the server list entirely, even when empty.
	RootsFromClient
	// RootsDenied means negotiation failed in an unrecognized way and file
	// access is denied for this call.
	RootsDenied
)

func (s RootsSource) String() string {
	switch s {
	case RootsFromServer:
		return "server"
	case RootsFromClient:
		return "client"
	case RootsDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Negotiator computes the allowed-root list enforced for one call.
type Negotiator struct {
	serverRoots []string
	logger      *log.Logger
}

// NewNegotiator absolutizes the configured server roots once; everything
// else is recomputed per call.
func NewNegotiator(serverRoots []string) *Negotiator {
	abs := make([]string, 0, len(serverRoots))
	for _, root := range serverRoots {
		if root == "" {
			continue
		}
		if a, err := filepath.Abs(root); err == nil {
			abs = append(abs, a)
		}
	}
	return &Negotiator{
		serverRoots: abs,
		logger:      common.Logger().With("module", "files"),
	}
}

// ServerRoots returns the static fallback list.
func (n *Negotiator) ServerRoots() []string {
	return n.serverRoots
}

// Effective negotiates the root list for this call. Never cached: a client
// that narrows its roots between calls takes effect immediately.
func (n *Negotiator) Effective(ctx context.Context, peer RootLister) ([]string, RootsSource) {
	if peer == nil {
		n.logger.Debug("no connected peer; using server roots", "roots", len(n.serverRoots))
		return n.serverRoots, RootsFromServer
	}

	declared, err := peer.ListRoots(ctx)
	if err != nil {
		if errors.Is(err, mcp.ErrRootsUnsupported) {
			n.logger.Debug("client does not support roots negotiation; using server roots", "roots", len(n.serverRoots))
			return n.serverRoots, RootsFromServer
		}
		n.logger.Error("roots negotiation failed; denying file access", "error", err)
		return nil, RootsDenied
	}

	roots := make([]string, 0, len(declared))
	for _, root := range declared {
		if p, ok := rootPath(root); ok {
			roots = append(roots, p)
		}
	}
	if len(roots) == 0 {
		n.logger.Info("client declared no roots; file tools disabled for this call")
		return nil, RootsFromClient
	}
	n.logger.Debug("using client-declared roots", "roots", len(roots))
	return roots, RootsFromClient
}

// rootPath converts a declared root to an absolute filesystem path. Roots
// arrive as file:// URIs; bare absolute paths are tolerated.
func rootPath(root mcp.Root) (string, bool) {
	uri := root.URI
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil || u.Path == "" {
			return "", false
		}
		return filepath.FromSlash(u.Path), true
	}
	if filepath.IsAbs(uri) {
		return uri, true
	}
	return "", false
}
