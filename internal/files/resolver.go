package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Denial reasons surfaced verbatim as tool results.
var (
	ErrTraversal     = errors.New("Path traversal is not allowed.")
	ErrOutsideRoots  = errors.New("Path is outside allowed roots.")
	ErrNoRoots       = errors.New("File operations are disabled: no allowed roots are available.")
	ErrClientNoRoots = errors.New("File operations are disabled: the connected client declared an empty roots list.")
)

// DefaultExtensionPolicies restricts tools that only accept specific file
// formats. Tools without an entry accept any extension.
func DefaultExtensionPolicies() map[string][]string {
	return map[string][]string{
		"send_sticker": {".webp"},
		"send_voice":   {".ogg", ".opus"},
	}
}

// Resolver turns raw tool-supplied paths into absolute paths proven to lie
// inside the negotiated roots. Resolution happens fresh on every call.
type Resolver struct {
	negotiator  *Negotiator
	extensions  map[string][]string
	downloadDir string
}

func NewResolver(negotiator *Negotiator) *Resolver {
	return &Resolver{
		negotiator:  negotiator,
		extensions:  DefaultExtensionPolicies(),
		downloadDir: "downloads",
	}
}

// ResolveReadable validates a path that will be read. Relative paths resolve
// against the first effective root. The returned error text is the denial
// reason to hand back to the client unchanged.
func (r *Resolver) ResolveReadable(ctx context.Context, peer RootLister, rawPath, tool string) (string, error) {
	roots, source := r.negotiator.Effective(ctx, peer)
	if len(roots) == 0 {
		return "", disabledError(source)
	}

	resolved := canonicalize(joinRoot(roots[0], rawPath))
	if !containedInAny(resolved, roots) {
		if hasTraversal(rawPath) {
			return "", ErrTraversal
		}
		return "", ErrOutsideRoots
	}

	if err := r.checkExtension(tool, resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

// ResolveWritable validates a path that will be written. An empty rawPath
// defaults to <first root>/downloads/<defaultFilename>, creating the
// downloads directory if needed. Containment is checked on the parent
// directory since the file itself may not exist yet.
func (r *Resolver) ResolveWritable(ctx context.Context, peer RootLister, rawPath, defaultFilename, tool string) (string, error) {
	roots, source := r.negotiator.Effective(ctx, peer)
	if len(roots) == 0 {
		return "", disabledError(source)
	}

	var target string
	if strings.TrimSpace(rawPath) == "" {
		dir := filepath.Join(canonicalize(roots[0]), r.downloadDir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("Could not create the downloads directory: %v", err)
		}
		target = filepath.Join(dir, defaultFilename)
	} else {
		target = joinRoot(roots[0], rawPath)
	}

	resolved := canonicalize(target)
	if !containedInAny(filepath.Dir(resolved), roots) {
		if hasTraversal(rawPath) {
			return "", ErrTraversal
		}
		return "", ErrOutsideRoots
	}

	if err := r.checkExtension(tool, resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

func (r *Resolver) checkExtension(tool, path string) error {
	allowed, ok := r.extensions[tool]
	if !ok {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return fmt.Errorf("File extension is not allowed: %q. Allowed extensions: %s.", ext, strings.Join(allowed, ", "))
}

func disabledError(source RootsSource) error {
	if source == RootsFromClient {
		return ErrClientNoRoots
	}
	return ErrNoRoots
}

func joinRoot(firstRoot, rawPath string) string {
	if filepath.IsAbs(rawPath) {
		return rawPath
	}
	return filepath.Join(firstRoot, rawPath)
}

// hasTraversal reports whether the raw input contains an explicit ".."
// component, used only to pick the clearer denial message.
func hasTraversal(rawPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rawPath), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

// canonicalize resolves symlinks when the path or its parent exists and
// falls back to a lexical clean for paths yet to be created.
func canonicalize(path string) string {
	cleaned := filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(cleaned); err == nil {
		return resolved
	}
	dir, base := filepath.Split(cleaned)
	if resolvedDir, err := filepath.EvalSymlinks(filepath.Clean(dir)); err == nil {
		return filepath.Join(resolvedDir, base)
	}
	return cleaned
}

func containedInAny(path string, roots []string) bool {
	for _, root := range roots {
		croot := canonicalize(root)
		if path == croot || strings.HasPrefix(path, croot+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
