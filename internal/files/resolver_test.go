package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

type fakePeer struct {
	roots []mcp.Root
	err   error
	calls int
}

func (f *fakePeer) ListRoots(ctx context.Context) ([]mcp.Root, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.roots, nil
}

func fileURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func newTestRoot(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "root")
	require.NoError(t, os.MkdirAll(root, 0755))
	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	return resolved
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestResolveReadable(t *testing.T) {
	ctx := context.Background()

	t.Run("relative path resolves inside first root", func(t *testing.T) {
		root := newTestRoot(t)
		target := filepath.Join(root, "document.txt")
		writeFile(t, target, "ok")

		r := NewResolver(NewNegotiator([]string{root}))
		resolved, err := r.ResolveReadable(ctx, nil, "document.txt", "send_file")
		require.NoError(t, err)
		assert.Equal(t, target, resolved)
	})

	t.Run("traversal is rejected", func(t *testing.T) {
		root := newTestRoot(t)
		r := NewResolver(NewNegotiator([]string{root}))

		_, err := r.ResolveReadable(ctx, nil, "../etc/passwd", "send_file")
		require.Error(t, err)
		assert.Equal(t, "Path traversal is not allowed.", err.Error())
	})

	t.Run("absolute path outside roots is rejected", func(t *testing.T) {
		base := t.TempDir()
		root := filepath.Join(base, "root")
		outside := filepath.Join(base, "outside")
		require.NoError(t, os.MkdirAll(root, 0755))
		require.NoError(t, os.MkdirAll(outside, 0755))
		outsideFile := filepath.Join(outside, "outside.txt")
		writeFile(t, outsideFile, "no")

		r := NewResolver(NewNegotiator([]string{root}))
		_, err := r.ResolveReadable(ctx, nil, outsideFile, "send_file")
		require.Error(t, err)
		assert.Equal(t, "Path is outside allowed roots.", err.Error())
	})

	t.Run("traversal inside the root is permitted", func(t *testing.T) {
		root := newTestRoot(t)
		require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
		target := filepath.Join(root, "doc.txt")
		writeFile(t, target, "ok")

		r := NewResolver(NewNegotiator([]string{root}))
		resolved, err := r.ResolveReadable(ctx, nil, "sub/../doc.txt", "send_file")
		require.NoError(t, err)
		assert.Equal(t, target, resolved)
	})

	t.Run("disallowed sticker extension", func(t *testing.T) {
		root := newTestRoot(t)
		bad := filepath.Join(root, "sticker.txt")
		writeFile(t, bad, "bad")

		r := NewResolver(NewNegotiator([]string{root}))
		_, err := r.ResolveReadable(ctx, nil, bad, "send_sticker")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "extension is not allowed")
		assert.Contains(t, err.Error(), ".txt")
	})

	t.Run("allowed sticker extension passes", func(t *testing.T) {
		root := newTestRoot(t)
		good := filepath.Join(root, "sticker.WEBP")
		writeFile(t, good, "ok")

		r := NewResolver(NewNegotiator([]string{root}))
		resolved, err := r.ResolveReadable(ctx, nil, good, "send_sticker")
		require.NoError(t, err)
		assert.Equal(t, good, resolved)
	})

	t.Run("no roots disables file tools", func(t *testing.T) {
		r := NewResolver(NewNegotiator(nil))
		_, err := r.ResolveReadable(ctx, nil, "anything.txt", "send_file")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disabled")
	})
}

func TestResolveWritable(t *testing.T) {
	ctx := context.Background()

	t.Run("default path uses downloads subdirectory", func(t *testing.T) {
		root := newTestRoot(t)
		r := NewResolver(NewNegotiator([]string{root}))

		resolved, err := r.ResolveWritable(ctx, nil, "", "example.bin", "download_media")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "downloads", "example.bin"), resolved)
		assert.DirExists(t, filepath.Dir(resolved))
	})

	t.Run("explicit relative path resolves inside first root", func(t *testing.T) {
		root := newTestRoot(t)
		r := NewResolver(NewNegotiator([]string{root}))

		resolved, err := r.ResolveWritable(ctx, nil, "media.jpg", "ignored.bin", "download_media")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "media.jpg"), resolved)
	})

	t.Run("traversal is rejected", func(t *testing.T) {
		root := newTestRoot(t)
		r := NewResolver(NewNegotiator([]string{root}))

		_, err := r.ResolveWritable(ctx, nil, "../evil.bin", "ignored.bin", "download_media")
		require.Error(t, err)
		assert.Equal(t, "Path traversal is not allowed.", err.Error())
	})

	t.Run("absolute path outside roots is rejected", func(t *testing.T) {
		root := newTestRoot(t)
		r := NewResolver(NewNegotiator([]string{root}))

		_, err := r.ResolveWritable(ctx, nil, "/elsewhere/evil.bin", "ignored.bin", "download_media")
		require.Error(t, err)
		assert.Equal(t, "Path is outside allowed roots.", err.Error())
	})

	t.Run("no roots disables file tools", func(t *testing.T) {
		r := NewResolver(NewNegotiator(nil))
		_, err := r.ResolveWritable(ctx, nil, "", "example.bin", "download_media")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disabled")
	})
}

func TestNegotiatorEffective(t *testing.T) {
	ctx := context.Background()

	t.Run("no peer falls back to server roots", func(t *testing.T) {
		root := newTestRoot(t)
		n := NewNegotiator([]string{root})

		roots, source := n.Effective(ctx, nil)
		assert.Equal(t, []string{root}, roots)
		assert.Equal(t, RootsFromServer, source)
	})

	t.Run("client roots replace server roots", func(t *testing.T) {
		serverRoot := newTestRoot(t)
		clientRoot := newTestRoot(t)
		n := NewNegotiator([]string{serverRoot})
		peer := &fakePeer{roots: []mcp.Root{{URI: fileURI(clientRoot), Name: "client"}}}

		roots, source := n.Effective(ctx, peer)
		assert.Equal(t, []string{clientRoot}, roots)
		assert.Equal(t, RootsFromClient, source)
	})

	t.Run("unsupported peer falls back to server roots", func(t *testing.T) {
		root := newTestRoot(t)
		n := NewNegotiator([]string{root})
		peer := &fakePeer{err: mcp.ErrRootsUnsupported}

		roots, source := n.Effective(ctx, peer)
		assert.Equal(t, []string{root}, roots)
		assert.Equal(t, RootsFromServer, source)
	})

	t.Run("negotiation failure denies access", func(t *testing.T) {
		root := newTestRoot(t)
		n := NewNegotiator([]string{root})
		peer := &fakePeer{err: errors.New("transport broke")}

		roots, source := n.Effective(ctx, peer)
		assert.Empty(t, roots)
		assert.Equal(t, RootsDenied, source)
	})

	t.Run("empty client answer disables file tools", func(t *testing.T) {
		root := newTestRoot(t)
		n := NewNegotiator([]string{root})
		peer := &fakePeer{}

		roots, source := n.Effective(ctx, peer)
		assert.Empty(t, roots)
		assert.Equal(t, RootsFromClient, source)

		r := NewResolver(n)
		_, err := r.ResolveReadable(ctx, peer, "anything.txt", "send_file")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disabled")
		assert.Contains(t, err.Error(), "client")
	})

	t.Run("no caching between calls", func(t *testing.T) {
		serverRoot := newTestRoot(t)
		first := newTestRoot(t)
		second := newTestRoot(t)
		n := NewNegotiator([]string{serverRoot})

		peer := &fakePeer{roots: []mcp.Root{{URI: fileURI(first)}}}
		roots, _ := n.Effective(ctx, peer)
		assert.Equal(t, []string{first}, roots)

		peer.roots = []mcp.Root{{URI: fileURI(second)}}
		roots, _ = n.Effective(ctx, peer)
		assert.Equal(t, []string{second}, roots)
		assert.Equal(t, 2, peer.calls)
	})

	t.Run("client roots round trip through the resolver", func(t *testing.T) {
		serverRoot := newTestRoot(t)
		clientRoot := newTestRoot(t)
		clientFile := filepath.Join(clientRoot, "client.txt")
		writeFile(t, clientFile, "client")

		n := NewNegotiator([]string{serverRoot})
		peer := &fakePeer{roots: []mcp.Root{{URI: fileURI(clientRoot)}}}

		r := NewResolver(n)
		resolved, err := r.ResolveReadable(ctx, peer, "client.txt", "send_file")
		require.NoError(t, err)
		assert.Equal(t, clientFile, resolved)
	})
}

func TestRootPath(t *testing.T) {
	t.Run("file uri", func(t *testing.T) {
		p, ok := rootPath(mcp.Root{URI: "file:///tmp/data"})
		require.True(t, ok)
		assert.Equal(t, "/tmp/data", p)
	})

	t.Run("encoded file uri", func(t *testing.T) {
		p, ok := rootPath(mcp.Root{URI: "file:///tmp/my%20data"})
		require.True(t, ok)
		assert.Equal(t, "/tmp/my data", p)
	})

	t.Run("bare absolute path", func(t *testing.T) {
		p, ok := rootPath(mcp.Root{URI: "/tmp/data"})
		require.True(t, ok)
		assert.Equal(t, "/tmp/data", p)
	})

	t.Run("relative path is rejected", func(t *testing.T) {
		_, ok := rootPath(mcp.Root{URI: "data"})
		assert.False(t, ok)
	})
}
