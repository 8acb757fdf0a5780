package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	server := NewServer("test-server", "1.0.0")
	assert.NotNil(t, server)
	assert.Equal(t, "test-server", server.name)
	assert.Equal(t, "1.0.0", server.version)
}

func TestRegisterTool(t *testing.T) {
	server := NewServer("test-server", "1.0.0")

	tool := &Tool{
		Name:        "test_tool",
		Description: "A test tool",
		InputSchema: BuildInputSchema(
			map[string]interface{}{
				"param1": StringProperty("A string parameter"),
			},
			[]string{"param1"},
		),
		Handler: func(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
			return TextResult("success"), nil
		},
	}

	server.RegisterTool(tool)

	server.mu.RLock()
	defer server.mu.RUnlock()
	assert.Contains(t, server.tools, "test_tool")
}

func TestHandleInitialize(t *testing.T) {
	var output bytes.Buffer
	server := NewServer("test-server", "1.0.0")
	server.SetIO(strings.NewReader(""), &output)

	req := &Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
	}

	server.handleRequest(context.Background(), req)

	var resp Response
	err := json.Unmarshal(output.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Equal(t, float64(1), resp.ID)
	assert.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
}

func TestHandleInitializeCapturesRootsCapability(t *testing.T) {
	t.Run("client with roots", func(t *testing.T) {
		var output bytes.Buffer
		server := NewServer("test-server", "1.0.0")
		server.SetIO(strings.NewReader(""), &output)

		params, _ := json.Marshal(map[string]interface{}{
			"capabilities": map[string]interface{}{
				"roots": map[string]interface{}{"listChanged": true},
			},
		})
		server.handleRequest(context.Background(), &Request{
			JSONRPC: "2.0",
			ID:      1,
			Method:  "initialize",
			Params:  params,
		})

		server.mu.RLock()
		defer server.mu.RUnlock()
		assert.True(t, server.clientRoots)
	})

	t.Run("client without roots", func(t *testing.T) {
		var output bytes.Buffer
		server := NewServer("test-server", "1.0.0")
		server.SetIO(strings.NewReader(""), &output)

		params, _ := json.Marshal(map[string]interface{}{
			"capabilities": map[string]interface{}{},
		})
		server.handleRequest(context.Background(), &Request{
			JSONRPC: "2.0",
			ID:      1,
			Method:  "initialize",
			Params:  params,
		})

		server.mu.RLock()
		defer server.mu.RUnlock()
		assert.False(t, server.clientRoots)
	})
}

func TestHandleToolsList(t *testing.T) {
	var output bytes.Buffer
	server := NewServer("test-server", "1.0.0")
	server.SetIO(strings.NewReader(""), &output)

	tool := &Tool{
		Name:        "test_tool",
		Description: "A test tool",
		InputSchema: BuildInputSchema(
			map[string]interface{}{
				"param1": StringProperty("A string parameter"),
			},
			[]string{"param1"},
		),
		Handler: func(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
			return TextResult("success"), nil
		},
	}
	server.RegisterTool(tool)

	req := &Request{
		JSONRPC: "2.0",
		ID:      2,
		Method:  "tools/list",
	}

	server.handleRequest(context.Background(), req)

	var resp Response
	err := json.Unmarshal(output.Bytes(), &resp)
	require.NoError(t, err)

	assert.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)

	tools, ok := result["tools"].([]interface{})
	require.True(t, ok)
	assert.Len(t, tools, 1)
}

func TestHandleToolsCall(t *testing.T) {
	var output bytes.Buffer
	server := NewServer("test-server", "1.0.0")
	server.SetIO(strings.NewReader(""), &output)

	tool := &Tool{
		Name:        "echo",
		Description: "Echo back the input",
		InputSchema: BuildInputSchema(
			map[string]interface{}{
				"message": StringProperty("Message to echo"),
			},
			[]string{"message"},
		),
		Handler: func(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
			msg, _ := GetStringParam(params, "message", true)
			return TextResult("Echo: " + msg), nil
		},
	}
	server.RegisterTool(tool)

	params, _ := json.Marshal(map[string]interface{}{
		"name":      "echo",
		"arguments": map[string]interface{}{"message": "hello"},
	})

	req := &Request{
		JSONRPC: "2.0",
		ID:      3,
		Method:  "tools/call",
		Params:  params,
	}

	server.handleRequest(context.Background(), req)
	server.wg.Wait()

	var resp Response
	err := json.Unmarshal(output.Bytes(), &resp)
	require.NoError(t, err)

	assert.Nil(t, resp.Error)
}

func TestToolArgumentsKeepPrecision(t *testing.T) {
	var output bytes.Buffer
	server := NewServer("test-server", "1.0.0")
	server.SetIO(strings.NewReader(""), &output)

	var seen interface{}
	server.RegisterTool(&Tool{
		Name:        "capture",
		Description: "Record the raw chat_id argument",
		InputSchema: BuildInputSchema(
			map[string]interface{}{
				"chat_id": IDProperty("Chat ID"),
			},
			[]string{"chat_id"},
		),
		Handler: func(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
			seen = params["chat_id"]
			return TextResult("ok"), nil
		},
	})

	params, _ := json.Marshal(map[string]interface{}{
		"name":      "capture",
		"arguments": map[string]interface{}{"chat_id": int64(-1001234567890123)},
	})

	server.handleRequest(context.Background(), &Request{
		JSONRPC: "2.0",
		ID:      4,
		Method:  "tools/call",
		Params:  params,
	})
	server.wg.Wait()

	num, ok := seen.(json.Number)
	require.True(t, ok, "numeric arguments should arrive as json.Number, got %T", seen)
	assert.Equal(t, "-1001234567890123", num.String())
}

func TestListRootsWithoutCapability(t *testing.T) {
	server := NewServer("test-server", "1.0.0")

	_, err := server.ListRoots(context.Background())
	assert.ErrorIs(t, err, ErrRootsUnsupported)
}

func TestListRootsRoundTrip(t *testing.T) {
	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()

	server := NewServer("test-server", "1.0.0")
	server.SetIO(serverIn, serverOut)

	var gotRoots []Root
	var gotErr error
	server.RegisterTool(&Tool{
		Name:        "probe_roots",
		Description: "Fetch the roots offered by the client",
		InputSchema: BuildInputSchema(map[string]interface{}{}, []string{}),
		Handler: func(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
			gotRoots, gotErr = SessionFromContext(ctx).ListRoots(ctx)
			return TextResult("done"), nil
		},
	})

	done := make(chan error, 1)
	go func() { done <- server.Run(context.Background()) }()

	enc := json.NewEncoder(clientOut)
	dec := json.NewDecoder(clientIn)

	require.NoError(t, enc.Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]interface{}{
			"capabilities": map[string]interface{}{
				"roots": map[string]interface{}{"listChanged": true},
			},
		},
	}))
	var initResp message
	require.NoError(t, dec.Decode(&initResp))
	require.Nil(t, initResp.Error)

	require.NoError(t, enc.Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      "probe_roots",
			"arguments": map[string]interface{}{},
		},
	}))

	var rootsReq message
	require.NoError(t, dec.Decode(&rootsReq))
	assert.Equal(t, "roots/list", rootsReq.Method)
	require.NotNil(t, rootsReq.ID)

	require.NoError(t, enc.Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      rootsReq.ID,
		"result": map[string]interface{}{
			"roots": []map[string]interface{}{
				{"uri": "file:///tmp/data", "name": "data"},
			},
		},
	}))

	var callResp message
	require.NoError(t, dec.Decode(&callResp))
	assert.Nil(t, callResp.Error)

	require.NoError(t, clientOut.Close())
	require.NoError(t, <-done)

	require.NoError(t, gotErr)
	require.Len(t, gotRoots, 1)
	assert.Equal(t, "file:///tmp/data", gotRoots[0].URI)
	assert.Equal(t, "data", gotRoots[0].Name)
}

func TestListRootsMethodNotFound(t *testing.T) {
	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()

	server := NewServer("test-server", "1.0.0")
	server.SetIO(serverIn, serverOut)

	var gotErr error
	server.RegisterTool(&Tool{
		Name:        "probe_roots",
		Description: "Fetch the roots offered by the client",
		InputSchema: BuildInputSchema(map[string]interface{}{}, []string{}),
		Handler: func(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
			_, gotErr = SessionFromContext(ctx).ListRoots(ctx)
			return TextResult("done"), nil
		},
	})

	done := make(chan error, 1)
	go func() { done <- server.Run(context.Background()) }()

	enc := json.NewEncoder(clientOut)
	dec := json.NewDecoder(clientIn)

	require.NoError(t, enc.Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]interface{}{
			"capabilities": map[string]interface{}{
				"roots": map[string]interface{}{},
			},
		},
	}))
	var initResp message
	require.NoError(t, dec.Decode(&initResp))

	require.NoError(t, enc.Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      "probe_roots",
			"arguments": map[string]interface{}{},
		},
	}))

	var rootsReq message
	require.NoError(t, dec.Decode(&rootsReq))
	require.Equal(t, "roots/list", rootsReq.Method)

	require.NoError(t, enc.Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      rootsReq.ID,
		"error":   map[string]interface{}{"code": -32601, "message": "Method not found"},
	}))

	var callResp message
	require.NoError(t, dec.Decode(&callResp))
	assert.Nil(t, callResp.Error)

	require.NoError(t, clientOut.Close())
	require.NoError(t, <-done)

	assert.ErrorIs(t, gotErr, ErrRootsUnsupported)
}

func TestTextResult(t *testing.T) {
	result := TextResult("test message")
	assert.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.Equal(t, "test message", result.Content[0].Text)
	assert.False(t, result.IsError)
}

func TestJSONResult(t *testing.T) {
	data := map[string]interface{}{
		"key": "value",
		"num": 42,
	}

	result, err := JSONResult(data)
	require.NoError(t, err)
	assert.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "key")
	assert.Contains(t, result.Content[0].Text, "value")
}

func TestErrorResult(t *testing.T) {
	result := ErrorResult(assert.AnError)
	assert.True(t, result.IsError)
	assert.Len(t, result.Content, 1)
}

func TestBuildInputSchema(t *testing.T) {
	schema := BuildInputSchema(
		map[string]interface{}{
			"name": StringProperty("User name"),
			"age":  IntProperty("User age"),
		},
		[]string{"name"},
	)

	assert.Equal(t, "object", schema["type"])
	assert.Contains(t, schema["required"], "name")

	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "age")
}

func TestIDProperty(t *testing.T) {
	prop := IDProperty("Chat ID or username")
	types, ok := prop["type"].([]string)
	require.True(t, ok)
	assert.Contains(t, types, "integer")
	assert.Contains(t, types, "string")
}
