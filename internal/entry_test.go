package internal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/tagnote/internal/models"
	"github.com/starford/tagnote/internal/storage"
)

// mcpClient speaks line-delimited JSON-RPC to a running RunMCP.
type mcpClient struct {
	t   *testing.T
	in  io.Writer
	out *bufio.Reader
	id  int
}

func (c *mcpClient) send(method string, params any, notify bool) {
	c.t.Helper()
	msg := map[string]any{"jsonrpc": "2.0", "method": method, "params": params}
	if !notify {
		c.id++
		msg["id"] = c.id
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatal(err)
	}
	if _, err := c.in.Write(append(data, '\n')); err != nil {
		c.t.Fatal(err)
	}
}

func (c *mcpClient) call(method string, params any) string {
	c.t.Helper()
	c.send(method, params, false)
	line, err := c.out.ReadString('\n')
	if err != nil {
		c.t.Fatalf("read %s response: %v", method, err)
	}
	return line
}

func (c *mcpClient) tool(name string, args map[string]any) string {
	c.t.Helper()
	return c.call("tools/call", map[string]any{"name": name, "arguments": args})
}

func TestRunMCP_ReloadsExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.json")
	cfg := NewDefaultConfig()
	cfg.App.LogLevel = slog.LevelError
	cfg.Storage.Path = path
	cfg.Storage.Watch = true

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunMCP(ctx, WithConfig(cfg), WithStdio(inR, outW), WithLogOutput(io.Discard))
	}()
	t.Cleanup(func() {
		cancel()
		_ = inW.Close()
		_ = outR.Close()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("RunMCP did not stop")
		}
	})

	c := &mcpClient{t: t, in: inW, out: bufio.NewReader(outR)}
	c.call("initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1.0.0"},
	})
	c.send("notifications/initialized", map[string]any{}, true)

	// Let the watcher register before the foreign write.
	time.Sleep(300 * time.Millisecond)

	other, err := storage.NewFS(path)
	if err != nil {
		t.Fatal(err)
	}
	external := models.Note{ID: "written-elsewhere", Title: "from the HTTP process", Tags: []string{}, CreatedAt: time.Now().UTC()}
	if err := other.Save([]models.Note{external}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(c.tool("list_notes", map[string]any{}), external.ID) {
		if time.Now().After(deadline) {
			t.Fatal("external note never reached the MCP process")
		}
		time.Sleep(50 * time.Millisecond)
	}

	if resp := c.tool("create_note", map[string]any{"title": "from mcp"}); strings.Contains(resp, `"isError":true`) {
		t.Fatalf("create_note failed: %s", resp)
	}

	stored, err := other.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 || stored[1].ID != external.ID {
		t.Errorf("stored = %s, want the MCP note followed by %s", fmt.Sprint(stored), external.ID)
	}
}
