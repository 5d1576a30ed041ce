package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"envdash/internal/api"
	"envdash/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

const subsystem = "Backend"

// Tool names exposed by the aggregator.
const (
	ToolThemeGet      = "core_dashboard_theme_get"
	ToolServerList    = "core_mcpserver_list"
	ToolConfigReload  = "core_config_reload"
	clientName        = "envdash"
	transportSSE      = "sse"
	transportHTTP     = "streamable-http"
	defaultPing       = 10 * time.Second
	defaultReqTimeout = 30 * time.Second
)

// ErrNotConnected is returned by tool calls made while no session is open.
var ErrNotConnected = errors.New("not connected to backend")

// mcpClient is the part of the mcp-go client the backend uses.
type mcpClient interface {
	Start(ctx context.Context) error
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	Ping(ctx context.Context) error
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	OnNotification(handler func(notification mcp.JSONRPCNotification))
	Close() error
}

// Options configures a Client.
type Options struct {
	Endpoint       string
	Transport      string
	RequestTimeout time.Duration
	PingInterval   time.Duration
	Version        string
}

// Client implements the pull endpoints and the session dialer on top of
// mcp-go. Tool calls go through the most recently established session.
type Client struct {
	opts      Options
	newClient func() (mcpClient, error)

	mu      sync.RWMutex
	current *session
}

// NewClient creates a backend client for the given endpoint.
func NewClient(opts Options) *Client {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultReqTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPing
	}
	if opts.Transport == "" {
		opts.Transport = transportHTTP
	}
	c := &Client{opts: opts}
	c.newClient = c.transportClient
	return c
}

func (c *Client) transportClient() (mcpClient, error) {
	switch c.opts.Transport {
	case transportSSE:
		sseClient, err := client.NewSSEMCPClient(c.opts.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create SSE client: %w", err)
		}
		return sseClient, nil
	case transportHTTP:
		httpClient, err := client.NewStreamableHttpClient(c.opts.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create streamable-http client: %w", err)
		}
		return httpClient, nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", c.opts.Transport)
	}
}

// Endpoint returns the configured backend URL.
func (c *Client) Endpoint() string {
	return c.opts.Endpoint
}

// Dial opens a new MCP session. Notifications are forwarded to onNotify
// until the session ends. The session becomes the one tool calls use.
func (c *Client) Dial(ctx context.Context, onNotify func(api.Notification)) (api.Session, error) {
	mc, err := c.newClient()
	if err != nil {
		return nil, err
	}

	sessCtx, cancel := context.WithCancel(ctx)
	if err := mc.Start(sessCtx); err != nil {
		cancel()
		_ = mc.Close()
		return nil, fmt.Errorf("failed to start %s transport: %w", c.opts.Transport, err)
	}

	s := newSession(mc, cancel, c.release)
	mc.OnNotification(func(n mcp.JSONRPCNotification) {
		if onNotify == nil || s.closed() {
			return
		}
		logging.Debug(subsystem, "Notification %s", n.Method)
		onNotify(api.Notification{Method: n.Method, Params: n.Params.AdditionalFields})
	})

	if err := c.initialize(sessCtx, mc); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("initialization failed: %w", err)
	}

	c.mu.Lock()
	c.current = s
	c.mu.Unlock()

	go s.keepAlive(sessCtx, c.opts.PingInterval, c.opts.RequestTimeout)
	logging.Info(subsystem, "Session established with %s", c.opts.Endpoint)
	return s, nil
}

func (c *Client) initialize(ctx context.Context, mc mcpClient) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	version := c.opts.Version
	if version == "" {
		version = "dev"
	}
	req := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    clientName,
				Version: version,
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}
	result, err := mc.Initialize(ctx, req)
	if err != nil {
		return err
	}
	logging.Debug(subsystem, "Connected to %s %s", result.ServerInfo.Name, result.ServerInfo.Version)
	return nil
}

func (c *Client) release(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == s {
		c.current = nil
	}
}

// Connected reports whether a session is currently open.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil
}

// Close closes the current session, if any.
func (c *Client) Close() error {
	c.mu.RLock()
	s := c.current
	c.mu.RUnlock()
	if s == nil {
		return nil
	}
	return s.Close()
}

// callText invokes a tool and returns its first text content.
func (c *Client) callText(ctx context.Context, name string, args map[string]any) (string, error) {
	c.mu.RLock()
	s := c.current
	c.mu.RUnlock()
	if s == nil {
		return "", ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	result, err := s.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("tool call %s failed: %w", name, err)
	}

	var texts []string
	for _, content := range result.Content {
		if textContent, ok := mcp.AsTextContent(content); ok {
			texts = append(texts, textContent.Text)
		}
	}
	if result.IsError {
		return "", fmt.Errorf("tool %s returned error: %s", name, strings.Join(texts, "; "))
	}
	if len(texts) == 0 {
		return "", nil
	}
	return texts[0], nil
}

// FetchTheme reads the persisted dashboard theme.
func (c *Client) FetchTheme(ctx context.Context) (api.ThemeConfig, error) {
	text, err := c.callText(ctx, ToolThemeGet, nil)
	if err != nil {
		return api.ThemeConfig{}, err
	}
	return parseTheme(text)
}

// ListServers reads the ordered server inventory.
func (c *Client) ListServers(ctx context.Context) ([]api.ServerDescriptor, error) {
	text, err := c.callText(ctx, ToolServerList, nil)
	if err != nil {
		return nil, err
	}
	return parseServers(text)
}

// ReloadConfig asks the backend to reload its configuration.
func (c *Client) ReloadConfig(ctx context.Context) error {
	_, err := c.callText(ctx, ToolConfigReload, nil)
	return err
}

var (
	_ api.ThemeFetcher   = (*Client)(nil)
	_ api.ServerLister   = (*Client)(nil)
	_ api.ConfigReloader = (*Client)(nil)
	_ api.Dialer         = (*Client)(nil)
)
