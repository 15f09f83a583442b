package mcp

import (
	"context"

	"go.uber.org/zap"
)

// Discover lists the server's tools and wraps each one. A failure is logged
// and yields an empty, non-nil tool set so the agent can still run.
func (c *Client) Discover(ctx context.Context, opts ...ToolOption) []*Tool {
	descriptors, err := c.ListTools(ctx)
	if err != nil {
		c.logger.Error("fetching tools from MCP server", zap.String("url", c.baseURL), zap.Error(err))
		return []*Tool{}
	}

	opts = append([]ToolOption{WithToolLogger(c.logger)}, opts...)
	tools := make([]*Tool, 0, len(descriptors))
	seen := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		if d.Name == "" || seen[d.Name] {
			c.logger.Warn("skipping tool descriptor", zap.String("name", d.Name))
			continue
		}
		seen[d.Name] = true
		tools = append(tools, NewTool(d, c, opts...))
	}
	c.logger.Info("discovered tools", zap.Int("count", len(tools)))
	return tools
}
