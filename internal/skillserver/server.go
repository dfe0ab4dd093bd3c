// Package skillserver exposes the skill tools over the Model Context Protocol
// so external agent CLIs can read skills the same way the built-in loop does.
package skillserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/metalagman/firmgen/internal/agent"
	"github.com/metalagman/firmgen/internal/skills"
)

const (
	serverName = "firmgen-skills"
	version    = "v1.0.0"
)

// New returns an MCP server with read_skill, read_skill_file and
// list_skill_files registered over reg.
func New(reg *skills.Registry) *mcp.Server {
	tools := agent.SkillTools(reg)
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)

	add[agent.ReadSkillInput](server, tools, agent.ToolReadSkill)
	add[agent.ReadSkillFileInput](server, tools, agent.ToolReadSkillFile)
	add[agent.ReadSkillInput](server, tools, agent.ToolListSkillFiles)
	return server
}

// Serve runs the server over stdin/stdout until ctx is done or the client
// disconnects.
func Serve(ctx context.Context, reg *skills.Registry) error {
	return New(reg).Run(ctx, &mcp.StdioTransport{})
}

func add[In any](server *mcp.Server, tools agent.Tools, name string) {
	t := tools[name]
	mcp.AddTool(server, &mcp.Tool{Name: t.Name, Description: t.Description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
			raw, err := json.Marshal(in)
			if err != nil {
				return nil, nil, fmt.Errorf("encode %s input: %w", name, err)
			}
			out, err := tools.Dispatch(ctx, name, raw)
			if err != nil {
				return nil, nil, err
			}
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: out}}}, nil, nil
		})
}
