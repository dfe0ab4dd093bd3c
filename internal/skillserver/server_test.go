package skillserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalagman/firmgen/internal/skills"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "mpu6050-imu")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"),
		[]byte("---\nname: mpu6050-imu\ndescription: MPU6050 over I2C\n---\nUse Wire.begin()."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "EXAMPLES.md"), []byte("mpu.initialize();"), 0o644))
	reg, err := skills.Load(root, nil)
	require.NoError(t, err)

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := New(reg).Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callText(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestServer_ListTools(t *testing.T) {
	t.Parallel()

	cs := connect(t)
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"read_skill", "read_skill_file", "list_skill_files"}, names)
}

func TestServer_CallTools(t *testing.T) {
	t.Parallel()

	cs := connect(t)
	assert.Equal(t, "## mpu6050-imu\n\nUse Wire.begin().",
		callText(t, cs, "read_skill", map[string]any{"skill_name": "mpu6050-imu"}))
	assert.Equal(t, "mpu.initialize();",
		callText(t, cs, "read_skill_file", map[string]any{"skill_name": "mpu6050-imu", "filename": "EXAMPLES.md"}))
	assert.Equal(t, "Available files in mpu6050-imu: EXAMPLES.md",
		callText(t, cs, "list_skill_files", map[string]any{"skill_name": "mpu6050-imu"}))
	assert.Equal(t, "Error: Skill 'dht11' not found. Available: mpu6050-imu",
		callText(t, cs, "read_skill", map[string]any{"skill_name": "dht11"}))
}
