package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/loader"
	contract "github.com/aretw0/cardflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlGraph = `
name: demo
nodes:
  - id: start
    type: start
    config:
      welcome_text: "Hello @gv_npc_n1_name-="
    next: work
  - id: work
    type: worktask
    config:
      task_id: 7
      timeout: 45s
    next: loop
  - id: loop
    type: Loop
    config:
      condition_type: runCount
      max_runs: 2
      "yes": work
      "no": done
  - id: done
    type: display
    config:
      text: "bye"
edges: []
`

const jsonGraph = `{
  "nodes": [
    {"id": "start", "type": "start"},
    {"id": "set", "type": "assign", "config": {"assignments": [{"target": "@gv_custom_a_value-=", "value": 1}]}}
  ],
  "edges": [{"source": "start", "target": "set"}]
}`

func TestParse_YAML(t *testing.T) {
	g, err := loader.Parse([]byte(yamlGraph))
	require.NoError(t, err)

	assert.Equal(t, "demo", g.Name)
	require.Len(t, g.Nodes, 4)
	assert.Equal(t, domain.NodeTypeLoop, g.Nodes[2].Type)
	assert.Equal(t, []domain.Edge{{From: "start", To: "work"}, {From: "work", To: "loop"}}, g.Edges)

	// YAML 1.1 booleans are not an issue once the keys are quoted.
	assert.Equal(t, "work", g.Nodes[2].Config["yes"])
	assert.Equal(t, "45s", g.Nodes[1].Config["timeout"])
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assign.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonGraph), 0644))

	g, err := loader.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "assign", g.Name)
	assert.Equal(t, []domain.Edge{{From: "start", To: "set"}}, g.Edges)
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"not yaml":     "nodes: [",
		"node without": "nodes:\n  - type: start\n",
		"edge without": "nodes:\n  - id: a\n    type: start\nedges:\n  - from: a\n",
		"wrong shape":  "nodes: 3\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loader.Parse([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	g, err := loader.Parse([]byte(yamlGraph))
	require.NoError(t, err)

	data, err := loader.Marshal(g)
	require.NoError(t, err)

	again, err := loader.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, g.Edges, again.Edges)
	assert.Len(t, again.Nodes, len(g.Nodes))
}

func TestFileLoader_Contract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlGraph), 0644))

	expected, err := loader.Parse([]byte(yamlGraph))
	require.NoError(t, err)

	contract.GraphLoaderContractTest(t, loader.NewFileLoader(path), *expected)
}
