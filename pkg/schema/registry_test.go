package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		name  string
		raw   any
		field string
		want  string
	}{
		{"canonical", "npc", "", TypeNPC},
		{"canonical mixed case", "Workflow", "", TypeWorkflow},
		{"numeric defaults to task", "42", "output", TypeTask},
		{"numeric int value", 7, "", TypeTask},
		{"numeric with npc field", "3", "behavior", TypeNPC},
		{"numeric with translated npc field", "3", "活跃度", TypeNPC},
		{"chinese task", "任务", "", TypeTask},
		{"chinese npc label", "NPC角色", "", TypeNPC},
		{"workflow wins over task", "workflow task", "", TypeWorkflow},
		{"file synonym", "Document", "", TypeFile},
		{"full width", "ＴＡＳＫ", "", TypeTask},
		{"bool falls to custom", true, "", TypeCustom},
		{"empty", "", "", TypeCustom},
		{"nil", nil, "", TypeCustom},
		{"unknown", "weather", "", TypeCustom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeType(tt.raw, tt.field))
		})
	}
}

func TestNormalizeField(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		typ  string
		want string
	}{
		{"custom always value", "anything", TypeCustom, CustomField},
		{"custom bool", false, TypeCustom, CustomField},
		{"exact canonical", "behavior", TypeNPC, "behavior"},
		{"british spelling", "Behaviour", TypeNPC, "behavior"},
		{"chinese behavior", "行为", TypeNPC, "behavior"},
		{"active level spaced", "Active Level", TypeNPC, "activeLevel"},
		{"active level snake", "active_level", TypeNPC, "activeLevel"},
		{"task output synonym", "结果", TypeTask, "output"},
		{"workflow input", "Input Data", TypeWorkflow, "input"},
		{"file content", "文本内容", TypeFile, "content"},
		{"unmatched kept raw", "mood", TypeNPC, "mood"},
		{"numeric field kept", 12, TypeTask, "12"},
		{"unknown type kept", "whatever", "galaxy", "whatever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeField(tt.raw, tt.typ))
		})
	}
}

func TestNormalize(t *testing.T) {
	typ, field := Normalize("5", "行为")
	assert.Equal(t, TypeNPC, typ)
	assert.Equal(t, "behavior", field)

	typ, field = Normalize("自定义", "名字")
	assert.Equal(t, TypeCustom, typ)
	assert.Equal(t, CustomField, field)
}

func TestIsNPCOnlyField(t *testing.T) {
	assert.True(t, IsNPCOnlyField("behavior"))
	assert.True(t, IsNPCOnlyField("动作"))
	assert.False(t, IsNPCOnlyField("name"))
	assert.False(t, IsNPCOnlyField("output"))
	assert.False(t, IsNPCOnlyField(""))
}

func TestFields(t *testing.T) {
	assert.Equal(t, []string{CustomField}, Fields(TypeCustom))
	assert.Contains(t, Fields(TypeNPC), "activeLevel")
	assert.Empty(t, Fields("galaxy"))
}
