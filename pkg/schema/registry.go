package schema

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Canonical entity types.
const (
	TypeNPC      = "npc"
	TypeTask     = "task"
	TypeWorkflow = "workflow"
	TypeCustom   = "custom"
	TypeFile     = "file"
	TypeSystem   = "system"
)

// CustomField is the only field of a custom variable.
const CustomField = "value"

// Types lists the canonical entity types.
var Types = []string{TypeNPC, TypeTask, TypeWorkflow, TypeCustom, TypeFile, TypeSystem}

type rule struct {
	name     string
	keywords []string
}

// typeRules are checked in order; the first rule with a matching keyword wins.
// workflow precedes task so that "workflow task" style labels resolve to workflow.
var typeRules = []rule{
	{TypeNPC, []string{"npc", "角色", "人物", "character"}},
	{TypeWorkflow, []string{"workflow", "工作流", "流程"}},
	{TypeTask, []string{"task", "任务", "job"}},
	{TypeFile, []string{"file", "文件", "document", "文档"}},
	{TypeSystem, []string{"system", "系统"}},
	{TypeCustom, []string{"custom", "自定义", "constant", "常量", "变量"}},
}

var (
	ioFields = []rule{
		{"input", []string{"input", "输入"}},
		{"output", []string{"output", "输出", "result", "结果"}},
		{"status", []string{"status", "state", "状态"}},
		{"name", []string{"name", "名称", "名字"}},
		{"description", []string{"description", "desc", "描述"}},
	}

	// fieldRules are checked in order per type; the first matching rule wins.
	fieldRules = map[string][]rule{
		TypeNPC: {
			{"activeLevel", []string{"activelevel", "activity", "活跃度", "活跃等级", "活跃程度"}},
			{"behavior", []string{"behavior", "behaviour", "action", "行为", "动作", "行动"}},
			{"knowledge", []string{"knowledge", "知识"}},
			{"description", []string{"description", "desc", "描述", "简介"}},
			{"name", []string{"name", "名称", "名字", "姓名"}},
		},
		TypeTask:     ioFields,
		TypeWorkflow: ioFields,
		TypeFile: {
			{"content", []string{"content", "内容", "text", "文本"}},
			{"path", []string{"path", "路径", "url"}},
			{"name", []string{"name", "文件名", "名称"}},
		},
		TypeSystem: {
			{"time", []string{"time", "date", "时间", "日期"}},
			{"user", []string{"user", "用户"}},
		},
	}

	// npcOnlyFields steer numeric type labels towards npc instead of task.
	npcOnlyFields = map[string]bool{
		"activeLevel": true,
		"behavior":    true,
		"knowledge":   true,
	}
)

var folder = cases.Fold()

// matchKey reduces s to a comparable form: NFKC-normalized, case-folded and
// stripped of spaces, underscores, dashes and dots.
func matchKey(s string) string {
	s = folder.String(norm.NFKC.String(strings.TrimSpace(s)))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.', '\t':
			return -1
		}
		return r
	}, s)
}

func stringify(raw any) string {
	return strings.TrimSpace(cast.ToString(raw))
}

// IsType reports whether t is a canonical entity type.
func IsType(t string) bool {
	for _, c := range Types {
		if c == t {
			return true
		}
	}
	return false
}

// NormalizeType maps a loosely typed entity type onto a canonical one.
//
//  1. Exact (case-insensitive) canonical names are returned as is.
//  2. Numeric labels default to task, or npc when field is an npc-only field.
//  3. Keywords are matched as substrings in fixed priority order.
//  4. Anything else is custom.
func NormalizeType(raw any, field string) string {
	s := stringify(raw)
	key := matchKey(s)
	if key == "" {
		return TypeCustom
	}
	if IsType(key) {
		return key
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		if IsNPCOnlyField(field) {
			return TypeNPC
		}
		return TypeTask
	}
	if name, ok := match(typeRules, key); ok {
		return name
	}
	return TypeCustom
}

// NormalizeField maps a loosely typed field name onto the canonical field of canonicalType.
// Custom variables always normalize to "value"; unmatched fields are returned unchanged.
func NormalizeField(raw any, canonicalType string) string {
	if canonicalType == TypeCustom {
		return CustomField
	}
	s := stringify(raw)
	rules, ok := fieldRules[canonicalType]
	if !ok || s == "" {
		return s
	}
	key := matchKey(s)
	for _, r := range rules {
		if matchKey(r.name) == key {
			return r.name
		}
	}
	if name, ok := match(rules, key); ok {
		return name
	}
	return s
}

// Normalize applies NormalizeType and NormalizeField to a raw pair.
func Normalize(rawType, rawField any) (string, string) {
	field := stringify(rawField)
	typ := NormalizeType(rawType, NormalizeField(field, TypeNPC))
	return typ, NormalizeField(field, typ)
}

// IsNPCOnlyField reports whether field (raw or canonical) only exists on npc variables.
func IsNPCOnlyField(field string) bool {
	if field == "" {
		return false
	}
	if npcOnlyFields[field] {
		return true
	}
	key := matchKey(field)
	for _, r := range fieldRules[TypeNPC] {
		if npcOnlyFields[r.name] && matchKey(r.name) == key {
			return true
		}
	}
	name, ok := match(fieldRules[TypeNPC], key)
	return ok && npcOnlyFields[name]
}

// Fields returns the canonical fields of a type in priority order.
func Fields(canonicalType string) []string {
	if canonicalType == TypeCustom {
		return []string{CustomField}
	}
	rules := fieldRules[canonicalType]
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.name)
	}
	return out
}

func match(rules []rule, key string) (string, bool) {
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(key, matchKey(kw)) {
				return r.name, true
			}
		}
	}
	return "", false
}
