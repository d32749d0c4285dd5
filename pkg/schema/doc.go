// Package schema is the static variable schema registry.
//
// Upstream variable data is loosely typed: entity types arrive as translated labels
// or bare numbers, and fields arrive as booleans, numbers or synonyms in several
// languages. The registry maps that input onto a closed set of canonical types
// (npc, task, workflow, custom, file, system) and their canonical fields.
//
// Basic usage:
//
//	typ := schema.NormalizeType("任务", "")       // "task"
//	field := schema.NormalizeField("输出", typ)   // "output"
//	schema.NormalizeField("anything", "custom")   // "value"
//
// The tables are pure data and every function is side-effect free.
package schema
