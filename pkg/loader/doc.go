// Package loader reads card graph definitions from YAML or JSON files.
//
// A definition lists nodes and edges:
//
//	name: greeting
//	nodes:
//	  - id: start
//	    type: start
//	    config:
//	      welcome_text: "Hello @gv_npc_42_name-="
//	    next: show
//	  - id: show
//	    type: display
//	    config:
//	      text: "bye"
//	edges: []
//
// The "next" key is shorthand for a single edge. Loop branch targets live in the
// loop config and need no edge.
package loader
