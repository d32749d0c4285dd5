package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/cardflow/internal/presentation/graph"
	"github.com/aretw0/cardflow/internal/validator"
	"github.com/aretw0/cardflow/pkg/loader"
)

// Validate loads the graph file and reports problems and warnings to out.
func Validate(path string, out io.Writer) error {
	g, err := loader.LoadFile(path)
	if err != nil {
		return err
	}

	report, err := validator.ValidateGraph(g)
	if report != nil {
		for _, w := range report.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
	}
	return err
}

// Graph writes the Mermaid diagram of the graph file to out.
func Graph(path string, out io.Writer) error {
	g, err := loader.LoadFile(path)
	if err != nil {
		return err
	}
	fmt.Fprint(out, graph.GenerateMermaid(g, nil))
	return nil
}
