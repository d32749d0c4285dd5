package cardflow_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/pkg/adapters/memory"
	"github.com/aretw0/cardflow/pkg/domain"
)

func Example() {
	loader, err := memory.NewFromNodes(
		domain.ExecutionNode{ID: "start", Type: domain.NodeTypeStart, Config: map[string]any{"welcome_text": "Hi"}},
		domain.ExecutionNode{ID: "copy", Type: domain.NodeTypeAssign, Config: map[string]any{
			"assignments": []any{
				map[string]any{"source": "@gv_custom_x_value-=", "target": "@gv_custom_y_value-="},
			},
		}},
		domain.ExecutionNode{ID: "show", Type: domain.NodeTypeDisplay, Config: map[string]any{"text": "y = @gv_custom_y_value-="}},
	)
	if err != nil {
		log.Fatal(err)
	}

	store := memory.NewStore(
		domain.Variable{EntityType: "custom", EntityID: "x", Field: "value", Value: "pi"},
		domain.Variable{EntityType: "custom", EntityID: "y", Field: "value", Value: ""},
	)

	eng, err := cardflow.New(cardflow.WithLoader(loader), cardflow.WithStore(store))
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Stop()

	if err := eng.Run(context.Background()); err != nil {
		log.Fatal(err)
	}

	show, _ := eng.Node("show")
	fmt.Println(show.Output.Content)
	// Output:
	// y = pi
}
