package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/cardflow/internal/dto"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/identifier"
	"github.com/aretw0/cardflow/pkg/schema"
)

// AssignHandler copies source variables or literal values into target variables.
// Values are written to the store when one is configured and merged into the run
// variables by replacement. At least one assignment must succeed.
type AssignHandler struct{}

func (AssignHandler) Execute(ctx context.Context, node domain.ExecutionNode, rc *RunContext) {
	cfg, err := dto.DecodeAssign(node)
	if err != nil {
		rc.OnError(node.ID, err)
		return
	}

	vars := rc.Variables()
	results := make([]domain.AssignmentResult, 0, len(cfg.Assignments))
	var written []domain.Variable
	for _, a := range cfg.Assignments {
		res, v, err := assign(ctx, rc, vars, a)
		if err != nil {
			res.Error = err.Error()
			rc.Logger().WarnContext(ctx, "assignment failed", "node", node.ID, "target", a.Target, "error", err)
		} else {
			res.OK = true
			written = append(written, v)
			index := rc.Interpolator().Index()
			index.Register(res.TargetDisplayID, res.TargetSystemID)
			if res.SourceDisplayID != "" {
				index.Register(res.SourceDisplayID, res.SourceSystemID)
			}
			// Later assignments observe earlier ones.
			vars = vars.With(v)
			rc.Logger().InfoContext(ctx, "assigned",
				"node", node.ID,
				"target", res.TargetSystemID, "target_display", res.TargetDisplayID,
				"source", res.SourceSystemID, "source_display", res.SourceDisplayID,
			)
		}
		results = append(results, res)
	}

	rc.MergeVariables(written...)

	out := &domain.NodeOutput{Assignments: results}
	if !advance(rc, node, out, "") && rc.err == nil {
		_ = rc.UpdateNode(node.ID, domain.NodeUpdate{Output: out})
		rc.OnError(node.ID, &domain.NodeConfigError{NodeID: node.ID, Reason: "no assignment produced a value"})
	}
}

func assign(ctx context.Context, rc *RunContext, vars domain.Variables, a domain.Assignment) (domain.AssignmentResult, domain.Variable, error) {
	var res domain.AssignmentResult

	target, ok := identifier.ParseSystemID(a.Target)
	if !ok {
		res.TargetSystemID = a.Target
		return res, domain.Variable{}, fmt.Errorf("malformed target %q", a.Target)
	}
	if target.EntityType != "" {
		target.Field = schema.NormalizeField(target.Field, target.EntityType)
	}

	var value any
	switch {
	case a.Source != "":
		src, ok := rc.Interpolator().Lookup(ctx, a.Source, vars)
		if !ok {
			res.TargetSystemID = target.Tagged()
			res.SourceSystemID = a.Source
			return res, domain.Variable{}, fmt.Errorf("source %s not found", a.Source)
		}
		value = src.Value
		res.SourceSystemID = identifier.FormatTypedSystemID(src.EntityType, src.EntityID, src.Field)
		res.SourceDisplayID = identifier.FormatDisplayID(sourceName(src), src.Field, src.EntityID)
	case a.Value != nil:
		value = a.Value
		if s, ok := a.Value.(string); ok {
			value = rc.Interpolator().Resolve(ctx, s, vars)
		}
	default:
		res.TargetSystemID = target.Tagged()
		return res, domain.Variable{}, errors.New("assignment has neither source nor value")
	}

	// Reuse the stored identity of an existing target so the same key is replaced.
	v := domain.Variable{EntityType: target.EntityType, EntityID: target.EntityID, Field: target.Field}
	if existing, ok := vars.Find(target.EntityType, target.EntityID, target.Field); ok && strings.EqualFold(existing.Field, target.Field) {
		v = existing
	}
	v.Value = value
	v.UpdatedAt = time.Now()

	res.TargetSystemID = identifier.FormatTypedSystemID(v.EntityType, v.EntityID, v.Field)
	res.TargetDisplayID = identifier.FormatDisplayID(sourceName(v), v.Field, v.EntityID)
	res.Value = domain.FormatValue(value)

	if store := rc.Store(); store != nil {
		if err := store.Update(ctx, res.TargetSystemID, value); err != nil {
			return res, domain.Variable{}, fmt.Errorf("failed to update %s: %w", res.TargetSystemID, err)
		}
	}
	return res, v, nil
}

func sourceName(v domain.Variable) string {
	if v.SourceName != "" {
		return v.SourceName
	}
	return identifier.UnknownSource
}
