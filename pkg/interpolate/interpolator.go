// Package interpolate substitutes variable identifiers embedded in free text.
package interpolate

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/identifier"
	"github.com/aretw0/cardflow/pkg/schema"
)

// tokenPattern matches tagged system identifiers: "@gv_" + body + "-=".
var tokenPattern = regexp.MustCompile(`@gv_[^\s@=]+?-=`)

// Fetcher loads a single variable by system id when the local context misses it.
type Fetcher interface {
	FetchOne(ctx context.Context, systemID string) (domain.Variable, error)
}

// Interpolator resolves identifier tokens inside text.
// It is safe for concurrent use.
type Interpolator struct {
	fetcher Fetcher
	index   *identifier.DisplayIndex
	logger  *slog.Logger
}

// Option configures the Interpolator.
type Option func(*Interpolator)

// WithFetcher enables store lookups for tokens missing from the local context.
func WithFetcher(f Fetcher) Option {
	return func(i *Interpolator) {
		i.fetcher = f
	}
}

// WithDisplayIndex shares a display index between interpolators.
func WithDisplayIndex(idx *identifier.DisplayIndex) Option {
	return func(i *Interpolator) {
		i.index = idx
	}
}

// WithLogger sets the logger used to report unresolved tokens.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpolator) {
		i.logger = logger
	}
}

// New creates an Interpolator.
func New(opts ...Option) *Interpolator {
	i := &Interpolator{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.index == nil {
		i.index = identifier.NewDisplayIndex()
	}
	return i
}

// Index returns the display index populated by ToDisplay.
func (i *Interpolator) Index() *identifier.DisplayIndex {
	return i.index
}

// Result is the detailed outcome of Expand.
type Result struct {
	Text string
	// Fetched holds variables loaded from the store during resolution.
	Fetched []domain.Variable
	// Missing lists tokens left verbatim.
	Missing []string
}

// Tokens returns the distinct system identifiers embedded in text, in order of first appearance.
func Tokens(text string) []string {
	matches := tokenPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// Resolve replaces every resolvable token in text with its variable value.
// Unresolvable tokens are left verbatim; text without tokens is returned unchanged.
func (i *Interpolator) Resolve(ctx context.Context, text string, vars domain.Variables) string {
	return i.Expand(ctx, text, vars).Text
}

// Expand is Resolve with bookkeeping about fetched and missing variables.
func (i *Interpolator) Expand(ctx context.Context, text string, vars domain.Variables) Result {
	tokens := Tokens(text)
	if len(tokens) == 0 {
		return Result{Text: text}
	}

	var res Result
	values := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		v, fetched, ok := i.lookup(ctx, tok, vars)
		if !ok {
			i.logger.DebugContext(ctx, "unresolved identifier", "token", tok)
			res.Missing = append(res.Missing, tok)
			continue
		}
		if fetched {
			res.Fetched = append(res.Fetched, v)
		}
		values[tok] = v.String()
	}

	// Single pass so that substituted values are never rescanned.
	res.Text = tokenPattern.ReplaceAllStringFunc(text, func(m string) string {
		if val, ok := values[m]; ok {
			return val
		}
		return m
	})
	return res
}

// Lookup resolves a single identifier (tagged or bare) against vars and, if configured, the store.
func (i *Interpolator) Lookup(ctx context.Context, id string, vars domain.Variables) (domain.Variable, bool) {
	v, _, ok := i.lookup(ctx, id, vars)
	return v, ok
}

func (i *Interpolator) lookup(ctx context.Context, tok string, vars domain.Variables) (domain.Variable, bool, bool) {
	parsed, ok := identifier.ParseSystemID(tok)
	if !ok {
		return domain.Variable{}, false, false
	}
	parsed = parsed.Canonical()
	if v, ok := vars.Find(parsed.EntityType, parsed.EntityID, parsed.Field); ok {
		return v, false, true
	}
	if i.fetcher == nil {
		return domain.Variable{}, false, false
	}
	v, err := i.fetcher.FetchOne(ctx, parsed.Tagged())
	if err != nil {
		i.logger.DebugContext(ctx, "variable fetch failed", "token", tok, "error", err)
		return domain.Variable{}, false, false
	}
	return schema.NormalizeVariable(v), true, true
}

// ToDisplay rewrites system tokens into display form and records them in the index.
// Tokens that cannot be decoded are left untouched.
func (i *Interpolator) ToDisplay(text string, vars domain.Variables) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(tok string) string {
		parsed, ok := identifier.ParseSystemID(tok)
		if !ok {
			return tok
		}
		parsed = parsed.Canonical()
		source := identifier.UnknownSource
		if v, ok := vars.Find(parsed.EntityType, parsed.EntityID, parsed.Field); ok && v.SourceName != "" {
			source = v.SourceName
		}
		display := identifier.FormatDisplayID(source, parsed.Field, parsed.EntityID)
		i.index.Register(display, tok)
		return display
	})
}

// FromDisplay maps display ids known to the index back to their system form.
// Longer display ids are replaced first so that overlapping labels do not clash.
func (i *Interpolator) FromDisplay(text string) string {
	entries := i.index.Entries()
	if len(entries) == 0 {
		return text
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if len(keys[a]) != len(keys[b]) {
			return len(keys[a]) > len(keys[b])
		}
		return keys[a] < keys[b]
	})

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, entries[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
