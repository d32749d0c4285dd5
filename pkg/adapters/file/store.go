package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/identifier"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/aretw0/cardflow/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Store implements ports.VariableStore on a single local file.
// Variables are kept as a JSON list, or YAML when the file ends in .yaml or .yml.
// The file is re-read on every call so edits made by other processes are visible.
type Store struct {
	Path string
	mu   sync.Mutex
}

var _ ports.VariableStore = (*Store)(nil)

type document struct {
	Variables []domain.Variable `json:"variables" yaml:"variables"`
}

// New creates a new Store backed by path.
// If path is empty, it defaults to ".cardflow/variables.json".
func New(path string) *Store {
	if path == "" {
		path = filepath.Join(".cardflow", "variables.json")
	}
	return &Store{Path: path}
}

func (s *Store) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.Path))
	return ext == ".yaml" || ext == ".yml"
}

// read loads the file. A missing file is an empty store.
func (s *Store) read() (domain.Variables, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Variables{}, nil
		}
		return nil, fmt.Errorf("failed to read variables file: %w", err)
	}

	var doc document
	if s.isYAML() {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal variables: %w", err)
	}
	return domain.NewVariables(schema.NormalizeVariables(doc.Variables)...), nil
}

// write persists vars atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) write(vars domain.Variables) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure variables directory: %w", err)
	}

	doc := document{Variables: vars.Sorted()}
	var data []byte
	var err error
	if s.isYAML() {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}

	// Same directory as the destination: rename is only atomic within a filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-variables-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(s.Path); err == nil {
		if err := os.Remove(s.Path); err != nil {
			return fmt.Errorf("failed to remove existing variables file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// FetchAll returns every variable ordered by storage key.
func (s *Store) FetchAll(ctx context.Context) ([]domain.Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars, err := s.read()
	if err != nil {
		return nil, err
	}
	return vars.Sorted(), nil
}

// FetchOne looks a variable up by any system id form.
func (s *Store) FetchOne(ctx context.Context, systemID string) (domain.Variable, error) {
	id, ok := identifier.ParseSystemID(systemID)
	if !ok {
		return domain.Variable{}, domain.ErrVariableNotFound
	}
	id = id.Canonical()

	s.mu.Lock()
	defer s.mu.Unlock()
	vars, err := s.read()
	if err != nil {
		return domain.Variable{}, err
	}
	v, ok := vars.Find(id.EntityType, id.EntityID, id.Field)
	if !ok {
		return domain.Variable{}, domain.ErrVariableNotFound
	}
	return v, nil
}

// Update sets the value of a variable, creating it when it does not exist yet.
func (s *Store) Update(ctx context.Context, systemID string, value any) error {
	id, ok := identifier.ParseSystemID(systemID)
	if !ok {
		return domain.ErrVariableNotFound
	}
	id = id.Canonical()

	s.mu.Lock()
	defer s.mu.Unlock()
	vars, err := s.read()
	if err != nil {
		return err
	}
	v, found := vars.Find(id.EntityType, id.EntityID, id.Field)
	if !found || !strings.EqualFold(v.Field, id.Field) {
		v = domain.Variable{EntityType: id.EntityType, EntityID: id.EntityID, Field: id.Field}
	}
	v.Value = value
	v.UpdatedAt = time.Now()
	return s.write(vars.With(v))
}

// Put stores variables as an upstream producer would.
func (s *Store) Put(ctx context.Context, vars ...domain.Variable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.read()
	if err != nil {
		return err
	}
	return s.write(current.With(schema.NormalizeVariables(vars)...))
}
