// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"travel-orchestrator/internal/common/validation"
)

//go:embed registry.json
var embeddedRegistry []byte

// Catalog is a loaded registry with compiled schemas. It is safe for
// concurrent use.
type Catalog struct {
	*Registry

	mu      sync.Mutex
	schemas map[string]*validation.Schema
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded registry.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(embeddedRegistry)
	})
	return defaultCatalog, defaultErr
}

// LoadRegistry reads a registry file; an empty path yields the embedded one.
func LoadRegistry(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	seen := make(map[string]bool, len(reg.Tools))
	for _, t := range reg.Tools {
		if t.Name == "" {
			return nil, fmt.Errorf("parse registry: tool without name")
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("parse registry: duplicate tool %q", t.Name)
		}
		seen[t.Name] = true
	}
	return &Catalog{Registry: &reg, schemas: make(map[string]*validation.Schema)}, nil
}

// Lookup returns the tool definition by name.
func (c *Catalog) Lookup(name string) (Tool, bool) {
	for _, t := range c.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Activity returns the worker definition by task type.
func (c *Catalog) Activity(taskType string) (Activity, bool) {
	for _, a := range c.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// ToolTimeout returns the tool's own timeout, or fallback when unset.
func (t Tool) ToolTimeout(fallback time.Duration) time.Duration {
	if t.Timeout == "" {
		return fallback
	}
	d, err := time.ParseDuration(t.Timeout)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ValidateToolParams checks params against the tool's input schema. Unknown
// tools and tools without a schema pass.
func (c *Catalog) ValidateToolParams(name string, params interface{}) (*validation.ValidationResult, error) {
	t, ok := c.Lookup(name)
	if !ok || len(t.InputSchema) == 0 {
		return &validation.ValidationResult{Valid: true}, nil
	}
	schema, err := c.schema("tool:"+name, t.InputSchema)
	if err != nil {
		return nil, err
	}
	return schema.Validate(params)
}

// ValidateActivityInput checks a job's variables against the worker's input schema.
func (c *Catalog) ValidateActivityInput(taskType string, input interface{}) (*validation.ValidationResult, error) {
	a, ok := c.Activity(taskType)
	if !ok || len(a.InputSchema) == 0 {
		return &validation.ValidationResult{Valid: true}, nil
	}
	schema, err := c.schema("activity:"+taskType, a.InputSchema)
	if err != nil {
		return nil, err
	}
	return schema.Validate(input)
}

func (c *Catalog) schema(key string, raw map[string]interface{}) (*validation.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.schemas[key]; ok {
		return s, nil
	}
	s, err := validation.NewSchemaFromMap(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	c.schemas[key] = s
	return s, nil
}

// Check reports the first structural problem of the registry: missing or
// duplicate activity fields, bad timeouts or schemas that do not compile.
func (c *Catalog) Check() error {
	if len(c.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	ids := make(map[string]bool, len(c.Activities))
	for _, a := range c.Activities {
		switch {
		case a.ID == "":
			return fmt.Errorf("activity missing required field: id")
		case ids[a.ID]:
			return fmt.Errorf("duplicate activity id: %s", a.ID)
		case a.DisplayName == "":
			return fmt.Errorf("activity %s missing required field: displayName", a.ID)
		case a.TaskType == "":
			return fmt.Errorf("activity %s missing required field: taskType", a.ID)
		case a.Category == "":
			return fmt.Errorf("activity %s missing required field: category", a.ID)
		}
		ids[a.ID] = true
		if err := checkTimeout(a.Timeout); err != nil {
			return fmt.Errorf("activity %s: %w", a.ID, err)
		}
		if len(a.InputSchema) > 0 {
			if _, err := c.schema("activity:"+a.TaskType, a.InputSchema); err != nil {
				return err
			}
		}
	}
	for _, t := range c.Tools {
		if err := checkTimeout(t.Timeout); err != nil {
			return fmt.Errorf("tool %s: %w", t.Name, err)
		}
		if len(t.InputSchema) > 0 {
			if _, err := c.schema("tool:"+t.Name, t.InputSchema); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkTimeout(s string) error {
	if s == "" {
		return nil
	}
	if d, err := time.ParseDuration(s); err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout %q", s)
	}
	return nil
}
