package predict

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/neboloop/cell/internal/types"
)

// DefaultPrefix is the path prefix every accepted prediction must carry.
const DefaultPrefix = "/api/"

// Validator decides whether a cleaned backend answer is usable.
type Validator interface {
	Validate(endpoint string) bool
}

// PrefixValidator accepts any endpoint beginning with Prefix.
type PrefixValidator struct {
	Prefix string
}

func (v PrefixValidator) Validate(endpoint string) bool {
	return strings.HasPrefix(endpoint, v.Prefix)
}

// AllowListValidator accepts only endpoints the application is known to serve.
type AllowListValidator struct {
	prefix    PrefixValidator
	endpoints map[string]struct{}
}

// NewAllowListValidator builds a validator over endpoints. Entries without
// the prefix are ignored since they could never be accepted.
func NewAllowListValidator(prefix string, endpoints ...string) *AllowListValidator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	v := &AllowListValidator{
		prefix:    PrefixValidator{Prefix: prefix},
		endpoints: make(map[string]struct{}, len(endpoints)),
	}
	for _, e := range endpoints {
		e = strings.TrimSpace(e)
		if v.prefix.Validate(e) {
			v.endpoints[e] = struct{}{}
		}
	}
	return v
}

// AllowListFromSchema collects every path of an OpenAPI-style schema, plus
// any extra endpoints.
func AllowListFromSchema(schema types.APISchema, extra ...string) *AllowListValidator {
	paths := make([]string, 0, len(schema.Paths)+len(extra))
	for p := range schema.Paths {
		paths = append(paths, p)
	}
	return NewAllowListValidator(DefaultPrefix, append(paths, extra...)...)
}

// LoadSchema reads an OpenAPI document. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON.
func LoadSchema(path string) (types.APISchema, error) {
	var schema types.APISchema
	data, err := os.ReadFile(path)
	if err != nil {
		return schema, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &schema)
	default:
		err = json.Unmarshal(data, &schema)
	}
	if err != nil {
		return schema, fmt.Errorf("parse schema %s: %w", path, err)
	}
	if len(schema.Paths) == 0 {
		return schema, fmt.Errorf("schema %s has no paths", path)
	}
	return schema, nil
}

func (v *AllowListValidator) Validate(endpoint string) bool {
	if !v.prefix.Validate(endpoint) {
		return false
	}
	_, ok := v.endpoints[endpoint]
	return ok
}

// Endpoints lists the accepted endpoints in sorted order.
func (v *AllowListValidator) Endpoints() []string {
	out := make([]string, 0, len(v.endpoints))
	for e := range v.endpoints {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// FromEndpoints returns the prefix validator when endpoints is empty and an
// allow list otherwise.
func FromEndpoints(endpoints []string) Validator {
	if len(endpoints) == 0 {
		return PrefixValidator{Prefix: DefaultPrefix}
	}
	return NewAllowListValidator(DefaultPrefix, endpoints...)
}
