package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// schemaNode is the subset of JSON schema keywords checked by the verifier
type schemaNode struct {
	Ref        string                 `json:"$ref"`
	Type       string                 `json:"type"`
	Enum       []any                  `json:"enum"`
	Minimum    *float64               `json:"minimum"`
	Required   []string               `json:"required"`
	Properties map[string]*schemaNode `json:"properties"`
	Defs       map[string]*schemaNode `json:"$defs"`
}

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema.
// It checks required properties, enums and minimums, which covers what the config schema declares.
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	var schema schemaNode
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := checkNode(&schema, schema.Defs, "", configMap); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func checkNode(node *schemaNode, defs map[string]*schemaNode, path string, value any) error {
	if node == nil {
		return nil
	}
	if node.Ref != "" {
		def, ok := defs[strings.TrimPrefix(node.Ref, "#/$defs/")]
		if !ok {
			return fmt.Errorf("%s: unknown schema reference %s", pathName(path), node.Ref)
		}
		return checkNode(def, defs, path, value)
	}

	if len(node.Enum) > 0 && !slices.Contains(node.Enum, value) {
		// empty optional strings are allowed, required ones are checked by the parent
		if s, ok := value.(string); !ok || s != "" {
			return fmt.Errorf("%s: value %v is not one of %v", pathName(path), value, node.Enum)
		}
	}

	if node.Minimum != nil {
		if num, ok := value.(float64); ok && num < *node.Minimum {
			return fmt.Errorf("%s: value %v is less than minimum %v", pathName(path), num, *node.Minimum)
		}
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	for _, req := range node.Required {
		if v, ok := obj[req]; !ok || v == "" {
			return fmt.Errorf("%s is required", pathName(join(path, req)))
		}
	}

	keys := make([]string, 0, len(node.Properties))
	for k := range node.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		if err := checkNode(node.Properties[k], defs, join(path, k), v); err != nil {
			return err
		}
	}
	return nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func pathName(path string) string {
	if path == "" {
		return "config"
	}
	return path
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() (*jsonschema.Schema, error) {
	r := &jsonschema.Reflector{RequiredFromJSONSchemaTags: true}
	return r.Reflect(&Config{}), nil
}
