// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pattern

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qri-io/jsonschema"
	"gopkg.in/yaml.v2"

	"github.com/privaxis/doublefetch/pkg/common"
)

// LoadSchema reads a JSON Schema document used to validate pattern-set
// files before they are decoded into a PatternSet.
func LoadSchema(schemaPath string) (*jsonschema.Schema, error) {
	if strings.TrimSpace(schemaPath) == "" {
		return nil, fmt.Errorf("empty schema path")
	}
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		common.DebugMsg(common.DbgLvlError, "reading pattern-set schema: %v", err)
		return nil, err
	}
	schema := &jsonschema.Schema{}
	if err := schema.UnmarshalJSON(data); err != nil {
		common.DebugMsg(common.DbgLvlError, "unmarshalling pattern-set schema: %v", err)
		return nil, err
	}
	return schema, nil
}

// LoadFile loads a single pattern-set file (YAML or JSON, by extension),
// optionally validating it against schema first. A schema violation or a
// syntax error is always a permanent error: this data never becomes valid
// through a retry.
func LoadFile(schema *jsonschema.Schema, path string) (PatternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	if schema != nil {
		if err := validateAgainstSchema(schema, data, fileType); err != nil {
			return nil, common.NewPermanentError("pattern set %s failed schema validation: %v", path, err)
		}
	}

	var set PatternSet
	if fileType == "json" {
		err = json.Unmarshal(data, &set)
	} else {
		err = yaml.Unmarshal(data, &set)
	}
	if err != nil {
		return nil, common.NewPermanentError("pattern set %s: %v", path, err)
	}
	return set, nil
}

// LoadGlob loads every pattern-set file matching a glob path, skipping
// files whose extension is neither yaml, yml, json, nor empty, and
// returns the merged pattern set. A later file's categories overwrite an
// earlier file's on collision, mirroring a directory of overlay files
// applied in listing order.
func LoadGlob(schema *jsonschema.Schema, globPath string) (PatternSet, error) {
	files, err := filepath.Glob(globPath)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no pattern-set files found matching %s", globPath)
	}

	merged := make(PatternSet)
	for _, file := range files {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), ".")
		if ext != "yaml" && ext != "yml" && ext != "json" && ext != "" {
			continue
		}
		common.DebugMsg(common.DbgLvlDebug, "loading pattern set from %s", file)
		set, err := LoadFile(schema, file)
		if err != nil {
			common.DebugMsg(common.DbgLvlError, "loading pattern set %s: %v", file, err)
			continue
		}
		for category, rule := range set {
			merged[category] = rule
		}
	}
	return merged, nil
}

func validateAgainstSchema(schema *jsonschema.Schema, data []byte, fileType string) error {
	var generic interface{}
	if fileType == "json" {
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("unmarshalling JSON for validation: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("unmarshalling YAML for validation: %w", err)
		}
		generic = convertMapInterfaceToMapString(generic)
	}

	jsonBytes, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("re-marshalling to JSON for validation: %w", err)
	}

	validationErrs, err := schema.ValidateBytes(context.Background(), jsonBytes)
	if err != nil {
		return err
	}
	if len(validationErrs) > 0 {
		return fmt.Errorf("%v", validationErrs)
	}
	return nil
}

// convertMapInterfaceToMapString recursively converts the
// map[interface{}]interface{} nodes yaml.v2 produces into
// map[string]interface{}, which encoding/json can marshal.
func convertMapInterfaceToMapString(in interface{}) interface{} {
	switch v := in.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[fmt.Sprintf("%v", key)] = convertMapInterfaceToMapString(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = convertMapInterfaceToMapString(val)
		}
		return out
	default:
		return v
	}
}
