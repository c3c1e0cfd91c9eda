package chain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	spawnyschema "github.com/Paintersrp/spawny/schema"
)

const chainSchemaURL = "chains.v1.json"

var compiledChainSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(chainSchemaURL, bytes.NewReader(spawnyschema.ChainsV1Schema)); err != nil {
		return nil, fmt.Errorf("add chain schema: %w", err)
	}
	return compiler.Compile(chainSchemaURL)
})

// checkSchema validates a decoded YAML tree against the chain file schema.
// Every violation is reported on its own line, keyed by where it occurred.
func checkSchema(doc map[string]any) error {
	schema, err := compiledChainSchema()
	if err != nil {
		return fmt.Errorf("load chain schema: %w", err)
	}

	err = schema.Validate(jsonValue(doc))
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	var lines []string
	for _, leaf := range violations(verr) {
		lines = append(lines, fmt.Sprintf("  %s: %s", describeLocation(leaf.InstanceLocation), leaf.Message))
	}
	sort.Strings(lines)
	return fmt.Errorf("schema validation failed:\n%s", strings.Join(lines, "\n"))
}

// violations returns the innermost errors of a validation tree. The outer
// nodes only name the schema keyword that delegated to them.
func violations(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		out = append(out, violations(cause)...)
	}
	return out
}

// jsonValue converts a yaml.v3 tree into the shapes the validator expects:
// string keyed objects and json.Number for every number.
func jsonValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[key] = jsonValue(value)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[fmt.Sprint(key)] = jsonValue(value)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, value := range v {
			out[i] = jsonValue(value)
		}
		return out
	case int:
		return json.Number(strconv.Itoa(v))
	case int64:
		return json.Number(strconv.FormatInt(v, 10))
	case uint64:
		return json.Number(strconv.FormatUint(v, 10))
	case float64:
		return json.Number(strconv.FormatFloat(v, 'g', -1, 64))
	case nil, bool, string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// describeLocation renders a JSON pointer such as /chains/0/steps as
// chains[0].steps.
func describeLocation(pointer string) string {
	var b strings.Builder
	for _, token := range strings.Split(pointer, "/") {
		if token == "" {
			continue
		}
		token = strings.NewReplacer("~1", "/", "~0", "~").Replace(token)
		if _, err := strconv.Atoi(token); err == nil {
			b.WriteString("[" + token + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(token)
	}
	if b.Len() == 0 {
		return "chain file"
	}
	return b.String()
}
