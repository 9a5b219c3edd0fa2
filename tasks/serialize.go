package tasks

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// PrettyJSON renders a config as JSON with exactly one top-level key per
// line, keys sorted, nested values compact. This is the canonical on-disk
// form of a sampled task config: stable under re-serialization and friendly
// to line-based diffing. Any standard JSON parser reads it back.
//
// It fails unless v serializes to a JSON object.
func PrettyJSON(v any) (string, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "serializing config")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &fields); err != nil || string(encoded) == "null" {
		return "", errors.Errorf("only mappings can be pretty-printed, got %T", v)
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{\n")
	for i, key := range keys {
		if i > 0 {
			b.WriteString(",\n")
		}
		quoted, _ := json.Marshal(key)
		b.Write(quoted)
		b.WriteString(":")
		b.Write(fields[key])
	}
	b.WriteString("\n}")
	return b.String(), nil
}
