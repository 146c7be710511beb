package cache

import (
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// OperationKey derives a stable store key from an operation's identity:
// its name, the exact document text, and the JSON encoding of its
// variables (map keys are encoded in sorted order, so equal variable
// sets hash equally).
func OperationKey(name, document string, variables map[string]any) string {
	h := xxhash.New()
	_, _ = h.WriteString(name)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(document)
	_, _ = h.WriteString("\x00")
	if len(variables) > 0 {
		if encoded, err := json.Marshal(variables); err == nil {
			_, _ = h.Write(encoded)
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
