package resilience

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a stable key for a scenario type and its parameters:
// the hex xxhash64 of type + ":" + canonical JSON. encoding/json writes map
// keys in sorted order at every depth, so the key does not depend on the
// order parameters were supplied in.
func Fingerprint(scenarioType string, params map[string]any) string {
	if params == nil {
		params = map[string]any{}
	}
	canonical, err := json.Marshal(params)
	if err != nil {
		// fmt also prints maps sorted by key
		canonical = []byte(fmt.Sprintf("%v", params))
	}
	h := xxhash.New()
	_, _ = h.WriteString(scenarioType)
	_, _ = h.WriteString(":")
	_, _ = h.Write(canonical)
	return fmt.Sprintf("%016x", h.Sum64())
}
