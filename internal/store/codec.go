package store

import (
	"encoding/json"
	"fmt"

	"github.com/remembercore/memcore/pkg/collection"
)

func encodeProps(props collection.Properties) (string, error) {
	b, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("store: marshal properties: %w", err)
	}
	return string(b), nil
}

func decodeProps(raw string) (collection.Properties, error) {
	var props collection.Properties
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, fmt.Errorf("store: unmarshal properties: %w", err)
	}
	return props, nil
}

// contentOf pulls the "content" property used as the text-search surface;
// every domain type (memory, relationship, published copy) stores its
// natural-language body under this key (pkg/memory/codec.go,
// pkg/publish/codec.go).
func contentOf(props collection.Properties) string {
	s, _ := props["content"].(string)
	return s
}

func projectProps(props collection.Properties, keep []string) collection.Properties {
	if len(keep) == 0 {
		return cloneProps(props)
	}
	out := make(collection.Properties, len(keep))
	for _, k := range keep {
		if v, ok := props[k]; ok {
			out[k] = v
		}
	}
	return out
}

func cloneProps(props collection.Properties) collection.Properties {
	out := make(collection.Properties, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
