// Package codec provides the payload codecs a Repository uses to turn
// digital-object data into stored bytes.
package codec

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

var registry = map[string]func() types.Codec{
	FormatJSON: func() types.Codec { return NewJSONCodec() },
	FormatYAML: func() types.Codec { return NewYAMLCodec() },
}

// ByName returns the codec registered under name.
func ByName(name string) (types.Codec, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (valid: %v)", name, Names())
	}
	return f(), nil
}

// Names lists the registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
