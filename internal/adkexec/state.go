package adkexec

import (
	"errors"
	"fmt"

	"google.golang.org/adk/session"
)

// Index reads a non-negative int from session state. A missing key yields def.
func Index(state session.State, key string, def int) (int, error) {
	value, err := state.Get(key)
	if err != nil {
		if errors.Is(err, session.ErrStateKeyNotExist) {
			return def, nil
		}
		return 0, fmt.Errorf("read session state key %q: %w", key, err)
	}

	var n int
	switch v := value.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	default:
		return 0, fmt.Errorf("session state key %q has type %T; want int", key, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("session state key %q must be >= 0; got %d", key, n)
	}
	return n, nil
}
