package oracle

import "fmt"

// Result is a decoded oracle response that has passed schema validation.
type Result map[string]any

// Strings returns the string array stored under key.
func (r Result) Strings(key string) ([]string, error) {
	raw, ok := r[key]
	if !ok {
		return nil, fmt.Errorf("oracle: result has no field %q", key)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("oracle: field %q is %T, want array", key, raw)
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("oracle: field %q[%d] is %T, want string", key, i, it)
		}
		out = append(out, s)
	}
	return out, nil
}

// String returns the string stored under key.
func (r Result) String(key string) (string, error) {
	raw, ok := r[key]
	if !ok {
		return "", fmt.Errorf("oracle: result has no field %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("oracle: field %q is %T, want string", key, raw)
	}
	return s, nil
}
