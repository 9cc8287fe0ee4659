package scene

// AsFloat converts a numeric attribute value to float64.
// Snapshot decoding yields int for whole numbers, so both are accepted.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsBool converts a boolean-like attribute value. Numeric values follow the
// host convention of 0 being false.
func AsBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	default:
		f, ok := AsFloat(v)
		if !ok {
			return false, false
		}
		return f != 0, true
	}
}

// AsString returns v when it is a string.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
