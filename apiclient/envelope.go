package apiclient

// Envelope is the loosely-typed key/value mapping every backend call returns.
// No field is guaranteed to be present; accessors take fallback defaults so
// callers never have to type-assert raw JSON themselves.
type Envelope map[string]any

// Str returns the string at key, or "" when absent or not a string.
func (e Envelope) Str(key string) string {
	s, _ := e[key].(string)
	return s
}

// StrAny returns the first non-empty string found under keys. The backend is
// inconsistent about key names (access_token vs token, id vs user_id).
func (e Envelope) StrAny(keys ...string) string {
	for _, key := range keys {
		if s, ok := e[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Bool returns the bool at key, or false when absent.
func (e Envelope) Bool(key string) bool {
	b, _ := e[key].(bool)
	return b
}

// Float returns the number at key, or 0 when absent.
func (e Envelope) Float(key string) float64 {
	f, _ := e[key].(float64)
	return f
}
