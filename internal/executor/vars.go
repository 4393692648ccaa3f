package executor

import "regexp"

// varTokenRe matches ${NAME} substitution tokens
var varTokenRe = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// VariableStore holds the variables of one tutorial run. It is owned by
// exactly one Executor; concurrent runs need independent stores.
type VariableStore struct {
	vars map[string]string
}

// NewVariableStore creates a store, optionally seeded with initial variables
// (e.g. from --var flags).
func NewVariableStore(initial map[string]string) *VariableStore {
	vars := make(map[string]string, len(initial))
	for k, v := range initial {
		vars[k] = v
	}
	return &VariableStore{vars: vars}
}

// Set stores a variable value
func (s *VariableStore) Set(name, value string) {
	s.vars[name] = value
}

// Get returns a variable value, or def when the name is unset
func (s *VariableStore) Get(name, def string) string {
	if v, ok := s.vars[name]; ok {
		return v
	}
	return def
}

// Substitute replaces every ${NAME} token in text with the stored value.
// Unresolved names are left as the literal token; substitution never fails.
func (s *VariableStore) Substitute(text string) string {
	return varTokenRe.ReplaceAllStringFunc(text, func(token string) string {
		name := token[2 : len(token)-1]
		if v, ok := s.vars[name]; ok {
			return v
		}
		return token
	})
}
