package listing

import "strings"

// Where accumulates AND-ed SQL conditions with their placeholders' arguments
type Where struct {
	conds []string
	args  []any
}

func (w *Where) Add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// SQL returns " WHERE ..." or an empty string when no condition was added
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *Where) Args() []any {
	return w.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains builds a LIKE pattern matching s anywhere, with wildcards in s escaped
func Contains(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
