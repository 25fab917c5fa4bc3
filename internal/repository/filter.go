package repository

import (
	"fmt"
	"strings"
)

// filter накапливает условия WHERE с позиционными параметрами.
type filter struct {
	conds []string
	args  []any
}

// add добавляет условие с одним параметром. Каждое %[1]d в cond заменяется номером параметра.
func (f *filter) add(cond string, arg any) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, fmt.Sprintf(cond, len(f.args)))
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}
