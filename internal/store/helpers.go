package store

import "strconv"

// maxListLimit is a defense-in-depth cap on limit values for list queries.
const maxListLimit = 1000

const defaultListLimit = 50

// clampLimit applies the default and the cap to a caller-supplied limit.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}

	return min(limit, maxListLimit)
}

// trimPage drops the look-ahead row fetched to compute has_more.
func trimPage[T any](rows []T, limit int) ([]T, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}

	return rows, false
}

// filterBuilder accumulates WHERE conditions with numbered placeholders.
type filterBuilder struct {
	conditions []string
	args       []any
}

// add appends "<expr> $n" and its argument.
func (f *filterBuilder) add(expr string, arg any) {
	f.args = append(f.args, arg)
	f.conditions = append(f.conditions, expr+" $"+strconv.Itoa(len(f.args)))
}

// next returns the placeholder for the next positional argument.
func (f *filterBuilder) next(arg any) string {
	f.args = append(f.args, arg)

	return "$" + strconv.Itoa(len(f.args))
}

func (f *filterBuilder) where() string {
	if len(f.conditions) == 0 {
		return ""
	}

	out := "WHERE " + f.conditions[0]
	for _, c := range f.conditions[1:] {
		out += " AND " + c
	}

	return out
}
