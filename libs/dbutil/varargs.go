package dbutil

import (
	"strconv"
	"strings"
)

// VarArgs collects a variable set of columns and values for building partial updates.
type VarArgs struct {
	start  int
	cols   []string
	values []interface{}
}

// PostgresVarArgs returns an empty VarArgs whose placeholders start at $si.
func PostgresVarArgs(si int) *VarArgs {
	if si < 1 {
		panic("dbutil.PostgresVarArgs start index must be > 0")
	}
	return &VarArgs{start: si}
}

// Append adds a column and its value.
func (a *VarArgs) Append(col string, v interface{}) {
	a.cols = append(a.cols, col)
	a.values = append(a.values, v)
}

// IsEmpty returns true when no columns were appended.
func (a *VarArgs) IsEmpty() bool {
	return len(a.cols) == 0
}

// Columns returns the appended column names joined by commas.
func (a *VarArgs) Columns() string {
	return strings.Join(a.cols, ",")
}

// Placeholders returns the positional parameters for the appended values.
func (a *VarArgs) Placeholders() string {
	return PostgresArgs(a.start, len(a.cols))
}

// ColumnsForUpdate returns col=$n pairs for a SET clause.
func (a *VarArgs) ColumnsForUpdate() string {
	var b strings.Builder
	for i, c := range a.cols {
		if i != 0 {
			b.WriteByte(',')
		}
		b.WriteString(c)
		b.WriteString("=$")
		b.WriteString(strconv.Itoa(a.start + i))
	}
	return b.String()
}

// ColumnsForConflictUpdate returns col=EXCLUDED.col pairs for the SET clause of an
// INSERT ... ON CONFLICT DO UPDATE that takes the appended columns from the proposed row.
func (a *VarArgs) ColumnsForConflictUpdate() string {
	var b strings.Builder
	for i, c := range a.cols {
		if i != 0 {
			b.WriteByte(',')
		}
		b.WriteString(c)
		b.WriteString("=EXCLUDED.")
		b.WriteString(c)
	}
	return b.String()
}

// Values returns the appended values in order.
func (a *VarArgs) Values() []interface{} {
	return a.values
}
