package dbutil

import (
	"strconv"
	"strings"
)

// PostgresArgs returns n comma separated positional parameters starting at $si.
func PostgresArgs(si, n int) string {
	if n <= 0 {
		return ""
	}
	if si < 1 {
		panic("dbutil.PostgresArgs start index must be > 0")
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i != 0 {
			b.WriteByte(',')
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(si + i))
	}
	return b.String()
}

// EscapePostgresName quotes an identifier (column, table, schema).
// DO NOT use for external (user) provided values.
func EscapePostgresName(name string) string {
	return `"` + strings.Replace(name, `"`, `""`, -1) + `"`
}
