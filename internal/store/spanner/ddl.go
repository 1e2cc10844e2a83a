package spanner

import (
	_ "embed"
	"strings"
)

//go:embed schema.sql
var ddlFile string

// DefaultDDLStatements returns the CREATE TABLE / INDEX statements from
// schema.sql. The database admin API wants one statement per string, so
// comment lines are dropped and the file is split on semicolons.
func DefaultDDLStatements() []string {
	var sb strings.Builder
	for _, line := range strings.Split(ddlFile, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	var out []string
	for _, p := range strings.Split(sb.String(), ";") {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
