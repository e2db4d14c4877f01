package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// UntitledLabel is shown when every primary field of a row is empty.
const UntitledLabel = "Untitled"

// Label computes the display label of a row: the primary field values in
// declared order joined by a single space, empty values skipped.
func Label(cfg *TableConfig, fields map[string]any) string {
	parts := make([]string, 0, len(cfg.PrimaryField))
	for _, name := range cfg.PrimaryField {
		if s := DisplayString(fields[name]); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return UntitledLabel
	}
	return strings.Join(parts, " ")
}

// DisplayString renders a field value for labels and summaries.
func DisplayString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
