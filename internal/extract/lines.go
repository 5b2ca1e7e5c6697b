package extract

import "strings"

// lineDelimiters is the delimiter candidate list in priority order. The
// first delimiter PRESENT in a line wins, regardless of where it sits
// relative to lower-priority delimiters. "Date - 2024-01-01: x" splits
// on the colon even though the hyphen appears earlier in the line.
var lineDelimiters = []string{":", "=", "-", "\t"}

// StructureLines converts a raw text blob into field/value rows. For
// each line the winning delimiter splits at its first occurrence; lines
// with no delimiter, or with an empty field or value after trimming,
// are discarded. Input line order is preserved and duplicate fields are
// retained. Pure and total.
func StructureLines(source, text string) []Row {
	var rows []Row
	for _, line := range strings.Split(text, "\n") {
		for _, delim := range lineDelimiters {
			if !strings.Contains(line, delim) {
				continue
			}
			parts := strings.SplitN(line, delim, 2)
			field := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if field != "" && value != "" {
				rows = append(rows, Row{Source: source, Field: field, Value: value})
			}
			break
		}
	}
	return rows
}
