package importer

import "strings"

// headerMarker identifies pasted header rows. Any line containing it is
// expected noise, not an error.
const headerMarker = "fecha entrega"

// currencyMarker shows up on order numbers copied from billing exports.
const currencyMarker = "€"

// Line is one raw input line split into its three fields. The date
// token is still unparsed.
type Line struct {
	OrderNumber  string
	CustomerName string
	DateToken    string
}

// ParseLine splits a raw line into (order number, customer name, date
// token). The second return is false when the line should be skipped:
// blank lines, header rows, and lines with fewer than three fields
// under both delimiter strategies.
//
// Comma-delimited layout is tried first. Customer names are the field
// most likely to contain stray commas, so only the first and last
// fields are taken as order number and date token; everything between
// is rejoined into the name. Otherwise the line is split on runs of
// whitespace the same way.
func ParseLine(raw string) (Line, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Line{}, false
	}
	if strings.Contains(strings.ToLower(trimmed), headerMarker) {
		return Line{}, false
	}

	var line Line
	if parts := strings.Split(trimmed, ","); len(parts) >= 3 {
		line = Line{
			OrderNumber:  parts[0],
			CustomerName: strings.Join(parts[1:len(parts)-1], ","),
			DateToken:    parts[len(parts)-1],
		}
	} else {
		fields := strings.Fields(trimmed)
		if len(fields) < 3 {
			return Line{}, false
		}
		line = Line{
			OrderNumber:  fields[0],
			CustomerName: strings.Join(fields[1:len(fields)-1], " "),
			DateToken:    fields[len(fields)-1],
		}
	}

	line.OrderNumber = strings.TrimSpace(strings.ReplaceAll(line.OrderNumber, currencyMarker, ""))
	line.CustomerName = strings.TrimSpace(line.CustomerName)
	line.DateToken = strings.TrimSpace(line.DateToken)
	if line.OrderNumber == "" || line.CustomerName == "" || line.DateToken == "" {
		return Line{}, false
	}
	return line, true
}
