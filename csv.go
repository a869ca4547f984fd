package main

import "strings"

// ParseCSV splits raw CSV text into rows of cells with RFC 4180 quoting:
// a double quote toggles quoted mode, "" inside quotes emits a literal quote,
// commas and newlines inside quotes are literal, and \r\n counts as a single
// row terminator. Cell values are returned untrimmed; trimming belongs to the
// normalizer.
func ParseCSV(text string) [][]string {
	var rows [][]string
	var row []string
	var cell strings.Builder
	inQuotes := false
	started := false // anything consumed since the last row terminator

	endCell := func() {
		row = append(row, cell.String())
		cell.Reset()
	}
	endRow := func() {
		endCell()
		rows = append(rows, row)
		row = nil
		started = false
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			started = true
			if inQuotes && i+1 < len(text) && text[i+1] == '"' {
				cell.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			started = true
			endCell()
		case (c == '\n' || c == '\r') && !inQuotes:
			if c == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			endRow()
		default:
			started = true
			cell.WriteByte(c)
		}
	}

	// Flush the final cell and row when the input has no trailing terminator.
	if started || len(row) > 0 {
		endRow()
	}
	return rows
}

// normalizeHeader canonicalizes a column header for alias matching:
// lowercased with whitespace and underscores removed, so "Media Type",
// "media_type" and "MEDIATYPE" all collide.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '_', '-':
			return -1
		}
		return r
	}, h)
}

// RawRow is a header-keyed record straight from the sheet, pre-normalization.
type RawRow map[string]string

// HeaderRows interprets the first parsed row as headers and returns the
// remaining rows keyed by normalized header. Rows whose cells are all blank
// are dropped; extra cells beyond the header width are ignored.
func HeaderRows(rows [][]string) ([]string, []RawRow) {
	if len(rows) == 0 {
		return nil, nil
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = normalizeHeader(h)
	}

	var out []RawRow
	for _, cells := range rows[1:] {
		blank := true
		for _, c := range cells {
			if strings.TrimSpace(c) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}
		raw := make(RawRow, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(cells) {
				raw[h] = cells[i]
			} else {
				raw[h] = ""
			}
		}
		out = append(out, raw)
	}
	return headers, out
}
