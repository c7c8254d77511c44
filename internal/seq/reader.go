package seq

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Record is one sequence read from a text source.
type Record struct {
	ID       string
	Sequence string
}

// ReadSequences reads FASTA records or plain sequences, one per line.
//
// A '>' line starts a FASTA record whose sequence may span several lines.
// Without headers each non-blank line is its own record, named by its line
// number. Blank lines and ';' comment lines are skipped. Symbols are not
// validated here; Encode does that.
func ReadSequences(r io.Reader) ([]Record, error) {
	var (
		records []Record
		current *Record
		body    strings.Builder
		lineNo  int
	)

	flush := func() {
		if current != nil {
			current.Sequence = body.String()
			records = append(records, *current)
			current = nil
			body.Reset()
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, ";"):
			continue
		case strings.HasPrefix(line, ">"):
			flush()
			id := strings.TrimSpace(line[1:])
			if fields := strings.Fields(id); len(fields) > 0 {
				id = fields[0]
			}
			current = &Record{ID: id}
		case current != nil:
			body.WriteString(line)
		default:
			records = append(records, Record{ID: fmt.Sprintf("line%d", lineNo), Sequence: line})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read sequences: line %d: %w", lineNo, err)
	}
	flush()

	return records, nil
}

// Sequences returns the sequence strings of records in order.
func Sequences(records []Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Sequence
	}
	return out
}
