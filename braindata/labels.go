// SPDX-License-Identifier: MIT

package braindata

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadLabels parses a labels file: one "label chunk" pair per line, separated
// by whitespace. Blank lines and lines starting with '#' are skipped, and so is
// a leading "labels chunks" header.
// Errors: ErrLabelFormat with the offending line number.
func ReadLabels(r io.Reader) (labels []string, chunks []int, err error) {
	sc := bufio.NewScanner(r)
	lineNo, first := 0, true
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if first {
			first = false
			if len(fields) == 2 && fields[0] == "labels" && fields[1] == "chunks" {
				continue
			}
		}
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("line %d: want \"label chunk\", got %q: %w", lineNo, line, ErrLabelFormat)
		}
		chunk, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: chunk %q: %w", lineNo, fields[1], ErrLabelFormat)
		}
		labels = append(labels, fields[0])
		chunks = append(chunks, chunk)
	}
	if err = sc.Err(); err != nil {
		return nil, nil, err
	}
	if len(labels) == 0 {
		return nil, nil, fmt.Errorf("no samples: %w", ErrLabelFormat)
	}

	return labels, chunks, nil
}
