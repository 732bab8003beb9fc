package fileedit

import (
	"fmt"
	"strconv"
	"strings"
)

type hunk struct {
	oldStart int
	oldCount int
	newStart int
	newCount int
	lines    []string
}

// applyUnifiedDiff applies a unified diff to content. Hunks are
// applied in order; context and removal lines must match the current
// file exactly or the whole patch is rejected.
func applyUnifiedDiff(filename, content, diff string) (string, error) {
	hunks, err := parseHunks(filename, diff)
	if err != nil {
		return "", err
	}
	if len(hunks) == 0 {
		return "", &PatchError{Filename: filename, Reason: "diff contains no hunks"}
	}

	original := strings.Split(content, "\n")
	var result []string
	cursor := 0 // index into original, 0-based

	for i, h := range hunks {
		start := h.oldStart - 1
		if h.oldCount == 0 {
			// Pure insertion hunks address the line after which
			// new text goes.
			start = h.oldStart
		}
		if start < cursor || start > len(original) {
			return "", &PatchError{
				Filename: filename,
				Reason:   fmt.Sprintf("hunk %d is out of range", i+1),
			}
		}

		result = append(result, original[cursor:start]...)
		cursor = start

		for _, line := range h.lines {
			if line == "" {
				continue
			}
			marker, text := line[0], line[1:]
			switch marker {
			case ' ':
				if cursor >= len(original) || original[cursor] != text {
					return "", mismatch(filename, i, cursor, text)
				}
				result = append(result, text)
				cursor++
			case '-':
				if cursor >= len(original) || original[cursor] != text {
					return "", mismatch(filename, i, cursor, text)
				}
				cursor++
			case '+':
				result = append(result, text)
			case '\\':
				// "\ No newline at end of file"
			default:
				return "", &PatchError{
					Filename: filename,
					Reason:   fmt.Sprintf("hunk %d has an unrecognised line marker %q", i+1, string(marker)),
				}
			}
		}
	}

	result = append(result, original[cursor:]...)
	return strings.Join(result, "\n"), nil
}

func mismatch(filename string, hunkIdx, lineIdx int, expected string) error {
	return &PatchError{
		Filename: filename,
		Reason:   fmt.Sprintf("hunk %d does not match file at line %d (expected %q)", hunkIdx+1, lineIdx+1, expected),
	}
}

func parseHunks(filename, diff string) ([]hunk, error) {
	var hunks []hunk
	var current *hunk

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++") {
			continue
		}
		if strings.HasPrefix(line, "@@") {
			h, err := parseHunkHeader(filename, line)
			if err != nil {
				return nil, err
			}
			hunks = append(hunks, h)
			current = &hunks[len(hunks)-1]
			continue
		}
		if current != nil && line != "" {
			current.lines = append(current.lines, line)
		}
	}
	return hunks, nil
}

func parseHunkHeader(filename, line string) (hunk, error) {
	// @@ -oldStart,oldCount +newStart,newCount @@
	inner := strings.TrimPrefix(line, "@@")
	if idx := strings.Index(inner, "@@"); idx >= 0 {
		inner = inner[:idx]
	}
	fields := strings.Fields(inner)
	if len(fields) != 2 || !strings.HasPrefix(fields[0], "-") || !strings.HasPrefix(fields[1], "+") {
		return hunk{}, &PatchError{Filename: filename, Reason: fmt.Sprintf("malformed hunk header %q", line)}
	}

	oldStart, oldCount, err := parseRange(fields[0][1:])
	if err != nil {
		return hunk{}, &PatchError{Filename: filename, Reason: fmt.Sprintf("malformed hunk header %q", line)}
	}
	newStart, newCount, err := parseRange(fields[1][1:])
	if err != nil {
		return hunk{}, &PatchError{Filename: filename, Reason: fmt.Sprintf("malformed hunk header %q", line)}
	}

	return hunk{
		oldStart: oldStart,
		oldCount: oldCount,
		newStart: newStart,
		newCount: newCount,
	}, nil
}

func parseRange(s string) (start, count int, err error) {
	count = 1
	if idx := strings.Index(s, ","); idx >= 0 {
		count, err = strconv.Atoi(s[idx+1:])
		if err != nil {
			return 0, 0, err
		}
		s = s[:idx]
	}
	start, err = strconv.Atoi(s)
	return start, count, err
}
