package csv

import "strings"

// candidateDelimiters are tried by DetectDelimiter, in order of preference
// on a tie.
var candidateDelimiters = []string{",", "\t", ";", "|"}

// DetectDelimiter guesses the field delimiter of a CSV sample. Give it at
// least a few complete lines. The delimiter that occurs a consistent number
// of times on every line wins; "," is returned when nothing fits.
//
//	opts := csv.DefaultOptions()
//	opts.Delimiter = csv.DetectDelimiter(head)
func DetectDelimiter(sample string) string {
	lines := strings.Split(strings.ReplaceAll(sample, "\r\n", "\n"), "\n")
	// The last line of a sample is usually cut short.
	if len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}

	best, bestScore := ",", 0
	for _, delim := range candidateDelimiters {
		if score := delimiterScore(lines, delim); score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

func delimiterScore(lines []string, delim string) int {
	first := -1
	consistent := true
	for _, line := range lines {
		if line == "" {
			continue
		}
		n := countOutsideQuotes(line, delim, `"`)
		if first < 0 {
			first = n
		} else if n != first {
			consistent = false
		}
	}
	if first <= 0 {
		return 0
	}
	if consistent {
		return first * 10
	}
	return first
}

// countOutsideQuotes counts delim in line, skipping quoted sections.
func countOutsideQuotes(line, delim, quote string) int {
	count := 0
	inQuotes := false
	for i := 0; i < len(line); {
		switch {
		case strings.HasPrefix(line[i:], quote):
			inQuotes = !inQuotes
			i += len(quote)
		case !inQuotes && strings.HasPrefix(line[i:], delim):
			count++
			i += len(delim)
		default:
			i++
		}
	}
	return count
}
