package runner

import "bytes"

// splitLines returns a bufio.SplitFunc that breaks on CR, LF or CRLF and
// cuts lines longer than max bytes into max-sized pieces. A CR at the
// end of the buffer asks for more data so that a CRLF split across two
// reads is still one terminator.
func splitLines(max int) func(data []byte, atEOF bool) (int, []byte, error) {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.IndexAny(data, "\r\n"); i >= 0 && (max <= 0 || i <= max) {
			if data[i] == '\n' {
				return i + 1, data[:i], nil
			}
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if atEOF {
				return i + 1, data[:i], nil
			}
			return 0, nil, nil
		}
		if max > 0 && len(data) >= max {
			return max, data[:max], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
