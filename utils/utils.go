package utils

// Batched splits items into consecutive chunks of at most size elements.
// The last chunk may be shorter. A size below 1 yields a single chunk.
func Batched[T any](items []T, size int) [][]T {
	if size < 1 {
		size = len(items)
		if size == 0 {
			return nil
		}
	}
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

// FirstJSON returns the first balanced {...} object embedded in s, or s
// itself when none is found. Oracle replies sometimes wrap the JSON in prose.
func FirstJSON(s string) string {
	start := -1
	depth := 0
	for i, ch := range s {
		if ch == '{' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == '}' {
			if depth > 0 {
				depth--
			}
			if depth == 0 && start != -1 {
				return s[start : i+1]
			}
		}
	}
	return s
}
