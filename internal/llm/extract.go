package llm

import (
	"encoding/json"
	"errors"
)

// ErrNoObject indicates that no balanced JSON object could be found in the
// oracle output.
var ErrNoObject = errors.New("no JSON object in oracle output")

// ExtractObject finds the first balanced brace-delimited region in free text
// and unmarshals it into v. Oracle output routinely wraps the payload in
// prose or markdown fences, so a plain json.Unmarshal of the whole response
// is not reliable.
//
// Brace counting ignores braces inside JSON strings, including escaped
// quotes, so body text such as "set {x} to \"y\"" does not unbalance the
// scan.
func ExtractObject(text string, v any) error {
	region, ok := firstObject(text)
	if !ok {
		return ErrNoObject
	}
	if err := json.Unmarshal([]byte(region), v); err != nil {
		return err
	}
	return nil
}

// firstObject returns the first balanced {...} region of s.
func firstObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
