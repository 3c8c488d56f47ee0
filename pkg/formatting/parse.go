package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrParseFailed is returned when a JSON object was located in the content
	// but could not be decoded into the target type.
	ErrParseFailed = errors.New("failed to parse response")
	// ErrNoObject is returned when the content holds no JSON object at all.
	ErrNoObject = errors.New("no JSON object in response")
)

var (
	fencePattern  = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// Parse decodes structured model output into T.
//
// Model replies are untrusted free text, so decoding is attempted in order
// against the whole content, the body of a markdown code fence, and finally
// the widest {...} span in the content. The first candidate that decodes wins.
// ErrNoObject is returned when no candidate exists, ErrParseFailed when
// candidates exist but none decode.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	candidates := make([]string, 0, 3)
	if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
		candidates = append(candidates, content)
	}
	if m := fencePattern.FindStringSubmatch(content); len(m) >= 2 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if obj := objectPattern.FindString(content); obj != "" {
		candidates = append(candidates, obj)
	}

	if len(candidates) == 0 {
		return result, fmt.Errorf("%w: %q", ErrNoObject, truncate(content, 200))
	}

	for _, c := range candidates {
		var v T
		if err := json.Unmarshal([]byte(c), &v); err == nil {
			return v, nil
		}
	}

	return result, fmt.Errorf("%w: %q", ErrParseFailed, truncate(content, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
