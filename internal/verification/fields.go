package verification

import (
	"fmt"
	"regexp"
	"strings"
)

var fieldPatterns = func() map[FieldKey]*regexp.Regexp {
	patterns := make(map[FieldKey]*regexp.Regexp, len(fieldLabels))
	for key, label := range fieldLabels {
		patterns[key] = labelPattern(label)
	}
	return patterns
}()

// labelPattern matches "<label>", an optional ':' or '-', and captures the rest of the line.
func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)\b%s\s*[:\-]?\s*(.+)`, regexp.QuoteMeta(label)))
}

// ExtractField returns the value following the field's label in text, or nil when
// the label is absent or followed by nothing.
func ExtractField(text string, key FieldKey) *string {
	re, ok := fieldPatterns[key]
	if !ok {
		return nil
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v := strings.TrimSpace(m[1])
	if v == "" {
		return nil
	}
	return &v
}

// ExtractFields pulls the requested keys out of text.
func ExtractFields(text string, keys ...FieldKey) ExtractedFields {
	out := make(ExtractedFields, len(keys))
	for _, k := range keys {
		out[k] = ExtractField(text, k)
	}
	return out
}
