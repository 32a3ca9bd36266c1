package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractField(t *testing.T) {
	text := "GOVERNMENT OF EXAMPLE\nName: John Smith\nID - G456\nDOB 01/02/2000\n"

	tests := []struct {
		name string
		text string
		key  FieldKey
		want *string
	}{
		{"colon separator", text, FieldName, ptr("John Smith")},
		{"dash separator", text, FieldIDNumber, ptr("G456")},
		{"no separator", text, FieldDateOfBirth, ptr("01/02/2000")},
		{"case insensitive label", "NAME : jane doe", FieldName, ptr("jane doe")},
		{"first match wins", "Name: First\nName: Second", FieldName, ptr("First")},
		{"label absent", "nothing here", FieldName, nil},
		{"label inside a word is ignored", "VALID THROUGH 2030", FieldIDNumber, nil},
		{"surname is not name", "Surname Smith", FieldName, nil},
		{"unknown key", text, FieldKey("unknown"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractField(tt.text, tt.key)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestExtractFields_AbsentIsDistinctFromEmpty(t *testing.T) {
	fields := ExtractFields("Name: Jane", FieldName, FieldDateOfBirth)

	name, ok := fields.Get(FieldName)
	assert.True(t, ok)
	assert.Equal(t, "Jane", name)

	_, ok = fields.Get(FieldDateOfBirth)
	assert.False(t, ok)
	assert.Contains(t, fields, FieldDateOfBirth)
}

func ptr(s string) *string { return &s }
