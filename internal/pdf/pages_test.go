package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name        string
		pageRange   string
		want        []int
		expectError bool
	}{
		{name: "empty range returns nil", pageRange: "", want: nil},
		{name: "single page", pageRange: "1", want: []int{1}},
		{name: "multiple single pages", pageRange: "1,3,5", want: []int{1, 3, 5}},
		{name: "simple range", pageRange: "88-92", want: []int{88, 89, 90, 91, 92}},
		{name: "mixed pages and ranges", pageRange: "1,3-5,7", want: []int{1, 3, 4, 5, 7}},
		{name: "range with spaces", pageRange: " 1 - 3 , 5 ", want: []int{1, 2, 3, 5}},
		{name: "duplicates collapse", pageRange: "2,1-3", want: []int{2, 1, 3}},
		{name: "invalid page number", pageRange: "abc", expectError: true},
		{name: "invalid range format", pageRange: "1-2-3", expectError: true},
		{name: "reversed range", pageRange: "5-1", expectError: true},
		{name: "zero page", pageRange: "0", expectError: true},
		{name: "zero start", pageRange: "0-2", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePageRange(tt.pageRange)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectPages(t *testing.T) {
	got, err := SelectPages("", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	got, err = SelectPages("2-6", 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, got)

	got, err = SelectPages("9", 4)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = SelectPages("x", 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid page range")
}

func TestPageStrings(t *testing.T) {
	assert.Nil(t, pageStrings(nil))
	assert.Equal(t, []string{"3", "10"}, pageStrings([]int{3, 10}))
}
