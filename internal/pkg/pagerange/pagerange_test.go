package pagerange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenpdf-worker/internal/pkg/workererr"
)

func TestParseListClampsAgainstTotalPages(t *testing.T) {
	got := ParseList("1,3-5,7", 4)
	assert.Equal(t, []int{1, 3, 4}, got)
}

func TestParseListDropsNonNumericTokens(t *testing.T) {
	got := ParseList("1, x, 2", 4)
	assert.Equal(t, []int{1, 2}, got)
}

func TestParseListPreservesDuplicatesAndOrder(t *testing.T) {
	got := ParseList("2,1-2", 4)
	assert.Equal(t, []int{2, 1, 2}, got)
}

func TestResolvePageSelectionFailsUserErrorWhenEmpty(t *testing.T) {
	_, err := ResolvePageSelection("", 4)
	require.Error(t, err)
	assert.True(t, workererr.IsUser(err))
}

func TestParseMarginsSingleValue(t *testing.T) {
	m, err := ParseMargins("10")
	require.NoError(t, err)
	assert.Equal(t, Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}, m)
}

func TestParseMarginsFourValues(t *testing.T) {
	m, err := ParseMargins("1,2,3,4")
	require.NoError(t, err)
	assert.Equal(t, Margins{Top: 1, Right: 2, Bottom: 3, Left: 4}, m)
}

func TestParseMarginsRejectsInvalidValues(t *testing.T) {
	for _, value := range []string{"bad", "10,10", "-5"} {
		_, err := ParseMargins(value)
		require.Error(t, err, value)
		assert.True(t, workererr.IsUser(err), value)
	}
}
