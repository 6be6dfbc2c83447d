package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	input := "name, age,city\nalice,30,berlin\nbob,25,paris\n"

	ds, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age", "city"}, ds.Columns)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, "alice", ds.Records[0]["name"])
	assert.Equal(t, "25", ds.Records[1]["age"])
}

func TestParseCSVRaggedRows(t *testing.T) {
	input := "a,b,c\n1,2\n1,2,3,4\n"

	ds, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)

	// Missing trailing fields map to empty strings
	assert.Equal(t, "", ds.Records[0]["c"])
	// Extra fields are dropped
	assert.Equal(t, "3", ds.Records[1]["c"])
	assert.Len(t, ds.Records[1], 3)
}

func TestParseCSVEmptyStream(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestParseCSVHeaderOnly(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.Columns)
	assert.Empty(t, ds.Records)
}

func TestParseCSVQuotedFields(t *testing.T) {
	input := "name,notes\nalice,\"hello, world\"\n"

	ds, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, "hello, world", ds.Records[0]["notes"])
}
