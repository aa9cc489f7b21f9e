package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func pets() Table {
	return Table{
		Header: []string{"ID", "NAME"},
		Rows:   [][]string{{"pet-1", "Rex"}, {"pet-22", "Tom\tcat"}},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "TABLE": FormatTable, "json": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestPrint_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable).Print(nil, pets))
	assert.Equal(t, "ID      NAME\npet-1   Rex\npet-22  Tom cat\n", buf.String())
}

func TestPrint_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatJSON).Print([]pet{{ID: "pet-1", Name: "Rex"}}, pets))
	assert.JSONEq(t, `[{"id":"pet-1","name":"Rex"}]`, buf.String())
}

func TestPrint_YAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatYAML).Print(pet{ID: "pet-1", Name: "Rex"}, pets))
	assert.Equal(t, "id: pet-1\nname: Rex\n", buf.String())
}

func TestMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable).Message("logged in as %s", "u-1"))
	assert.Equal(t, "logged in as u-1\n", buf.String())

	buf.Reset()
	require.NoError(t, New(&buf, FormatJSON).Message("bye"))
	assert.JSONEq(t, `{"message":"bye"}`, buf.String())
}
