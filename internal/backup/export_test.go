package backup

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/homelibrarian/homelibrarian/internal/errors"
)

func TestBuildCatalog(t *testing.T) {
	st := sampleState()
	c := BuildCatalog(&st, testNow)

	require.Len(t, c.Locations, 2)
	assert.Equal(t, CatalogLocation{Path: "Living Room", Type: "Room", Books: 0}, c.Locations[0])
	assert.Equal(t, CatalogLocation{Path: "Living Room > Shelf A", Type: "Shelf", Books: 1}, c.Locations[1])

	require.Len(t, c.Books, 1)
	assert.Equal(t, "Living Room > Shelf A", c.Books[0].Location)

	require.Len(t, c.Members, 1)
	assert.Equal(t, []string{"Pride and Prejudice"}, c.Members[0].Favorites)
	require.NotNil(t, c.Members[0].Age)
	assert.Equal(t, 40, *c.Members[0].Age)

	require.Len(t, c.Loans, 1)
	assert.Equal(t, "overdue", c.Loans[0].Status)
	assert.Equal(t, 1, c.Stats.OverdueLoans)
}

func TestExport(t *testing.T) {
	st := sampleState()

	var y bytes.Buffer
	require.NoError(t, Export(&y, &st, testNow, FormatYAML))
	var fromYAML Catalog
	require.NoError(t, yaml.Unmarshal(y.Bytes(), &fromYAML))
	assert.Equal(t, "Pride and Prejudice", fromYAML.Books[0].Title)
	assert.Contains(t, y.String(), "activeLoans: 1")

	var j bytes.Buffer
	require.NoError(t, Export(&j, &st, testNow, FormatJSON))
	var fromJSON Catalog
	require.NoError(t, json.Unmarshal(j.Bytes(), &fromJSON))
	assert.Equal(t, "Ravi", fromJSON.Loans[0].Borrower)

	err := Export(&j, &st, testNow, "xml")
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}
