package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digestFixture() Entity {
	return Entity{
		ID:           "e1",
		Name:         "Orders",
		Type:         "table",
		Status:       StatusOK,
		Dependencies: []string{"p1", "p2"},
		Config:       Config{OperationName: "Filter Rows", InputParams: map[string]string{"condition": "x > 10"}},
		Data:         NewData(Tabular{Headers: []string{"id"}, Rows: [][]any{{"1"}}}),
		CreatedDate:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestContentDigestIsStable(t *testing.T) {
	a, err := ContentDigest(digestFixture())
	require.NoError(t, err)
	b, err := ContentDigest(digestFixture())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestContentDigestIgnoresIdentityAndStatus(t *testing.T) {
	base, err := ContentDigest(digestFixture())
	require.NoError(t, err)

	e := digestFixture()
	e.ID = "other"
	e.Status = StatusError
	e.CreatedDate = time.Now()
	changed, err := ContentDigest(e)
	require.NoError(t, err)

	assert.Equal(t, base, changed)
}

func TestContentDigestTracksContent(t *testing.T) {
	base, err := ContentDigest(digestFixture())
	require.NoError(t, err)

	mutations := map[string]func(*Entity){
		"name":         func(e *Entity) { e.Name = "Orders v2" },
		"dependencies": func(e *Entity) { e.Dependencies = []string{"p2", "p1"} },
		"folder":       func(e *Entity) { e.FolderID = "f1" },
		"config":       func(e *Entity) { e.Config.InputParams["condition"] = "x > 11" },
		"data":         func(e *Entity) { e.Data = NewData(Document{Text: "doc"}) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			e := digestFixture()
			mutate(&e)
			got, err := ContentDigest(e)
			require.NoError(t, err)
			assert.NotEqual(t, base, got)
		})
	}
}

func TestContentDigestNilAndEmptyDependenciesMatch(t *testing.T) {
	a := digestFixture()
	a.Dependencies = nil
	b := digestFixture()
	b.Dependencies = []string{}

	da, err := ContentDigest(a)
	require.NoError(t, err)
	db, err := ContentDigest(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}
