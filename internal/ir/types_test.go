package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityCloneSharesNothing(t *testing.T) {
	e := Entity{
		ID:           "e1",
		Dependencies: []string{"a"},
		Config: Config{
			InputParams: map[string]string{"k": "v"},
			Steps:       []Step{{ID: "s1", Operation: "Sort Data", Params: map[string]string{"column": "name"}}},
		},
		Data: NewData(Opaque{"k": "v"}),
	}

	cp := e.Clone()
	e.Dependencies[0] = "b"
	e.Config.InputParams["k"] = "changed"
	e.Config.Steps[0].Params["column"] = "id"
	e.Data.Payload().(Opaque)["k"] = "changed"

	assert.Equal(t, []string{"a"}, cp.Dependencies)
	assert.Equal(t, "v", cp.Config.InputParams["k"])
	assert.Equal(t, "name", cp.Config.Steps[0].Params["column"])
	assert.Equal(t, "v", cp.Data.Payload().(Opaque)["k"])
}

func TestEntityCloneNormalizesNilDependencies(t *testing.T) {
	cp := Entity{}.Clone()
	assert.NotNil(t, cp.Dependencies)
	assert.Empty(t, cp.Dependencies)
}

func TestEntityJSONRoundTrip(t *testing.T) {
	e := Entity{
		ID:           "e1",
		Name:         "Report",
		Type:         "document",
		Status:       StatusStale,
		FolderID:     "f1",
		Dependencies: []string{"a", "b"},
		Config:       Config{Description: "weekly", OperationName: "Summarize Text"},
		Data:         NewData(Document{Text: "# Report"}),
	}

	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"folderId":"f1"`)
	assert.Contains(t, string(b), `"operationName":"Summarize Text"`)

	var back Entity
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, e.Name, back.Name)
	assert.Equal(t, e.Dependencies, back.Dependencies)
	assert.Equal(t, PayloadDocument, back.Data.Kind())
}

func TestConfigKeepsUnknownKeys(t *testing.T) {
	in := `{
		"operationName": "Join Tables",
		"pipelineDescription": "orders with customers",
		"operationChain": [{"id": "s1", "operation": "Join Tables", "secondaryInput": "c1"}],
		"steps": [{"id": "s1", "operation": "Join Tables", "params": {"joinType": "left"}, "secondaryInput": "c1"}]
	}`

	var c Config
	require.NoError(t, json.Unmarshal([]byte(in), &c))
	assert.Equal(t, "Join Tables", c.OperationName)
	assert.Contains(t, c.Extra, "pipelineDescription")
	assert.Contains(t, c.Extra, "operationChain")
	assert.NotContains(t, c.Extra, "operationName")
	require.Len(t, c.Steps, 1)
	assert.JSONEq(t, `"c1"`, string(c.Steps[0].Extra["secondaryInput"]))

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(b))
}

func TestConfigWithoutExtraEncodesKnownFields(t *testing.T) {
	b, err := json.Marshal(Config{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))

	var c Config
	require.NoError(t, json.Unmarshal([]byte(`{"description":"d"}`), &c))
	assert.Nil(t, c.Extra)
}

func TestConfigModelledFieldWinsOverExtra(t *testing.T) {
	c := Config{
		OperationName: "Sort Data",
		Extra:         map[string]json.RawMessage{"operationName": json.RawMessage(`"stale"`)},
	}

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"operationName":"Sort Data"}`, string(b))
}

func TestConfigCloneCopiesExtra(t *testing.T) {
	c := Config{
		Extra: map[string]json.RawMessage{"pipelineDescription": json.RawMessage(`"x"`)},
		Steps: []Step{{ID: "s1", Extra: map[string]json.RawMessage{"secondaryInput": json.RawMessage(`"a"`)}}},
	}

	cp := c.Clone()
	c.Extra["pipelineDescription"][1] = 'y'
	c.Steps[0].Extra["secondaryInput"] = json.RawMessage(`"b"`)

	assert.JSONEq(t, `"x"`, string(cp.Extra["pipelineDescription"]))
	assert.JSONEq(t, `"a"`, string(cp.Steps[0].Extra["secondaryInput"]))
}

func TestStatusAndLevelValid(t *testing.T) {
	for _, s := range []Status{StatusOK, StatusStale, StatusError, StatusPending} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("done").Valid())

	for _, l := range []Level{LevelInfo, LevelSuccess, LevelWarning, LevelError} {
		assert.True(t, l.Valid(), l)
	}
	assert.False(t, Level("debug").Valid())
}

func TestEntityDependsOn(t *testing.T) {
	e := Entity{Dependencies: []string{"a", "b"}}
	assert.True(t, e.DependsOn("b"))
	assert.False(t, e.DependsOn("c"))
}
