package main

import (
	"path/filepath"
	"testing"

	"github.com/lingodb/lingo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleDatabase(t *testing.T) string {
	t.Helper()
	spec, err := parseInputSpec([]byte(sampleSpecJSON))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sample.lingo")
	require.NoError(t, buildFromSpec(spec, path))
	return path
}

func TestParseQueryExprChainsCalls(t *testing.T) {
	q, err := parseQueryExpr("find(cat).similar(0.9).limit(5)")
	require.NoError(t, err)
	cq := q.Compile()
	assert.NotEmpty(t, cq.Bytecode)
}

func TestParseQueryExprRejectsUnknownCall(t *testing.T) {
	_, err := parseQueryExpr("find(cat).bogus()")
	assert.Error(t, err)
}

func TestParseQueryExprRejectsEmptyExpression(t *testing.T) {
	_, err := parseQueryExpr("")
	assert.Error(t, err)
}

func TestParseQueryExprRejectsUnterminatedCall(t *testing.T) {
	_, err := parseQueryExpr("find(cat")
	assert.Error(t, err)
}

func TestRunQueryExprFindReturnsMatch(t *testing.T) {
	path := buildSampleDatabase(t)
	nodes, err := runQueryExpr(path, "find(cat)")
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	db, err := lingo.Open(path)
	require.NoError(t, err)
	defer db.Close()
	catID, ok := db.FindByWord("cat")
	require.True(t, ok)
	assert.Equal(t, catID, nodes[0])
}

func TestRunQueryExprLayerUpFollowsHypernymy(t *testing.T) {
	path := buildSampleDatabase(t)
	nodes, err := runQueryExpr(path, "find(cat).layerup()")
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	db, err := lingo.Open(path)
	require.NoError(t, err)
	defer db.Close()
	animalID, ok := db.FindByWord("animal")
	require.True(t, ok)
	assert.Equal(t, animalID, nodes[0])
}

func TestRunQueryExprUnknownDatabaseFails(t *testing.T) {
	_, err := runQueryExpr(filepath.Join(t.TempDir(), "missing.lingo"), "find(cat)")
	assert.Error(t, err)
}

func TestRunQueryExprRejectsOverlongExpression(t *testing.T) {
	path := buildSampleDatabase(t)
	huge := "find(" + string(make([]byte, 20*1024)) + ")"
	_, err := runQueryExpr(path, huge)
	assert.Error(t, err)
}

func TestParseQueryExprRejectsLimitAboveMaximum(t *testing.T) {
	_, err := parseQueryExpr("find(cat).limit(10001)")
	assert.Error(t, err)
}
