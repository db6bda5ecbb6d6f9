package main

import (
	"path/filepath"
	"testing"

	"github.com/lingodb/lingo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpecJSON = `{
	"language": "en-US",
	"model_version": "1.0.0",
	"nodes": [
		{"word": "animal", "layer": "concepts", "x": 0.5, "y": 0.5, "z": 0.9, "etymology": "latin", "morpheme_type": "root"},
		{"word": "cat", "layer": "words", "x": 0.30, "y": 0.10, "z": 0.55, "etymology": "germanic", "morpheme_type": "root"},
		{"word": "dog", "layer": "words", "x": 0.32, "y": 0.10, "z": 0.55, "etymology": "germanic", "morpheme_type": "root"}
	],
	"connections": [
		{"source": "cat", "target": "animal", "type": "hypernymy", "strength": 1.0},
		{"source": "cat", "target": "dog", "type": "synonymy", "strength": 0.9}
	],
	"children": [
		{"parent": "animal", "children": ["cat", "dog"]}
	]
}`

func TestParseInputSpecRejectsEmptyNodes(t *testing.T) {
	_, err := parseInputSpec([]byte(`{"nodes": []}`))
	assert.Error(t, err)
}

func TestParseInputSpecRejectsMalformedJSON(t *testing.T) {
	_, err := parseInputSpec([]byte(`{not json`))
	assert.Error(t, err)
}

func TestBuildFromSpecRoundTripsThroughDatabase(t *testing.T) {
	spec, err := parseInputSpec([]byte(sampleSpecJSON))
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "out.lingo")
	require.NoError(t, buildFromSpec(spec, outPath))

	db, err := lingo.Open(outPath)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 3, db.NodeCount())
	assert.Equal(t, 2, db.ConnectionCount())

	catID, ok := db.FindByWord("cat")
	require.True(t, ok)
	catNode, err := db.Node(catID)
	require.NoError(t, err)
	assert.Equal(t, lingo.LayerWords, catNode.Layer)
}

func TestBuildFromSpecRejectsUnknownLayer(t *testing.T) {
	spec, err := parseInputSpec([]byte(`{"nodes": [{"word": "x", "layer": "bogus"}]}`))
	require.NoError(t, err)

	err = buildFromSpec(spec, filepath.Join(t.TempDir(), "out.lingo"))
	assert.Error(t, err)
}

func TestBuildFromSpecRejectsUnknownConnectionSource(t *testing.T) {
	spec, err := parseInputSpec([]byte(`{
		"nodes": [{"word": "x", "layer": "words", "etymology": "unknown", "morpheme_type": "root"}],
		"connections": [{"source": "missing", "target": "x", "type": "synonymy", "strength": 1.0}]
	}`))
	require.NoError(t, err)

	err = buildFromSpec(spec, filepath.Join(t.TempDir(), "out.lingo"))
	assert.Error(t, err)
}
