package models

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidschrooten/esmapper/internal/schema"
)

func TestRegistry(t *testing.T) {
	r, err := Registry()
	require.NoError(t, err)
	assert.Equal(t, []string{"TrafficInfo"}, r.Names())
}

func TestTrafficInfo_Identity(t *testing.T) {
	m, err := schema.ModelOf(TrafficInfo{})
	require.NoError(t, err)

	index, err := schema.IndexNameOf(m)
	require.NoError(t, err)
	assert.Equal(t, TrafficIndexName, index)

	typ, err := schema.TypeNameOf(m)
	require.NoError(t, err)
	assert.Equal(t, TrafficTypeName, typ)
}

func TestTrafficInfo_Golden(t *testing.T) {
	m, err := schema.ModelOf(TrafficInfo{})
	require.NoError(t, err)

	s, err := schema.CompileSchema(m)
	require.NoError(t, err)

	got, err := json.MarshalIndent(s.Body(true), "", "  ")
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join("testdata", "traffic_index.json"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got)+"\n")
}
