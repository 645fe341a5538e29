package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(trafficModel()))

	m, ok := r.Lookup("TrafficInfo")
	require.True(t, ok)
	assert.Equal(t, "TrafficInfo", m.Name)

	_, ok = r.Lookup("Missing")
	assert.False(t, ok)

	other := &Model{
		Name:     "Other",
		Document: &Document{IndexName: "other_index", TypeName: "other"},
		Fields:   []Field{{Name: "x", Spec: Simple{Property{Type: Keyword}}}},
	}
	require.NoError(t, r.Register(other))

	assert.Equal(t, []string{"TrafficInfo", "Other"}, r.Names())
	assert.Len(t, r.Models(), 2)
}

func TestRegistry_RejectsInvalidModels(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(trafficModel()))

	sameIndex := trafficModel()
	sameIndex.Name = "Copy"

	noDocument := trafficModel()
	noDocument.Name = "NoDocument"
	noDocument.Document = nil

	tests := []struct {
		name  string
		model *Model
	}{
		{"nil", nil},
		{"unnamed", &Model{}},
		{"duplicate name", trafficModel()},
		{"duplicate index", sameIndex},
		{"no document", noDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.model)
			assert.True(t, errors.Is(err, ErrSchema), "got %v", err)
		})
	}
	assert.Equal(t, []string{"TrafficInfo"}, r.Names())
}
