package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelvault/modelvault/internal/store"
)

func fd(project, name, fileType string, version int64) *store.FileDescriptor {
	return &store.FileDescriptor{
		ID:   name + fileType + string(rune('0'+version)),
		Name: name,
		Metadata: store.Metadata{
			Owner:         "alice",
			Project:       project,
			FileType:      fileType,
			VersionNumber: version,
		},
	}
}

func TestBuild_GroupsAndSorts(t *testing.T) {
	fds := []*store.FileDescriptor{
		fd("bridge", "deck", "stl", 3),
		fd("bridge", "deck", "stl", 1),
		fd("bridge", "deck", "obj", 1),
		fd("bridge", "pylon", "stl", 1),
		fd("airport", "tower", "stl", 2),
	}

	projects := Build(fds)
	require.Len(t, projects, 2)
	assert.Equal(t, "airport", projects[0].Name)
	assert.Equal(t, "bridge", projects[1].Name)

	bridge := projects[1]
	require.Len(t, bridge.Models, 3)
	assert.Equal(t, "deck", bridge.Models[0].Name)
	assert.Equal(t, "obj", bridge.Models[0].FileType)
	assert.Equal(t, "stl", bridge.Models[1].FileType)
	assert.Equal(t, "pylon", bridge.Models[2].Name)

	deck := bridge.FindModel("deck", "stl")
	require.NotNil(t, deck)
	require.Len(t, deck.Versions, 2)
	assert.Equal(t, int64(1), deck.Versions[0].Number)
	assert.Equal(t, int64(3), deck.Versions[1].Number)
	assert.Equal(t, int64(3), deck.Latest().Number)
}

func TestReload_KeepsSurvivingSelection(t *testing.T) {
	st := &State{}
	st.Reload([]*store.FileDescriptor{
		fd("bridge", "deck", "stl", 1),
		fd("bridge", "deck", "stl", 2),
	})
	st.Selection = Selection{Project: "bridge", Name: "deck", FileType: "stl", Version: 2}

	st.Reload([]*store.FileDescriptor{
		fd("bridge", "deck", "stl", 1),
		fd("bridge", "deck", "stl", 2),
		fd("bridge", "deck", "stl", 3),
	})

	assert.Equal(t, Selection{Project: "bridge", Name: "deck", FileType: "stl", Version: 2}, st.Selection)
}

func TestReload_DeletedVersionFallsBackToModel(t *testing.T) {
	st := &State{}
	st.Selection = Selection{Project: "bridge", Name: "deck", FileType: "stl", Version: 2}

	st.Reload([]*store.FileDescriptor{fd("bridge", "deck", "stl", 1)})

	assert.Equal(t, Selection{Project: "bridge", Name: "deck", FileType: "stl"}, st.Selection)
}

func TestReload_DeletedModelFallsBackToProject(t *testing.T) {
	st := &State{}
	st.Selection = Selection{Project: "bridge", Name: "deck", FileType: "stl"}

	st.Reload([]*store.FileDescriptor{fd("bridge", "pylon", "stl", 1)})

	assert.Equal(t, Selection{Project: "bridge"}, st.Selection)
}

func TestReload_DeletedProjectClearsSelection(t *testing.T) {
	st := &State{}
	st.Selection = Selection{Project: "bridge"}

	st.Reload([]*store.FileDescriptor{fd("airport", "tower", "stl", 1)})

	assert.True(t, st.Selection.IsZero())
}
