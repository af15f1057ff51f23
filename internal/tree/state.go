package tree

import "github.com/modelvault/modelvault/internal/store"

// Selection identifies the currently focused node by what it is, not by
// its position, so a rebuilt tree can restore it after data changes.
// Empty fields narrow the selection: only Project set selects a project,
// Project+Name+FileType a model, and a non-zero Version a single version.
type Selection struct {
	Project  string
	Name     string
	FileType string
	Version  int64
}

func (s Selection) IsZero() bool { return s.Project == "" }

// State is a snapshot of the hierarchy plus the current selection.
type State struct {
	Projects  []*Project
	Selection Selection
}

// Reload rebuilds the hierarchy from fresh descriptors and restores the
// selection to the same identity when it still exists.
func (st *State) Reload(fds []*store.FileDescriptor) {
	st.Projects = Build(fds)
	st.Selection = st.reselect()
}

func (st *State) FindProject(name string) *Project {
	for _, p := range st.Projects {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// reselect walks the selection down the new tree, keeping the deepest part
// that survived the reload. A deleted version falls back to its model, a
// deleted model to its project, a deleted project to no selection.
func (st *State) reselect() Selection {
	sel := st.Selection
	if sel.IsZero() {
		return Selection{}
	}
	p := st.FindProject(sel.Project)
	if p == nil {
		return Selection{}
	}
	if sel.Name == "" {
		return Selection{Project: sel.Project}
	}
	m := p.FindModel(sel.Name, sel.FileType)
	if m == nil {
		return Selection{Project: sel.Project}
	}
	if sel.Version == 0 {
		return sel
	}
	if m.FindVersion(sel.Version) == nil {
		return Selection{Project: sel.Project, Name: sel.Name, FileType: sel.FileType}
	}
	return sel
}
