// Package tree builds the project/model/version hierarchy the CLI renders
// from flat descriptor lists, and keeps track of which node is selected
// across reloads.
package tree

import (
	"sort"
	"time"

	"github.com/modelvault/modelvault/internal/store"
)

// Version is one stored object inside a model.
type Version struct {
	Number      int64
	Description string
	ObjectID    string
	Length      int64
	UploadedAt  time.Time
}

// Model groups every version sharing a name and file type within a project.
type Model struct {
	Name     string
	FileType string
	Versions []*Version
}

// Project groups the models sharing a project name.
type Project struct {
	Name   string
	Models []*Model
}

func (p *Project) FindModel(name, fileType string) *Model {
	for _, m := range p.Models {
		if m.Name == name && m.FileType == fileType {
			return m
		}
	}
	return nil
}

func (m *Model) FindVersion(number int64) *Version {
	for _, v := range m.Versions {
		if v.Number == number {
			return v
		}
	}
	return nil
}

// Latest returns the highest version of the model, or nil when it has none.
func (m *Model) Latest() *Version {
	if len(m.Versions) == 0 {
		return nil
	}
	return m.Versions[len(m.Versions)-1]
}

// Build groups flat descriptors into projects, models within a project, and
// ascending versions within a model. Projects and models are sorted by name
// so repeated builds over the same data render identically.
func Build(fds []*store.FileDescriptor) []*Project {
	byProject := map[string]*Project{}
	for _, fd := range fds {
		p, ok := byProject[fd.Metadata.Project]
		if !ok {
			p = &Project{Name: fd.Metadata.Project}
			byProject[fd.Metadata.Project] = p
		}
		m := p.FindModel(fd.Name, fd.Metadata.FileType)
		if m == nil {
			m = &Model{Name: fd.Name, FileType: fd.Metadata.FileType}
			p.Models = append(p.Models, m)
		}
		m.Versions = append(m.Versions, &Version{
			Number:      fd.Metadata.VersionNumber,
			Description: fd.Metadata.VersionDescription,
			ObjectID:    fd.ID,
			Length:      fd.Length,
			UploadedAt:  fd.UploadedAt,
		})
	}

	projects := make([]*Project, 0, len(byProject))
	for _, p := range byProject {
		for _, m := range p.Models {
			sort.Slice(m.Versions, func(i, j int) bool {
				return m.Versions[i].Number < m.Versions[j].Number
			})
		}
		sort.Slice(p.Models, func(i, j int) bool {
			if p.Models[i].Name != p.Models[j].Name {
				return p.Models[i].Name < p.Models[j].Name
			}
			return p.Models[i].FileType < p.Models[j].FileType
		})
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects
}
