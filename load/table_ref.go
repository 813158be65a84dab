package load

import (
	"strings"

	"github.com/pkg/errors"
)

// TableRef addresses a destination table. An empty Project means the project
// the client was created for.
type TableRef struct {
	Project string
	Dataset string
	Table   string
}

// ParseTableRef accepts "dataset.table", "project.dataset.table" and the legacy
// "project:dataset.table" form.
func ParseTableRef(name string) (TableRef, error) {
	name = strings.TrimSpace(name)
	var ref TableRef
	if project, rest, ok := strings.Cut(name, ":"); ok {
		ref.Project = project
		name = rest
	}

	parts := strings.Split(name, ".")
	switch {
	case len(parts) == 2:
		ref.Dataset, ref.Table = parts[0], parts[1]
	case len(parts) == 3 && ref.Project == "":
		ref.Project, ref.Dataset, ref.Table = parts[0], parts[1], parts[2]
	default:
		return TableRef{}, errors.Errorf("invalid table name %q, expected [project.]dataset.table", name)
	}

	for _, part := range []string{ref.Project, ref.Dataset, ref.Table} {
		if strings.ContainsAny(part, " /") {
			return TableRef{}, errors.Errorf("invalid table name %q", name)
		}
	}
	if ref.Dataset == "" || ref.Table == "" {
		return TableRef{}, errors.Errorf("invalid table name %q, dataset and table are required", name)
	}
	return ref, nil
}

func (r TableRef) String() string {
	if r.Project == "" {
		return r.Dataset + "." + r.Table
	}
	return r.Project + "." + r.Dataset + "." + r.Table
}
