package workspace

import (
	"strings"

	"dicomschema/internal/schema"
)

// Workspace holds the acquisitions currently open in the editor.
type Workspace struct {
	Acquisitions []schema.Acquisition
}

// New returns an empty workspace.
func New() Workspace {
	return Workspace{}
}

// Add appends acquisitions, assigning ids to any that lack one.
func (w Workspace) Add(acquisitions ...schema.Acquisition) Workspace {
	next := w.clone()
	for _, acq := range acquisitions {
		clone := acq.Clone()
		if strings.TrimSpace(clone.ID) == "" {
			clone.ID = schema.NewAcquisitionID()
		}
		next.Acquisitions = append(next.Acquisitions, clone)
	}
	return next
}

// Remove deletes the acquisition with the given id.
func (w Workspace) Remove(id string) Workspace {
	next := Workspace{}
	for _, acq := range w.Acquisitions {
		if acq.ID == id {
			continue
		}
		next.Acquisitions = append(next.Acquisitions, acq.Clone())
	}
	return next
}

// Clear empties the workspace.
func (w Workspace) Clear() Workspace {
	return Workspace{}
}

// Find returns a copy of the acquisition with the given id.
func (w Workspace) Find(id string) (schema.Acquisition, bool) {
	for _, acq := range w.Acquisitions {
		if acq.ID == id {
			return acq.Clone(), true
		}
	}
	return schema.Acquisition{}, false
}

// AcquisitionUpdate names the top-level scalar properties that
// UpdateAcquisition may shallow-merge. Nil pointers leave the property
// untouched.
type AcquisitionUpdate struct {
	ProtocolName      *string
	SeriesDescription *string
}

// UpdateAcquisition shallow-merges top-level scalar properties.
func (w Workspace) UpdateAcquisition(id string, update AcquisitionUpdate) Workspace {
	return w.withAcquisition(id, func(acq *schema.Acquisition) {
		if update.ProtocolName != nil {
			acq.ProtocolName = *update.ProtocolName
		}
		if update.SeriesDescription != nil {
			acq.SeriesDescription = *update.SeriesDescription
		}
	})
}

func (w Workspace) clone() Workspace {
	next := Workspace{}
	if w.Acquisitions != nil {
		next.Acquisitions = make([]schema.Acquisition, len(w.Acquisitions))
		for i, acq := range w.Acquisitions {
			next.Acquisitions[i] = acq.Clone()
		}
	}
	return next
}

// withAcquisition clones the workspace and applies mutate to the acquisition
// with the given id. Unknown ids return the workspace unchanged.
func (w Workspace) withAcquisition(id string, mutate func(*schema.Acquisition)) Workspace {
	index := -1
	for i, acq := range w.Acquisitions {
		if acq.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return w
	}
	next := w.clone()
	mutate(&next.Acquisitions[index])
	return next
}
