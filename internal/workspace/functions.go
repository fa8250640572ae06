package workspace

import (
	"strings"

	"github.com/google/uuid"

	"dicomschema/internal/schema"
)

// AddFunction appends a validation function to the acquisition, assigning an
// id when the function lacks one.
func (w Workspace) AddFunction(id string, fn schema.ValidationFunction) Workspace {
	return w.withAcquisition(id, func(acq *schema.Acquisition) {
		clone := fn.Clone()
		if strings.TrimSpace(clone.ID) == "" {
			clone.ID = uuid.NewString()
		}
		acq.Functions = append(acq.Functions, clone)
	})
}

// UpdateFunction replaces the validation function at the given index,
// preserving its id.
func (w Workspace) UpdateFunction(id string, index int, fn schema.ValidationFunction) Workspace {
	return w.withAcquisition(id, func(acq *schema.Acquisition) {
		if index < 0 || index >= len(acq.Functions) {
			return
		}
		clone := fn.Clone()
		if strings.TrimSpace(clone.ID) == "" {
			clone.ID = acq.Functions[index].ID
		}
		acq.Functions[index] = clone
	})
}

// DeleteFunction removes the validation function at the given index.
func (w Workspace) DeleteFunction(id string, index int) Workspace {
	return w.withAcquisition(id, func(acq *schema.Acquisition) {
		if index < 0 || index >= len(acq.Functions) {
			return
		}
		acq.Functions = append(acq.Functions[:index], acq.Functions[index+1:]...)
	})
}
