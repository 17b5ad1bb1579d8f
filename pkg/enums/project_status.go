package enums

import "fmt"

// ProjectStatus tracks where a contracting job is.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

var validProjectStatuses = []ProjectStatus{
	ProjectStatusActive,
	ProjectStatusCompleted,
	ProjectStatusArchived,
}

// String implements fmt.Stringer.
func (v ProjectStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ProjectStatus.
func (v ProjectStatus) IsValid() bool {
	for _, candidate := range validProjectStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseProjectStatus converts raw input into a ProjectStatus.
func ParseProjectStatus(value string) (ProjectStatus, error) {
	for _, candidate := range validProjectStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid project status %q", value)
}
