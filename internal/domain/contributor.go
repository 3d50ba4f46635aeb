package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contributor is an organization that uploads facility lists to the registry.
// Exactly one administering account (AdminID) is responsible for its lists.
type Contributor struct {
	ID          uuid.UUID
	AdminID     uuid.UUID
	Name        string
	Description string
	Website     string
	ContribType ContributorType
	// OtherContribType holds the free-text category when ContribType is "Other".
	OtherContribType *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks the fields required to register a contributor.
func (c *Contributor) Validate() error {
	var errs []FieldError
	if c.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !c.ContribType.IsValid() {
		errs = append(errs, FieldError{Field: "contrib_type", Message: "unknown contributor type"})
	}
	if c.ContribType == ContributorTypeOther && (c.OtherContribType == nil || *c.OtherContribType == "") {
		errs = append(errs, FieldError{Field: "other_contrib_type", Message: "required when contributor type is Other"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}
