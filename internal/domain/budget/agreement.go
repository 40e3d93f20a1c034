package budget

import (
	"context"
	"time"

	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AgreementType classifies an agreement
type AgreementType string

const (
	AgreementTypeContract         AgreementType = "CONTRACT"
	AgreementTypeGrant            AgreementType = "GRANT"
	AgreementTypeIAA              AgreementType = "IAA"
	AgreementTypeDirectObligation AgreementType = "DIRECT_OBLIGATION"
)

// IsValid checks if the agreement type is a known value
func (t AgreementType) IsValid() bool {
	switch t {
	case AgreementTypeContract, AgreementTypeGrant, AgreementTypeIAA, AgreementTypeDirectObligation:
		return true
	}
	return false
}

// String returns the string representation of AgreementType
func (t AgreementType) String() string {
	return string(t)
}

// Field names of an agreement's mutable attributes
const (
	AgreementFieldName             = "name"
	AgreementFieldDescription      = "description"
	AgreementFieldAgreementType    = "agreement_type"
	AgreementFieldProjectOfficerID = "project_officer_id"
)

// agreementRestrictedFields are the attributes that must pass through an
// approved change request once any of the agreement's budget lines has left
// DRAFT.
var agreementRestrictedFields = map[string]bool{
	AgreementFieldName:          true,
	AgreementFieldAgreementType: true,
}

var agreementEditableFields = map[string]bool{
	AgreementFieldName:             true,
	AgreementFieldDescription:      true,
	AgreementFieldAgreementType:    true,
	AgreementFieldProjectOfficerID: true,
}

// IsAgreementRestrictedField reports whether the field requires approval once
// the agreement has budget lines beyond DRAFT
func IsAgreementRestrictedField(name string) bool {
	return agreementRestrictedFields[name]
}

// IsAgreementEditableField reports whether the field may be edited through the API
func IsAgreementEditableField(name string) bool {
	return agreementEditableFields[name]
}

// Agreement is a contract, grant or interagency agreement that owns budget
// line items and, through its division, the approval authority over its own
// restricted fields.
type Agreement struct {
	shared.BaseEntity
	Name             string           `gorm:"type:varchar(200);not null" json:"name"`
	AgreementType    AgreementType    `gorm:"type:varchar(30);not null" json:"agreement_type"`
	Description      string           `gorm:"type:text" json:"description"`
	DivisionID       *uuid.UUID       `gorm:"type:uuid;index" json:"division_id,omitempty"`
	ProjectOfficerID *uuid.UUID       `gorm:"type:uuid" json:"project_officer_id,omitempty"`
	BudgetLineItems  []BudgetLineItem `gorm:"foreignKey:AgreementID" json:"budget_line_items,omitempty"`
}

// TableName specifies the table name for Agreement
func (Agreement) TableName() string {
	return "agreements"
}

// NewAgreement creates a new agreement
func NewAgreement(name string, agreementType AgreementType) (*Agreement, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Agreement name cannot be empty")
	}
	if !agreementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_AGREEMENT_TYPE", "Unknown agreement type")
	}
	return &Agreement{
		BaseEntity:    shared.NewBaseEntity(),
		Name:          name,
		AgreementType: agreementType,
	}, nil
}

// HasLineBeyondDraft reports whether any loaded budget line has left DRAFT,
// which locks the agreement's restricted fields behind approval
func (a *Agreement) HasLineBeyondDraft() bool {
	for i := range a.BudgetLineItems {
		if !a.BudgetLineItems[i].IsDraft() {
			return true
		}
	}
	return false
}

// CurrentValue returns the agreement's current value for a named field
func (a *Agreement) CurrentValue(field string) any {
	switch field {
	case AgreementFieldName:
		return a.Name
	case AgreementFieldDescription:
		return a.Description
	case AgreementFieldAgreementType:
		return a.AgreementType
	case AgreementFieldProjectOfficerID:
		return a.ProjectOfficerID
	}
	return nil
}

// ValidateChange coerces and validates a proposed field value without applying it
func (a *Agreement) ValidateChange(field string, value any) (any, error) {
	switch field {
	case AgreementFieldName:
		name, ok := value.(string)
		if !ok || name == "" {
			return nil, shared.NewValidationError(field, "must be a non-empty string")
		}
		return name, nil
	case AgreementFieldDescription:
		text, ok := value.(string)
		if !ok {
			return nil, shared.NewValidationError(field, "must be a string")
		}
		return text, nil
	case AgreementFieldAgreementType:
		text, ok := value.(string)
		if !ok {
			return nil, shared.NewValidationError(field, "must be a string")
		}
		agreementType := AgreementType(text)
		if !agreementType.IsValid() {
			return nil, shared.NewValidationError(field, "unknown agreement type")
		}
		return agreementType, nil
	case AgreementFieldProjectOfficerID:
		id, err := coerceUUID(value)
		if err != nil {
			return nil, shared.NewValidationError(field, err.Error())
		}
		return id, nil
	}
	return nil, shared.NewValidationError(field, "unknown field")
}

// ApplyChange validates a proposed field value and applies it
func (a *Agreement) ApplyChange(field string, value any) error {
	validated, err := a.ValidateChange(field, value)
	if err != nil {
		return err
	}
	switch field {
	case AgreementFieldName:
		a.Name = validated.(string)
	case AgreementFieldDescription:
		a.Description = validated.(string)
	case AgreementFieldAgreementType:
		a.AgreementType = validated.(AgreementType)
	case AgreementFieldProjectOfficerID:
		id := validated.(uuid.UUID)
		a.ProjectOfficerID = &id
	}
	a.UpdatedAt = time.Now()
	return nil
}

// AuditClassName identifies the entity class on audit records
func (a *Agreement) AuditClassName() string {
	return "Agreement"
}

// AuditRowKey returns the stringified primary key
func (a *Agreement) AuditRowKey() string {
	return a.ID.String()
}

// AuditSnapshot returns the agreement's audited scalar attributes
func (a *Agreement) AuditSnapshot() map[string]any {
	return map[string]any{
		AgreementFieldName:             a.Name,
		AgreementFieldAgreementType:    a.AgreementType,
		AgreementFieldDescription:      a.Description,
		"division_id":                  a.DivisionID,
		AgreementFieldProjectOfficerID: a.ProjectOfficerID,
	}
}

// AuditCollections exposes the budget line membership as an audited
// relationship collection
func (a *Agreement) AuditCollections() map[string][]any {
	members := make([]any, 0, len(a.BudgetLineItems))
	for i := range a.BudgetLineItems {
		members = append(members, a.BudgetLineItems[i].ID)
	}
	return map[string][]any{"budget_line_items": members}
}

// AuditAgreementID backlinks the agreement's own audit records to itself
func (a *Agreement) AuditAgreementID() *uuid.UUID {
	id := a.ID
	return &id
}

// AgreementRepository provides access to agreements
type AgreementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Agreement, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Agreement, int64, error)
	Save(ctx context.Context, agreement *Agreement) error
}
