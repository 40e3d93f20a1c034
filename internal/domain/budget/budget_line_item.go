package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemStatus represents the lifecycle status of a budget line item.
// Under normal flow the status only progresses forward.
type LineItemStatus string

const (
	LineItemStatusDraft       LineItemStatus = "DRAFT"
	LineItemStatusPlanned     LineItemStatus = "PLANNED"
	LineItemStatusInExecution LineItemStatus = "IN_EXECUTION"
	LineItemStatusObligated   LineItemStatus = "OBLIGATED"
)

// IsValid checks if the status is a valid LineItemStatus
func (s LineItemStatus) IsValid() bool {
	switch s {
	case LineItemStatusDraft, LineItemStatusPlanned, LineItemStatusInExecution, LineItemStatusObligated:
		return true
	}
	return false
}

// String returns the string representation of LineItemStatus
func (s LineItemStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s LineItemStatus) CanTransitionTo(target LineItemStatus) bool {
	switch s {
	case LineItemStatusDraft:
		return target == LineItemStatusPlanned
	case LineItemStatusPlanned:
		return target == LineItemStatusInExecution
	case LineItemStatusInExecution:
		return target == LineItemStatusObligated
	case LineItemStatusObligated:
		return false
	}
	return false
}

// Field names of a budget line item's mutable attributes
const (
	FieldLineDescription       = "line_description"
	FieldComments              = "comments"
	FieldAmount                = "amount"
	FieldStatus                = "status"
	FieldCANID                 = "can_id"
	FieldDateNeeded            = "date_needed"
	FieldProcShopFeePercentage = "proc_shop_fee_percentage"
)

// budgetOrStatusFields are the financial and lifecycle attributes that may
// only be written directly while the line item is still in DRAFT. Once the
// item has left DRAFT, changes to them must pass through an approved change
// request.
var budgetOrStatusFields = map[string]bool{
	FieldAmount:                true,
	FieldStatus:                true,
	FieldCANID:                 true,
	FieldDateNeeded:            true,
	FieldProcShopFeePercentage: true,
}

var editableFields = map[string]bool{
	FieldLineDescription:       true,
	FieldComments:              true,
	FieldAmount:                true,
	FieldStatus:                true,
	FieldCANID:                 true,
	FieldDateNeeded:            true,
	FieldProcShopFeePercentage: true,
}

// IsBudgetOrStatusField reports whether the field is budget/status classified
func IsBudgetOrStatusField(name string) bool {
	return budgetOrStatusFields[name]
}

// IsEditableField reports whether the field may be edited through the API
func IsEditableField(name string) bool {
	return editableFields[name]
}

// BudgetLineItem is a fundable line of work under an agreement
type BudgetLineItem struct {
	shared.BaseEntity
	LineDescription       string           `gorm:"type:varchar(500)" json:"line_description"`
	Comments              string           `gorm:"type:text" json:"comments"`
	AgreementID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"agreement_id"`
	CANID                 *uuid.UUID       `gorm:"type:uuid;index" json:"can_id,omitempty"`
	Amount                *decimal.Decimal `gorm:"type:numeric(18,2)" json:"amount,omitempty"`
	Status                LineItemStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	DateNeeded            *time.Time       `json:"date_needed,omitempty"`
	ProcShopFeePercentage *decimal.Decimal `gorm:"type:numeric(6,3)" json:"proc_shop_fee_percentage,omitempty"`
}

// TableName specifies the table name for BudgetLineItem
func (BudgetLineItem) TableName() string {
	return "budget_line_items"
}

// NewBudgetLineItem creates a new budget line item in DRAFT status
func NewBudgetLineItem(agreementID uuid.UUID, lineDescription string) (*BudgetLineItem, error) {
	if agreementID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AGREEMENT", "Agreement ID cannot be empty")
	}
	return &BudgetLineItem{
		BaseEntity:      shared.NewBaseEntity(),
		LineDescription: lineDescription,
		AgreementID:     agreementID,
		Status:          LineItemStatusDraft,
	}, nil
}

// IsDraft reports whether the item is still in its initial draft state
func (b *BudgetLineItem) IsDraft() bool {
	return b.Status == LineItemStatusDraft
}

// CurrentValue returns the item's current value for a named field
func (b *BudgetLineItem) CurrentValue(field string) any {
	switch field {
	case FieldLineDescription:
		return b.LineDescription
	case FieldComments:
		return b.Comments
	case FieldAmount:
		return b.Amount
	case FieldStatus:
		return b.Status
	case FieldCANID:
		return b.CANID
	case FieldDateNeeded:
		return b.DateNeeded
	case FieldProcShopFeePercentage:
		return b.ProcShopFeePercentage
	}
	return nil
}

// ValidateChange coerces and validates a proposed field value without
// applying it. The same pipeline runs for direct edits and again when an
// approved change request is replayed, so stale proposals are re-checked
// against the current entity state.
func (b *BudgetLineItem) ValidateChange(field string, value any) (any, error) {
	switch field {
	case FieldLineDescription, FieldComments:
		text, ok := value.(string)
		if !ok {
			return nil, shared.NewValidationError(field, "must be a string")
		}
		return text, nil
	case FieldAmount:
		amount, err := coerceDecimal(value)
		if err != nil {
			return nil, shared.NewValidationError(field, err.Error())
		}
		if amount.IsNegative() {
			return nil, shared.NewValidationError(field, "must not be negative")
		}
		return amount, nil
	case FieldStatus:
		text, ok := value.(string)
		if !ok {
			return nil, shared.NewValidationError(field, "must be a string")
		}
		status := LineItemStatus(text)
		if !status.IsValid() {
			return nil, shared.NewValidationError(field, fmt.Sprintf("unknown status %q", text))
		}
		if !b.Status.CanTransitionTo(status) {
			return nil, shared.NewValidationError(field,
				fmt.Sprintf("cannot transition from %s to %s", b.Status, status))
		}
		return status, nil
	case FieldCANID:
		id, err := coerceUUID(value)
		if err != nil {
			return nil, shared.NewValidationError(field, err.Error())
		}
		return id, nil
	case FieldDateNeeded:
		date, err := coerceTime(value)
		if err != nil {
			return nil, shared.NewValidationError(field, err.Error())
		}
		return date, nil
	case FieldProcShopFeePercentage:
		fee, err := coerceDecimal(value)
		if err != nil {
			return nil, shared.NewValidationError(field, err.Error())
		}
		if fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
			return nil, shared.NewValidationError(field, "must be between 0 and 100")
		}
		return fee, nil
	}
	return nil, shared.NewValidationError(field, "unknown field")
}

// ApplyChange validates a proposed field value and applies it to the item
func (b *BudgetLineItem) ApplyChange(field string, value any) error {
	validated, err := b.ValidateChange(field, value)
	if err != nil {
		return err
	}
	switch field {
	case FieldLineDescription:
		b.LineDescription = validated.(string)
	case FieldComments:
		b.Comments = validated.(string)
	case FieldAmount:
		amount := validated.(decimal.Decimal)
		b.Amount = &amount
	case FieldStatus:
		b.Status = validated.(LineItemStatus)
	case FieldCANID:
		id := validated.(uuid.UUID)
		b.CANID = &id
	case FieldDateNeeded:
		date := validated.(time.Time)
		b.DateNeeded = &date
	case FieldProcShopFeePercentage:
		fee := validated.(decimal.Decimal)
		b.ProcShopFeePercentage = &fee
	}
	b.UpdatedAt = time.Now()
	return nil
}

// AuditClassName identifies the entity class on audit records
func (b *BudgetLineItem) AuditClassName() string {
	return "BudgetLineItem"
}

// AuditRowKey returns the stringified primary key
func (b *BudgetLineItem) AuditRowKey() string {
	return b.ID.String()
}

// AuditSnapshot returns the item's audited scalar attributes
func (b *BudgetLineItem) AuditSnapshot() map[string]any {
	return map[string]any{
		FieldLineDescription:       b.LineDescription,
		FieldComments:              b.Comments,
		"agreement_id":             b.AgreementID,
		FieldCANID:                 b.CANID,
		FieldAmount:                b.Amount,
		FieldStatus:                b.Status,
		FieldDateNeeded:            b.DateNeeded,
		FieldProcShopFeePercentage: b.ProcShopFeePercentage,
	}
}

// AuditAgreementID backlinks audit records to the owning agreement
func (b *BudgetLineItem) AuditAgreementID() *uuid.UUID {
	id := b.AgreementID
	return &id
}

// BudgetLineItemRepository provides access to budget line items
type BudgetLineItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BudgetLineItem, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]BudgetLineItem, int64, error)
	Save(ctx context.Context, item *BudgetLineItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

func coerceDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Decimal{}, fmt.Errorf("must be a number")
		}
		return *v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("must be a number")
		}
		return parsed, nil
	}
	return decimal.Decimal{}, fmt.Errorf("must be a number")
}

func coerceUUID(value any) (uuid.UUID, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		parsed, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, fmt.Errorf("must be a valid UUID")
		}
		return parsed, nil
	}
	return uuid.Nil, fmt.Errorf("must be a valid UUID")
}

func coerceTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			return parsed, nil
		}
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			return parsed, nil
		}
		return time.Time{}, fmt.Errorf("must be an ISO-8601 date")
	}
	return time.Time{}, fmt.Errorf("must be an ISO-8601 date")
}
