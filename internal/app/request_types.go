package app

import (
	"github.com/shopspring/decimal"
)

// CreateMaterialRequest is the input for creating a catalog material.
type CreateMaterialRequest struct {
	Code     string
	Name     string
	Unit     string
	Category string
	MinStock *decimal.Decimal
}

// UpdateMaterialRequest changes a material's descriptive fields. The code is
// immutable identity and is absent on purpose.
type UpdateMaterialRequest struct {
	ID       int
	Name     string
	Unit     string
	Category string
	MinStock *decimal.Decimal
}

// CreateProjectRequest is the input for creating a project.
type CreateProjectRequest struct {
	Name      string
	Status    string
	Address   string
	StartDate string // YYYY-MM-DD, optional
}

// CreateSupplierRequest is the input for creating a supplier.
type CreateSupplierRequest struct {
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	Address       string
}

// CreateReceiptRequest creates a draft receipt document.
type CreateReceiptRequest struct {
	DocumentDate string // YYYY-MM-DD
	SupplierID   int
	ProjectID    *int // nil = shared warehouse
	Notes        string
	Principal    string // authenticated caller, for audit attribution
	Lines        []ReceiptLineInput
}

// ReceiptLineInput is one line of a CreateReceiptRequest.
type ReceiptLineInput struct {
	MaterialID int
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
}

// CreateIssueRequest creates a draft issue document.
type CreateIssueRequest struct {
	DocumentDate string
	ProjectID    *int // nil = shared warehouse
	Notes        string
	Principal    string
	Lines        []IssueLineInput
}

// IssueLineInput is one line of a CreateIssueRequest.
type IssueLineInput struct {
	MaterialID int
	Quantity   decimal.Decimal
}
