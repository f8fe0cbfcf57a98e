package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/service"
)

func (s *Server) registerLoanRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLoans",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/loans",
		Summary:     "Loan ledger",
		Description: "Returns active, overdue and returned loans",
		Tags:        []string{"Loans"},
	}, s.handleListLoans)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createLoan",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/loans",
		Summary:       "Lend book",
		Description:   "Records a book going out. A book can be on one loan at a time.",
		Tags:          []string{"Loans"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateLoan)

	huma.Register(s.api, huma.Operation{
		OperationID: "returnLoan",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/loans/{id}/return",
		Summary:     "Return book",
		Description: "Records a lent book coming back",
		Tags:        []string{"Loans"},
	}, s.handleReturnLoan)
}

// === DTOs ===

// LedgerOutput wraps the loan ledger for Huma.
type LedgerOutput struct {
	Body service.Ledger
}

// CreateLoanRequest is the request body for lending a book.
type CreateLoanRequest struct {
	BookID       string    `json:"bookId" minLength:"1" doc:"Book id"`
	BorrowerName string    `json:"borrowerName" minLength:"1" maxLength:"100" doc:"Who has it"`
	Notes        string    `json:"notes,omitempty"`
	LoanDate     *FlexTime `json:"loanDate,omitempty" doc:"Defaults to now"`
}

// CreateLoanInput wraps the create loan request for Huma.
type CreateLoanInput struct {
	Body CreateLoanRequest
}

// LoanOutput wraps a loan for Huma.
type LoanOutput struct {
	Body domain.Loan
}

// LoanIDInput contains the loan id path parameter.
type LoanIDInput struct {
	ID string `path:"id" doc:"Loan id"`
}

// === Handlers ===

func (s *Server) handleListLoans(_ context.Context, _ *struct{}) (*LedgerOutput, error) {
	return &LedgerOutput{Body: s.services.Loan.Ledger()}, nil
}

func (s *Server) handleCreateLoan(ctx context.Context, input *CreateLoanInput) (*LoanOutput, error) {
	in := service.LendInput{
		BookID:       input.Body.BookID,
		BorrowerName: input.Body.BorrowerName,
		Notes:        input.Body.Notes,
	}
	if input.Body.LoanDate != nil {
		t := input.Body.LoanDate.ToTime()
		in.LoanDate = &t
	}

	loan, err := s.services.Loan.Lend(ctx, in)
	if err != nil {
		return nil, err
	}
	return &LoanOutput{Body: loan}, nil
}

func (s *Server) handleReturnLoan(ctx context.Context, input *LoanIDInput) (*LoanOutput, error) {
	loan, err := s.services.Loan.Return(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &LoanOutput{Body: loan}, nil
}
