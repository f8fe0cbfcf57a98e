package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/homelibrarian/homelibrarian/internal/api"
	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/service"
)

func newLoanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Track books lent to friends",
	}
	cmd.AddCommand(newLoanCreateCmd(a), newLoanReturnCmd(a), newLoanListCmd(a))
	return cmd
}

func newLoanCreateCmd(a *app) *cobra.Command {
	var (
		notes string
		date  string
	)
	cmd := &cobra.Command{
		Use:     "create BOOK_ID BORROWER",
		Aliases: []string{"lend"},
		Short:   "Lend a book",
		Args:    cobra.ExactArgs(2),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			in := service.LendInput{BookID: args[0], BorrowerName: args[1], Notes: notes}
			if date != "" {
				t, err := time.Parse(domain.DateLayout, date)
				if err != nil {
					return errors.Validationf("invalid loan date %q (want YYYY-MM-DD)", date)
				}
				in.LoanDate = &t
			}
			loan, err := lib.Loan.Lend(cmd.Context(), in)
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(loan)
			}
			book, _ := lib.Book.Get(loan.BookID)
			a.printf("Lent %s to %s  %s\n", titleStyle.Render(book.Title), loan.BorrowerName, mutedStyle.Render(loan.ID))
			return nil
		}),
	}
	cmd.Flags().StringVar(&notes, "notes", "", "notes about the loan")
	cmd.Flags().StringVar(&date, "date", "", "loan date, YYYY-MM-DD (default today)")
	return cmd
}

func newLoanReturnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return LOAN_ID",
		Short: "Mark a lent book as returned",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			loan, err := lib.Loan.Return(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(loan)
			}
			book, _ := lib.Book.Get(loan.BookID)
			a.printf("%s is back from %s\n", titleStyle.Render(book.Title), loan.BorrowerName)
			return nil
		}),
	}
}

func newLoanListCmd(a *app) *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the loan ledger",
		Args:  cobra.NoArgs,
		RunE: a.withLibrary(func(_ *cobra.Command, _ []string, lib *api.Services) error {
			ledger := lib.Loan.Ledger()
			if a.structured() {
				return a.emit(ledger)
			}
			loans := ledger.Active
			if history {
				loans = ledger.History
			}
			if len(loans) == 0 {
				a.printf("%s\n", mutedStyle.Render("No loans."))
				return nil
			}
			rows := make([][]string, 0, len(loans))
			for _, l := range loans {
				rows = append(rows, []string{
					l.ID, l.BookTitle, l.BorrowerName,
					l.LoanDate.Format(domain.DateLayout), strconv.Itoa(l.DaysOut), string(l.Status),
				})
			}
			a.table([]string{"ID", "Book", "Borrower", "Since", "Days", "Status"}, rows)
			if n := len(ledger.Overdue); n > 0 && !history {
				a.printf("%s\n", warnStyle.Render(strconv.Itoa(n)+" overdue"))
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&history, "history", false, "show returned loans instead")
	return cmd
}
