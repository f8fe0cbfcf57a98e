package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homelibrarian/homelibrarian/internal/api"
	"github.com/homelibrarian/homelibrarian/internal/domain"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage family members and their reading",
		Long: `Members can be referenced by id or by name. Ages and grades are derived
from the date of birth and drive age-appropriate filtering.`,
	}
	cmd.AddCommand(
		newUserAddCmd(a),
		newUserListCmd(a),
		newUserUseCmd(a),
		newUserReadCmd(a),
		newUserFavoriteCmd(a),
		newUserPersonasCmd(a),
	)
	return cmd
}

func newUserAddCmd(a *app) *cobra.Command {
	var (
		u     domain.User
		admin bool
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a family member",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			u.Name = args[0]
			if admin {
				u.Role = domain.RoleAdmin
			}
			p, err := lib.User.Add(cmd.Context(), u)
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(p)
			}
			a.printf("Added %s  %s\n", titleStyle.Render(p.Name), mutedStyle.Render(p.ID))
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&u.DOB, "dob", "", "date of birth, YYYY-MM-DD")
	f.StringVar(&u.Email, "email", "", "email")
	f.StringVar(&u.ParentRole, "parent-role", "", "Dad, Mom, Guardian or Other")
	f.StringVar(&u.EducationLevel, "education", "", "education level for adults")
	f.StringVar(&u.Profession, "profession", "", "profession")
	f.BoolVar(&admin, "admin", false, "make this member an admin (adults only)")
	_ = cmd.MarkFlagRequired("dob")
	return cmd
}

func newUserListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List family members",
		Args:  cobra.NoArgs,
		RunE: a.withLibrary(func(_ *cobra.Command, _ []string, lib *api.Services) error {
			users := lib.User.List()
			if a.structured() {
				return a.emit(api.ListUsersResponse{Users: users})
			}
			current, _ := lib.User.Current()
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				age := ""
				if u.Age != nil {
					age = fmt.Sprint(*u.Age)
				}
				name := u.Name
				if u.ID == current.ID {
					name += " *"
				}
				rows = append(rows, []string{u.ID, name, age, u.Grade, string(u.Role), fmt.Sprint(len(u.History))})
			}
			a.table([]string{"ID", "Name", "Age", "Grade", "Role", "Books read"}, rows)
			return nil
		}),
	}
}

func newUserUseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "use USER",
		Aliases: []string{"switch"},
		Short:   "Switch the active member",
		Args:    cobra.ExactArgs(1),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			p, err := lib.User.Switch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(p)
			}
			a.printf("Signed in as %s\n", titleStyle.Render(p.Name))
			return nil
		}),
	}
}

func newUserReadCmd(a *app) *cobra.Command {
	var rating int
	cmd := &cobra.Command{
		Use:   "read USER BOOK_ID STATUS",
		Short: "Record a member's reading status for a book",
		Long: `Sets the reading status for a book: Unread, Reading, Completed,
"Did Not Finish" or Wishlist. Completing a book stamps the finish date.`,
		Args: cobra.ExactArgs(3),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			u, err := lib.User.Resolve(args[0])
			if err != nil {
				return err
			}
			entry, err := lib.User.RecordReading(cmd.Context(), u.ID, args[1], parseReadStatus(args[2]), rating)
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(entry)
			}
			book, _ := lib.Book.Get(entry.BookID)
			a.printf("%s: %s is %s\n", u.Name, titleStyle.Render(book.Title), entry.Status)
			return nil
		}),
	}
	cmd.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5")
	return cmd
}

// parseReadStatus accepts statuses case-insensitively, with dashes for spaces.
func parseReadStatus(s string) domain.ReadStatus {
	norm := strings.ToLower(strings.ReplaceAll(s, "-", " "))
	for _, st := range []domain.ReadStatus{
		domain.StatusUnread, domain.StatusReading, domain.StatusCompleted,
		domain.StatusDidNotFinish, domain.StatusWishlist,
	} {
		if strings.ToLower(string(st)) == norm {
			return st
		}
	}
	return domain.ReadStatus(s)
}

func newUserFavoriteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite USER BOOK_ID",
		Short: "Toggle a favorite book",
		Args:  cobra.ExactArgs(2),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			u, err := lib.User.Resolve(args[0])
			if err != nil {
				return err
			}
			fav, err := lib.User.ToggleFavorite(cmd.Context(), u.ID, args[1])
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(api.FavoriteResponse{BookID: args[1], Favorite: fav})
			}
			verb := "removed from"
			if fav {
				verb = "added to"
			}
			a.printf("%s %s %s's favorites\n", args[1], verb, u.Name)
			return nil
		}),
	}
}

func newUserPersonasCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "personas USER",
		Short: "Find the fictional characters a member reads like",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			u, err := lib.User.Resolve(args[0])
			if err != nil {
				return err
			}
			personas, err := lib.Advisor.RefreshPersonas(cmd.Context(), u.ID)
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(api.PersonasResponse{Personas: personas})
			}
			for _, p := range personas {
				a.printf("%s %s\n  %s\n", titleStyle.Render(p.Character), mutedStyle.Render("("+p.Universe+")"), p.Reason)
			}
			return nil
		}),
	}
}
