package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homelibrarian/homelibrarian/internal/api"
	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/service"
)

func newSetupCmd(a *app) *cobra.Command {
	var (
		admins      []string
		members     []string
		rooms       []string
		starterPack bool
		demo        bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Set up the library for your family",
		Long: `Creates the household and their rooms in one step. Members are given as
NAME:YYYY-MM-DD. At least one admin is required and admins must be adults.

Example:
  homelib setup --admin Asha:1985-06-01 --member Kabir:2016-09-10 \
    --room "Living Room" --room Study --starter-pack`,
		Args: cobra.NoArgs,
		RunE: a.withLibrary(func(cmd *cobra.Command, _ []string, lib *api.Services) error {
			var family []domain.User
			for _, arg := range admins {
				u, err := parseMember(arg, domain.RoleAdmin)
				if err != nil {
					return err
				}
				family = append(family, u)
			}
			for _, arg := range members {
				u, err := parseMember(arg, domain.RoleUser)
				if err != nil {
					return err
				}
				family = append(family, u)
			}

			st, err := lib.User.Setup(cmd.Context(), service.SetupInput{
				Family:      family,
				Rooms:       rooms,
				StarterPack: starterPack,
				Demo:        demo,
			})
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(st.Summarize(lib.State.Now()))
			}

			a.printf("%s\n", titleStyle.Render("Your library is ready."))
			a.printf("%d members, %d rooms, %d books\n", len(st.Users), len(st.Locations), len(st.Books))
			if current, ok := st.FindUser(st.CurrentUser); ok {
				a.printf("Signed in as %s\n", current.Name)
			}
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringArrayVar(&admins, "admin", nil, "admin member as NAME:YYYY-MM-DD (repeatable)")
	f.StringArrayVar(&members, "member", nil, "family member as NAME:YYYY-MM-DD (repeatable)")
	f.StringArrayVar(&rooms, "room", nil, "room name (repeatable)")
	f.BoolVar(&starterPack, "starter-pack", false, "add the bundled classics")
	f.BoolVar(&demo, "demo", false, "mark the catalog as a demo")
	return cmd
}

// parseMember reads NAME:YYYY-MM-DD.
func parseMember(arg string, role domain.Role) (domain.User, error) {
	name, dob, ok := strings.Cut(arg, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return domain.User{}, fmt.Errorf("invalid member %q (want NAME:YYYY-MM-DD)", arg)
	}
	return domain.User{Name: strings.TrimSpace(name), DOB: strings.TrimSpace(dob), Role: role}, nil
}
