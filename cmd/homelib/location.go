package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/homelibrarian/homelibrarian/internal/api"
	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/service"
)

func newLocationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "location",
		Aliases: []string{"loc"},
		Short:   "Manage rooms, shelves and boxes",
		Long: `Locations form a tree: rooms at the top, shelves, cabinets and boxes below.
A location can be referenced by id, by breadcrumb ("Living Room > Shelf A")
or by a name that is unique in the library.`,
	}
	cmd.AddCommand(
		newLocationAddCmd(a),
		newLocationListCmd(a),
		newLocationTreeCmd(a),
		newLocationShowCmd(a),
		newLocationRenameCmd(a),
		newLocationMoveCmd(a),
		newLocationImageCmd(a),
		newLocationDeleteCmd(a),
	)
	return cmd
}

func newLocationAddCmd(a *app) *cobra.Command {
	var in service.LocationInput
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a location",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			in.Name = args[0]
			loc, err := lib.Location.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.printLocation(lib, loc, "Added")
		}),
	}
	cmd.Flags().StringVar(&in.Parent, "parent", "", "parent location; empty makes a room")
	cmd.Flags().StringVar(&in.Type, "type", "", "Room, Shelf, Cabinet, Box or another kind")
	return cmd
}

func newLocationListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List locations with their book counts",
		Args:  cobra.NoArgs,
		RunE: a.withLibrary(func(_ *cobra.Command, _ []string, lib *api.Services) error {
			views := lib.Location.List()
			if a.structured() {
				return a.emit(views)
			}
			if len(views) == 0 {
				a.printf("%s\n", mutedStyle.Render("No locations yet. Add a room with: homelib location add NAME"))
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.ID, v.Path, v.Type, strconv.Itoa(v.Books), strconv.Itoa(v.TotalBooks)})
			}
			a.table([]string{"ID", "Location", "Type", "Here", "Total"}, rows)
			return nil
		}),
	}
}

func newLocationTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show the location tree",
		Args:  cobra.NoArgs,
		RunE: a.withLibrary(func(_ *cobra.Command, _ []string, lib *api.Services) error {
			views := lib.Location.List()
			if a.structured() {
				return a.emit(views)
			}
			a.printf("%s\n", locationTree(views).String())
			return nil
		}),
	}
}

// locationTree nests depth-first views under a "Library" root.
func locationTree(views []service.LocationView) *tree.Tree {
	root := tree.Root("Library")
	stack := []*tree.Tree{root}
	for _, v := range views {
		label := v.Name
		if v.TotalBooks > 0 {
			label = fmt.Sprintf("%s %s", v.Name, mutedStyle.Render(fmt.Sprintf("(%d)", v.TotalBooks)))
		}
		node := tree.Root(label)
		depth := min(v.Depth, len(stack)-1)
		stack[depth].Child(node)
		stack = append(stack[:depth+1], node)
	}
	return root
}

func newLocationShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show REF",
		Short: "Show a location and the books placed there",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(_ *cobra.Command, args []string, lib *api.Services) error {
			view, books, err := lib.Location.Get(args[0])
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(api.LocationDetailResponse{Location: view, Books: books})
			}
			a.printf("%s  %s\n", titleStyle.Render(view.Path), mutedStyle.Render(view.ID))
			a.printf("%d here, %d including everything below\n", view.Books, view.TotalBooks)
			for _, b := range books {
				a.printf("  %s\n", bookLine(b))
			}
			return nil
		}),
	}
}

func newLocationRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename REF NAME",
		Short: "Rename a location",
		Args:  cobra.ExactArgs(2),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			loc, err := lib.Location.Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.printLocation(lib, loc, "Renamed")
		}),
	}
}

func newLocationMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move REF [PARENT]",
		Short: "Move a location under another; without PARENT it becomes a room",
		Args:  cobra.RangeArgs(1, 2),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			parent := ""
			if len(args) == 2 {
				parent = args[1]
			}
			loc, err := lib.Location.Move(cmd.Context(), args[0], parent)
			if err != nil {
				return err
			}
			return a.printLocation(lib, loc, "Moved")
		}),
	}
}

func newLocationImageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "image REF [URL]",
		Short: "Set a location's photo; without URL the photo is removed",
		Args:  cobra.RangeArgs(1, 2),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			imageURL := ""
			if len(args) == 2 {
				imageURL = args[1]
			}
			loc, err := lib.Location.SetImage(cmd.Context(), args[0], imageURL)
			if err != nil {
				return err
			}
			return a.printLocation(lib, loc, "Updated")
		}),
	}
}

func newLocationDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete REF",
		Short: "Delete a location",
		Long: `Deletes a location. Its child locations move up to its parent and the
books placed directly in it become unassigned.`,
		Args: cobra.ExactArgs(1),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			view, _, err := lib.Location.Get(args[0])
			if err != nil {
				return err
			}
			if err := lib.Location.Delete(cmd.Context(), view.ID); err != nil {
				return err
			}
			if a.structured() {
				return a.emit(map[string]string{"deleted": view.ID})
			}
			a.printf("Deleted %s\n", view.Path)
			if view.Books > 0 {
				a.printf("%s\n", warnStyle.Render(fmt.Sprintf("%d books are now unassigned", view.Books)))
			}
			return nil
		}),
	}
}

func (a *app) printLocation(lib *api.Services, loc domain.Location, verb string) error {
	view, _, err := lib.Location.Get(loc.ID)
	if err != nil {
		return err
	}
	if a.structured() {
		return a.emit(view)
	}
	a.printf("%s %s  %s\n", verb, titleStyle.Render(view.Path), mutedStyle.Render(view.ID))
	return nil
}
