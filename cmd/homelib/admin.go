package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/homelibrarian/homelibrarian/internal/api"
)

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list and restore backups",
		Long: `Backups are zip archives holding the catalog and a manifest. They are
written to the location chosen in the backup settings: the local backup
folder, a NAS path or an S3 bucket.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Back up the catalog now",
			Args:  cobra.NoArgs,
			RunE: a.withLibrary(func(cmd *cobra.Command, _ []string, lib *api.Services) error {
				res, err := lib.Backup.Create(cmd.Context())
				if err != nil {
					return err
				}
				if a.structured() {
					return a.emit(res)
				}
				a.printf("Backed up %d books to %s  %s\n",
					res.Manifest.Counts.Books, res.Info.Name, mutedStyle.Render(res.Duration.Round(time.Millisecond).String()))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List backups, newest first",
			Args:  cobra.NoArgs,
			RunE: a.withLibrary(func(cmd *cobra.Command, _ []string, lib *api.Services) error {
				backups, err := lib.Backup.List(cmd.Context())
				if err != nil {
					return err
				}
				location := lib.Settings.Get().Backup.Location
				if a.structured() {
					return a.emit(api.ListBackupsResponse{Location: location, Backups: backups})
				}
				if len(backups) == 0 {
					a.printf("%s\n", mutedStyle.Render("No backups at "+location+" yet."))
					return nil
				}
				rows := make([][]string, 0, len(backups))
				for _, b := range backups {
					rows = append(rows, []string{b.Name, b.CreatedAt.Local().Format(time.DateTime), humanSize(b.Size), b.Target})
				}
				a.table([]string{"Name", "Created", "Size", "Target"}, rows)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "restore NAME",
			Short: "Replace the catalog with a backup",
			Long: `Replaces the whole catalog with the contents of a backup. The current
backup settings are kept.`,
			Args: cobra.ExactArgs(1),
			RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
				restored, err := lib.Backup.Restore(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if a.structured() {
					return a.emit(restored)
				}
				a.printf("Restored %s from %s\n", args[0], restored.Manifest.CreatedAt.Local().Format(time.DateTime))
				a.printf("%d books, %d members\n", restored.Manifest.Counts.Books, restored.Manifest.Counts.Users)
				for _, change := range restored.Report.Applied {
					a.printf("%s\n", mutedStyle.Render("  migrated: "+change))
				}
				return nil
			}),
		},
	)
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		file   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a readable copy of the catalog",
		Args:  cobra.NoArgs,
		RunE: a.withLibrary(func(_ *cobra.Command, _ []string, lib *api.Services) (err error) {
			var w io.Writer = a.out
			if file != "" {
				f, err := os.Create(file)
				if err != nil {
					return err
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
				}()
				w = f
			}
			return lib.Backup.Export(w, format)
		}),
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "yaml or json")
	cmd.Flags().StringVarP(&file, "file", "f", "", "write to this file instead of stdout")
	return cmd
}

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the catalog for loose ends",
		Long: `Reports books without a location, overdue loans and references that no
longer resolve, such as a book placed in a deleted location.`,
		Args: cobra.NoArgs,
		RunE: a.withLibrary(func(_ *cobra.Command, _ []string, lib *api.Services) error {
			report := lib.Maintenance.Report(lib.State.Now())
			if a.structured() {
				return a.emit(api.MaintenanceResponse{MaintenanceReport: report, Healthy: report.Healthy()})
			}

			s := report.Stats
			a.printf("%s\n", titleStyle.Render("Library"))
			a.printf("%d books in %d locations, %d members\n", s.Books, s.Locations, s.Users)
			a.printf("%d on loan, %d signed, %d first editions, estimated value %.2f\n",
				s.ActiveLoans, s.SignedCopies, s.FirstEditions, s.TotalValue)

			if report.Healthy() {
				a.printf("%s\n", titleStyle.Render("Everything is in its place."))
				return nil
			}
			if n := len(report.HomelessBooks); n > 0 {
				a.printf("\n%s\n", warnStyle.Render(strconv.Itoa(n)+" books without a location"))
				for _, b := range report.HomelessBooks {
					a.printf("  %s  %s\n", bookLine(b.Book), mutedStyle.Render(b.ID))
				}
			}
			if n := len(report.OverdueLoans); n > 0 {
				a.printf("\n%s\n", warnStyle.Render(strconv.Itoa(n)+" overdue loans"))
				for _, l := range report.OverdueLoans {
					a.printf("  %s with %s for %d days\n", l.BookTitle, l.BorrowerName, l.DaysOut)
				}
			}
			if n := len(report.Issues); n > 0 {
				a.printf("\n%s\n", warnStyle.Render(strconv.Itoa(n)+" broken references"))
				for _, is := range report.Issues {
					a.printf("  %s: %s\n", is.Kind, is.Detail)
				}
			}
			return nil
		}),
	}
}

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase the whole catalog",
		Args:  cobra.NoArgs,
		RunE: a.withLibrary(func(cmd *cobra.Command, _ []string, lib *api.Services) error {
			if !yes {
				return fmt.Errorf("reset erases every book, member, location and loan; pass --yes to confirm")
			}
			st := lib.State.Reset(cmd.Context())
			if a.structured() {
				return a.emit(st.Summarize(lib.State.Now()))
			}
			a.printf("The catalog is empty. Run %s to start again.\n", titleStyle.Render("homelib setup"))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm erasing the catalog")
	return cmd
}

// humanSize formats a byte count.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
