package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/playtrack-api/internal/dto"
	"github.com/noah-isme/playtrack-api/pkg/database"
)

func newRootCmd(open func() (*app, error)) *cobra.Command {
	var a *app

	root := &cobra.Command{
		Use:           "playtrackctl",
		Short:         "Administer the playtrack student store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opened, err := open()
			if err != nil {
				return err
			}
			a = opened
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a == nil {
				return nil
			}
			return a.close()
		},
	}

	current := func() *app { return a }
	root.AddCommand(newMigrateCmd(current))
	root.AddCommand(newStudentCmd(current))
	root.AddCommand(newLeaderboardCmd(current))
	root.AddCommand(newExportCmd(current))
	return root
}

func newMigrateCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applied, err := database.Migrate(cmd.Context(), a().db, a().logger)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
			}
			return nil
		},
	}
}

func newStudentCmd(a func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Manage individual students",
	}

	var req dto.CreateStudentRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			student, err := a().students.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s, %s)\n", student.StudentID, student.Name, student.Class)
			return nil
		},
	}
	add.Flags().StringVar(&req.StudentID, "id", "", "student id")
	add.Flags().StringVar(&req.Name, "name", "", "display name")
	add.Flags().StringVar(&req.Class, "class", "", "class name")
	_ = add.MarkFlagRequired("id")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a student and all of its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a().students.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", result.StudentID)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Print a student record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			student, err := a().repo.FindByStudentID(cmd.Context(), args[0])
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("student %q not found", args[0])
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(student)
		},
	}

	cmd.AddCommand(add, del, show)
	return cmd
}

func newLeaderboardCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the top students by high score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			students, err := a().students.Leaderboard(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tID\tNAME\tCLASS\tHIGH SCORE\tBADGES")
			for i, st := range students {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\n", i+1, st.StudentID, st.Name, st.Class, st.HighScore, len(st.Badges))
			}
			return w.Flush()
		},
	}
}

func newExportCmd(a func() *app) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the roster as CSV or PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := a().exports.Roster(cmd.Context(), dto.ExportFormat(format))
			if err != nil {
				return err
			}
			if out == "" {
				out = file.Filename
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(file.Body)
				return err
			}
			if err := os.WriteFile(out, file.Body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(file.Body))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(dto.ExportFormatCSV), "csv or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path, - for stdout (default: generated name)")
	return cmd
}
