package main

import (
	"fmt"
	"io"
	"os"

	"firepoz-backend/internal/config"
	"firepoz-backend/internal/db"
	"firepoz-backend/internal/persist"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs; it is filled by the root pre-run.
type app struct {
	accessor *db.Accessor
	close    func()
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "posctl",
		Short:         "posctl manages the persisted point-of-sale store image.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg, cmd.ErrOrStderr())
			layer, closeLayer, err := persist.New(cmd.Context(), cfg, logger)
			if err != nil {
				return errors.Wrap(err, "open persistence")
			}
			a.accessor = &db.Accessor{Persistence: layer, SeedImagePath: cfg.SeedImagePath, Logger: logger}
			a.close = closeLayer
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.accessor != nil {
				a.accessor.Reset()
			}
			if a.close != nil {
				a.close()
			}
		},
	}
	root.AddCommand(a.exportCmd(), a.importCmd(), a.resetCmd())
	return root
}

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current store image to a file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.accessor.Get(cmd.Context())
			if err != nil {
				return err
			}
			image, err := st.Export(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "export store")
			}
			if err := os.WriteFile(out, image, 0o600); err != nil {
				return errors.Wrap(err, "write image")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d bytes to %s\n", len(image), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "store.db", "destination file")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the store with an image file and persist it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := readImage(in)
			if err != nil {
				return err
			}
			if err := a.accessor.Replace(cmd.Context(), image); err != nil {
				if !persist.IsWarning(err) {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d bytes from %s\n", len(image), in)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "image file to import")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the persisted image from every backend.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.accessor.Clear(cmd.Context()); err != nil {
				return errors.Wrap(err, "clear store")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "store cleared")
			return nil
		},
	}
}

func readImage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()
	image, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "read image")
	}
	return image, nil
}
