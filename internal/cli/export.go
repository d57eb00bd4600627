package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/gatelog/internal/config"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/service"
)

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export pending records as a CSV report plus photos",
		Long: `Write the CSV report and one file per photo into the export directory,
then remove the exported records from the ledger.  If any file cannot be
written the ledger is kept as it was and the export can simply be retried.

Example:
  gatelog export --dir /media/usb/relatorios
  gatelog export --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			gate := newConfirmer(yes, cmd.InOrStdin(), out)
			res, err := a.session.Export(cmd.Context(), gate)
			switch {
			case errors.Is(err, service.ErrNotConfirmed):
				return NewExitError(ExitFailure, "export cancelled")
			case errors.Is(err, service.ErrDeliveryFailed):
				return WrapExitError(ExitFailure, "export failed, local records were kept; please try again", err)
			case err != nil:
				return WrapExitError(ExitFailure, "export failed", err)
			}

			if res.Status == service.ExportNothing {
				_, err = fmt.Fprintln(out, "No records to export.")
				return err
			}
			fmt.Fprintf(out, "Exported %d records and %d photos (%s) to %s.\n",
				res.Records, res.Photos, humanize.Bytes(uint64(res.Bytes)), a.cfg.ExportDir)
			if res.PersistErr != nil {
				return WrapExitError(ExitFailure,
					"export delivered but the ledger could not be saved; exported records may reappear", res.PersistErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().String("dir", "", "export directory")
	_ = rootOpts.viper.BindPFlag(config.KeyExportDir, cmd.Flags().Lookup("dir"))

	return cmd
}
