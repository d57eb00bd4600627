package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/service"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

const listTimeLayout = "02/01/2006 15:04:05"

func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect or clear the pending ledger",
	}
	cmd.AddCommand(newRecordsListCommand(rootOpts))
	cmd.AddCommand(newRecordsClearCommand(rootOpts))
	return cmd
}

func newRecordsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List records waiting for export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			recs := a.session.Records()
			if rootOpts.Format == "json" {
				return writeRecordsJSON(cmd.OutOrStdout(), recs, a.session.Summary())
			}
			return writeRecordsText(cmd.OutOrStdout(), recs, a)
		},
	}
}

func writeRecordsJSON(w io.Writer, recs []types.AccessRecord, sum service.Summary) error {
	if recs == nil {
		recs = []types.AccessRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Records []types.AccessRecord `json:"records"`
		Summary service.Summary      `json:"summary"`
	}{recs, sum})
}

func writeRecordsText(w io.Writer, recs []types.AccessRecord, a *app) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No records pending export.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tFLEET\tCOLLABORATOR\tDESTINATION\tPHOTO\tBY")
	for _, r := range recs {
		photo := "-"
		if r.HasPhoto() {
			photo = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.In(a.cfg.Location).Format(listTimeLayout),
			r.Type, r.FleetNumber, r.CollaboratorName, r.Destination, photo, r.RegisteredBy)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sum := a.session.Summary()
	oldest := ""
	if sum.First != nil {
		oldest = ", oldest " + humanize.Time(*sum.First)
	}
	_, err := fmt.Fprintf(w, "\n%d records (%d entries, %d exits, %d with photo)%s\n",
		sum.Total, sum.Entries, sum.Exits, sum.WithPhoto, oldest)
	return err
}

func newRecordsClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard every pending record without exporting it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			gate := newConfirmer(yes, cmd.InOrStdin(), cmd.OutOrStdout())
			n, err := a.session.ClearAll(cmd.Context(), gate)
			switch {
			case errors.Is(err, service.ErrNotConfirmed):
				return NewExitError(ExitFailure, "clear cancelled")
			case errors.Is(err, service.ErrStorageWrite):
				return WrapExitError(ExitFailure, "records cleared but the empty ledger could not be saved", err)
			case err != nil:
				return WrapExitError(ExitFailure, "clear failed", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Discarded %d records.\n", n)
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
