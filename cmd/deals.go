package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/money"
	"github.com/meridianlending/underwrite/internal/program"
	"github.com/meridianlending/underwrite/internal/store"
)

var dealsCmd = &cobra.Command{
	Use:   "deals",
	Short: "Manage stored deals",
	Long:  "Commands for creating, listing, and viewing deals in the configured store.",
}

// -- deals create --

var dealsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a draft deal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		borrower, _ := cmd.Flags().GetString("borrower")
		programID, _ := cmd.Flags().GetString("program")
		amount, _ := cmd.Flags().GetFloat64("amount")

		if _, err := program.Get(programID); err != nil {
			return err
		}
		if amount <= 0 {
			return eris.New("--amount must be positive")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		deal, err := st.CreateDeal(ctx, borrower, programID, amount)
		if err != nil {
			return eris.Wrap(err, "deals create")
		}

		fmt.Println(deal.ID)
		return nil
	},
}

// -- deals list --

var dealsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored deals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		status, _ := cmd.Flags().GetString("status")
		programID, _ := cmd.Flags().GetString("program")
		limit, _ := cmd.Flags().GetInt("limit")

		deals, err := st.ListDeals(ctx, store.DealFilter{
			Status:    model.DealStatus(status),
			ProgramID: programID,
			Limit:     limit,
		})
		if err != nil {
			return eris.Wrap(err, "deals list")
		}

		if len(deals) == 0 {
			fmt.Fprintln(os.Stderr, "No deals found.")
			return nil
		}

		formatDealsList(os.Stdout, deals)
		return nil
	},
}

// -- deals show --

var dealsShowCmd = &cobra.Command{
	Use:   "show <deal-id>",
	Short: "Show a deal with its structuring output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		deal, err := st.GetDeal(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "deals show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(deal)
	},
}

// -- deals docs --

var dealsDocsCmd = &cobra.Command{
	Use:   "docs <deal-id>",
	Short: "List a deal's documents and their lifecycle status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		docs, err := st.ListDocuments(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "deals docs")
		}

		if len(docs) == 0 {
			fmt.Fprintln(os.Stderr, "No documents found.")
			return nil
		}

		formatDocsList(os.Stdout, docs)
		return nil
	},
}

func init() {
	dealsCreateCmd.Flags().String("borrower", "", "borrower name (required)")
	dealsCreateCmd.Flags().String("program", "", "loan program id (required)")
	dealsCreateCmd.Flags().Float64("amount", 0, "requested loan amount (required)")
	_ = dealsCreateCmd.MarkFlagRequired("borrower")
	_ = dealsCreateCmd.MarkFlagRequired("program")
	_ = dealsCreateCmd.MarkFlagRequired("amount")

	dealsListCmd.Flags().String("status", "", "filter by deal status (draft, approved, needs_review)")
	dealsListCmd.Flags().String("program", "", "filter by program id")
	dealsListCmd.Flags().Int("limit", 50, "max number of deals to display")

	dealsCmd.AddCommand(dealsCreateCmd)
	dealsCmd.AddCommand(dealsListCmd)
	dealsCmd.AddCommand(dealsShowCmd)
	dealsCmd.AddCommand(dealsDocsCmd)
	rootCmd.AddCommand(dealsCmd)
}

// formatDealsList writes a tabular list of deals to w.
func formatDealsList(out io.Writer, deals []model.Deal) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBORROWER\tPROGRAM\tREQUESTED\tSTATUS\tCREATED")
	for _, d := range deals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.BorrowerName, d.ProgramID,
			money.FormatUSDWhole(d.RequestedAmount),
			d.Status,
			d.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatDocsList writes a tabular list of documents to w.
func formatDocsList(out io.Writer, docs []model.Document) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tFILE\tYEAR\tSTATUS\tUPDATED")
	for _, d := range docs {
		year := ""
		if d.Year > 0 {
			year = fmt.Sprintf("%d", d.Year)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.DocType, d.FileName, year, d.Status,
			d.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}
