package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/money"
	"github.com/meridianlending/underwrite/internal/program"
)

var programsJSON bool

var programsCmd = &cobra.Command{
	Use:   "programs [id]",
	Short: "List loan programs or show one in detail",
	Long:  "Without arguments, lists the loan program catalog. With a program id, shows its full structuring rules, fees, and compliance checks.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			if programsJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(program.List())
			}
			formatProgramList(os.Stdout)
			return nil
		}

		p, err := program.Get(args[0])
		if err != nil {
			return err
		}
		if programsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		}
		formatProgramDetail(os.Stdout, p)
		return nil
	},
}

// formatProgramList writes a tabular catalog overview.
func formatProgramList(out io.Writer) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tAMOUNT RANGE\tBASE\tMAX TERM")
	for _, p := range program.List() {
		maxAmount := "uncapped"
		if p.Rules.MaxLoanAmount != nil {
			maxAmount = money.FormatUSDWhole(*p.Rules.MaxLoanAmount)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s – %s\t%s\t%dmo\n",
			p.ID, p.Name, p.Category,
			money.FormatUSDWhole(p.Rules.MinLoanAmount), maxAmount,
			p.Rules.BaseRate, p.Rules.MaxTermMonths,
		)
	}
	_ = w.Flush()
}

// formatProgramDetail writes one program's full terms.
func formatProgramDetail(out io.Writer, p *model.LoanProgram) {
	fmt.Fprintf(out, "%s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(out, "%s\n\n", p.Description)

	r := p.Rules
	fmt.Fprintln(out, "Structuring rules:")
	maxAmount := "uncapped"
	if r.MaxLoanAmount != nil {
		maxAmount = money.FormatUSDWhole(*r.MaxLoanAmount)
	}
	fmt.Fprintf(out, "  amount        %s – %s\n", money.FormatUSDWhole(r.MinLoanAmount), maxAmount)
	fmt.Fprintf(out, "  pricing       %s + %s to %s\n",
		r.BaseRate, money.FormatPercent(r.SpreadRange[0], 2), money.FormatPercent(r.SpreadRange[1], 2))
	fmt.Fprintf(out, "  term          up to %d months", r.MaxTermMonths)
	if r.InterestOnly {
		fmt.Fprint(out, ", interest-only")
	} else if r.MaxAmortization > 0 {
		fmt.Fprintf(out, ", amortized up to %d months", r.MaxAmortization)
	}
	fmt.Fprintln(out)
	if r.MaxLTV > 0 {
		fmt.Fprintf(out, "  max LTV       %s\n", money.FormatPercent(r.MaxLTV, 0))
	}
	if r.MinDSCR > 0 {
		fmt.Fprintf(out, "  min DSCR      %s\n", money.FormatRatio(r.MinDSCR))
	}
	if r.MaxDTI > 0 {
		fmt.Fprintf(out, "  max DTI       %s\n", money.FormatPercent(r.MaxDTI, 0))
	}
	if r.PrepaymentPenalty != "" {
		fmt.Fprintf(out, "  prepayment    %s\n", r.PrepaymentPenalty)
	}
	fmt.Fprintf(out, "  appraisal %v, personal guaranty %v\n", r.RequiresAppraisal, r.PersonalGuaranty)

	if len(p.RequiredDocuments) > 0 {
		fmt.Fprintln(out, "\nRequired documents:")
		for _, d := range p.RequiredDocuments {
			if d.Years > 0 {
				fmt.Fprintf(out, "  %s (%d years)\n", d.DocType, d.Years)
			} else {
				fmt.Fprintf(out, "  %s\n", d.DocType)
			}
		}
	}

	if len(p.StandardFees) > 0 {
		fmt.Fprintln(out, "\nStandard fees:")
		for _, f := range p.StandardFees {
			switch f.Type {
			case model.FeePercent:
				fmt.Fprintf(out, "  %s: %s of loan amount\n", f.Name, money.FormatPercent(f.Value, 2))
			default:
				fmt.Fprintf(out, "  %s: %s\n", f.Name, money.FormatUSD(f.Value))
			}
		}
	}

	if len(p.ApplicableRegulations) > 0 {
		fmt.Fprintf(out, "\nRegulations: %s\n", strings.Join(p.ApplicableRegulations, ", "))
	}
	if len(p.ComplianceChecks) > 0 {
		fmt.Fprintf(out, "Compliance checks: %s\n", strings.Join(p.ComplianceChecks, ", "))
	}
}

func init() {
	programsCmd.Flags().BoolVar(&programsJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(programsCmd)
}
