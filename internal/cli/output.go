package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"policyPortal/domain"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRecommendations(w io.Writer, recs []domain.ScoredPolicy) error {
	if outputFmt == "json" {
		return writeJSON(w, recs)
	}
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No eligible policies.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tID\tNAME\tPROVIDER\tPREMIUM\tSCORE\tCONFIDENCE\tSCORER")
	for i, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\t%.3f\t%s\t%s\n",
			i+1, r.Policy.ID, r.Policy.Name, r.Policy.Provider,
			r.Policy.Premium, r.Score, r.Confidence, r.ScoredBy)
	}
	return tw.Flush()
}

func writeComparison(w io.Writer, cmp domain.Comparison) error {
	if outputFmt == "json" {
		return writeJSON(w, cmp)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(label string, cell func(domain.ComparisonRow) string) {
		cells := make([]string, len(cmp.Rows))
		for i, r := range cmp.Rows {
			cells[i] = cell(r)
		}
		fmt.Fprintf(tw, "%s\t%s\n", label, strings.Join(cells, "\t"))
	}

	row("FIELD", func(r domain.ComparisonRow) string { return r.PolicyID })
	row("Name", func(r domain.ComparisonRow) string { return r.Name })
	row("Provider", func(r domain.ComparisonRow) string { return r.Provider })
	row("Category", func(r domain.ComparisonRow) string { return r.Category })
	row("Premium", func(r domain.ComparisonRow) string { return fmt.Sprintf("%.2f", r.Premium) })
	row("Coverage", func(r domain.ComparisonRow) string { return fmt.Sprintf("%.2f", r.Coverage) })
	row("Term", func(r domain.ComparisonRow) string { return fmt.Sprintf("%d", r.Term) })
	row("Claim ratio", func(r domain.ComparisonRow) string { return fmt.Sprintf("%.1f", r.ClaimSettlementRatio) })
	row("Flexibility", func(r domain.ComparisonRow) string { return fmt.Sprintf("%d", r.FlexibilityLength) })
	row("Benefits", func(r domain.ComparisonRow) string { return joinOrDash(r.Benefits) })
	row("Exclusions", func(r domain.ComparisonRow) string { return joinOrDash(r.Exclusions) })

	if len(cmp.Scores) == len(cmp.Rows) {
		cells := make([]string, len(cmp.Scores))
		for i, s := range cmp.Scores {
			cells[i] = fmt.Sprintf("%.3f (%s)", s.Score, s.Confidence)
		}
		fmt.Fprintf(tw, "Score\t%s\n", strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Lowest premium:    %s\n", cmp.BestByPremium.ID)
	fmt.Fprintf(w, "Highest coverage:  %s\n", cmp.BestByCoverage.ID)
	_, err := fmt.Fprintf(w, "Most flexible:     %s\n", cmp.BestByFlexibility.ID)
	return err
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
