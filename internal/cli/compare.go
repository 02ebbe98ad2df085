package cli

import (
	"policyPortal/business/comparator"
	"policyPortal/business/recommender"
	"policyPortal/domain"
	"policyPortal/internal/repository/memory"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two to four policies side by side",
	Long: `Build the comparison matrix for the selected policies. With --profile
every policy also gets a personal score.

Examples:
  policyctl compare --policies catalog.json --ids p1,p2,p3
  policyctl compare --policies catalog.json --ids p1 --ids p2 --profile me.json`,
	RunE: runCompare,
}

var (
	comparePolicies string
	compareIDs      []string
	compareProfile  string
	compareModel    string
)

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringVar(&comparePolicies, "policies", "", "policy catalog JSON file")
	compareCmd.Flags().StringSliceVar(&compareIDs, "ids", nil, "policy ids to compare (2 to 4)")
	compareCmd.Flags().StringVar(&compareProfile, "profile", "", "optional user profile JSON file for personal scores")
	compareCmd.Flags().StringVar(&compareModel, "model", "", "trained model snapshot used for personal scores")
	_ = compareCmd.MarkFlagRequired("policies")
	_ = compareCmd.MarkFlagRequired("ids")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repo, err := memory.LoadPolicyFile(comparePolicies)
	if err != nil {
		return err
	}
	ranker, err := buildRanker(ctx, compareModel, recommender.DefaultTrainingConfig())
	if err != nil {
		return err
	}
	svc := comparator.NewService(repo, ranker, 0)

	ids := splitIDs(compareIDs)

	var cmp domain.Comparison
	if compareProfile == "" {
		cmp, err = svc.Compare(ctx, ids)
	} else {
		profile, perr := loadProfile(compareProfile)
		if perr != nil {
			return perr
		}
		cmp, err = svc.CompareForProfile(ctx, ids, profile)
	}
	if err != nil {
		return err
	}
	return writeComparison(cmd.OutOrStdout(), cmp)
}
