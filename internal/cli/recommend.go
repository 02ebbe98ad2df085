package cli

import (
	"fmt"

	"policyPortal/business/recommender"
	"policyPortal/internal/repository/memory"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank a policy catalog for one profile",
	Long: `Score every active policy in a catalog file against a profile and print
the top-N shortlist.

Examples:
  policyctl recommend --policies catalog.json --profile me.json
  policyctl recommend --policies catalog.json --profile me.json --top 3 --model model.json`,
	RunE: runRecommend,
}

var (
	recommendPolicies string
	recommendProfile  string
	recommendTop      int
	recommendModel    string
	recommendExplain  bool
)

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringVar(&recommendPolicies, "policies", "", "policy catalog JSON file")
	recommendCmd.Flags().StringVar(&recommendProfile, "profile", "", "user profile JSON file")
	recommendCmd.Flags().IntVarP(&recommendTop, "top", "n", 5, "number of policies to return")
	recommendCmd.Flags().StringVar(&recommendModel, "model", "", "trained model snapshot (rules only when empty or missing)")
	recommendCmd.Flags().BoolVar(&recommendExplain, "explain", false, "include rule sub-scores and features (json)")
	_ = recommendCmd.MarkFlagRequired("policies")
	_ = recommendCmd.MarkFlagRequired("profile")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repo, err := memory.LoadPolicyFile(recommendPolicies)
	if err != nil {
		return err
	}
	profile, err := loadProfile(recommendProfile)
	if err != nil {
		return err
	}
	ranker, err := buildRanker(ctx, recommendModel, recommender.DefaultTrainingConfig())
	if err != nil {
		return err
	}

	policies, err := repo.FindActive(ctx)
	if err != nil {
		return err
	}

	if recommendExplain {
		debug, err := ranker.Explain(profile, policies, recommendTop)
		if err != nil {
			return fmt.Errorf("explain: %w", err)
		}
		return writeJSON(cmd.OutOrStdout(), debug)
	}

	recs, err := ranker.Recommend(profile, policies, recommendTop)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return writeRecommendations(cmd.OutOrStdout(), recs)
}
