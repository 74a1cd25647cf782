package main

import (
	"encoding/json"
	"fmt"
	"os"

	apperrors "technician-dispatch/internal/common/errors"
	"technician-dispatch/internal/dispatch"
	"technician-dispatch/internal/models"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rank technicians for a location without touching any store",
	Long:  "Reads technicians from a JSON file, applies the configured filter, scoring and shortlist to the given request location and prints the ranking.",
	RunE:  runScore,
}

var (
	scoreLat           float64
	scoreLng           float64
	scoreServiceType   string
	scoreTechnicians   string
	scoreShortlistSize int
	scoreTieBreak      string
	scoreUseFileConfig bool
)

type scoreReport struct {
	PoolSize      int                         `json:"poolSize"`
	EligibleCount int                         `json:"eligibleCount"`
	Shortlist     []dispatch.CandidateSummary `json:"shortlist"`
}

func init() {
	f := scoreCmd.Flags()
	f.Float64Var(&scoreLat, "lat", 0, "Request latitude (required)")
	f.Float64Var(&scoreLng, "lng", 0, "Request longitude (required)")
	f.StringVarP(&scoreServiceType, "service-type", "s", "", "Request service type")
	f.StringVarP(&scoreTechnicians, "technicians", "t", "", "Path to a JSON array of technicians (required)")
	f.IntVarP(&scoreShortlistSize, "size", "n", 0, "Override shortlist size")
	f.StringVar(&scoreTieBreak, "tie-break", "", "Override tie break: input_order or distance")
	f.BoolVar(&scoreUseFileConfig, "use-config", false, "Take the policy from the config file instead of the defaults")

	for _, name := range []string{"lat", "lng", "technicians"} {
		if err := scoreCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	policy := dispatch.DefaultPolicy()
	if scoreUseFileConfig {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		policy = dispatch.PolicyFromConfig(cfg.Dispatch)
	}
	if scoreShortlistSize > 0 {
		policy.ShortlistSize = scoreShortlistSize
	}
	switch dispatch.TieBreak(scoreTieBreak) {
	case "":
	case dispatch.TieBreakInputOrder, dispatch.TieBreakDistance:
		policy.TieBreak = dispatch.TieBreak(scoreTieBreak)
	default:
		return fmt.Errorf("unknown tie break %q", scoreTieBreak)
	}

	loc, err := models.CoordinatesFrom(&scoreLat, &scoreLng)
	if err != nil {
		return fmt.Errorf("invalid request location: %w", apperrors.NewInvalidCoordinatesError(err.Error()).WithCause(err))
	}

	pool, err := readTechnicians(scoreTechnicians)
	if err != nil {
		return err
	}

	req := &models.MaintenanceRequest{
		ID:          "dry-run",
		ServiceType: scoreServiceType,
		Location:    loc,
		Status:      models.RequestStatusOpen,
	}
	report, err := rank(req, pool, policy)
	if err != nil {
		return err
	}
	return printJSON(cmd, report)
}

func rank(req *models.MaintenanceRequest, pool []models.Technician, policy dispatch.Policy) (*scoreReport, error) {
	shortlist, eligible, err := dispatch.Rank(req, pool, policy)
	if err != nil {
		return nil, err
	}

	report := &scoreReport{
		PoolSize:      len(pool),
		EligibleCount: eligible,
		Shortlist:     make([]dispatch.CandidateSummary, 0, len(shortlist)),
	}
	for _, s := range shortlist {
		report.Shortlist = append(report.Shortlist, dispatch.Summarize(s))
	}
	return report, nil
}

func readTechnicians(path string) ([]models.Technician, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read technicians file %s: %w", path, err)
	}

	var pool []models.Technician
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("failed to unmarshal technicians JSON: %w", err)
	}
	for i := range pool {
		if err := pool[i].Validate(); err != nil {
			return nil, fmt.Errorf("technician %d (%s): %w", i, pool[i].ID, err)
		}
	}
	return pool, nil
}
