package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glycotrace/glycotrace/internal/application/pipeline"
	"github.com/glycotrace/glycotrace/internal/config"
	apperrors "github.com/glycotrace/glycotrace/pkg/errors"
)

var (
	analyzeSigma       float64
	analyzeRTTolerance float64
	analyzeLambda      float64
	analyzeSeed        int64
	analyzeExtended    bool
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <table.csv>",
		Short: "Classify a compound table",
		Long:  "Run the full analysis over an LC-MS compound table: fit retention-time\nmodels per prefix with cascade escalation, flag outliers, and consolidate\nin-source fragmentation.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0])
		},
	}

	f := cmd.Flags()
	f.Float64Var(&analyzeSigma, "sigma", config.DefaultOutlierSigma, "standardized-residual outlier threshold (1.0-5.0)")
	f.Float64Var(&analyzeRTTolerance, "rt-tolerance", config.DefaultRTTolerance, "co-elution window in minutes (0.01-0.5)")
	f.Float64Var(&analyzeLambda, "lambda", config.DefaultRidgeLambda, "ridge regularization strength")
	f.Int64Var(&analyzeSeed, "seed", config.DefaultCVSeed, "cross-validation shuffle seed")
	f.BoolVar(&analyzeExtended, "extended-features", false, "enable structural features beyond log P")
	return cmd
}

func runAnalyze(cmd *cobra.Command, path string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	// Flags override the loaded config only when set explicitly.
	cfg := cliCtx.Config.Analysis
	flags := cmd.Flags()
	if flags.Changed("sigma") {
		cfg.OutlierSigma = analyzeSigma
	}
	if flags.Changed("rt-tolerance") {
		cfg.RTTolerance = analyzeRTTolerance
	}
	if flags.Changed("lambda") {
		cfg.RidgeLambda = analyzeLambda
	}
	if flags.Changed("seed") {
		cfg.CVSeed = analyzeSeed
	}
	if flags.Changed("extended-features") {
		cfg.ExtendedFeatures = analyzeExtended
	}

	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewCode(apperrors.ErrCodeTableReadFailed).WithCause(err).WithDetail(path)
	}
	defer file.Close()

	svc, err := pipeline.NewService(cfg, cliCtx.Logger, cliCtx.Metrics)
	if err != nil {
		return err
	}
	res, err := svc.Analyze(cmd.Context(), &pipeline.AnalyzeInput{
		Reader: file,
		Source: path,
	})
	if err != nil {
		return err
	}
	return PrintResult(cmd, &analysisReport{res})
}

// analysisReport adapts a pipeline result to the CLI output formats.
type analysisReport struct {
	*pipeline.Result
}

func (r *analysisReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s (%s)\n", r.RunID, r.Source)
	fmt.Fprintf(&sb, "  compounds: %d (%d valid, %d outliers), rows dropped: %d\n",
		len(r.Compounds), len(r.Valid()), len(r.Outliers()), len(r.Drops))
	fmt.Fprintf(&sb, "  models: %d, consolidations: %d, warnings: %d\n",
		len(r.Models), len(r.Consolidations), len(r.Warnings))
	for _, m := range r.Models {
		fmt.Fprintf(&sb, "  %-20s cv_r2=%.3f train_r2=%.3f anchors=%d  %s\n",
			m.ID, m.CVR2, m.TrainR2, m.AnchorCount, m.Equation)
	}
	if len(r.UnclassifiableGroups) > 0 {
		fmt.Fprintf(&sb, "  unclassifiable: %s\n", strings.Join(r.UnclassifiableGroups, ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r *analysisReport) TableHeaders() []string {
	return []string{"NAME", "MODEL", "VERDICT", "RT", "PREDICTED", "STD RESID", "VOLUME", "NOTE"}
}

func (r *analysisReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Compounds))
	for _, c := range r.Compounds {
		note := ""
		switch {
		case c.ConsolidatedInto != "":
			note = "fragment of " + c.ConsolidatedInto
		case c.ConsolidatedVolume > 0:
			note = "parent, volume " + strconv.FormatFloat(c.ConsolidatedVolume, 'f', 1, 64)
		case len(c.Reasons) > 0:
			note = string(c.Reasons[0].Kind)
		}
		rows = append(rows, []string{
			c.Name,
			c.ModelID,
			string(c.Verdict),
			strconv.FormatFloat(c.RT, 'f', 3, 64),
			strconv.FormatFloat(c.PredictedRT, 'f', 3, 64),
			strconv.FormatFloat(c.StdResidual, 'f', 2, 64),
			strconv.FormatFloat(c.Volume, 'f', 1, 64),
			note,
		})
	}
	return rows
}
