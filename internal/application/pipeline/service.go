// Package pipeline orchestrates one analysis run: ingestion, the regression
// cascade, outlier classification, and fragmentation consolidation.  It is
// the seam between the CLI and the domain packages.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/glycotrace/glycotrace/pkg/errors"
	"github.com/glycotrace/glycotrace/pkg/types/common"

	"github.com/glycotrace/glycotrace/internal/config"
	"github.com/glycotrace/glycotrace/internal/domain/fragment"
	"github.com/glycotrace/glycotrace/internal/domain/outlier"
	"github.com/glycotrace/glycotrace/internal/infrastructure/monitoring/logging"
	"github.com/glycotrace/glycotrace/internal/infrastructure/monitoring/prometheus"
)

// Service runs complete analyses over compound tables.
type Service interface {
	Analyze(ctx context.Context, input *AnalyzeInput) (*Result, error)
}

// AnalyzeInput carries one compound table into a run.
type AnalyzeInput struct {
	// Reader supplies the CSV table.
	Reader io.Reader
	// Source labels the run output, typically the input filename.
	Source string
}

type service struct {
	cfg     config.AnalysisConfig
	log     logging.Logger
	metrics *prometheus.PipelineMetrics
}

// NewService builds an analysis service.  The config is copied by value and
// every run snapshots it, so concurrent runs never share mutable state.
func NewService(cfg config.AnalysisConfig, log logging.Logger, metrics *prometheus.PipelineMetrics) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopMetrics()
	}
	return &service{cfg: cfg, log: log.Named("pipeline"), metrics: metrics}, nil
}

func (s *service) Analyze(ctx context.Context, input *AnalyzeInput) (*Result, error) {
	if input == nil || input.Reader == nil {
		return nil, apperrors.InvalidParam("analysis requires an input table")
	}
	started := time.Now()
	run := &Result{
		RunID:     uuid.NewString(),
		Source:    input.Source,
		StartedAt: started,
		Config:    s.cfg,
	}
	log := s.log.With(logging.String("run_id", run.RunID))
	log.Info("analysis started", logging.String("source", input.Source))

	res, err := s.analyze(ctx, input, run, log)
	run.Duration = time.Since(started)
	s.metrics.RunDuration.Observe(run.Duration.Seconds())
	if err != nil {
		s.metrics.RunsTotal.WithLabelValues(prometheus.OutcomeFailed).Inc()
		log.Error("analysis failed", logging.Err(err))
		return nil, err
	}
	s.metrics.RunsTotal.WithLabelValues(prometheus.OutcomeOK).Inc()
	log.Info("analysis finished",
		logging.Int("compounds", len(res.Compounds)),
		logging.Int("models", len(res.Models)),
		logging.Int("consolidations", len(res.Consolidations)),
		logging.Duration("elapsed", run.Duration))
	return res, nil
}

func (s *service) analyze(ctx context.Context, input *AnalyzeInput, run *Result, log logging.Logger) (*Result, error) {
	ing, err := Ingest(input.Reader, s.cfg.MaxDropFraction)
	if err != nil {
		return nil, err
	}
	run.TotalRows = ing.TotalRows
	run.Drops = ing.Drops
	s.metrics.RowsIngestedTotal.Add(float64(len(ing.Records)))
	for _, d := range ing.Drops {
		s.metrics.RowsDroppedTotal.WithLabelValues(string(d.Kind)).Inc()
	}
	if len(ing.Drops) > 0 {
		run.Warnings = append(run.Warnings, common.Warning{
			Kind:     common.WarnRowsDropped,
			Message:  "input rows were dropped during ingestion",
			Observed: float64(len(ing.Drops)),
		})
		log.Warn("rows dropped during ingestion",
			logging.Int("dropped", len(ing.Drops)),
			logging.Int("total", ing.TotalRows))
	}

	if len(anchorIndices(ing.Records, allOf(len(ing.Records)))) == 0 {
		return nil, apperrors.NewCode(apperrors.ErrCodeNoAnchorCompounds)
	}

	eng := newCascade(s.cfg, ing.Records, log, s.metrics)
	outcomes, err := eng.run(ctx)
	if err != nil {
		return nil, err
	}

	byIndex := make(map[int]CompoundResult, len(ing.Records))
	for _, out := range outcomes {
		if !out.accepted {
			run.UnclassifiableGroups = append(run.UnclassifiableGroups, out.prefix)
		} else {
			if _, seen := run.ModelByID(out.model.ID); !seen {
				run.Models = append(run.Models, summarize(out.scope, out.level, out.model))
			}
		}
		run.Warnings = append(run.Warnings, out.warnings...)
		for _, cl := range out.classifications {
			r := &ing.Records[cl.Index]
			cr := CompoundResult{
				Name:        r.Name,
				Prefix:      r.Prefix,
				RT:          r.RT,
				Volume:      r.Volume,
				LogP:        r.LogP,
				IsAnchor:    r.IsAnchor,
				PredictedRT: cl.Predicted,
				Residual:    cl.Residual,
				StdResidual: cl.StdResidual,
				Verdict:     cl.Verdict,
				Reasons:     cl.Reasons,
				Advisory:    cl.Advisory,
			}
			if out.accepted {
				cr.ModelID = out.model.ID
				cr.Level = out.level
			}
			byIndex[cl.Index] = cr
			s.metrics.CompoundsClassified.WithLabelValues(string(cl.Verdict)).Inc()
			for _, reason := range cl.Reasons {
				s.metrics.OutlierReasonsTotal.WithLabelValues(string(reason.Kind)).Inc()
			}
		}
	}

	s.consolidate(run, ing, byIndex)

	run.Compounds = make([]CompoundResult, 0, len(byIndex))
	for i := range ing.Records {
		if cr, ok := byIndex[i]; ok {
			run.Compounds = append(run.Compounds, cr)
		}
	}
	for _, w := range run.Warnings {
		s.metrics.WarningsTotal.WithLabelValues(string(w.Kind)).Inc()
	}
	return run, nil
}

// consolidate folds co-eluting fragments in the valid set into their parents
// and annotates the affected compound results.
func (s *service) consolidate(run *Result, ing *IngestResult, byIndex map[int]CompoundResult) {
	var validIdx []int
	for i := range ing.Records {
		if cr, ok := byIndex[i]; ok && cr.Verdict == outlier.VerdictValid {
			validIdx = append(validIdx, i)
		}
	}
	cons := fragment.Consolidate(ing.Records, validIdx, s.cfg.RTTolerance)
	run.Consolidations = cons
	for _, c := range cons {
		s.metrics.ConsolidationsTotal.Inc()
		parent := byIndex[c.ParentIndex]
		parent.ConsolidatedVolume = c.TotalVolume
		byIndex[c.ParentIndex] = parent
		for _, fi := range c.FragmentIndices() {
			frag := byIndex[fi]
			frag.ConsolidatedInto = c.ParentName
			byIndex[fi] = frag
		}
	}
}

func allOf(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
