package usecase

import (
	"TradeGuard/internal/domain/models"
	drepo "TradeGuard/internal/domain/repository"
	"TradeGuard/internal/guard"
)

// ExitService evaluates the exit policy for caller-supplied position state.
// The evaluator itself is pure; this layer only maps transport state in and
// records metrics on triggered exits.
type ExitService struct {
	cfg     guard.ExitConfig
	metrics drepo.Metrics
}

func NewExitService(cfg guard.ExitConfig, metrics drepo.Metrics) *ExitService {
	return &ExitService{cfg: cfg, metrics: metrics}
}

// ExitEvaluation is the API-facing result: the decision plus the updated
// position state the caller must carry into the next bar.
type ExitEvaluation struct {
	Decision       guard.ExitDecision `json:"decision"`
	PeakPrice      float64            `json:"peak_price"`
	BarsSinceEntry int                `json:"bars_since_entry"`
}

// Evaluate rebuilds the position state from the request, runs one evaluation,
// and returns both the decision and the mutated state.
func (s *ExitService) Evaluate(req *models.ExitEvaluateRequest) ExitEvaluation {
	st := &guard.PositionState{
		BarsSinceEntry: req.BarsSinceEntry,
		PartialExited:  req.PartialExited,
	}
	if req.PeakPrice != nil {
		// Seed the peak before the real bar so the evaluation sees it.
		guard.EvaluateExit(guard.ExitConfig{}, st, *req.PeakPrice, nil)
	}
	if req.InitialRPrice != nil {
		st.SetInitialR(*req.InitialRPrice)
	}

	d := guard.EvaluateExit(s.cfg, st, req.Price, req.ATRValue)
	if d.Exit {
		s.metrics.RecordExit(req.Symbol, d.Reason)
	}

	peak, _ := st.Peak()
	return ExitEvaluation{Decision: d, PeakPrice: peak, BarsSinceEntry: st.BarsSinceEntry}
}

// Config returns the active exit policy configuration.
func (s *ExitService) Config() guard.ExitConfig { return s.cfg }
