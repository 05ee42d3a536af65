// Package pipeline sequences the signal producers for one transaction and
// hands their output to the scorer.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/opensource-finance/preflight/internal/domain"
	"github.com/opensource-finance/preflight/internal/forecast"
	"github.com/opensource-finance/preflight/internal/graph"
	"github.com/opensource-finance/preflight/internal/intel"
	"github.com/opensource-finance/preflight/internal/logging"
	"github.com/opensource-finance/preflight/internal/metrics"
	"github.com/opensource-finance/preflight/internal/risk"
)

// ErrInternal is returned when scoring itself fails. No partial result is
// produced in that case.
var ErrInternal = errors.New("analysis failed")

// Phase names used for spans, metrics and logs.
const (
	PhaseOnchain  = "onchain"
	PhaseIntel    = "intel"
	PhaseGraph    = "graph"
	PhaseForecast = "forecast"
	PhaseScore    = "score"
)

// Upstream call names reported in preflight_upstream_failures_total.
const (
	CallTxCount         = "tx_count"
	CallContractCode    = "contract_code"
	CallRecentTransfers = "recent_transfers"
	CallVerification    = "verification"
)

// GraphUnavailable explains a graph phase that could not run.
const GraphUnavailable = "Graph analysis unavailable"

var tracer = otel.Tracer("preflight-pipeline")

// Scorer turns collected signals into the canonical verdict. The rule table
// also parameterizes the pre-score contract risk estimate.
type Scorer interface {
	Score(in *risk.ScoreInput) *domain.RiskResult
	Table() risk.RuleTable
}

var _ Scorer = (*risk.Scorer)(nil)

// Orchestrator runs one analysis per call. It holds no per-request state and
// is safe for concurrent use.
type Orchestrator struct {
	chain    domain.BlockchainDataProvider
	verifier domain.ContractVerificationProvider
	index    *intel.Index
	scorer   Scorer
	bus      domain.EventBus
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEventBus publishes every completed analysis on bus.
func WithEventBus(bus domain.EventBus) Option {
	return func(o *Orchestrator) { o.bus = bus }
}

// WithLogger sets the logger used for degraded phases.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an orchestrator. A nil verifier reports every contract as
// unknown; a nil index matches nothing.
func New(chain domain.BlockchainDataProvider, verifier domain.ContractVerificationProvider, index *intel.Index, scorer Scorer, opts ...Option) *Orchestrator {
	if index == nil {
		index = intel.Empty()
	}
	o := &Orchestrator{
		chain:    chain,
		verifier: verifier,
		index:    index,
		scorer:   scorer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Index returns the scam intelligence index the orchestrator consults.
func (o *Orchestrator) Index() *intel.Index {
	return o.index
}

// Analyze produces the verdict for req. Upstream and phase failures degrade
// to defaults; only a scoring failure returns an error, and it is always
// ErrInternal.
func (o *Orchestrator) Analyze(ctx context.Context, req *domain.AnalyzeRequest) (result *domain.RiskResult, err error) {
	ctx, span := tracer.Start(ctx, "pipeline.Analyze",
		trace.WithAttributes(
			attribute.String("tx.type", string(req.TxType)),
		),
	)
	defer span.End()

	logger := o.logger.With("wallet", req.Wallet, "contract", req.Contract)
	if id := logging.RequestID(ctx); id != "" {
		logger = logger.With("request_id", id)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("analysis failed", "phase", PhaseScore, "panic", fmt.Sprint(r))
			metrics.AnalysisFailuresTotal.Inc()
			span.SetStatus(codes.Error, "internal failure")
			result, err = nil, ErrInternal
		}
	}()

	in := &risk.ScoreInput{
		Wallet:   req.Wallet,
		Contract: req.Contract,
		TxType:   req.TxType,
	}

	// Unusable and burn addresses end in the terminal verdict, which reads
	// no signals, so nothing upstream is called for them.
	if !terminal(req) {
		onchain, transfers := o.fetchOnchain(ctx, logger, req)

		scamIntel := runPhase(ctx, logger, PhaseIntel, domain.ScamIntel{}, func(ctx context.Context) domain.ScamIntel {
			return o.lookup(req)
		})

		graphSignals := runPhase(ctx, logger, PhaseGraph, graphDefault(), func(ctx context.Context) domain.GraphSignals {
			return graph.Analyze(req.Wallet, transfers, o.index)
		})

		forecastSignals := runPhase(ctx, logger, PhaseForecast, domain.ForecastSignals{}, func(ctx context.Context) domain.ForecastSignals {
			estimate := o.scorer.Table().EstimateContractRisk(scamIntel, onchain, graphSignals)
			trace.SpanFromContext(ctx).SetAttributes(attribute.Int("contract_risk.estimate", estimate))
			return forecast.Simulate(req.TxType, estimate, risk.ScamLinked(scamIntel, graphSignals))
		})

		in.Onchain = &onchain
		in.Intel = &scamIntel
		in.Graph = &graphSignals
		in.Forecast = &forecastSignals
	}

	result = o.score(ctx, in)

	span.SetAttributes(
		attribute.String("risk.label", string(result.Risk)),
		attribute.Int("risk.score", result.Score),
	)
	metrics.AnalysesTotal.WithLabelValues(string(result.Risk)).Inc()
	logger.Debug("analysis complete", "risk", result.Risk, "score", result.Score)

	o.publish(ctx, logger, req, result)
	return result, nil
}

func (o *Orchestrator) score(ctx context.Context, in *risk.ScoreInput) *domain.RiskResult {
	_, span := tracer.Start(ctx, "pipeline."+PhaseScore)
	defer span.End()
	defer metrics.ObservePhase(PhaseScore, time.Now())

	return o.scorer.Score(in)
}

// fetchOnchain runs the three reads concurrently. Each failure degrades only
// its own value: tx count to unknown, code to empty, transfers to none.
func (o *Orchestrator) fetchOnchain(ctx context.Context, logger *slog.Logger, req *domain.AnalyzeRequest) (domain.OnchainSignals, []domain.Transfer) {
	ctx, span := tracer.Start(ctx, "pipeline."+PhaseOnchain)
	defer span.End()
	defer metrics.ObservePhase(PhaseOnchain, time.Now())

	var (
		txCount   *int64
		code      = domain.EmptyCode
		transfers []domain.Transfer
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetch(gctx, logger, CallTxCount, func(ctx context.Context) error {
			n, err := o.chain.TxCount(ctx, req.Wallet)
			if err == nil {
				txCount = &n
			}
			return err
		})
		return nil
	})
	g.Go(func() error {
		fetch(gctx, logger, CallContractCode, func(ctx context.Context) error {
			c, err := o.chain.ContractCode(ctx, req.Contract)
			if err == nil && c != "" {
				code = c
			}
			return err
		})
		return nil
	})
	g.Go(func() error {
		fetch(gctx, logger, CallRecentTransfers, func(ctx context.Context) error {
			t, err := o.chain.RecentTransfers(ctx, req.Wallet)
			if err == nil {
				transfers = t
			}
			return err
		})
		return nil
	})
	_ = g.Wait()

	onchain := domain.OnchainSignals{
		TxCount:      txCount,
		IsContract:   len(code) > len(domain.EmptyCode),
		ContractType: domain.ContractTypeEOA,
	}
	if onchain.IsContract {
		onchain.ContractType = domain.ContractTypeSmartContract
		onchain.ContractVerified = o.verify(ctx, logger, req.Contract)
	}

	span.SetAttributes(
		attribute.Bool("contract.present", onchain.IsContract),
		attribute.Int("transfers.count", len(transfers)),
	)
	return onchain, transfers
}

// verify never reports unverified on failure: an error means unknown.
func (o *Orchestrator) verify(ctx context.Context, logger *slog.Logger, contract string) domain.Verification {
	if o.verifier == nil {
		return domain.VerificationUnknown
	}

	status := domain.VerificationUnknown
	fetch(ctx, logger, CallVerification, func(ctx context.Context) error {
		v, err := o.verifier.CheckVerified(ctx, contract)
		if err == nil {
			status = v
		}
		return err
	})
	return status
}

// lookup prefers a contract match over a wallet match.
func (o *Orchestrator) lookup(req *domain.AnalyzeRequest) domain.ScamIntel {
	if hit := o.index.Lookup(req.Contract); hit.Match {
		return hit
	}
	return o.index.Lookup(req.Wallet)
}

// publish emits the verdict on the event bus. Failures are logged only.
func (o *Orchestrator) publish(ctx context.Context, logger *slog.Logger, req *domain.AnalyzeRequest, result *domain.RiskResult) {
	if o.bus == nil {
		return
	}

	payload, err := json.Marshal(domain.AnalysisEvent{
		RequestID: logging.RequestID(ctx),
		Wallet:    req.Wallet,
		Contract:  req.Contract,
		TxType:    req.TxType,
		Risk:      result.Risk,
		Score:     result.Score,
		Timestamp: result.Timestamp.UnixNano(),
	})
	if err != nil {
		logger.Warn("failed to encode analysis event", "error", err)
		return
	}

	topics := []string{domain.TopicAnalysisCompleted}
	if result.Risk == domain.LabelDangerous {
		topics = append(topics, domain.TopicAlert)
	}
	for _, topic := range topics {
		outcome := "ok"
		if err := o.bus.Publish(ctx, topic, payload); err != nil {
			outcome = "error"
			logger.Warn("failed to publish analysis event", "topic", topic, "error", err)
		}
		metrics.EventsPublishedTotal.WithLabelValues(topic, outcome).Inc()
	}
}

// fetch runs one upstream call, converting errors and panics into a logged,
// counted degradation.
func fetch(ctx context.Context, logger *slog.Logger, call string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.UpstreamFailuresTotal.WithLabelValues(call).Inc()
			logger.Error("upstream call panicked", "call", call, "panic", fmt.Sprint(r))
		}
	}()

	if err := fn(ctx); err != nil {
		metrics.UpstreamFailuresTotal.WithLabelValues(call).Inc()
		logger.Warn("upstream call failed", "call", call, "error", err)
	}
}

// runPhase runs fn in its own span and replaces a panic with fallback.
func runPhase[T any](ctx context.Context, logger *slog.Logger, phase string, fallback T, fn func(context.Context) T) (out T) {
	ctx, span := tracer.Start(ctx, "pipeline."+phase)
	defer span.End()
	defer metrics.ObservePhase(phase, time.Now())

	defer func() {
		if r := recover(); r != nil {
			metrics.PhaseDegradedTotal.WithLabelValues(phase).Inc()
			span.SetStatus(codes.Error, "phase degraded")
			logger.Error("phase failed, using default", "phase", phase, "panic", fmt.Sprint(r))
			out = fallback
		}
	}()

	return fn(ctx)
}

func graphDefault() domain.GraphSignals {
	return domain.GraphSignals{
		HopDistance: domain.NoHop,
		Explanation: GraphUnavailable,
	}
}

func terminal(req *domain.AnalyzeRequest) bool {
	return !risk.IsValidAddress(req.Wallet) || !risk.IsValidAddress(req.Contract) ||
		risk.IsBurnAddress(req.Wallet) || risk.IsBurnAddress(req.Contract)
}
