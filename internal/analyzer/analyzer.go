// Package analyzer orchestrates one analysis request: header forensics,
// the URL pipeline and the external classifier, converging in the score
// aggregator.
package analyzer

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/akashahram/Phishing-Email-Detector/internal/authalign"
	"github.com/akashahram/Phishing-Email-Detector/internal/classifier"
	"github.com/akashahram/Phishing-Email-Detector/internal/config"
	"github.com/akashahram/Phishing-Email-Detector/internal/headers"
	"github.com/akashahram/Phishing-Email-Detector/internal/identity"
	"github.com/akashahram/Phishing-Email-Detector/internal/metrics"
	"github.com/akashahram/Phishing-Email-Detector/internal/relay"
	"github.com/akashahram/Phishing-Email-Detector/internal/reputation"
	"github.com/akashahram/Phishing-Email-Detector/internal/scoring"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
	"github.com/akashahram/Phishing-Email-Detector/internal/urlscan"
	"github.com/akashahram/Phishing-Email-Detector/pkg/helpers"
)

// Request is what the delivery layer hands the core.
type Request struct {
	RawHeaders map[string][]string
	BodyText   string

	// ClassifierProbability short-circuits the classifier call when the
	// caller already has the model output.
	ClassifierProbability *float64

	// AuthResult carries externally-verified mechanism results, e.g.
	// from a live SPF check during the SMTP transaction. When nil the
	// results are read from Authentication-Results headers.
	AuthResult *types.AuthResult
}

// Analyzer wires the analyzers, the URL pipeline and the aggregator.
type Analyzer struct {
	logger     *zap.Logger
	cfg        *config.Config
	ref        *config.ReferenceData
	aligner    *authalign.Aligner
	tracer     *relay.Tracer
	identity   *identity.Detector
	resolver   *urlscan.Resolver
	structural *urlscan.Structural
	typosquat  *urlscan.Typosquat
	reputation *reputation.Checker
	classifier classifier.Classifier
	aggregator *scoring.Aggregator
}

// New assembles the full pipeline. cls is the injected classifier
// capability; rdb may be nil (no caching); transport overrides the
// redirect resolver's HTTP transport, mainly for tests.
func New(logger *zap.Logger, cfg *config.Config, ref *config.ReferenceData,
	cls classifier.Classifier, rdb *redis.Client, transport http.RoundTripper) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		logger:     logger,
		cfg:        cfg,
		ref:        ref,
		aligner:    authalign.New(logger.Named("authalign")),
		tracer:     relay.New(logger.Named("relay"), &cfg.Relay, ref),
		identity:   identity.New(logger.Named("identity"), ref),
		resolver:   urlscan.NewResolver(logger.Named("resolver"), &cfg.URL, transport),
		structural: urlscan.NewStructural(logger.Named("structure"), &cfg.URL, ref),
		typosquat:  urlscan.NewTyposquat(logger.Named("typosquat"), &cfg.Typosquat, ref),
		reputation: reputation.New(logger.Named("reputation"), &cfg.Reputation, rdb),
		classifier: cls,
		aggregator: scoring.New(cfg.Scoring),
	}
}

// Analyze runs the whole pipeline and returns the verdict. Only a
// classifier failure is a hard error; every other external hiccup
// degrades to findings or "unresolved" records.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*types.Verdict, error) {
	start := time.Now()

	deadline := a.cfg.RequestDeadline
	if deadline <= 0 {
		deadline = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	hdr := headers.New(req.RawHeaders)

	cls := a.classifier
	if req.ClassifierProbability != nil {
		cls = classifier.Static(*req.ClassifierProbability)
	}
	if cls == nil {
		return nil, fmt.Errorf("no classifier available")
	}

	var (
		wg sync.WaitGroup

		mlProb float64
		mlErr  error

		authFindings     []types.Finding
		relayFindings    []types.Finding
		identityFindings []types.Finding
		hops             []types.RelayHop

		ext         urlscan.Extraction
		urlFindings []types.Finding
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		mlProb, mlErr = cls.Probability(ctx, req.BodyText)
	}()

	go func() {
		defer wg.Done()
		headerResult := authalign.FromHeader(hdr)
		var authResult *types.AuthResult
		if req.AuthResult == nil {
			authResult = &headerResult
		} else {
			// Work on a copy so backfilling never mutates the caller's
			// struct. A live check only covers some mechanisms; the rest
			// still comes from the recorded Authentication-Results.
			ar := *req.AuthResult
			authResult = &ar
			if authResult.DKIM.Outcome == types.OutcomeUnknown || authResult.DKIM.Outcome == "" {
				authResult.DKIM = headerResult.DKIM
			}
			if authResult.DMARC.Outcome == types.OutcomeUnknown || authResult.DMARC.Outcome == "" {
				authResult.DMARC = headerResult.DMARC
			}
		}
		if authResult.Alignment == "" {
			authResult.Alignment = a.aligner.Alignment(hdr.FromDomain, *authResult)
		}
		authFindings = a.aligner.Analyze(hdr, *authResult)

		hops = a.tracer.Trace(hdr)
		relayFindings = append(a.tracer.Analyze(hops), a.tracer.AnalyzeHygiene(hdr)...)

		identityFindings = a.identity.Analyze(hdr)
		if hdr.FromDomain != "" {
			if f := a.typosquat.Detect(hdr.FromDomain); f != nil {
				identityFindings = append(identityFindings, *f)
			}
		}
	}()

	go func() {
		defer wg.Done()
		ext = urlscan.Extract(req.BodyText, a.cfg.URL.MaxURLs)
		urlFindings = a.scanURLs(ctx, ext.Records)
		if f := ext.OmittedFinding(); f != nil {
			urlFindings = append(urlFindings, *f)
		}
	}()

	wg.Wait()

	if mlErr != nil {
		metrics.ScansTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("classifier invocation failed: %w", mlErr)
	}

	mlProb, keyword := classifier.KeywordBoost(mlProb, req.BodyText, a.ref.PhishingKeywords)

	forensics := make([]types.Finding, 0, len(identityFindings)+len(authFindings)+len(relayFindings))
	forensics = append(forensics, identityFindings...)
	forensics = append(forensics, authFindings...)
	forensics = append(forensics, relayFindings...)

	verdict := a.aggregator.Aggregate(scoring.Input{
		MLScore:           mlProb,
		KeywordMatched:    keyword,
		ForensicsFindings: forensics,
		URLFindings:       urlFindings,
		Signals:           a.signals(hops, ext.Records),
	})

	metrics.ScansTotal.WithLabelValues(verdictLabel(verdict)).Inc()
	metrics.ScanDuration.WithLabelValues("full").Observe(time.Since(start).Seconds())

	a.logger.Info("email analyzed",
		zap.Int("prediction", verdict.Prediction),
		zap.Float64("probability", verdict.Probability),
		zap.Float64("ml_score", verdict.MLScore),
		zap.Float64("forensics_score", verdict.ForensicsScore),
		zap.Float64("url_risk_score", verdict.URLRiskScore),
		zap.String("reason", verdict.Reason),
		zap.Duration("duration", time.Since(start)))

	return verdict, nil
}

// scanURLs runs each record's resolve→structure→typosquat→reputation
// chain concurrently, bounded by the configured maximum. Each worker owns
// its own finding slice; the merge happens after the wait, so there is no
// shared mutable state between branches.
func (a *Analyzer) scanURLs(ctx context.Context, records []types.URLRecord) []types.Finding {
	if len(records) == 0 {
		return nil
	}

	limit := a.cfg.URL.MaxConcurrency
	if limit <= 0 {
		limit = len(records)
	}
	sem := make(chan struct{}, limit)
	results := make([][]types.Finding, len(records))

	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			rec := &records[i]
			var findings []types.Finding

			findings = append(findings, a.resolver.Resolve(ctx, rec)...)
			findings = append(findings, a.structural.Analyze(ctx, rec)...)
			if f := a.typosquat.Detect(rec.EffectiveHost()); f != nil {
				findings = append(findings, *f)
			}
			if f := a.reputation.Check(ctx, rec.Normalized); f != nil {
				findings = append(findings, *f)
			}

			var risk float64
			for _, f := range findings {
				if f.Weight > risk {
					risk = f.Weight
				}
			}
			rec.RiskScore = risk

			metrics.URLResolutions.WithLabelValues(resolutionLabel(rec)).Inc()
			results[i] = findings
		}(i)
	}
	wg.Wait()

	var merged []types.Finding
	for _, fs := range results {
		merged = append(merged, fs...)
	}
	return merged
}

// signals builds the summary counter map exposed in the verdict.
func (a *Analyzer) signals(hops []types.RelayHop, records []types.URLRecord) map[string]interface{} {
	domains := make(map[string]struct{})
	hasIP := 0
	suspiciousTLDs := 0
	for i := range records {
		host := records[i].EffectiveHost()
		if net.ParseIP(host) != nil {
			hasIP = 1
			continue
		}
		domains[helpers.RegistrableDomain(host)] = struct{}{}
		for _, tld := range a.ref.SuspiciousTLDs {
			if strings.HasSuffix(host, "."+tld) {
				suspiciousTLDs++
				break
			}
		}
	}
	return map[string]interface{}{
		"hop_count":          len(hops),
		"num_urls":           len(records),
		"num_unique_domains": len(domains),
		"has_ip":             hasIP,
		"suspicious_tlds":    suspiciousTLDs,
	}
}

func verdictLabel(v *types.Verdict) string {
	if v.Prediction == 1 {
		return "phishing"
	}
	return "clean"
}

func resolutionLabel(rec *types.URLRecord) string {
	if rec.Resolved {
		return "resolved"
	}
	return "unresolved"
}
