package webui

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/webpack-chart/internal/chart"
	"github.com/webpack-chart/internal/navigation"
	"github.com/webpack-chart/internal/report"
	"github.com/webpack-chart/internal/repository"
	"github.com/webpack-chart/internal/sizetree"
	"github.com/webpack-chart/internal/source"
	apperrors "github.com/webpack-chart/pkg/errors"
	"github.com/webpack-chart/pkg/telemetry"
	"github.com/webpack-chart/pkg/utils"
)

//go:embed demo/stats.json
var demoStats []byte

// DemoSource is the source name reported for sessions still on the bundled report.
const DemoSource = "demo"

// ServiceOptions configures a ChartService.
type ServiceOptions struct {
	Parse       *report.ParseOptions
	Builder     *sizetree.BuilderOptions
	Layout      *chart.LayoutOptions
	DemoStyle   chart.Style
	MaxSessions int
	// TopN is how many top-level entries a catalog record keeps.
	TopN int
}

// DefaultServiceOptions returns lenient parsing, the gray demo style and 256 sessions.
func DefaultServiceOptions() *ServiceOptions {
	return &ServiceOptions{
		Parse:       report.DefaultParseOptions(),
		Builder:     sizetree.DefaultBuilderOptions(),
		Layout:      chart.DefaultLayoutOptions(),
		DemoStyle:   chart.GrayStyle{},
		MaxSessions: 256,
		TopN:        10,
	}
}

// ChartService turns reports into trees and drives per-session navigation.
type ChartService struct {
	opts     *ServiceOptions
	builder  *sizetree.Builder
	loader   *source.Loader
	catalog  repository.Catalog
	metrics  *Metrics
	logger   utils.Logger
	sessions *SessionStore
	demo     *sizetree.Tree
}

// NewChartService creates the service and builds the demo tree. loader and catalog
// may be nil, which disables location loads and report recording respectively.
func NewChartService(opts *ServiceOptions, loader *source.Loader, catalog repository.Catalog, metrics *Metrics, logger utils.Logger) (*ChartService, error) {
	if opts == nil {
		opts = DefaultServiceOptions()
	}
	if opts.Layout == nil {
		opts.Layout = chart.DefaultLayoutOptions()
	}
	if opts.DemoStyle == nil {
		opts.DemoStyle = chart.GrayStyle{}
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	s := &ChartService{
		opts:     opts,
		builder:  sizetree.NewBuilder(opts.Builder),
		loader:   loader,
		catalog:  catalog,
		metrics:  metrics,
		logger:   logger,
		sessions: NewSessionStore(opts.MaxSessions),
	}
	s.sessions.onEvict = metrics.sessionsEvicted.Inc

	demo, err := s.build(context.Background(), demoStats)
	if err != nil {
		return nil, fmt.Errorf("failed to build demo tree: %w", err)
	}
	s.demo = demo
	return s, nil
}

// NewSession starts a viewer on the demo report.
func (s *ChartService) NewSession() *SessionState {
	sess := &Session{
		CreatedAt: time.Now(),
		ctrl:      navigation.NewController(s.demo),
		style:     s.opts.DemoStyle,
		source:    DemoSource,
		demo:      true,
	}
	sess.updatedAt = sess.CreatedAt

	evicted := s.sessions.Add(sess)
	for _, id := range evicted {
		s.logger.Debug("evicted session %s", id)
	}
	s.metrics.activeSessions.Set(float64(s.sessions.Len()))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.snapshot(sess, navigation.TransitionNone)
}

// Session returns the current state of a session.
func (s *ChartService) Session(id string) (*SessionState, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.snapshot(sess, navigation.TransitionNone), nil
}

// DeleteSession drops a session.
func (s *ChartService) DeleteSession(id string) error {
	if !s.sessions.Delete(id) {
		return sessionNotFound(id)
	}
	s.metrics.activeSessions.Set(float64(s.sessions.Len()))
	return nil
}

// LoadBytes replaces the session's tree with one built from a raw stats report.
// On failure the session keeps its previous tree and selection.
func (s *ChartService) LoadBytes(ctx context.Context, id string, data []byte, sourceName string) (*SessionState, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	tree, err := s.build(ctx, data)
	if err != nil {
		s.logger.WithField("session", id).Warn("failed to load report from %s: %v", sourceName, err)
		return nil, err
	}

	sess.mu.Lock()
	sess.ctrl.Initialize(tree)
	sess.style = s.opts.Layout.Style
	if sess.style == nil {
		sess.style = chart.DefaultStyle{}
	}
	sess.source = sourceName
	sess.demo = false
	sess.updatedAt = time.Now()
	state := s.snapshot(sess, navigation.TransitionNone)
	sess.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"session": id,
		"modules": tree.ModuleCount,
	}).Info("loaded report from %s", sourceName)

	s.record(ctx, sourceName, tree)
	return state, nil
}

// LoadLocation fetches a report through the source loader and loads it.
func (s *ChartService) LoadLocation(ctx context.Context, id, location string) (*SessionState, error) {
	if s.loader == nil {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "loading by location is disabled")
	}
	if _, err := s.lookup(id); err != nil {
		return nil, err
	}

	data, err := s.loader.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	return s.LoadBytes(ctx, id, data, location)
}

// Activate applies a click on the node at path, given as labels below the root.
// Paths that match no node leave the selection unchanged.
func (s *ChartService) Activate(ctx context.Context, id string, path []string) (*SessionState, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	_, span := telemetry.Tracer("webui").Start(ctx, "webui.Activate")
	defer span.End()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	transition := navigation.TransitionNone
	if node := sess.ctrl.Tree().Find(path); node != nil {
		transition = sess.ctrl.Activate(node)
	}
	if transition != navigation.TransitionNone {
		sess.updatedAt = time.Now()
	}
	s.metrics.recordTransition(transition)
	span.SetAttributes(attribute.String("navigation.transition", transition.String()))

	return s.snapshot(sess, transition), nil
}

// Reports lists recently recorded reports.
func (s *ChartService) Reports(ctx context.Context, limit int) ([]*repository.ReportRecord, error) {
	if s.catalog == nil {
		return []*repository.ReportRecord{}, nil
	}
	return s.catalog.List(ctx, limit)
}

// SessionCount returns the number of live sessions.
func (s *ChartService) SessionCount() int {
	return s.sessions.Len()
}

func (s *ChartService) build(ctx context.Context, data []byte) (*sizetree.Tree, error) {
	ctx, span := telemetry.Tracer("webui").Start(ctx, "webui.BuildTree")
	defer span.End()

	start := time.Now()
	tree, err := s.parseAndBuild(ctx, data)
	s.metrics.recordBuild(err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return tree, err
}

func (s *ChartService) parseAndBuild(ctx context.Context, data []byte) (*sizetree.Tree, error) {
	r, err := report.Parse(data, s.opts.Parse)
	if err != nil {
		return nil, err
	}
	if r.Skipped > 0 {
		s.logger.Warn("skipped %d malformed module records", r.Skipped)
	}
	return s.builder.Build(ctx, r)
}

func (s *ChartService) record(ctx context.Context, sourceName string, tree *sizetree.Tree) {
	if s.catalog == nil {
		return
	}
	rec, err := repository.NewReportRecord(sourceName, tree, s.opts.TopN)
	if err == nil {
		err = s.catalog.Save(ctx, rec)
	}
	if err != nil {
		s.logger.Error("failed to record report from %s: %v", sourceName, err)
	}
}

func (s *ChartService) lookup(id string) (*Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, sessionNotFound(id)
	}
	return sess, nil
}

// snapshot must be called with sess.mu held.
func (s *ChartService) snapshot(sess *Session, t navigation.Transition) *SessionState {
	layout := *s.opts.Layout
	layout.Style = sess.style

	crumbs := sess.ctrl.Breadcrumb()
	labels := make([]string, len(crumbs))
	for i, n := range crumbs {
		labels[i] = n.Label
	}

	tree := sess.ctrl.Tree()
	state := &SessionState{
		ID:         sess.ID,
		Source:     sess.source,
		Demo:       sess.demo,
		Breadcrumb: labels,
		Selected:   sess.ctrl.Selected().Path(),
		TotalSize:  tree.TotalSize,
		Modules:    tree.ModuleCount,
		View:       chart.Layout(sess.ctrl.Selected(), &layout),
		CreatedAt:  sess.CreatedAt,
		UpdatedAt:  sess.updatedAt,
	}
	if t != navigation.TransitionNone {
		state.Transition = t.String()
	}
	return state
}

func sessionNotFound(id string) error {
	return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("session %s not found", id))
}

