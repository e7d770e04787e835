package navgraph

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/navgraph/pkg/navgraph/batch"
	"github.com/randalmurphal/navgraph/pkg/navgraph/history"
	"github.com/randalmurphal/navgraph/pkg/navgraph/observability"
)

// Pipeline phases, in order.
const (
	PhaseResolve   = "resolve"
	PhaseCanUnload = "canUnload"
	PhaseCanLoad   = "canLoad"
	PhaseUnloading = "unloading"
	PhaseLoading   = "loading"
	PhaseSwap      = "swap"
	PhaseCommit    = "commit"
)

// run drives tr through the pipeline. Exactly one run is active at a time.
func (r *Router) run(tr *Transition) {
	r.mu.Lock()
	live := r.routeTree
	prevInstructions := r.instructions
	navigated := r.navigated
	r.mu.Unlock()

	tr.PrevInstructions = prevInstructions
	tr.PreviousRouteTree = live
	tr.InstructionsChanged = !tr.Instructions.sameRequest(prevInstructions)
	logger := observability.EnrichLogger(r.logger, tr.ID, string(tr.Trigger))

	if navigated && tr.Trigger == TriggerAPI && tr.Options.TransitionPlan == "" && !tr.InstructionsChanged {
		logger.Debug("navigation skipped, nothing changed", "url", tr.Instructions.ToURL(r.cfg.useHash))
		r.cfg.metrics.RecordNavigation(tr.ctx, string(tr.Trigger), observability.OutcomeSkipped, time.Since(tr.started))
		tr.nav.resolve(false)
		r.finish(tr)
		return
	}

	url := tr.Instructions.ToURL(r.cfg.useHash)
	ctx, span := r.cfg.spans.StartNavigationSpan(tr.ctx, tr.ID, string(tr.Trigger), url)
	tr.ctx = ctx
	tr.span = span
	observability.LogNavigationStart(logger, tr.ID, string(tr.Trigger), url)

	r.publishStart(tr)
	r.mu.Lock()
	superseded := r.nextTr != nil
	r.mu.Unlock()
	if superseded {
		r.settleCancelled(tr, logger, ReasonSuperseded)
		return
	}

	tr.RouteTree = live.Clone()
	ph := &phaseTracker{r: r, tr: tr, logger: logger}
	ph.begin(PhaseResolve)
	tr.Run(func() error { return r.updateRouteTree(tr) }, func() {})
	ph.end()

	nodes := func() (all, next []*RouteNode) {
		next = tr.RouteTree.Root.children
		return mergeNodes(tr.PreviousRouteTree.Root.children, next), next
	}
	if r.interrupted(tr, logger) {
		return
	}

	batch.Start(func(b *batch.Batch) {
		ph.begin(PhaseCanUnload)
		all, _ := nodes()
		for _, n := range all {
			nodeAgent(n).canUnload(tr, b)
		}
	}).ContinueWith(func(b *batch.Batch) {
		ph.end()
		if r.interrupted(tr, logger) {
			b.Push()
			return
		}
		ph.begin(PhaseCanLoad)
		_, next := nodes()
		for _, n := range next {
			nodeAgent(n).canLoad(tr, b)
		}
	}).ContinueWith(func(b *batch.Batch) {
		ph.end()
		if r.interrupted(tr, logger) {
			b.Push()
			return
		}
		ph.begin(PhaseUnloading)
		all, _ := nodes()
		for _, n := range all {
			nodeAgent(n).unloading(tr, b)
		}
	}).ContinueWith(func(b *batch.Batch) {
		ph.end()
		if r.interrupted(tr, logger) {
			b.Push()
			return
		}
		ph.begin(PhaseLoading)
		_, next := nodes()
		for _, n := range next {
			nodeAgent(n).loading(tr, b)
		}
	}).ContinueWith(func(b *batch.Batch) {
		ph.end()
		if r.interrupted(tr, logger) {
			b.Push()
			return
		}
		ph.begin(PhaseSwap)
		all, _ := nodes()
		for _, n := range all {
			nodeAgent(n).swap(tr, b)
		}
	}).ContinueWith(func(b *batch.Batch) {
		ph.end()
		if r.interrupted(tr, logger) {
			b.Push()
			return
		}
		ph.begin(PhaseCommit)
		all, _ := nodes()
		r.commit(tr, all, logger)
		ph.end()
	}).Start()
}

// phaseTracker opens a span per phase.
type phaseTracker struct {
	r      *Router
	tr     *Transition
	logger *slog.Logger
	span   trace.Span
}

func (p *phaseTracker) begin(phase string) {
	_, p.span = p.r.cfg.spans.StartPhaseSpan(p.tr.ctx, phase)
	observability.LogPhase(p.logger, p.tr.ID, phase)
}

func (p *phaseTracker) end() {
	if p.span == nil {
		return
	}
	p.r.cfg.spans.EndSpanWithError(p.span, p.tr.Err())
	p.span = nil
}

// interrupted settles tr if it erred or a guard objected. It reports
// whether the pipeline must stop.
func (r *Router) interrupted(tr *Transition, logger *slog.Logger) bool {
	if err := tr.Err(); err != nil {
		r.fail(tr, err, logger)
		return true
	}
	if g := tr.GuardsResult(); !g.Allowed() {
		r.cancelNavigation(tr, g, logger)
		return true
	}
	return false
}

// rollback returns every agent touched by tr to its previous state and
// points the contexts back at the committed tree.
func (r *Router) rollback(tr *Transition) {
	ctx := context.WithoutCancel(tr.ctx)
	var next []*RouteNode
	if tr.RouteTree != nil {
		next = tr.RouteTree.Root.children
	}
	for _, n := range mergeNodes(tr.PreviousRouteTree.Root.children, next) {
		nodeAgent(n).cancelUpdate(ctx)
	}
	tr.PreviousRouteTree.Root.walk(func(n *RouteNode) {
		if n.Context != nil {
			n.Context.setNode(n)
		}
	})
}

// cancelNavigation rolls tr back after a guard denied or redirected it.
func (r *Router) cancelNavigation(tr *Transition, g GuardsResult, logger *slog.Logger) {
	r.rollback(tr)
	if g.Redirect == nil {
		r.settleCancelled(tr, logger, ReasonGuardDenied)
		return
	}
	r.redirect(tr, g.Redirect, logger)
}

// settleCancelled publishes the cancellation and resolves tr false.
func (r *Router) settleCancelled(tr *Transition, logger *slog.Logger, reason string) {
	observability.LogNavigationCancel(logger, tr.ID, reason)
	r.cfg.metrics.RecordNavigation(tr.ctx, string(tr.Trigger), observability.OutcomeCancelled, time.Since(tr.started))
	r.cfg.spans.AddSpanEvent(tr.ctx, "navigation.cancelled", attribute.String("navgraph.reason", reason))
	r.endSpan(tr, nil)
	r.publishCancel(tr, reason)
	tr.nav.resolve(false)
	r.finish(tr)
}

// redirect re-enqueues the redirect target as an api transition sharing
// tr's navigation. A request queued meanwhile wins over the redirect.
func (r *Router) redirect(tr *Transition, to *ViewportInstructionTree, logger *slog.Logger) {
	r.publishCancel(tr, ReasonRedirect)
	r.cfg.metrics.RecordRedirect(tr.ctx)
	r.endSpan(tr, nil)

	if tr.redirects+1 > r.cfg.maxRedirects {
		err := &RedirectError{Max: r.cfg.maxRedirects, Last: to.ToURL(r.cfg.useHash)}
		r.settleFailed(tr, err, logger)
		return
	}

	to = to.Clone()
	if to.Options.HistoryStrategy == "" {
		to.Options.HistoryStrategy = tr.Options.HistoryStrategy
	}
	if to.Options.State == nil {
		to.Options.State = tr.Options.State
	}
	logger.Info("navigation redirected", "url", to.ToURL(r.cfg.useHash))

	r.mu.Lock()
	if r.nextTr != nil || r.stopped {
		r.mu.Unlock()
		tr.nav.resolve(false)
		r.finish(tr)
		return
	}
	r.nextTr = r.newTransition(tr.ctx, to, TriggerAPI, nil, tr.nav, tr.redirects+1)
	r.mu.Unlock()
	r.finish(tr)
}

// fail rolls tr back and rejects its navigation with err.
func (r *Router) fail(tr *Transition, err error, logger *slog.Logger) {
	r.rollback(tr)
	if tr.ErredWithUnknownRoute() && tr.Trigger != TriggerAPI && r.cfg.restoreOnError {
		prev := tr.PrevInstructions.ToURL(r.cfg.useHash)
		logger.Info("restoring location after unknown route", "url", prev)
		r.location.ReplaceState(nil, r.Title(), prev)
	}
	r.endSpan(tr, err)
	r.settleFailed(tr, err, logger)
}

func (r *Router) settleFailed(tr *Transition, err error, logger *slog.Logger) {
	observability.LogNavigationError(logger, tr.ID, err, float64(time.Since(tr.started).Milliseconds()))
	r.cfg.metrics.RecordNavigation(tr.ctx, string(tr.Trigger), observability.OutcomeFailed, time.Since(tr.started))
	r.publishError(tr, err)
	tr.nav.reject(err)
	r.finish(tr)
}

func (r *Router) endSpan(tr *Transition, err error) {
	if tr.span == nil {
		return
	}
	r.cfg.spans.EndSpanWithError(tr.span, err)
	tr.span = nil
}

// commit makes tr's tree the committed one and writes history.
func (r *Router) commit(tr *Transition, all []*RouteNode, logger *slog.Logger) {
	for _, n := range all {
		nodeAgent(n).endTransition()
	}
	if err := tr.Err(); err != nil {
		logger.Error("inconsistent viewport state at commit", "error", err)
	}

	final := tr.RouteTree.FinalizeInstructions()
	tr.FinalInstructions = final
	title := r.buildTitle(tr)

	r.mu.Lock()
	r.routeTree = tr.RouteTree
	r.instructions = final
	r.navigated = true
	if title != "" {
		r.title = title
	}
	title = r.title
	r.mu.Unlock()

	url := final.ToURL(r.cfg.useHash)
	strategy := r.writeHistory(tr, title, url)
	r.appendJournal(tr, title, url, strategy)

	d := time.Since(tr.started)
	observability.LogNavigationComplete(logger, tr.ID, url, float64(d.Milliseconds()))
	r.cfg.metrics.RecordNavigation(tr.ctx, string(tr.Trigger), observability.OutcomeCommitted, d)
	r.endSpan(tr, nil)
	r.publishEnd(tr)
	tr.nav.resolve(true)
	r.finish(tr)
}

// writeHistory writes the committed URL. Browser-triggered transitions
// never write: the browser already moved.
func (r *Router) writeHistory(tr *Transition, title, url string) HistoryStrategy {
	if tr.Trigger != TriggerAPI {
		return HistoryNone
	}
	strategy := tr.Options.HistoryStrategy
	if strategy == "" {
		strategy = r.cfg.historyStrategy
	}
	switch strategy {
	case HistoryPush:
		r.location.PushState(tr.ManagedState, title, url)
	case HistoryReplace:
		r.location.ReplaceState(tr.ManagedState, title, url)
	}
	return strategy
}

func (r *Router) appendJournal(tr *Transition, title, url string, strategy HistoryStrategy) {
	if r.cfg.journal == nil {
		return
	}
	entry := &history.Entry{
		Session:      r.cfg.session,
		TransitionID: tr.ID,
		URL:          url,
		Title:        title,
		Trigger:      string(tr.Trigger),
		Strategy:     string(strategy),
		State:        tr.ManagedState,
	}
	if err := r.cfg.journal.Append(tr.ctx, entry); err != nil {
		observability.LogJournalError(r.logger, "append", err)
	}
}

// buildTitle computes the document title: route titles depth-first, then
// the root component's title.
func (r *Router) buildTitle(tr *Transition) string {
	if tr.Options.Title != "" {
		return tr.Options.Title
	}
	if r.cfg.titleBuilder != nil {
		return r.cfg.titleBuilder(tr)
	}
	var parts []string
	for _, child := range tr.RouteTree.Root.children {
		child.walk(func(n *RouteNode) {
			if n.Title != "" {
				parts = append(parts, n.Title)
			}
		})
	}
	if t := tr.RouteTree.Root.Title; t != "" {
		parts = append(parts, t)
	}
	return strings.Join(parts, r.cfg.titleSeparator)
}
