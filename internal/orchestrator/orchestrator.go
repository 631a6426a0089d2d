package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/atlasgrid/internal/assembly"
	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/specialistvlad/atlasgrid/internal/metrics"
	"github.com/specialistvlad/atlasgrid/internal/registry"
	"github.com/specialistvlad/atlasgrid/internal/workerpool"
)

// DefaultOutboxSize bounds how many undelivered events the loop keeps.
const DefaultOutboxSize = 64

// Resolver looks up model families by name.
type Resolver interface {
	Lookup(name string) (*registry.Family, error)
}

// Builder fills an Assembly's cached compound, mesh and BOM.
type Builder interface {
	Build(ctx context.Context, asm *assembly.Assembly) error
}

// Submitter runs tasks off the event loop.
type Submitter interface {
	Submit(ctx context.Context, task workerpool.Task) error
}

// Options tunes an Orchestrator.
type Options struct {
	// OutboxSize caps queued results and errors each. When a consumer
	// falls this far behind, the oldest event is dropped. Zero means
	// DefaultOutboxSize.
	OutboxSize int
}

type completion struct {
	req    Request
	result Result
	err    error
}

// Orchestrator coalesces regeneration requests and runs them one at a time.
type Orchestrator struct {
	reg   Resolver
	cache Builder
	pool  Submitter
	opts  Options

	inboxMu sync.Mutex
	inbox   []Request
	wake    chan struct{}

	completions chan completion
	done        chan struct{}
	results     chan Result
	errs        chan error

	current atomic.Pointer[assembly.Assembly]

	// Owned by the loop goroutine.
	running    bool
	pending    *Request
	outResults []Result
	outErrs    []error
}

// New creates an Orchestrator. Nothing runs until Run is called.
func New(reg Resolver, cache Builder, pool Submitter, opts Options) *Orchestrator {
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = DefaultOutboxSize
	}
	return &Orchestrator{
		reg:         reg,
		cache:       cache,
		pool:        pool,
		opts:        opts,
		wake:        make(chan struct{}, 1),
		completions: make(chan completion),
		done:        make(chan struct{}),
		results:     make(chan Result),
		errs:        make(chan error),
	}
}

// Start requests a regeneration. It never blocks.
func (o *Orchestrator) Start(req Request) {
	o.inboxMu.Lock()
	o.inbox = append(o.inbox, req)
	o.inboxMu.Unlock()
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// Results delivers published runs in completion order. It is closed when
// Run returns.
func (o *Orchestrator) Results() <-chan Result { return o.results }

// Errors delivers pipeline failures in completion order. It is closed when
// Run returns.
func (o *Orchestrator) Errors() <-chan error { return o.errs }

// Current returns the most recently published Assembly, or nil. The returned
// Assembly is never mutated.
func (o *Orchestrator) Current() *assembly.Assembly { return o.current.Load() }

// Run is the event loop. It returns when ctx is cancelled. A run still in
// flight at that point completes on its worker but is not published.
func (o *Orchestrator) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Orchestrator loop started.")
	defer func() {
		close(o.done)
		close(o.results)
		close(o.errs)
		logger.Debug("Orchestrator loop stopped.")
	}()

	for {
		var (
			resCh   chan<- Result
			nextRes Result
			errCh   chan<- error
			nextErr error
		)
		if len(o.outResults) > 0 {
			resCh, nextRes = o.results, o.outResults[0]
		}
		if len(o.outErrs) > 0 {
			errCh, nextErr = o.errs, o.outErrs[0]
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.wake:
			for _, req := range o.drainInbox() {
				o.handleStart(ctx, req)
			}
		case c := <-o.completions:
			o.handleCompletion(ctx, c)
		case resCh <- nextRes:
			o.outResults = o.outResults[1:]
		case errCh <- nextErr:
			o.outErrs = o.outErrs[1:]
		}
	}
}

func (o *Orchestrator) drainInbox() []Request {
	o.inboxMu.Lock()
	defer o.inboxMu.Unlock()
	reqs := o.inbox
	o.inbox = nil
	return reqs
}

func (o *Orchestrator) handleStart(ctx context.Context, req Request) {
	if !o.running {
		o.dispatch(ctx, req)
		return
	}
	if o.pending != nil {
		metrics.NewPipelineMetrics(o.pending.Model).RecordCoalesced()
		ctxlog.FromContext(ctx).Debug("Pending request replaced by a newer one.", "model", req.Model)
	}
	o.pending = &req
}

func (o *Orchestrator) handleCompletion(ctx context.Context, c completion) {
	logger := ctxlog.FromContext(ctx)
	if c.err != nil {
		logger.Warn("Regeneration failed; keeping last published assembly.", "model", c.req.Model, "error", c.err)
		o.enqueueErr(ctx, c.err)
	} else {
		o.current.Store(c.result.Assembly)
		metrics.NewPipelineMetrics(c.req.Model).RecordPublished(c.result.Stats.Triangles)
		o.enqueueResult(ctx, c.result)
	}

	o.running = false
	if o.pending != nil {
		next := *o.pending
		o.pending = nil
		o.dispatch(ctx, next)
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, req Request) {
	o.running = true
	err := o.pool.Submit(ctx, func(workerCtx context.Context) {
		c := completion{req: req, err: errRunAborted}
		// Sent even if the run unwinds, or the loop would wait on it forever.
		defer func() {
			select {
			case o.completions <- c:
			case <-o.done:
			}
		}()
		c.result, c.err = o.pipeline(workerCtx, req)
	})
	if err != nil {
		o.running = false
		o.enqueueErr(ctx, err)
	}
}

func (o *Orchestrator) enqueueResult(ctx context.Context, r Result) {
	if len(o.outResults) >= o.opts.OutboxSize {
		ctxlog.FromContext(ctx).Warn("Result outbox full; dropping oldest result.")
		o.outResults = o.outResults[1:]
	}
	o.outResults = append(o.outResults, r)
}

func (o *Orchestrator) enqueueErr(ctx context.Context, err error) {
	if len(o.outErrs) >= o.opts.OutboxSize {
		ctxlog.FromContext(ctx).Warn("Error outbox full; dropping oldest error.")
		o.outErrs = o.outErrs[1:]
	}
	o.outErrs = append(o.outErrs, err)
}
