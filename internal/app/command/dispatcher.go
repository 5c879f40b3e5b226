package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/jonboulle/clockwork"

	"github.com/jose-valero/soup-bot/internal/app/cooldown"
)

const (
	DefaultTimeout = 12 * time.Second
	DefaultWorkers = 8
)

var errPoolStopped = errors.New("dispatcher stopped")

// Observer is told about every finished invocation. outcome is "ok" or a
// Fail reason.
type Observer interface {
	ObserveCommand(command, outcome string, took time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveCommand(string, string, time.Duration) {}

type Option func(*Dispatcher)

func WithTimeout(d time.Duration) Option {
	return func(x *Dispatcher) {
		if d > 0 {
			x.timeout = d
		}
	}
}

func WithWorkers(n int) Option {
	return func(x *Dispatcher) {
		if n > 0 {
			x.workers = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(x *Dispatcher) { x.log = l }
}

func WithObserver(o Observer) Option {
	return func(x *Dispatcher) { x.obs = o }
}

func WithClock(c clockwork.Clock) Option {
	return func(x *Dispatcher) { x.clock = c }
}

// Dispatcher resolves invocations, enforces cooldowns before anything else
// runs, validates options and executes handlers on a bounded worker pool.
type Dispatcher struct {
	reg     *Registry
	limiter *cooldown.Limiter

	timeout time.Duration
	workers int
	log     *slog.Logger
	obs     Observer
	clock   clockwork.Clock

	pool *workerpool.WorkerPool
}

func NewDispatcher(reg *Registry, limiter *cooldown.Limiter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:     reg,
		limiter: limiter,
		timeout: DefaultTimeout,
		workers: DefaultWorkers,
		log:     slog.Default(),
		obs:     nopObserver{},
		clock:   clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(d)
	}
	d.pool = workerpool.New(d.workers)
	return d
}

// Handle runs inv to completion.
func (d *Dispatcher) Handle(ctx context.Context, inv Invocation) Action {
	c, fail := d.Admit(inv)
	if fail != nil {
		return fail
	}
	return d.Execute(ctx, c)
}

// Admit resolves inv, consults the cooldown and validates options without
// running the handler. A non-nil Action is the final answer; otherwise the
// returned Ctx is ready for Execute. Admit never blocks on I/O so transports
// can answer before acknowledging the interaction.
func (d *Dispatcher) Admit(inv Invocation) (*Ctx, Action) {
	start := d.clock.Now()
	name := strings.Join(inv.Path, ".")
	log := d.log.With("command", name, "user", inv.UserID, "guild", inv.GuildID.OrEmpty())

	node, err := d.reg.Resolve(inv.Path)
	if err == nil && !node.Leaf() {
		err = fmt.Errorf("%w: %s is a group", ErrNotFound, name)
	}
	if err != nil {
		log.Warn("unknown command", "err", err)
		return nil, d.finish("unknown", start, Fail{Reason: ReasonUnknownCommand, Detail: name})
	}
	key := node.Key()

	if p := node.Cooldown; p != nil {
		scope := cooldown.ScopeFor(p.Bucket, inv.Subject())
		dec, err := d.limiter.CheckAndRecord(key, scope, *p)
		if err != nil {
			log.Error("cooldown check failed", "err", err)
			return nil, d.finish(key, start, Fail{Reason: ReasonHandlerError})
		}
		if !dec.Allowed {
			log.Info("throttled", "scope", scope.String(), "retry_after", dec.RetryAfter)
			return nil, d.finish(key, start, Fail{Reason: ReasonRateLimited, RetryAfter: dec.RetryAfter})
		}
	}

	values, missing := normalize(node.Options, inv.Options)
	if missing != "" {
		log.Info("missing option", "option", missing)
		return nil, d.finish(key, start, Fail{Reason: ReasonMissingOption, Detail: missing})
	}

	return &Ctx{Log: log, Node: node, Inv: inv, values: values}, nil
}

type result struct {
	action Action
	err    error
}

// Execute runs the handler of an admitted invocation on a worker and waits
// for it or for the timeout.
func (d *Dispatcher) Execute(ctx context.Context, c *Ctx) Action {
	start := d.clock.Now()
	key := c.Node.Key()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan result, 1)
	if err := d.submit(func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- result{err: fmt.Errorf("panic: %v\n%s", rec, debug.Stack())}
			}
		}()
		a, err := c.Node.Handler(ctx, c)
		done <- result{action: a, err: err}
	}); err != nil {
		c.Log.Error("handler not scheduled", "err", err)
		return d.finish(key, start, Fail{Reason: ReasonHandlerError})
	}

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}

	if res.err != nil {
		var ue *UserError
		if errors.As(res.err, &ue) {
			c.Log.Info("command rejected", "reason", ue.Reason, "err", res.err)
			return d.finish(key, start, Fail{Reason: ue.Reason, Detail: ue.Msg})
		}
		c.Log.Error("handler failed", "err", res.err)
		return d.finish(key, start, Fail{Reason: ReasonHandlerError})
	}
	if res.action == nil {
		c.Log.Error("handler returned no action")
		return d.finish(key, start, Fail{Reason: ReasonHandlerError})
	}
	return d.finish(key, start, res.action)
}

func (d *Dispatcher) submit(task func()) error {
	if d.pool.Stopped() {
		return errPoolStopped
	}
	d.pool.Submit(task)
	return nil
}

// Close waits for running handlers and stops the workers.
func (d *Dispatcher) Close() {
	d.pool.StopWait()
}

func (d *Dispatcher) finish(command string, start time.Time, a Action) Action {
	outcome := "ok"
	if f, ok := a.(Fail); ok {
		outcome = string(f.Reason)
	}
	d.obs.ObserveCommand(command, outcome, d.clock.Since(start))
	return a
}
