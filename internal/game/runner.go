package game

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/playpool/minipool/internal/physics"
)

// ErrRunnerStopped is returned when a command is sent to a runner whose loop
// has exited.
var ErrRunnerStopped = errors.New("session runner stopped")

type commandKind int

const (
	cmdPointerDown commandKind = iota
	cmdPointerMove
	cmdPointerUp
	cmdReset
	cmdSnapshot
)

type command struct {
	kind  commandKind
	point physics.Vec2
	reply chan commandResult
}

type commandResult struct {
	ok   bool
	snap Snapshot
	err  error
}

// Runner drives one session from a single goroutine: pointer input, resets,
// physics steps and power ticks are all serialized through its loop.
type Runner struct {
	session    *Session
	engine     Engine
	commands   chan command
	tickRate   int
	frameEvery int

	ticks      uint64
	lastActive atomic.Int64
	done       chan struct{}
}

// NewRunner wraps a session. tickRate is frames per second; a frame update is
// published every frameEvery frames (0 disables frames).
func NewRunner(s *Session, engine Engine, tickRate, frameEvery int) *Runner {
	if tickRate <= 0 {
		tickRate = 60
	}
	r := &Runner{
		session:    s,
		engine:     engine,
		commands:   make(chan command, 64),
		tickRate:   tickRate,
		frameEvery: frameEvery,
		done:       make(chan struct{}),
	}
	r.touch()
	return r
}

// ID returns the session id.
func (r *Runner) ID() string { return r.session.ID }

// Done is closed once Run returns.
func (r *Runner) Done() <-chan struct{} { return r.done }

// LastActive is the time of the most recent client command.
func (r *Runner) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

func (r *Runner) touch() {
	r.lastActive.Store(time.Now().UnixNano())
}

// Run processes commands and frames until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(time.Second / time.Duration(r.tickRate))
	defer ticker.Stop()

	log.Printf("[RUNNER] %s started at %d ticks/s", r.session.ID, r.tickRate)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[RUNNER] %s stopping", r.session.ID)
			return
		case cmd := <-r.commands:
			r.handle(cmd)
		case <-ticker.C:
			r.frame()
		}
	}
}

// frame advances the world one step, then the power meter, and publishes
// ball positions on every frameEvery-th frame.
func (r *Runner) frame() {
	r.engine.Step()
	r.session.TickPower()
	r.ticks++
	if r.frameEvery > 0 && r.ticks%uint64(r.frameEvery) == 0 {
		r.session.Frame()
	}
}

func (r *Runner) handle(cmd command) {
	var res commandResult
	switch cmd.kind {
	case cmdPointerDown:
		res.ok = r.session.PointerDown(cmd.point)
	case cmdPointerMove:
		r.session.PointerMove(cmd.point)
		res.ok = true
	case cmdPointerUp:
		res.ok = r.session.PointerUp(cmd.point)
	case cmdReset:
		res.err = r.session.Reset()
		res.ok = res.err == nil
	case cmdSnapshot:
		res.ok = true
	}
	res.snap = r.session.Snapshot()
	if cmd.reply != nil {
		cmd.reply <- res
	}
}

func (r *Runner) submit(ctx context.Context, cmd command) (commandResult, error) {
	cmd.reply = make(chan commandResult, 1)
	if cmd.kind != cmdSnapshot {
		r.touch()
	}

	select {
	case r.commands <- cmd:
	case <-r.done:
		return commandResult{}, ErrRunnerStopped
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res, res.err
	case <-r.done:
		return commandResult{}, ErrRunnerStopped
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	}
}

// PointerDown reports whether aiming started.
func (r *Runner) PointerDown(ctx context.Context, p physics.Vec2) (bool, error) {
	res, err := r.submit(ctx, command{kind: cmdPointerDown, point: p})
	return res.ok, err
}

func (r *Runner) PointerMove(ctx context.Context, p physics.Vec2) error {
	_, err := r.submit(ctx, command{kind: cmdPointerMove, point: p})
	return err
}

// PointerUp reports whether a shot was fired.
func (r *Runner) PointerUp(ctx context.Context, p physics.Vec2) (bool, error) {
	res, err := r.submit(ctx, command{kind: cmdPointerUp, point: p})
	return res.ok, err
}

// Reset re-racks the table and returns the state afterwards.
func (r *Runner) Reset(ctx context.Context) (Snapshot, error) {
	res, err := r.submit(ctx, command{kind: cmdReset})
	return res.snap, err
}

// Snapshot returns a consistent copy of the session state.
func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	res, err := r.submit(ctx, command{kind: cmdSnapshot})
	return res.snap, err
}
