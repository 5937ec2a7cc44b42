// Package arbiter implements the per-session strand: a single goroutine that
// serially drains a queue of tasks, giving every I/O completion, timer
// firing, and facade dispatch on one session a single serial execution
// context with no implicit locking required between them. This is the Go
// realization of spec.md's "strand" concept, grounded on go-elect's
// arbiter.Arbiter wrapping github.com/Meander-Cloud/go-schedule/scheduler.
package arbiter

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Meander-Cloud/go-schedule/scheduler"

	"github.com/Meander-Cloud/extio-over-net/internal/group"
)

const (
	DefaultEventChannelLength uint16 = 256
)

type Options struct {
	EventChannelLength uint16
	LogPrefix          string
	LogDebug           bool
}

// task is one unit of strand work: a functor plus the label identifying
// what queued it (an ad hoc Dispatch, or a fired timer belonging to a
// group.Group) so a panic recovered from t.f can be traced back to its
// source — a client/server session strand fields dispatches from several
// distinct origins (connect results, inbound responses, reconnect timers,
// vendor callbacks), unlike go-elect's arbiter, which only ever runs one
// kind of election callback.
type task struct {
	f      func()
	label  string
	queued time.Time
}

func newTask() *task {
	return &task{}
}

func (t *task) reset() {
	t.f = nil
	t.label = ""
	t.queued = time.Time{}
}

type Arbiter struct {
	options  *Options
	s        *scheduler.Scheduler[group.Group]
	taskPool sync.Pool
	taskch   chan *task
}

func NewArbiter(options *Options) *Arbiter {
	eventChannelLength := options.EventChannelLength
	if eventChannelLength == 0 {
		eventChannelLength = DefaultEventChannelLength
	}

	a := &Arbiter{
		options: options,
		s: scheduler.NewScheduler[group.Group](
			&scheduler.Options{
				EventChannelLength: eventChannelLength,
				LogPrefix:          options.LogPrefix,
				LogDebug:           options.LogDebug,
			},
		),
		taskPool: sync.Pool{
			New: func() any {
				return newTask()
			},
		},
		taskch: make(chan *task, eventChannelLength),
	}

	// bind taskch as the scheduler's async source for strand work
	a.s.ProcessAsync(
		&scheduler.ScheduleAsyncEvent[group.Group]{
			AsyncVariant: scheduler.NewAsyncVariant(
				false,
				nil,
				a.taskch,
				func(_ *scheduler.Scheduler[group.Group], _ *scheduler.AsyncVariant[group.Group], recv interface{}) {
					a.run(recv)
				},
				func(_ *scheduler.Scheduler[group.Group], v *scheduler.AsyncVariant[group.Group]) {
					log.Printf("%s: taskch released, select count: %d", options.LogPrefix, v.SelectCount)
				},
			),
		},
	)

	// strand goroutine now owns all scheduling state
	a.s.RunAsync()

	return a
}

func (a *Arbiter) Shutdown() {
	a.s.Shutdown() // wait for strand goroutine to drain and exit
}

func (a *Arbiter) Scheduler() *scheduler.Scheduler[group.Group] {
	return a.s
}

func (a *Arbiter) acquireTask() *task {
	t, ok := a.taskPool.Get().(*task)
	if !ok {
		err := fmt.Errorf("%s: failed to cast pooled task", a.options.LogPrefix)
		log.Printf("%s", err.Error())
		panic(err)
	}
	return t
}

func (a *Arbiter) releaseTask(t *task) {
	t.reset()
	a.taskPool.Put(t)
}

// run executes one task on the strand goroutine, recovering from any panic
// so one bad handler cannot take the whole session down.
func (a *Arbiter) run(recv interface{}) {
	t, ok := recv.(*task)
	if !ok {
		log.Printf("%s: failed to cast strand task, recv=%#v", a.options.LogPrefix, recv)
		return
	}
	defer a.releaseTask(t)

	t0 := time.Now().UTC()

	func() {
		defer func() {
			rec := recover()
			if rec != nil {
				log.Printf(
					"%s: task %q recovered from panic: %+v",
					a.options.LogPrefix,
					t.label,
					rec,
				)
			}
		}()
		t.f()
	}()

	if a.options.LogDebug {
		t1 := time.Now().UTC()
		log.Printf(
			"%s: task %q strandWait=%dus, runElapsed=%dus",
			a.options.LogPrefix,
			t.label,
			t0.Sub(t.queued).Microseconds(),
			t1.Sub(t0).Microseconds(),
		)
	}
}

// Dispatch posts f to run on the strand goroutine. Safe to call from any
// goroutine.
func (a *Arbiter) Dispatch(f func()) error {
	return a.dispatchLabeled("dispatch", f)
}

func (a *Arbiter) dispatchLabeled(label string, f func()) error {
	t := a.acquireTask()
	t.f = f
	t.label = label
	t.queued = time.Now().UTC()

	select {
	case a.taskch <- t:
	default:
		err := fmt.Errorf("%s: failed to push task %q to taskch", a.options.LogPrefix, label)
		log.Printf("%s", err.Error())

		a.releaseTask(t)
		return err
	}

	return nil
}

// ScheduleTimer arms a one-shot timer tagged with g, cancelling any timer
// previously scheduled under the same group. f runs on the strand
// goroutine when the timer fires.
func (a *Arbiter) ScheduleTimer(g group.Group, wait time.Duration, f func()) {
	label := fmt.Sprintf("timer:%s", g.String())
	a.s.ProcessSync(
		&scheduler.ScheduleAsyncEvent[group.Group]{
			AsyncVariant: scheduler.TimerAsync(
				true,
				[]group.Group{g},
				wait,
				func() {
					a.run(&task{f: f, label: label, queued: time.Now().UTC()})
				},
				nil,
			),
		},
	)
}

// ReleaseTimer cancels a pending timer scheduled under g, if any.
func (a *Arbiter) ReleaseTimer(g group.Group) {
	a.s.ProcessSync(
		&scheduler.ReleaseGroupEvent[group.Group]{
			Group: g,
		},
	)
}
