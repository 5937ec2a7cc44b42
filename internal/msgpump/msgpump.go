// Package msgpump models the platform message-pump thread some vendor
// ExtIO libraries require for calls that create native GUI widgets
// (observed: OpenHW), per spec.md §4.5 and §9's "Message-pump thread"
// design note. The real Windows pump is out of scope (spec.md §1); this
// package provides the {Post, Send} boundary plus the one portable
// implementation: a dedicated goroutine acting as the pump thread, which
// satisfies the same ordering contract without touching any OS message
// queue.
package msgpump

import "log"

// Pump runs arbitrary work on a single dedicated thread/goroutine that
// never changes across a Pump's lifetime, so the vendor call has the
// thread affinity it expects.
type Pump interface {
	// Post queues f to run on the pump thread and returns immediately.
	Post(f func())
	// Send queues f to run on the pump thread and blocks until it
	// completes.
	Send(f func())
	// Stop drains and terminates the pump thread. Safe to call once.
	Stop()
}

type goroutinePump struct {
	logPrefix string
	taskch    chan func()
	stopch    chan struct{}
}

// New starts a goroutine-backed pump. It is a faithful stand-in for a
// native window-message loop: one thread, a FIFO task queue, run to
// completion per task.
func New(logPrefix string) Pump {
	p := &goroutinePump{
		logPrefix: logPrefix,
		taskch:    make(chan func(), 64),
		stopch:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *goroutinePump) run() {
	for {
		select {
		case f := <-p.taskch:
			p.runTask(f)
		case <-p.stopch:
			// drain tasks already queued before terminating
			for {
				select {
				case f := <-p.taskch:
					p.runTask(f)
				default:
					return
				}
			}
		}
	}
}

func (p *goroutinePump) runTask(f func()) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("%s: pump task recovered from panic: %+v", p.logPrefix, rec)
		}
	}()
	f()
}

func (p *goroutinePump) Post(f func()) {
	select {
	case p.taskch <- f:
	case <-p.stopch:
		log.Printf("%s: Post after Stop dropped", p.logPrefix)
	}
}

func (p *goroutinePump) Send(f func()) {
	done := make(chan struct{})
	p.Post(func() {
		defer close(done)
		f()
	})
	<-done
}

func (p *goroutinePump) Stop() {
	close(p.stopch)
}
