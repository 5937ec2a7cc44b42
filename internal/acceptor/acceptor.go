// Package acceptor implements the Acceptor: binds one TCP port, spawns a
// Server Session per accepted socket, and holds weak references for
// orderly shutdown, per spec.md §4.6.
//
// Grounded on original_source/tcp_server/majordomo.cpp's Majordomo
// (strand-bound acceptor + vector<weak_ptr<Session>> + AsyncStop posting
// stop to every live session before self-teardown).
package acceptor

import (
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/Meander-Cloud/extio-over-net/internal/serversession"
)

type Acceptor struct {
	logPrefix string
	extioPath string
	ln        net.Listener

	mu       sync.Mutex
	sessions map[*serversession.Session]struct{}
	stopped  bool
}

// New binds addr:port and begins accepting immediately.
func New(logPrefix string, addr string, port uint16, extioPath string) (*Acceptor, error) {
	ln, err := net.Listen("tcp4", fmt.Sprintf("%s:%d", addr, port))
	if err != nil {
		return nil, fmt.Errorf("acceptor: listen failed on %s:%d, err=%w", addr, port, err)
	}

	a := &Acceptor{
		logPrefix: logPrefix,
		extioPath: extioPath,
		ln:        ln,
		sessions:  make(map[*serversession.Session]struct{}),
	}

	go a.acceptLoop()

	return a, nil
}

func (a *Acceptor) acceptLoop() {
	for {
		conn, err := a.ln.Accept()
		if err != nil {
			a.mu.Lock()
			stopped := a.stopped
			a.mu.Unlock()
			if !stopped {
				log.Printf("%s: accept failed, err=%s", a.logPrefix, err.Error())
			}
			return
		}

		if tcpConn, ok := conn.(*net.TCPConn); ok {
			_ = tcpConn.SetKeepAlive(true)
		}

		sess := serversession.NewFromConn(conn, &serversession.Options{
			LogPrefix: fmt.Sprintf("%s-session-%s", a.logPrefix, conn.RemoteAddr().String()),
			ExtIOPath: a.extioPath,
			OnClosed:  a.onSessionClosed,
		})
		a.addSession(sess)
	}
}

func (a *Acceptor) addSession(s *serversession.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		go s.Stop()
		return
	}
	a.sessions[s] = struct{}{}
}

func (a *Acceptor) onSessionClosed(s *serversession.Session) {
	a.mu.Lock()
	delete(a.sessions, s)
	a.mu.Unlock()
}

// Stop posts an async stop to every live session, waits for them, and
// then closes the listener, per spec.md §4.6's signal-driven shutdown.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	a.stopped = true
	sessions := make([]*serversession.Session, 0, len(a.sessions))
	for s := range a.sessions {
		sessions = append(sessions, s)
	}
	a.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *serversession.Session) {
			defer wg.Done()
			s.Stop()
		}(s)
	}
	wg.Wait()

	_ = a.ln.Close()
}

// SessionCount reports the number of currently live sessions, for
// diagnostics/tests.
func (a *Acceptor) SessionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}
