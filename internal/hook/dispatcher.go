package hook

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/ayusman/formcheck/internal/store"
)

// Dispatcher delivers events to the hooks subscribed to them.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher over the hooks known to manager.
func NewDispatcher(manager *Manager, executor *Executor) *Dispatcher {
	return &Dispatcher{manager: manager, executor: executor}
}

// Dispatch runs every hook subscribed to req.Event in name order and
// returns the combined failures. A hook answering success=false counts as
// a failure.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) error {
	var errs error
	for _, h := range d.manager.ForEvent(req.Event) {
		resp, err := d.executor.Execute(ctx, h, req)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !resp.Success {
			errs = multierr.Append(errs, fmt.Errorf("hook %s: %s", h.Manifest.Name, resp.Error))
		}
	}
	return errs
}

// SessionFinished dispatches a session.finished event in the background.
// Its signature matches app.Config.OnSessionFinished.
func (d *Dispatcher) SessionFinished(s *store.Session) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		err := d.Dispatch(context.Background(), &Request{Event: EventSessionFinished, Session: s})
		for _, e := range multierr.Errors(err) {
			log.Warnf("session %s: %s", s.ID, e)
		}
	}()
}

// Wait blocks until background dispatches are done.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
