// Package session orchestrates one full analysis: it owns the welcome
// socket, the scheduler, and the aggregator, launching the target once
// per run and feeding every observed call through both.
//
// Grounded directly on Controller::startAnalysis: a notify-only baseline
// run establishes the program's normal flow, then the scheduler drives
// successive runs — each either accepted into the run history or
// discarded as a duplicate of an existing graph path — until it reports
// completion.
package session

import (
	"context"
	"log/slog"

	"errtracer/aggregator"
	"errtracer/call"
	"errtracer/catalog"
	"errtracer/config"
	"errtracer/errors"
	"errtracer/hooks"
	"errtracer/protocol"
	"errtracer/scheduler"
	"errtracer/tracer"
)

// runStore adapts a []*call.Run to scheduler.RunStore.
type runStore struct {
	runs []*call.Run
}

func (r *runStore) Count() int        { return len(r.runs) }
func (r *runStore) At(i int) *call.Run { return r.runs[i] }

// Session drives one analysis session end to end.
type Session struct {
	cfg    *config.Config
	log    *slog.Logger
	sock   *tracer.Socket
	store  *runStore
	sched  *scheduler.BFS
	graph  *aggregator.Graph
}

// New builds a Session from a validated configuration.
func New(cfg *config.Config, log *slog.Logger) (*Session, error) {
	if cfg.Scheduler != "bfs" {
		return nil, errors.New(errors.ErrConfiguration, "session.New", "unsupported scheduler type")
	}
	canon, ok := aggregator.StrategyByName(cfg.Aggregator)
	if !ok {
		return nil, errors.New(errors.ErrConfiguration, "session.New", "unsupported aggregator type")
	}

	groups := make([]catalog.VariantGroup, 0, len(cfg.Variants))
	for _, name := range cfg.Variants {
		g, ok := catalog.LookupGroup(name)
		if !ok {
			return nil, errors.WrapWithDetail(errors.ErrInvalidGroup, errors.ErrConfiguration, "session.New", name)
		}
		groups = append(groups, g)
	}
	variants := catalog.VariantsForGroups(groups)

	store := &runStore{}
	return &Session{
		cfg:   cfg,
		log:   log,
		store: store,
		sched: scheduler.NewBFS(variants, store),
		graph: aggregator.New(canon, cfg.Subroutine),
	}, nil
}

// Run executes the full session: the notify-only baseline run, then
// successive scheduler-driven runs until the scheduler reports
// completion, then the aggregator's finalization pass.
func (s *Session) Run(ctx context.Context, shimPath, socketPath string) (*aggregator.Graph, error) {
	sock, err := tracer.Listen(socketPath)
	if err != nil {
		return nil, err
	}
	s.sock = sock
	defer sock.Close()

	baseline, err := s.runOnce(ctx, shimPath, socketPath, s.baselineOption())
	if err != nil {
		return nil, err
	}
	s.store.runs = append(s.store.runs, baseline)

	if baseline.Len() != 0 {
		option := s.configuredOption()
		for !s.sched.Completed() {
			if ctx.Err() != nil {
				return nil, errors.Wrap(ctx.Err(), errors.ErrTransient, "session.Run")
			}
			s.graph.NextRun()
			runIndex := len(s.store.runs)
			s.runHook(s.cfg.PreRunHook, hooks.RunState{Event: hooks.PreRun, RunIndex: runIndex})

			run, err := s.runOnce(ctx, shimPath, socketPath, option)
			if err != nil {
				return nil, err
			}
			accepted := s.graph.NodeInserted()
			if accepted {
				s.store.runs = append(s.store.runs, run)
			}
			s.runHook(s.cfg.PostRunHook, hooks.RunState{
				Event: hooks.PostRun, RunIndex: runIndex, CallCount: run.Len(), Accepted: accepted,
			})
			s.sched.NextRun()
		}
		s.graph.NextRun()
	}

	s.runHook(s.cfg.SessionEndHook, hooks.SessionState{
		Event: hooks.SessionEnd, RunCount: s.store.Count(), NodeCount: s.graph.NodeCount(),
	})
	return s.graph, nil
}

// runHook invokes a configured lifecycle hook, logging (but not failing
// the session on) an error — a misbehaving notification script should
// not abort an otherwise-successful analysis.
func (s *Session) runHook(path string, state any) {
	if err := hooks.Run(path, state); err != nil {
		s.log.Warn("lifecycle hook failed", "error", err)
	}
}

// runOnce launches one instance of the target, completes the INIT/OPTION
// handshake, and traces it to completion.
func (s *Session) runOnce(ctx context.Context, shimPath, socketPath string, option *protocol.Outbound) (*call.Run, error) {
	opts := tracer.StartOptions{
		Sandbox:   s.cfg.Sandbox,
		RunIndex:  s.store.Count(),
		MemoryMax: s.cfg.SandboxMemoryMax,
		PidsMax:   s.cfg.SandboxPidsMax,
	}
	launch, err := tracer.Start(s.cfg.Program, shimPath, socketPath, opts)
	if err != nil {
		return nil, err
	}

	if err := s.sock.Accept(); err != nil {
		return nil, err
	}
	defer s.sock.CloseClient()

	if err := tracer.Handshake(s.sock, option); err != nil {
		return nil, err
	}

	run, err := tracer.Trace(s.sock, s)
	if err != nil {
		return nil, err
	}

	if waitErr := launch.Wait(); waitErr != nil {
		s.log.Debug("target process exited non-zero", "error", waitErr)
	}
	return run, nil
}

// ControlCall implements tracer.Dispatcher: schedules the call's variant
// and records it in the graph.
func (s *Session) ControlCall(c *call.Call, run *call.Run, callNum int) *protocol.Outbound {
	msg := s.sched.ScheduleCall(c, run, callNum)
	s.graph.NewNode(c)
	return msg
}

// NotifyCall implements tracer.Dispatcher: advances the scheduler's
// expansion cursor and records the call in the graph, always answering
// with ACK.
func (s *Session) NotifyCall(c *call.Call, callNum int) *protocol.Outbound {
	s.sched.NotifyCall(callNum)
	s.graph.NewNode(c)
	return protocol.NewAck()
}

// baselineOption builds the first run's OPTION message: an empty control
// list and a notify list that is the union of the configured control and
// notify lists, matching Controller::startAnalysis's firstInitMsg
// construction exactly (ALL dominates, then INCLUDE, else NONE).
func (s *Session) baselineOption() *protocol.Outbound {
	msg := &protocol.Outbound{Type: protocol.Option, ControlKind: protocol.ListNone}

	switch {
	case s.cfg.NotifyKind == protocol.ListAll || s.cfg.ControlKind == protocol.ListAll:
		msg.NotifyKind = protocol.ListAll
	case s.cfg.NotifyKind == protocol.ListInclude || s.cfg.ControlKind == protocol.ListInclude:
		msg.NotifyKind = protocol.ListInclude
		if s.cfg.NotifyKind == protocol.ListInclude {
			msg.NotifyNames = append(msg.NotifyNames, s.cfg.NotifyNames...)
		}
		if s.cfg.ControlKind == protocol.ListInclude {
			msg.NotifyNames = append(msg.NotifyNames, s.cfg.ControlNames...)
		}
	default:
		msg.NotifyKind = protocol.ListNone
	}
	return msg
}

// configuredOption builds the OPTION message used for every run after the
// baseline: the control/notify lists exactly as configured.
func (s *Session) configuredOption() *protocol.Outbound {
	return &protocol.Outbound{
		Type:         protocol.Option,
		ControlKind:  s.cfg.ControlKind,
		ControlNames: s.cfg.ControlNames,
		NotifyKind:   s.cfg.NotifyKind,
		NotifyNames:  s.cfg.NotifyNames,
	}
}
