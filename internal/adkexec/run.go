// Package adkexec drives index-based ADK loop agents over an in-memory session.
package adkexec

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/workflowagents/loopagent"
	adkrunner "google.golang.org/adk/runner"
	"google.golang.org/adk/session"
)

// Defaults for Loop.AppName and Loop.UserID.
const (
	DefaultAppName = "firmgen"
	DefaultUserID  = "firmgen-batch"
)

// StateIndex is the session state key holding the next step index.
const StateIndex = "step_index"

// Step runs iteration index of a Loop. Returning stop ends the loop after
// this step; a non-nil error ends it and is returned from Loop.Run.
type Step func(ctx agent.InvocationContext, index int) (stop bool, err error)

// Loop runs Step for indexes 0..Steps-1, one loop agent iteration each.
type Loop struct {
	Name        string
	Description string
	AppName     string
	UserID      string
	SessionID   string
	Steps       int
	Step        Step
}

// Result reports how far a Loop got.
type Result struct {
	SessionID string
	// Completed is the number of steps that ran, including a failing one.
	Completed int
	Events    int
}

// Run executes the loop and returns its progress even when a step fails.
func (l Loop) Run(ctx context.Context) (Result, error) {
	if l.Step == nil {
		return Result{}, errors.New("loop step is required")
	}
	if l.Steps <= 0 {
		return Result{}, nil
	}
	var completed int
	root, err := l.agent(&completed)
	if err != nil {
		return Result{}, err
	}

	appName := l.AppName
	if appName == "" {
		appName = DefaultAppName
	}
	userID := l.UserID
	if userID == "" {
		userID = DefaultUserID
	}

	sessions := session.InMemoryService()
	r, err := adkrunner.New(adkrunner.Config{
		AppName:        appName,
		Agent:          root,
		SessionService: sessions,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create ADK runner: %w", err)
	}
	created, err := sessions.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: l.SessionID,
		State:     map[string]any{StateIndex: 0},
	})
	if err != nil {
		return Result{}, fmt.Errorf("create ADK session: %w", err)
	}
	res := Result{SessionID: created.Session.ID()}

	var runErr error
	for ev, err := range r.Run(ctx, userID, res.SessionID, nil, agent.RunConfig{}) {
		if err != nil {
			runErr = err
			break
		}
		if ev != nil {
			res.Events++
		}
	}
	res.Completed = completed
	return res, runErr
}

// agent builds the loop; completed counts the steps that returned.
func (l Loop) agent(completed *int) (agent.Agent, error) {
	name := l.Name
	if name == "" {
		name = "Loop"
	}
	step, err := agent.New(agent.Config{
		Name:        name + "Step",
		Description: "Runs one indexed step.",
		Run: func(ictx agent.InvocationContext) iter.Seq2[*session.Event, error] {
			return l.iterate(ictx, completed)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s step agent: %w", name, err)
	}
	root, err := loopagent.New(loopagent.Config{
		MaxIterations: uint(l.Steps),
		AgentConfig: agent.Config{
			Name:        name,
			Description: l.Description,
			SubAgents:   []agent.Agent{step},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s loop agent: %w", name, err)
	}
	return root, nil
}

func (l Loop) iterate(ctx agent.InvocationContext, completed *int) iter.Seq2[*session.Event, error] {
	return func(yield func(*session.Event, error) bool) {
		if ctx.Ended() {
			return
		}
		state := ctx.Session().State()
		idx, err := Index(state, StateIndex, 0)
		if err != nil {
			yield(nil, err)
			return
		}
		if idx >= l.Steps {
			ctx.EndInvocation()
			return
		}

		stop, stepErr := l.Step(ctx, idx)
		*completed++
		if err := state.Set(StateIndex, idx+1); err != nil {
			yield(nil, fmt.Errorf("set %s in session: %w", StateIndex, err))
			return
		}
		if stop || stepErr != nil {
			ctx.EndInvocation()
		}
		if stepErr != nil {
			yield(nil, stepErr)
		}
	}
}
