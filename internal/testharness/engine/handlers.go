package engine

import (
	"context"
	"fmt"

	"github.com/graphcache/consistency-go/internal/testharness/loader"
	"github.com/graphcache/consistency-go/pkg/model"
)

// Step actions understood by the default handlers.
const (
	ActionUpdate         = "update"
	ActionUpdateModels   = "update_models"
	ActionDelete         = "delete"
	ActionAddListener    = "add_listener"
	ActionRemoveListener = "remove_listener"
	ActionRelease        = "release"
	ActionSetModel       = "set_model"
	ActionPause          = "pause"
	ActionResume         = "resume"
	ActionClear          = "clear"
	ActionGC             = "gc"
	ActionSync           = "sync"
)

func (e *Engine) registerDefaultHandlers() {
	e.RegisterHandler(ActionUpdate, handleUpdate)
	e.RegisterHandler(ActionUpdateModels, handleUpdateModels)
	e.RegisterHandler(ActionDelete, handleDelete)
	e.RegisterHandler(ActionAddListener, handleAddListener)
	e.RegisterHandler(ActionRemoveListener, handleRemoveListener)
	e.RegisterHandler(ActionRelease, handleRelease)
	e.RegisterHandler(ActionSetModel, handleSetModel)
	e.RegisterHandler(ActionPause, handlePause)
	e.RegisterHandler(ActionResume, handleResume)
	e.RegisterHandler(ActionClear, handleClear)
	e.RegisterHandler(ActionGC, handleGC)
	e.RegisterHandler(ActionSync, handleSync)
}

// stepContext is the instruction context of a step. No context is nil.
func stepContext(step *loader.Step) any {
	if step.Context == "" {
		return nil
	}
	return step.Context
}

func handleUpdate(_ context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error) {
	if step.Model == nil {
		return nil, fmt.Errorf("%s needs a model", step.Action)
	}
	return nil, state.Manager.UpdateModel(step.Model.Build(), stepContext(step))
}

func handleUpdateModels(_ context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error) {
	if len(step.Models) == 0 {
		return nil, fmt.Errorf("%s needs models", step.Action)
	}
	roots := make([]model.Node, len(step.Models))
	for i, m := range step.Models {
		roots[i] = m.Build()
	}
	return nil, state.Manager.UpdateModels(roots, stepContext(step))
}

func handleDelete(_ context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error) {
	// A delete without a model is allowed: it reports DeleteIDFailure.
	return nil, state.Manager.DeleteModel(step.Model.Build(), stepContext(step))
}

func handleAddListener(_ context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error) {
	l, err := state.Listener(step.Listener)
	if err != nil {
		return nil, err
	}
	return nil, state.Manager.AddListener(l)
}

func handleRemoveListener(_ context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error) {
	l, err := state.Listener(step.Listener)
	if err != nil {
		return nil, err
	}
	state.Manager.RemoveListener(l)
	return nil, nil
}

func handleRelease(_ context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error) {
	l, err := state.TestListener(step.Listener)
	if err != nil {
		return nil, err
	}
	l.Release()
	return nil, nil
}

func handleSetModel(_ context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error) {
	l, err := state.TestListener(step.Listener)
	if err != nil {
		return nil, err
	}
	l.SetModel(step.Model.Build())
	return nil, nil
}

func handlePause(_ context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error) {
	l, err := state.Listener(step.Listener)
	if err != nil {
		return nil, err
	}
	return nil, state.Manager.PauseListener(l)
}

func handleResume(_ context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error) {
	l, err := state.Listener(step.Listener)
	if err != nil {
		return nil, err
	}
	return nil, state.Manager.ResumeListener(l)
}

func handleClear(ctx context.Context, _ *loader.Step, state *ExecutionState) (map[string]any, error) {
	done := make(chan struct{})
	if err := state.Manager.ClearAllAndCancel(func() { close(done) }); err != nil {
		return nil, err
	}
	select {
	case <-done:
		return map[string]any{"cleared": true}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func handleGC(_ context.Context, _ *loader.Step, state *ExecutionState) (map[string]any, error) {
	res := state.Manager.CleanMemory()
	return map[string]any{
		"gc.buckets_before": res.BucketsBefore,
		"gc.buckets_after":  res.BucketsAfter,
		"gc.slots_pruned":   res.SlotsPruned,
		"gc.paused_dropped": res.PausedDropped,
	}, nil
}

func handleSync(context.Context, *loader.Step, *ExecutionState) (map[string]any, error) {
	return nil, nil
}
