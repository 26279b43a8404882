// Package workflows holds the durable timers of the capsule lifecycle.
// A capsule's scheduled unlock survives process restarts as a Temporal workflow
// that sleeps until the unlock time and then runs the open activity.
package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	capsuledomain "github.com/ghuser/timecapsule/services/capsule/domain"
	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

const (
	UnlockCapsuleWorkflowName = "UnlockCapsule"

	errTypeCapsuleNotFound = "CapsuleNotFound"
)

type UnlockCapsuleInput struct {
	CapsuleID       uuid.UUID `json:"capsule_id"`
	ScheduledOpenAt time.Time `json:"scheduled_open_at"`
}

type UnlockCapsuleResult struct {
	// Opened is false when the capsule was already OPEN, e.g. via an accepted bid.
	Opened   bool      `json:"opened"`
	OpenedAt time.Time `json:"opened_at"`
}

// UnlockCapsuleWorkflow sleeps until the scheduled unlock time and opens the capsule.
func UnlockCapsuleWorkflow(ctx workflow.Context, in UnlockCapsuleInput) (UnlockCapsuleResult, error) {
	log := workflow.GetLogger(ctx)

	if wait := in.ScheduledOpenAt.Sub(workflow.Now(ctx)); wait > 0 {
		log.Info("waiting for unlock", "capsule_id", in.CapsuleID, "wait", wait)
		if err := workflow.Sleep(ctx, wait); err != nil {
			return UnlockCapsuleResult{}, err
		}
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        20,
			NonRetryableErrorTypes: []string{errTypeCapsuleNotFound},
		},
	})

	var a *Activities
	var res UnlockCapsuleResult
	if err := workflow.ExecuteActivity(ctx, a.OpenCapsule, in.CapsuleID).Get(ctx, &res); err != nil {
		return UnlockCapsuleResult{}, err
	}
	return res, nil
}

// CapsuleOpener performs the scheduled transition. The capsule engine implements it.
type CapsuleOpener interface {
	OpenScheduled(ctx context.Context, id uuid.UUID) (*models.Capsule, bool, error)
}

type Activities struct {
	opener CapsuleOpener
}

func NewActivities(opener CapsuleOpener) *Activities {
	return &Activities{opener: opener}
}

// OpenCapsule opens a due capsule. A missing capsule fails the workflow;
// anything else, including a clock running behind, is retried.
func (a *Activities) OpenCapsule(ctx context.Context, id uuid.UUID) (UnlockCapsuleResult, error) {
	c, opened, err := a.opener.OpenScheduled(ctx, id)
	if errors.Is(err, capsuledomain.ErrCapsuleNotFound) {
		return UnlockCapsuleResult{}, temporal.NewNonRetryableApplicationError(err.Error(), errTypeCapsuleNotFound, err)
	}
	if err != nil {
		return UnlockCapsuleResult{}, err
	}
	res := UnlockCapsuleResult{Opened: opened}
	if c.ActualOpenAt != nil {
		res.OpenedAt = *c.ActualOpenAt
	}
	return res, nil
}

// Register adds the unlock workflow and its activities to w.
func Register(w worker.Worker, acts *Activities) {
	w.RegisterWorkflowWithOptions(UnlockCapsuleWorkflow, workflow.RegisterOptions{Name: UnlockCapsuleWorkflowName})
	w.RegisterActivity(acts)
}

// WorkflowID is deterministic per capsule so scheduling twice is harmless.
func WorkflowID(capsuleID uuid.UUID) string {
	return "capsule-unlock-" + capsuleID.String()
}

// ScheduleUnlock starts the unlock workflow for a capsule. If one is already
// running for the capsule, the existing run is kept.
func ScheduleUnlock(ctx context.Context, c client.Client, taskQueue string, in UnlockCapsuleInput) (string, error) {
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowID(in.CapsuleID),
		TaskQueue: taskQueue,
	}, UnlockCapsuleWorkflowName, in)
	if err != nil {
		return "", fmt.Errorf("start unlock workflow for %s: %w", in.CapsuleID, err)
	}
	return run.GetRunID(), nil
}
