package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to StageStatus
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusOnHold, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusRejected, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusOnHold, true},
		{StatusInProgress, StatusRejected, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusPending, false},
		{StatusOnHold, StatusInProgress, true},
		{StatusOnHold, StatusCompleted, false},
		{StatusRejected, StatusInProgress, true},
		{StatusRejected, StatusCompleted, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusInProgress, StatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}

	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusOnHold.IsTerminal())
}

func TestNewStagesFollowSequence(t *testing.T) {
	tenant, order := uuid.New(), uuid.New()
	stages := NewStages(tenant, order, decimal.NewFromInt(500))

	require.Len(t, stages, len(StageSequence))
	for i, s := range stages {
		assert.Equal(t, StageSequence[i], s.Name)
		assert.Equal(t, i+1, s.Sequence)
		assert.Equal(t, StatusPending, s.Status)
		assert.Equal(t, tenant, s.TenantID)
		assert.Equal(t, order, s.OrderID)
		assert.True(t, s.PlannedQuantity.Equal(decimal.NewFromInt(500)))
	}
	assert.True(t, IsValidStage("quality_control"))
	assert.False(t, IsValidStage("weaving"))
}

func newOrder(planned int64) *ProductionOrder {
	o := &ProductionOrder{PlannedQuantity: decimal.NewFromInt(planned)}
	o.Stages = NewStages(uuid.New(), uuid.New(), o.PlannedQuantity)
	return o
}

func TestStageProgress(t *testing.T) {
	o := newOrder(100)
	assert.True(t, StageProgress(o.Stages).Equal(decimal.Zero))

	o.Stages[0].Status = StatusCompleted
	o.Stages[0].ActualQuantity = decimal.NewFromInt(100)
	o.Stages[1].Status = StatusCompleted
	o.Stages[1].ActualQuantity = decimal.NewFromInt(80)
	assert.Equal(t, "18", StageProgress(o.Stages).String())

	o.Stages[3].Status = StatusCancelled
	assert.Equal(t, "20", StageProgress(o.Stages).String())

	// over-reported quantities are capped at plan
	o.Stages[2].Status = StatusCompleted
	o.Stages[2].ActualQuantity = decimal.NewFromInt(250)
	assert.Equal(t, "31.11", StageProgress(o.Stages).String())

	assert.True(t, StageProgress(nil).IsZero())
}

func TestDeriveOrderStatus(t *testing.T) {
	build := func(statuses ...StageStatus) []ProductionStage {
		out := make([]ProductionStage, len(statuses))
		for i, s := range statuses {
			out[i] = ProductionStage{Sequence: i + 1, Status: s}
		}
		return out
	}

	tests := []struct {
		name   string
		stages []ProductionStage
		want   StageStatus
	}{
		{"empty", nil, StatusPending},
		{"all pending", build(StatusPending, StatusPending), StatusPending},
		{"all cancelled", build(StatusCancelled, StatusCancelled), StatusCancelled},
		{"completed with skipped", build(StatusCompleted, StatusCancelled, StatusCompleted), StatusCompleted},
		{"running", build(StatusCompleted, StatusInProgress, StatusPending), StatusInProgress},
		{"rework", build(StatusCompleted, StatusRejected, StatusPending), StatusInProgress},
		{"held", build(StatusCompleted, StatusOnHold, StatusPending), StatusOnHold},
		{"between stages", build(StatusCompleted, StatusPending), StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveOrderStatus(tt.stages))
		})
	}
}

func TestRecalculate(t *testing.T) {
	o := newOrder(100)
	o.Recalculate()
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, StageGreyFabricInward, o.CurrentStage)

	o.Stages[0].Status = StatusCompleted
	o.Stages[0].ActualQuantity = decimal.NewFromInt(100)
	o.Stages[1].Status = StatusCompleted
	o.Stages[1].ActualQuantity = decimal.NewFromInt(95)
	o.Stages[2].Status = StatusInProgress
	o.Recalculate()

	assert.Equal(t, StatusInProgress, o.Status)
	assert.Equal(t, StageDyeing, o.CurrentStage)
	assert.True(t, o.CompletedQuantity.Equal(decimal.NewFromInt(95)))
	assert.Equal(t, "19.5", o.Progress.String())

	for i := range o.Stages {
		o.Stages[i].Status = StatusCompleted
		o.Stages[i].ActualQuantity = decimal.NewFromInt(100)
	}
	o.Recalculate()
	assert.Equal(t, StatusCompleted, o.Status)
	assert.Equal(t, StageName(""), o.CurrentStage)
	assert.Equal(t, "100", o.Progress.String())
	assert.True(t, o.IsClosed())
}

func TestPredecessorsSettled(t *testing.T) {
	o := newOrder(10)
	dyeing, ok := o.Stage(StageDyeing)
	require.True(t, ok)
	assert.False(t, o.PredecessorsSettled(dyeing))

	o.Stages[0].Status = StatusCompleted
	o.Stages[1].Status = StatusCancelled
	assert.True(t, o.PredecessorsSettled(dyeing))

	first, _ := o.Stage(StageGreyFabricInward)
	assert.True(t, o.PredecessorsSettled(first))
	assert.True(t, o.HasStarted())
}

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission([]string{PermissionAll}, PermissionHRWrite))
	assert.True(t, HasPermission([]string{PermissionHRWrite}, PermissionHRRead))
	assert.False(t, HasPermission([]string{PermissionHRRead}, PermissionHRWrite))
	assert.False(t, HasPermission([]string{PermissionCRMWrite}, PermissionHRRead))
	assert.False(t, HasPermission(nil, PermissionReportsRead))
}
