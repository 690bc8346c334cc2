package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/rotagrid/rotagrid/pkg/core/horizon"
	"github.com/rotagrid/rotagrid/pkg/core/model"
	"github.com/rotagrid/rotagrid/pkg/db"
)

// Status classifies a solve outcome.
type Status string

const (
	StatusOptimal    Status = "OPTIMAL"
	StatusFeasible   Status = "FEASIBLE"
	StatusInfeasible Status = "INFEASIBLE"
	StatusUnknown    Status = "UNKNOWN"
)

// Succeeded reports whether a solution was extracted.
func (s Status) Succeeded() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Result is the output contract of one solve.
type Result struct {
	Status       Status
	Assignments  []model.Assignment
	TDMarkers    []model.TDMarker
	Penalties    []PenaltyReport
	SkippedLocks []SkippedLock
	Objective    int64
	WallTime     time.Duration

	// Diagnosis names likely causes when Status is INFEASIBLE or UNKNOWN.
	Diagnosis []string
}

// Solve runs one full planning pass: validate, build the horizon, load the
// lookback, compile the model, invoke CP-SAT, and extract. One solve per
// call; the solve owns its variable/constraint arena and shares nothing.
func Solve(ctx context.Context, in *model.PlanningInput, store db.AssignmentStore, logger *zap.Logger) (*Result, error) {
	if err := model.ValidateInput(in); err != nil {
		return nil, err
	}

	h, err := horizon.Build(in.Start, in.End)
	if err != nil {
		return nil, err
	}
	logger.Info("Planning horizon built",
		zap.String("original_start", model.DateKey(h.OriginalStart)),
		zap.String("original_end", model.DateKey(h.OriginalEnd)),
		zap.String("extended_start", model.DateKey(h.ExtendedStart)),
		zap.String("extended_end", model.DateKey(h.ExtendedEnd)),
		zap.Int("weeks", len(h.Weeks)))

	prev, err := horizon.LoadPreviousShifts(ctx, store, h, in.ShiftTypes, in.Settings, logger)
	if err != nil {
		return nil, err
	}

	return solve(in, h, prev, logger)
}

// solve compiles and runs the model against an already built horizon and
// previous-shift map.
func solve(in *model.PlanningInput, h *horizon.Horizon, prev horizon.PreviousShifts, logger *zap.Logger) (*Result, error) {
	c := newCompiler(in, h, prev, logger)
	c.compile()

	m, err := c.b.Model()
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate the CP model: %w", err)
	}

	params := &sppb.SatParameters{
		MaxTimeInSeconds: proto.Float64(in.Settings.TimeLimit.Seconds()),
		NumWorkers:       proto.Int32(int32(in.Settings.Workers)),
		RandomSeed:       proto.Int32(int32(in.Settings.RandomSeed)),
	}

	logger.Info("Invoking CP-SAT",
		zap.Float64("time_limit_s", in.Settings.TimeLimit.Seconds()),
		zap.Int("workers", in.Settings.Workers))

	resp, err := cpmodel.SolveCpModelWithParameters(m, params)
	if err != nil {
		return nil, fmt.Errorf("failed to solve the model: %w", err)
	}

	result := &Result{
		SkippedLocks: append([]SkippedLock(nil), c.locks.skipped...),
		WallTime:     time.Duration(resp.GetWallTime() * float64(time.Second)),
	}

	switch resp.GetStatus() {
	case cmpb.CpSolverStatus_OPTIMAL, cmpb.CpSolverStatus_FEASIBLE:
		if resp.GetStatus() == cmpb.CpSolverStatus_OPTIMAL {
			result.Status = StatusOptimal
		} else {
			result.Status = StatusFeasible
		}
		result.Objective = int64(resp.GetObjectiveValue())
		result.Penalties = c.pens.report(resp)

		logger.Info("Solver finished",
			zap.String("status", string(result.Status)),
			zap.Int64("objective", result.Objective),
			zap.Duration("wall_time", result.WallTime))
		for _, p := range result.Penalties {
			if p.Value != 0 {
				logger.Info("Non-zero penalty",
					zap.String("category", string(p.Category)),
					zap.Int64("value", p.Value),
					zap.Int("violations", p.Violations))
			}
		}

		sol := realize(resp, c.vars)
		rows, markers, err := extract(h, c.employees, sol, c.codes, logger)
		if err != nil {
			return nil, err
		}
		result.Assignments = rows
		result.TDMarkers = markers
		return result, nil

	case cmpb.CpSolverStatus_INFEASIBLE:
		result.Status = StatusInfeasible
		result.Diagnosis = diagnose(in, h, c)
		logger.Warn("Model infeasible", zap.Strings("diagnosis", result.Diagnosis))
		return result, nil

	default:
		// MODEL_INVALID and UNKNOWN (incl. time exhaustion without an
		// incumbent) are treated as infeasible for planning purposes.
		result.Status = StatusUnknown
		result.Diagnosis = append(diagnose(in, h, c),
			fmt.Sprintf("solver returned %s; the time budget of %s may be exhausted",
				resp.GetStatus(), in.Settings.TimeLimit))
		logger.Warn("Solver returned no solution",
			zap.String("solver_status", resp.GetStatus().String()),
			zap.Duration("wall_time", result.WallTime))
		return result, nil
	}
}
