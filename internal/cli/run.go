package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/cloud8421/recipe/pkg/domain"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Options

	Recipe        string
	Values        string   // Raw JSON string
	Set           []string // key=value overlays applied after Values
	CorrelationID string
	Telemetry     bool
	Watch         bool
	JSON          bool
	Quiet         bool
}

// initialValues builds the starting state from --values and --set.
func initialValues(opts RunOptions) (*domain.State, error) {
	st, err := ParseValues(opts.Values)
	if err != nil {
		return nil, err
	}
	return ApplySet(st, opts.Set)
}

// runOutcome is the terminal result of a single run, shaped for output.
type runOutcome struct {
	CorrelationID string
	Result        *domain.Result
	Record        *domain.RunRecord
	Err           error
}

// Execute handles the run command logic, dispatching to a single run or
// watch mode.
func Execute(opts RunOptions) error {
	if opts.Watch {
		if opts.JSON {
			return fmt.Errorf("--watch and --json cannot be used together")
		}
		RunWatch(opts)
		return nil
	}

	if _, err := initialValues(opts); err != nil {
		return err
	}

	logger := NewLogger(opts.Debug)
	rt, err := CreateRuntime(opts.Options, logger)
	if err != nil {
		return err
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	out := runOnce(sigCtx, rt, opts)
	printOutcome(out, opts)
	_ = rt.Close()

	if out.Err != nil && handleExecutionError(out.Err) != nil {
		os.Exit(1)
	}
	return nil
}

// runOnce executes the recipe exactly once. When the run fails and a
// store is configured, the terminal record is loaded back so output can
// name the failed step.
func runOnce(ctx context.Context, rt *Runtime, opts RunOptions) runOutcome {
	correlationID := opts.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	initial, err := initialValues(opts)
	if err != nil {
		return runOutcome{CorrelationID: correlationID, Err: err}
	}

	runOpts := []domain.RunOption{domain.WithCorrelationID(correlationID)}
	if opts.Telemetry {
		runOpts = append(runOpts, domain.WithTelemetry(true))
	}

	result, err := rt.Engine.RunNamed(ctx, opts.Recipe, initial, runOpts...)
	out := runOutcome{CorrelationID: correlationID, Result: result, Err: err}

	if err != nil && rt.Store != nil {
		// The run context may already be cancelled at this point.
		if rec, recErr := rt.Store.Load(context.Background(), correlationID); recErr == nil {
			out.Record = rec
		}
	}
	return out
}

// runReport mirrors the HTTP run response shape, so scripted callers see
// one format across adapters.
type runReport struct {
	CorrelationID string           `json:"correlation_id"`
	Status        domain.RunStatus `json:"status"`
	Value         any              `json:"value,omitempty"`
	FailedStep    string           `json:"failed_step,omitempty"`
	Error         string           `json:"error,omitempty"`
}

func printOutcome(out runOutcome, opts RunOptions) {
	if opts.JSON {
		printJSONOutcome(out)
		return
	}

	if out.Err != nil {
		if isInterrupted(out.Err) {
			printSystemMessage("Run '%s' interrupted.", out.CorrelationID)
			return
		}
		if out.Record != nil && out.Record.FailedStep != "" {
			printSystemMessage("Run '%s' failed at step '%s': %v", out.CorrelationID, out.Record.FailedStep, out.Err)
		} else {
			printSystemMessage("Run '%s' failed: %v", out.CorrelationID, out.Err)
		}
		return
	}

	if out.Result != nil && out.Result.Value != nil {
		if data, err := json.MarshalIndent(out.Result.Value, "", "  "); err == nil {
			fmt.Println(string(data))
		}
	}
	if !opts.Quiet {
		printSystemMessage("Run '%s' succeeded.", out.CorrelationID)
	}
}

func printJSONOutcome(out runOutcome) {
	report := runReport{
		CorrelationID: out.CorrelationID,
		Status:        domain.RunSucceeded,
	}
	if out.Err != nil {
		report.Status = domain.RunFailed
		report.Error = out.Err.Error()
		if out.Record != nil {
			report.FailedStep = out.Record.FailedStep
		}
	} else if out.Result != nil {
		report.Value = out.Result.Value
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Printf("{\"error\": %q}\n", err.Error())
		return
	}
	fmt.Println(string(data))
}
