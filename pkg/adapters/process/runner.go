package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cloud8421/recipe/pkg/domain"
)

// Runner turns external commands into recipe steps. It follows a strict
// registry pattern: only allow-listed commands can run, and state values
// reach the command as environment variables rather than argv, which
// prevents flag injection through run data.
type Runner struct {
	registry map[string]RegisteredProcess
	baseDir  string
}

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string
	Env     map[string]string
	SaveTo  string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithCatalog populates the allow-list from a loaded config.
func WithCatalog(steps map[string]StepConfig) RunnerOption {
	return func(r *Runner) {
		for name, step := range steps {
			r.registry[name] = RegisteredProcess{
				Command: step.Command,
				Args:    step.Args,
				Env:     step.Environment,
				SaveTo:  step.SaveTo,
			}
		}
	}
}

// WithBaseDir sets the working directory for executed commands.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// StepFunc returns the named command as a step implementation.
func (r *Runner) StepFunc(name string) (domain.StepFunc, bool) {
	proc, ok := r.registry[name]
	if !ok {
		return nil, false
	}
	return r.stepFunc(name, proc), true
}

// Steps materializes every registered command as a step implementation,
// ready for registry.RegisterAll.
func (r *Runner) Steps() map[string]domain.StepFunc {
	steps := make(map[string]domain.StepFunc, len(r.registry))
	for name, proc := range r.registry {
		steps[name] = r.stepFunc(name, proc)
	}
	return steps
}

func (r *Runner) stepFunc(name string, proc RegisteredProcess) domain.StepFunc {
	return func(ctx context.Context, st *domain.State) (*domain.State, error) {
		cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
		cmd.Dir = r.baseDir
		cmd.Env = append(cmd.Environ(), buildEnv(st, proc.Env)...)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("step %s: %v, stderr: %s", name, err, strings.TrimSpace(stderr.String()))
		}

		saveTo := proc.SaveTo
		if saveTo == "" {
			saveTo = name
		}
		return st.Assign(saveTo, parseOutput(stdout.String())), nil
	}
}

// buildEnv maps state values onto RECIPE_ARG_* variables, plus the
// correlation id and any static variables from the config.
func buildEnv(st *domain.State, static map[string]string) []string {
	env := make([]string, 0, len(st.Values)+len(static)+1)

	for k, v := range st.Values {
		var val string
		switch v.(type) {
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		case nil:
			val = ""
		default:
			// Complex types travel as JSON.
			if data, err := json.Marshal(v); err == nil {
				val = string(data)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, fmt.Sprintf("RECIPE_ARG_%s=%s", envKey(k), val))
	}

	if st.CorrelationID != "" {
		env = append(env, "RECIPE_CORRELATION_ID="+st.CorrelationID)
	}
	for k, v := range static {
		env = append(env, k+"="+v)
	}

	return env
}

// envKey uppercases a state key and squashes anything outside
// [A-Z0-9] to underscores.
func envKey(k string) string {
	upper := strings.ToUpper(k)
	return strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, upper)
}

// parseOutput auto-detects JSON payloads on stdout; anything else is
// the trimmed text.
func parseOutput(output string) any {
	trimmed := strings.TrimSpace(output)

	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var jsonResult any
		if err := json.Unmarshal([]byte(trimmed), &jsonResult); err == nil {
			return jsonResult
		}
	}

	return trimmed
}
