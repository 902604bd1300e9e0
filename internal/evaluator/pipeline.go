package evaluator

import (
	"context"

	"github.com/meld-lang/meld/internal/directive"
	"github.com/meld-lang/meld/internal/environment"
	"github.com/meld-lang/meld/internal/executor"
	"github.com/meld-lang/meld/internal/value"
)

// runPipeline executes inv's head invocation followed by each declared
// `|>` stage in strict declared order (spec §5 "Pipeline stages execute
// strictly in declared order"), threading the previous stage's stdout
// in as the next stage's PipelineInput and recording
// pipeline_context.previousOutputs (spec §4.8).
func (e *Evaluator) runPipeline(ctx context.Context, inv directive.Invocation, scope *environment.Scope, d directive.Directive) (executor.Result, value.Security, error) {
	res, sec, err := e.runInvocation(ctx, directive.Invocation{Target: inv.Target, Args: inv.Args, AdHoc: inv.AdHoc}, scope, d)
	if err != nil {
		return res, sec, err
	}
	if len(inv.Stages) == 0 {
		return res, sec, nil
	}

	previous := []string{stripTrailingNewline(res.Stdout)}
	current := res
	for i, stage := range inv.Stages {
		attempt := 1
		maxAttempts := 1
		if stage.Guard != nil && stage.Guard.MaxAttempts > 0 {
			maxAttempts = stage.Guard.MaxAttempts
		}

		pc := &environment.PipelineContext{
			Try: attempt, Stage: i + 1, TotalStages: len(inv.Stages),
			IsPipeline: true, LastOutput: previous[len(previous)-1],
			CurrentCommand: stage.Command, PreviousOutputs: append([]string{}, previous...),
		}
		stageScope := scope.WithPipelineContext(pc)
		if err := stageScope.SetParameter("input", value.OfPipelineInput("input",
			value.PipelineInput{Raw: previous[len(previous)-1]}, value.Location{}, sec)); err != nil {
			return current, sec, err
		}

		var stageErr error
		for attempt = 1; attempt <= maxAttempts; attempt++ {
			pc.Try = attempt
			rendered, err := renderShellTemplate(stage.Command, nil, stageScope)
			if err != nil {
				return current, sec, err
			}
			current, stageErr = e.Pool.Run(ctx, executor.Request{Language: executor.LangShell, Body: rendered, Dir: stageScope.BasePath()})
			if stageErr == nil && current.ExitCode == 0 {
				break
			}
		}
		if stageErr != nil {
			return current, sec, stageErr
		}
		if current.ExitCode != 0 {
			return current, sec, &EvalError{Kind: ErrCommandExecution, Directive: d.ID, Msg: "pipeline stage exited non-zero",
				ExitCode: current.ExitCode, Stdout: current.Stdout, Stderr: current.Stderr, Command: stage.Command}
		}
		previous = append(previous, stripTrailingNewline(current.Stdout))
		sec = executor.DeriveTaint(sec)
	}
	return current, sec, nil
}
