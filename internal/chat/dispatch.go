package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/larkhq/lark/internal/model"
	"github.com/larkhq/lark/internal/tools"
	"github.com/larkhq/lark/internal/venues"
)

// dispatch executes one tool call and resumes the stream with its result.
//
// Failure handling, from least to most severe:
//   - schema violations and executor errors are reported back to the model
//     in-band as a structured ToolError, giving it a chance to correct;
//   - a FatalError from the executor terminates the run;
//   - a call for an unregistered tool terminates the run (the model is
//     hallucinating capabilities; there is nothing to correct in-band).
func (o *Orchestrator) dispatch(ctx context.Context, stream model.Stream, call *model.ToolCall) (ToolExchange, error) {
	exchange := ToolExchange{Name: call.Name, Args: call.Args}

	tool, err := o.registry.Resolve(call.Name)
	if err != nil {
		return exchange, fmt.Errorf("model requested %q: %w", call.Name, err)
	}

	if err := tool.ValidateArgs(call.Args); err != nil {
		o.logger.Warn("tool arguments rejected by schema",
			"tool", call.Name, "error", err)
		exchange.Err = err
		return exchange, o.resume(ctx, stream, call.ID, toolErrorPayload(err))
	}

	output, err := tool.Execute(ctx, call.Args)
	if err != nil {
		var fatal *tools.FatalError
		if errors.As(err, &fatal) {
			if errors.Is(fatal.Err, venues.ErrUnavailable) {
				return exchange, fmt.Errorf("%w: %w", ErrVenueSearchUnavailable, fatal.Err)
			}
			return exchange, fatal.Err
		}

		o.logger.Warn("tool execution failed, reporting in-band",
			"tool", call.Name, "error", err)
		exchange.Err = err
		return exchange, o.resume(ctx, stream, call.ID, toolErrorPayload(err))
	}

	o.logger.Debug("tool executed", "tool", call.Name)
	exchange.Output = output
	return exchange, o.resume(ctx, stream, call.ID, output)
}

func (o *Orchestrator) resume(ctx context.Context, stream model.Stream, callID string, output any) error {
	if err := stream.Resume(ctx, callID, output); err != nil {
		return fmt.Errorf("resuming generation: %w", err)
	}
	return nil
}

// toolErrorPayload shapes an error as the in-band result object.
func toolErrorPayload(err error) *tools.ToolError {
	var te *tools.ToolError
	if errors.As(err, &te) {
		return te
	}
	return &tools.ToolError{ErrorType: "ExecutionFailed", Message: err.Error()}
}
