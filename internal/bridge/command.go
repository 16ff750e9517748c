package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Handler is a typed command implementation.
type Handler[Req, Resp any] func(context.Context, Req) (Resp, error)

// Command is a named, invocable operation that takes loosely typed arguments.
type Command interface {
	Name() string
	Invoke(ctx context.Context, args map[string]any) (any, error)
}

// ArgumentError is returned when command arguments cannot be decoded or fail
// validation.
type ArgumentError struct {
	Command string
	Cause   error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Command, e.Cause)
}
func (e *ArgumentError) Unwrap() error      { return e.Cause }
func (e *ArgumentError) InvalidInput() bool { return true }

// typedCommand decodes args into Req with mapstructure, validates the result
// and calls the handler.
type typedCommand[Req, Resp any] struct {
	name     string
	validate *validator.Validate
	handler  Handler[Req, Resp]
}

// NewCommand wraps handler as a Command.
func NewCommand[Req, Resp any](name string, validate *validator.Validate, handler Handler[Req, Resp]) Command {
	if handler == nil {
		panic("handler is required")
	}
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return &typedCommand[Req, Resp]{name: name, validate: validate, handler: handler}
}

func (c *typedCommand[Req, Resp]) Name() string {
	return c.name
}

func (c *typedCommand[Req, Resp]) Invoke(ctx context.Context, args map[string]any) (any, error) {
	var req Req
	if err := mapstructure.Decode(args, &req); err != nil {
		return nil, &ArgumentError{Command: c.name, Cause: err}
	}
	if err := c.validate.Struct(req); err != nil {
		return nil, &ArgumentError{Command: c.name, Cause: describeValidation(err)}
	}
	return c.handler(ctx, req)
}

// describeValidation turns validator errors into a single readable error.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
