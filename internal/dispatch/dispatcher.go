package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"bookbank/internal/clients"
	"bookbank/internal/envelope"
	"bookbank/internal/lending"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Doer issues one HTTP call.
type Doer interface {
	Do(ctx context.Context, call clients.Call) (*clients.Response, error)
}

// Prompter shows feedback and asks for confirmation.
type Prompter interface {
	Alert(message string)
	Confirm(question string) bool
}

// Refresher updates the view after a successful action.
type Refresher interface {
	Reload(ctx context.Context) error
	RefreshBooks(ctx context.Context) error
	RefreshChat(ctx context.Context, id lending.RequestID) error
}

// State is how a dispatched action ended.
type State int

const (
	StateDone State = iota + 1
	StateBlocked
	StateCancelled
	StateFailed
	StateBroken
)

func (s State) String() string {
	switch s {
	case StateDone:
		return "done"
	case StateBlocked:
		return "blocked"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	case StateBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// Args carries the inputs of one action. Only the fields its command reads are used.
type Args struct {
	BookID    lending.BookID
	RequestID lending.RequestID
	Form      lending.BookForm
	Message   string
}

// Outcome describes what a dispatch did.
type Outcome struct {
	Action    Action
	State     State
	Alert     string
	RequestID string
	Refreshed Refresh
}

// ValidationError is returned when input is rejected before any network call.
type ValidationError struct {
	Action Action
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ServerError is returned when the server reports a business failure.
type ServerError struct {
	Action  Action
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server refused (status %d): %s", e.Action, e.Status, e.Message)
}

// Dispatcher maps an action to exactly one HTTP call and routes the answer to
// the prompter and the refresher.
type Dispatcher struct {
	table    *Table
	doer     Doer
	prompt   Prompter
	refresh  Refresher
	logger   zerolog.Logger
	tracer   trace.Tracer
	outcomes metric.Int64Counter
}

// NewDispatcher creates a dispatcher. refresh may be nil when nothing is displayed.
func NewDispatcher(table *Table, doer Doer, prompt Prompter, refresh Refresher, logger zerolog.Logger) (*Dispatcher, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if refresh == nil {
		refresh = noRefresh{}
	}

	outcomes, err := otel.Meter("bookbank/dispatch").Int64Counter(
		"bookbank.dispatch.outcomes",
		metric.WithDescription("Dispatched actions by final state"),
	)
	if err != nil {
		return nil, fmt.Errorf("create outcome counter: %w", err)
	}

	return &Dispatcher{
		table:    table,
		doer:     doer,
		prompt:   prompt,
		refresh:  refresh,
		logger:   logger,
		tracer:   otel.Tracer("bookbank/dispatch"),
		outcomes: outcomes,
	}, nil
}

// Dispatch runs action: validate, confirm, call, interpret, alert, refresh.
func (d *Dispatcher) Dispatch(ctx context.Context, action Action, args Args) (Outcome, error) {
	cmd, err := d.table.Lookup(action)
	if err != nil {
		return Outcome{Action: action}, err
	}

	ctx, span := d.tracer.Start(ctx, "dispatch."+string(action),
		trace.WithAttributes(attribute.String("action", string(action))),
	)
	defer span.End()

	out, err := d.run(ctx, cmd, args)
	out.Action = action

	span.SetAttributes(attribute.String("outcome", out.State.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, out.State.String())
	}
	d.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", string(action)),
		attribute.String("state", out.State.String()),
	))
	return out, err
}

func (d *Dispatcher) run(ctx context.Context, cmd Command, args Args) (Outcome, error) {
	// Step 1: collect and validate input
	fields, err := collectFields(cmd, args)
	if err != nil {
		d.prompt.Alert(cmd.Invalid)
		return Outcome{State: StateBlocked, Alert: cmd.Invalid}, &ValidationError{Action: cmd.Action, Err: err}
	}

	// Step 2: confirm
	if cmd.Confirm != "" && !d.prompt.Confirm(cmd.Confirm) {
		return Outcome{State: StateCancelled}, nil
	}

	// Step 3: the single network call
	call := clients.Call{
		Method: cmd.Method,
		Path:   expandPath(cmd, args),
		Body:   cmd.Body,
		Fields: fields,
	}
	log := d.logger.With().
		Str("action", string(cmd.Action)).
		Str("method", call.Method).
		Str("path", call.Path).
		Logger()

	resp, err := d.doer.Do(ctx, call)
	if err != nil {
		log.Error().Err(err).Msg("request failed")
		d.prompt.Alert(cmd.Texts.Transport)
		return Outcome{State: StateBroken, Alert: cmd.Texts.Transport}, fmt.Errorf("%s: %w", cmd.Action, err)
	}
	log = log.With().Str("request_id", resp.RequestID).Int("status", resp.Status).Logger()

	// Step 4: interpret
	result, err := envelope.Decode(resp.Status, resp.Body, cmd.Policy)
	if err != nil {
		log.Error().Err(err).Msg("unreadable response")
		d.prompt.Alert(cmd.Texts.Transport)
		return Outcome{State: StateBroken, Alert: cmd.Texts.Transport, RequestID: resp.RequestID}, fmt.Errorf("%s: %w", cmd.Action, err)
	}

	text := cmd.Texts.Feedback(result, cmd.Policy)
	if failure, ok := result.(envelope.Failure); ok {
		log.Warn().Str("error", failure.Error).Msg("server refused action")
		d.prompt.Alert(text)
		return Outcome{State: StateFailed, Alert: text, RequestID: resp.RequestID},
			&ServerError{Action: cmd.Action, Status: failure.Status, Message: failure.Error}
	}

	// Step 5: report and refresh
	out := Outcome{State: StateDone, RequestID: resp.RequestID, Refreshed: cmd.Refresh}
	if cmd.Alert {
		d.prompt.Alert(text)
		out.Alert = text
	}
	log.Debug().Str("refresh", cmd.Refresh.String()).Msg("action done")

	if err := d.applyRefresh(ctx, cmd, args); err != nil {
		log.Error().Err(err).Str("refresh", cmd.Refresh.String()).Msg("refresh failed")
	}
	return out, nil
}

func (d *Dispatcher) applyRefresh(ctx context.Context, cmd Command, args Args) error {
	switch cmd.Refresh {
	case RefreshReload:
		return d.refresh.Reload(ctx)
	case RefreshBooks:
		return d.refresh.RefreshBooks(ctx)
	case RefreshChat:
		return d.refresh.RefreshChat(ctx, args.RequestID)
	default:
		return nil
	}
}

func collectFields(cmd Command, args Args) ([][2]string, error) {
	switch cmd.Input {
	case InputBookForm:
		if err := args.Form.Validate(); err != nil {
			return nil, err
		}
		return args.Form.Normalize().Fields(), nil
	case InputChatMessage:
		message := strings.TrimSpace(args.Message)
		if message == "" {
			return nil, lending.ErrEmptyMessage
		}
		return [][2]string{{"message", message}}, nil
	default:
		return nil, nil
	}
}

func expandPath(cmd Command, args Args) string {
	switch cmd.Target {
	case TargetBook:
		return strings.ReplaceAll(cmd.Path, "{id}", strconv.FormatInt(int64(args.BookID), 10))
	case TargetRequest:
		return strings.ReplaceAll(cmd.Path, "{id}", strconv.FormatInt(int64(args.RequestID), 10))
	default:
		return cmd.Path
	}
}

type noRefresh struct{}

func (noRefresh) Reload(context.Context) error                         { return nil }
func (noRefresh) RefreshBooks(context.Context) error                   { return nil }
func (noRefresh) RefreshChat(context.Context, lending.RequestID) error { return nil }
