package dispatch

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"bookbank/internal/clients"
	"bookbank/internal/envelope"
)

// Action names one user intent.
type Action string

const (
	ActionAddBook           Action = "add_book"
	ActionDeleteBook        Action = "delete_book"
	ActionRequestBook       Action = "request_book"
	ActionAcceptRequest     Action = "accept_request"
	ActionRejectRequest     Action = "reject_request"
	ActionCompleteRequest   Action = "complete_request"
	ActionTransferOwnership Action = "transfer_ownership"
	ActionInitiateReturn    Action = "initiate_return"
	ActionDeleteRequest     Action = "delete_request"
	ActionSendChat          Action = "send_chat"
)

// Refresh is the view update that follows a successful action.
type Refresh int

const (
	RefreshNone Refresh = iota
	RefreshReload
	RefreshBooks
	RefreshChat
)

func (r Refresh) String() string {
	switch r {
	case RefreshNone:
		return "none"
	case RefreshReload:
		return "reload"
	case RefreshBooks:
		return "books"
	case RefreshChat:
		return "chat"
	default:
		return fmt.Sprintf("refresh(%d)", int(r))
	}
}

// Target is the id substituted for {id} in a command path.
type Target int

const (
	TargetNone Target = iota
	TargetBook
	TargetRequest
)

// Input is the user-supplied data an action reads before it is sent.
type Input int

const (
	InputNone Input = iota
	InputBookForm
	InputChatMessage
)

// Command binds an action to its endpoint and to the way its answer is handled.
type Command struct {
	Action  Action
	Method  string
	Path    string
	Target  Target
	Input   Input
	Body    clients.BodyKind
	Policy  envelope.Policy
	Refresh Refresh
	// Confirm, when set, is asked before any network call.
	Confirm string
	// Alert shows the success text. Failures are always shown.
	Alert   bool
	Invalid string
	Texts   envelope.Texts
}

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidTable  = errors.New("invalid command table")
)

// Table maps actions to commands.
type Table struct {
	commands map[Action]Command
}

// NewTable builds a table and validates it.
func NewTable(commands ...Command) (*Table, error) {
	t := &Table{commands: make(map[Action]Command, len(commands))}
	for _, c := range commands {
		if _, dup := t.commands[c.Action]; dup {
			return nil, fmt.Errorf("%w: action %s defined twice", ErrInvalidTable, c.Action)
		}
		t.commands[c.Action] = c
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Lookup returns the command for action.
func (t *Table) Lookup(action Action) (Command, error) {
	c, ok := t.commands[action]
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return c, nil
}

// Actions lists the table's actions in name order.
func (t *Table) Actions() []Action {
	actions := make([]Action, 0, len(t.commands))
	for a := range t.commands {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}

// Validate checks that every endpoint is interpreted under a single policy and
// that each command is complete.
func (t *Table) Validate() error {
	policies := make(map[string]envelope.Policy)
	for _, a := range t.Actions() {
		c := t.commands[a]
		if c.Method == "" || !strings.HasPrefix(c.Path, "/") {
			return fmt.Errorf("%w: %s needs a method and an absolute path", ErrInvalidTable, a)
		}
		if !c.Policy.Valid() {
			return fmt.Errorf("%w: %s has no response policy", ErrInvalidTable, a)
		}
		if c.Refresh < RefreshNone || c.Refresh > RefreshChat {
			return fmt.Errorf("%w: %s has unknown %s", ErrInvalidTable, a, c.Refresh)
		}
		if c.Refresh == RefreshChat && c.Target != TargetRequest {
			return fmt.Errorf("%w: %s refreshes a chat without a request id", ErrInvalidTable, a)
		}
		if (c.Target == TargetNone) == strings.Contains(c.Path, "{id}") {
			return fmt.Errorf("%w: %s path %q does not match its target", ErrInvalidTable, a, c.Path)
		}
		if c.Texts.Transport == "" {
			return fmt.Errorf("%w: %s has no transport failure text", ErrInvalidTable, a)
		}

		key := c.Method + " " + c.Path
		if p, seen := policies[key]; seen && p != c.Policy {
			return fmt.Errorf("%w: %s is interpreted as both %s and %s", ErrInvalidTable, key, p, c.Policy)
		}
		policies[key] = c.Policy
	}
	return nil
}

// DefaultTable is the command table of the BookBank server.
func DefaultTable() *Table {
	t, err := NewTable(
		Command{
			Action:  ActionAddBook,
			Method:  http.MethodPost,
			Path:    "/api/books",
			Input:   InputBookForm,
			Body:    clients.BodyMultipart,
			Policy:  envelope.PolicyEnvelope,
			Refresh: RefreshBooks,
			Alert:   true,
			Invalid: "Please fill in all required fields.",
			Texts: envelope.Texts{
				Success:       "Book added successfully!",
				FailurePrefix: "Error adding book: ",
				Transport:     "Error adding book",
			},
		},
		Command{
			Action:  ActionDeleteBook,
			Method:  http.MethodDelete,
			Path:    "/api/book/{id}",
			Target:  TargetBook,
			Policy:  envelope.PolicyEnvelope,
			Refresh: RefreshReload,
			Confirm: "Are you sure you want to delete this book?",
			Alert:   true,
			Texts: envelope.Texts{
				Success:       "Book deleted successfully!",
				FailurePrefix: "Error deleting book: ",
				Transport:     "Error deleting book",
			},
		},
		Command{
			Action:  ActionRequestBook,
			Method:  http.MethodPost,
			Path:    "/request_book/{id}",
			Target:  TargetBook,
			Policy:  envelope.PolicyStatus,
			Refresh: RefreshNone,
			Alert:   true,
			Texts: envelope.Texts{
				Success:   "Request sent successfully",
				Failure:   "Request failed",
				Transport: "Error requesting book",
			},
		},
		requestCommand(ActionAcceptRequest, "accept", "", "Request accepted", "Failed to accept request", "Error accepting request"),
		requestCommand(ActionRejectRequest, "reject", "", "Request rejected", "Failed to reject request", "Error rejecting request"),
		requestCommand(ActionCompleteRequest, "complete", "", "Request completed", "Failed to complete request", "Error completing request"),
		requestCommand(ActionTransferOwnership, "transfer_ownership",
			"Are you sure you want to transfer ownership of this book?",
			"Ownership transferred", "Failed to transfer ownership", "Error transferring ownership"),
		requestCommand(ActionInitiateReturn, "initiate_return", "", "Return initiated", "Failed to initiate return", "Error initiating return"),
		Command{
			Action:  ActionDeleteRequest,
			Method:  http.MethodDelete,
			Path:    "/request/{id}",
			Target:  TargetRequest,
			Policy:  envelope.PolicyStatus,
			Refresh: RefreshReload,
			Confirm: "Are you sure you want to delete this request?",
			Alert:   true,
			Texts: envelope.Texts{
				Success:   "Request deleted",
				Failure:   "Failed to delete request",
				Transport: "Error deleting request",
			},
		},
		Command{
			Action:  ActionSendChat,
			Method:  http.MethodPost,
			Path:    "/request/{id}/chat",
			Target:  TargetRequest,
			Input:   InputChatMessage,
			Body:    clients.BodyURLEncoded,
			Policy:  envelope.PolicyStatus,
			Refresh: RefreshChat,
			Invalid: "Please enter a message",
			Texts: envelope.Texts{
				Failure:   "Failed to send message",
				Transport: "Error sending message",
			},
		},
	)
	if err != nil {
		panic(err)
	}
	return t
}

func requestCommand(action Action, verb, confirm, success, failure, transport string) Command {
	return Command{
		Action:  action,
		Method:  http.MethodPost,
		Path:    "/request/{id}/" + verb,
		Target:  TargetRequest,
		Policy:  envelope.PolicyStatus,
		Refresh: RefreshReload,
		Confirm: confirm,
		Alert:   true,
		Texts: envelope.Texts{
			Success:   success,
			Failure:   failure,
			Transport: transport,
		},
	}
}
