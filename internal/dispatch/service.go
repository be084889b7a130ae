package dispatch

import (
	"context"

	"bookbank/internal/lending"
)

var _ lending.Service = (*Dispatcher)(nil)

func (d *Dispatcher) AddBook(ctx context.Context, form lending.BookForm) error {
	_, err := d.Dispatch(ctx, ActionAddBook, Args{Form: form})
	return err
}

func (d *Dispatcher) DeleteBook(ctx context.Context, id lending.BookID) error {
	_, err := d.Dispatch(ctx, ActionDeleteBook, Args{BookID: id})
	return err
}

func (d *Dispatcher) RequestBook(ctx context.Context, id lending.BookID) error {
	_, err := d.Dispatch(ctx, ActionRequestBook, Args{BookID: id})
	return err
}

func (d *Dispatcher) AcceptRequest(ctx context.Context, id lending.RequestID) error {
	return d.requestAction(ctx, ActionAcceptRequest, id)
}

func (d *Dispatcher) RejectRequest(ctx context.Context, id lending.RequestID) error {
	return d.requestAction(ctx, ActionRejectRequest, id)
}

func (d *Dispatcher) CompleteRequest(ctx context.Context, id lending.RequestID) error {
	return d.requestAction(ctx, ActionCompleteRequest, id)
}

func (d *Dispatcher) TransferOwnership(ctx context.Context, id lending.RequestID) error {
	return d.requestAction(ctx, ActionTransferOwnership, id)
}

func (d *Dispatcher) InitiateReturn(ctx context.Context, id lending.RequestID) error {
	return d.requestAction(ctx, ActionInitiateReturn, id)
}

func (d *Dispatcher) DeleteRequest(ctx context.Context, id lending.RequestID) error {
	return d.requestAction(ctx, ActionDeleteRequest, id)
}

func (d *Dispatcher) SendChat(ctx context.Context, id lending.RequestID, message string) error {
	_, err := d.Dispatch(ctx, ActionSendChat, Args{RequestID: id, Message: message})
	return err
}

// SendOwnerChat sends a message from the book owner's side of the thread.
// The server works out the receiver, so it is the same call as SendChat.
func (d *Dispatcher) SendOwnerChat(ctx context.Context, id lending.RequestID, message string) error {
	return d.SendChat(ctx, id, message)
}

func (d *Dispatcher) requestAction(ctx context.Context, action Action, id lending.RequestID) error {
	_, err := d.Dispatch(ctx, action, Args{RequestID: id})
	return err
}
