package lending

import "context"

// Service defines the resource actions a user can trigger against the server.
// Each call issues at most one state-changing HTTP request.
type Service interface {
	AddBook(ctx context.Context, form BookForm) error
	DeleteBook(ctx context.Context, id BookID) error
	RequestBook(ctx context.Context, id BookID) error

	AcceptRequest(ctx context.Context, id RequestID) error
	RejectRequest(ctx context.Context, id RequestID) error
	CompleteRequest(ctx context.Context, id RequestID) error
	TransferOwnership(ctx context.Context, id RequestID) error
	InitiateReturn(ctx context.Context, id RequestID) error
	DeleteRequest(ctx context.Context, id RequestID) error

	SendChat(ctx context.Context, id RequestID, message string) error
}

// Source is the read side used by partial refreshes.
type Source interface {
	ListBooks(ctx context.Context) ([]Book, error)
	ListChat(ctx context.Context, id RequestID) ([]ChatMessage, error)
}
