package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bookbank/internal/clients"
	"bookbank/internal/lending"

	"github.com/spf13/cobra"
)

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "bookbank",
		Short:         "Command-line client for a BookBank lending server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.ready {
				return a.applyLineFlags(cmd)
			}
			return a.setup(cmd.Context())
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", a.configFile, "config file (default bookbank.yaml in ., ./config or ~/.config/bookbank)")
	flags.String("base-url", "", "server root URL")
	flags.BoolP("yes", "y", false, "answer yes to every confirmation")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error or disabled")
	flags.Bool("pretty", false, "human-readable logs")

	a.v.BindPFlag("base_url", flags.Lookup("base-url"))
	a.v.BindPFlag("assume_yes", flags.Lookup("yes"))
	a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	a.v.BindPFlag("log.pretty", flags.Lookup("pretty"))

	root.AddCommand(
		newBooksCommand(a),
		newAddBookCommand(a),
		newBookCommand(a, "delete-book", "Delete one of your books", a.deleteBook),
		newBookCommand(a, "request-book", "Ask to borrow a book", a.requestBook),
		newRequestCommand(a, "accept", "Accept a loan request", a.accept),
		newRequestCommand(a, "reject", "Reject a loan request", a.reject),
		newRequestCommand(a, "complete", "Mark a loan as returned", a.complete),
		newRequestCommand(a, "transfer", "Give the book to the requester for good", a.transfer),
		newRequestCommand(a, "initiate-return", "Start returning a borrowed book", a.initiateReturn),
		newRequestCommand(a, "delete-request", "Delete a loan request", a.deleteRequest),
		newChatCommand(a),
		newLoginCommand(a),
		newShellCommand(a),
	)
	return root
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func newBooksCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List every book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return reported(a.view.ShowBooks(cmd.Context()))
		},
	}
}

func newAddBookCommand(a *app) *cobra.Command {
	var form lending.BookForm
	cmd := &cobra.Command{
		Use:   "add-book",
		Short: "Add a book you own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return reported(a.dispatcher.AddBook(cmd.Context(), form))
		},
	}
	cmd.Flags().StringVar(&form.Title, "title", "", "title (required)")
	cmd.Flags().StringVar(&form.Author, "author", "", "author")
	cmd.Flags().StringVar(&form.Genre, "genre", "", "genre")
	cmd.Flags().StringVar(&form.Condition, "condition", "", "condition (required)")
	cmd.Flags().StringVar(&form.Thumbnail, "thumbnail", "", "thumbnail file name (default "+lending.DefaultThumbnail+")")
	return cmd
}

func newBookCommand(a *app, use, short string, action func(context.Context, lending.BookID) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " BOOK_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a.view.TrackBooks()
			return reported(action(cmd.Context(), lending.BookID(id)))
		},
	}
}

func newRequestCommand(a *app, use, short string, action func(context.Context, lending.RequestID) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " REQUEST_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a.view.TrackBooks()
			return reported(action(cmd.Context(), lending.RequestID(id)))
		},
	}
}

func newChatCommand(a *app) *cobra.Command {
	var asOwner bool
	cmd := &cobra.Command{
		Use:   "chat REQUEST_ID [MESSAGE...]",
		Short: "Show a request's chat, or send a message to it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if len(args) == 1 {
				return reported(a.view.ShowChat(ctx, lending.RequestID(id)))
			}

			message := strings.Join(args[1:], " ")
			if asOwner {
				return reported(a.dispatcher.SendOwnerChat(ctx, lending.RequestID(id), message))
			}
			return reported(a.dispatcher.SendChat(ctx, lending.RequestID(id), message))
		},
	}
	cmd.Flags().BoolVar(&asOwner, "owner", false, "send from the book owner's side of the thread")
	return cmd
}

func newLoginCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login USERNAME",
		Short: "Log in and print the session cookie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.readPassword("Password: ")
			if err != nil {
				return err
			}

			err = a.client.Login(cmd.Context(), args[0], password)
			if errors.Is(err, clients.ErrInvalidCredentials) {
				a.prompter.Alert("Invalid credentials")
				return reported(err)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Logged in as %s\n", args[0])
			if cookie := a.client.SessionCookie(); cookie != "" {
				fmt.Fprintf(a.stdout, "Session cookie: %s (set BOOKBANK_SESSION_COOKIE to reuse it)\n", cookie)
			}
			return nil
		},
	}
}

func (a *app) deleteBook(ctx context.Context, id lending.BookID) error {
	return a.dispatcher.DeleteBook(ctx, id)
}

func (a *app) requestBook(ctx context.Context, id lending.BookID) error {
	return a.dispatcher.RequestBook(ctx, id)
}

func (a *app) accept(ctx context.Context, id lending.RequestID) error {
	return a.dispatcher.AcceptRequest(ctx, id)
}

func (a *app) reject(ctx context.Context, id lending.RequestID) error {
	return a.dispatcher.RejectRequest(ctx, id)
}

func (a *app) complete(ctx context.Context, id lending.RequestID) error {
	return a.dispatcher.CompleteRequest(ctx, id)
}

func (a *app) transfer(ctx context.Context, id lending.RequestID) error {
	return a.dispatcher.TransferOwnership(ctx, id)
}

func (a *app) initiateReturn(ctx context.Context, id lending.RequestID) error {
	return a.dispatcher.InitiateReturn(ctx, id)
}

func (a *app) deleteRequest(ctx context.Context, id lending.RequestID) error {
	return a.dispatcher.DeleteRequest(ctx, id)
}
