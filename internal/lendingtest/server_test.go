package lendingtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"bookbank/internal/lending"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func send(t *testing.T, srv *Server, method, path string, form url.Values) (int, map[string]interface{}) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, srv.URL+path, body)
	require.NoError(t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestDeleteBookLegacyEnvelope(t *testing.T) {
	srv := NewServer("ann")
	defer srv.Close()
	mine := srv.Store.AddBook(lending.Book{Title: "Dune"}, "ann")
	theirs := srv.Store.AddBook(lending.Book{Title: "Emma"}, "bob")

	status, body := send(t, srv, http.MethodDelete, "/api/book/99", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Book not found", body["error"])

	_, body = send(t, srv, http.MethodDelete, "/api/book/2", nil)
	assert.Equal(t, "Unauthorized", body["error"])
	_, ok := srv.Store.Book(theirs)
	assert.True(t, ok)

	_, body = send(t, srv, http.MethodDelete, "/api/book/1", nil)
	assert.Equal(t, true, body["ok"])
	_, ok = srv.Store.Book(mine)
	assert.False(t, ok)
}

func TestRequestLifecycle(t *testing.T) {
	srv := NewServer("ann")
	defer srv.Close()
	book := srv.Store.AddBook(lending.Book{Title: "Emma"}, "bob")

	status, body := send(t, srv, http.MethodPost, "/request_book/1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Request sent successfully", body["message"])

	_, body = send(t, srv, http.MethodPost, "/request_book/1", nil)
	assert.Equal(t, "Already requested", body["message"])

	status, body = send(t, srv, http.MethodPost, "/request/1/accept", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Only owner can accept", body["error"])

	srv.SetUser("bob")
	status, _ = send(t, srv, http.MethodPost, "/request/1/accept", nil)
	require.Equal(t, http.StatusOK, status)
	got, _ := srv.Store.Book(book)
	assert.Equal(t, "ann", got.Holder)

	srv.SetUser("ann")
	status, _ = send(t, srv, http.MethodPost, "/request/1/initiate_return", nil)
	require.Equal(t, http.StatusOK, status)
	s, _ := srv.Store.RequestStatus(1)
	assert.Equal(t, lending.StatusReturnInitiated, s)

	srv.SetUser("bob")
	status, _ = send(t, srv, http.MethodPost, "/request/1/complete", nil)
	require.Equal(t, http.StatusOK, status)
	got, _ = srv.Store.Book(book)
	assert.Equal(t, "bob", got.Holder)

	status, _ = send(t, srv, http.MethodPost, "/request/1/transfer_ownership", nil)
	require.Equal(t, http.StatusOK, status)
	got, _ = srv.Store.Book(book)
	assert.Equal(t, "ann", got.Owner)
	assert.Equal(t, "ann", got.Holder)
}

func TestRequestOwnBookAndMissingBook(t *testing.T) {
	srv := NewServer("ann")
	defer srv.Close()
	srv.Store.AddBook(lending.Book{Title: "Dune"}, "ann")

	status, body := send(t, srv, http.MethodPost, "/request_book/1", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You can't request your own book", body["error"])

	status, _ = send(t, srv, http.MethodPost, "/request_book/42", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestChatEndpoints(t *testing.T) {
	srv := NewServer("ann")
	defer srv.Close()
	book := srv.Store.AddBook(lending.Book{Title: "Emma"}, "bob")
	id := srv.Store.AddRequest(book, "ann")

	status, body := send(t, srv, http.MethodPost, "/request/1/chat", url.Values{"message": {""}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Message required", body["error"])

	status, _ = send(t, srv, http.MethodPost, "/request/1/chat", url.Values{"message": {"hello"}})
	require.Equal(t, http.StatusOK, status)

	srv.SetUser("carol")
	status, _ = send(t, srv, http.MethodPost, "/request/1/chat", url.Values{"message": {"hi"}})
	assert.Equal(t, http.StatusForbidden, status)

	messages := srv.Store.Messages(id)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Message)

	calls := srv.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "hello", calls[1].Form["message"])
	assert.Equal(t, 3, srv.CallCount(http.MethodPost, "/request/1/chat"))
}

func TestDeleteRequestDropsChat(t *testing.T) {
	srv := NewServer("ann")
	defer srv.Close()
	book := srv.Store.AddBook(lending.Book{Title: "Emma"}, "bob")
	id := srv.Store.AddRequest(book, "ann")
	srv.Store.AddMessage(id, "ann", "hello", srv.Store.now())

	status, _ := send(t, srv, http.MethodDelete, "/request/1", nil)
	require.Equal(t, http.StatusOK, status)
	_, ok := srv.Store.RequestStatus(id)
	assert.False(t, ok)
	assert.Empty(t, srv.Store.Messages(id))
}

func TestRespondOverridesRoute(t *testing.T) {
	srv := NewServer("ann")
	defer srv.Close()
	srv.Respond(http.MethodPost, "/request/5/reject", http.StatusInternalServerError, `{"error":"boom"}`)

	status, body := send(t, srv, http.MethodPost, "/request/5/reject", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "boom", body["error"])
}
