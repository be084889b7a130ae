package lendingtest

import (
	"net/http"
	"strings"

	"bookbank/internal/lending"
)

type jsonMap = map[string]interface{}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.Books())
}

func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusOK, jsonMap{"ok": false, "error": err.Error()})
		return
	}
	form := flatten(r.MultipartForm.Value)
	for _, field := range []string{"title", "author", "genre", "condition", "thumbnail"} {
		if _, ok := form[field]; !ok {
			writeJSON(w, http.StatusOK, jsonMap{"ok": false, "error": "missing field " + field})
			return
		}
	}

	s.Store.AddBook(lending.Book{
		Title:     form["title"],
		Author:    form["author"],
		Genre:     form["genre"],
		Condition: form["condition"],
		Thumbnail: form["thumbnail"],
	}, s.currentUser(r))
	writeJSON(w, http.StatusOK, jsonMap{"ok": true, "message": "Book added successfully"})
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusOK, jsonMap{"error": "Book not found"})
		return
	}

	s.Store.mu.Lock()
	defer s.Store.mu.Unlock()
	rec, found := s.Store.books[lending.BookID(id)]
	switch {
	case !found:
		writeJSON(w, http.StatusOK, jsonMap{"error": "Book not found"})
	case rec.owner != s.currentUser(r):
		writeJSON(w, http.StatusOK, jsonMap{"error": "Unauthorized"})
	default:
		delete(s.Store.books, rec.book.ID)
		writeJSON(w, http.StatusOK, jsonMap{"ok": true, "message": "Book deleted successfully"})
	}
}

func (s *Server) handleRequestBook(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	user := s.currentUser(r)

	s.Store.mu.Lock()
	defer s.Store.mu.Unlock()
	rec, found := s.Store.books[lending.BookID(id)]
	if !ok || !found {
		writeJSON(w, http.StatusNotFound, jsonMap{"error": "Not found"})
		return
	}
	if rec.owner == user {
		writeJSON(w, http.StatusBadRequest, jsonMap{"error": "You can't request your own book"})
		return
	}
	for _, req := range s.Store.requests {
		if req.bookID == rec.book.ID && req.requester == user {
			writeJSON(w, http.StatusOK, jsonMap{"message": "Already requested"})
			return
		}
	}
	s.Store.addRequestLocked(rec.book.ID, user)
	writeJSON(w, http.StatusOK, jsonMap{"ok": true, "message": "Request sent successfully"})
}

// lookupRequest resolves the {id} request and its book. Callers hold Store.mu.
func (s *Server) lookupRequest(w http.ResponseWriter, r *http.Request) (*requestRecord, *bookRecord, bool) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, jsonMap{"error": "Not found"})
		return nil, nil, false
	}
	req, found := s.Store.requests[lending.RequestID(id)]
	if !found {
		writeJSON(w, http.StatusNotFound, jsonMap{"error": "Not found"})
		return nil, nil, false
	}
	return req, s.Store.books[req.bookID], true
}

func (s *Server) handleTransition(status lending.RequestStatus, ownerOnly bool) http.HandlerFunc {
	verb := strings.TrimSuffix(string(status), "ed")
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)

		s.Store.mu.Lock()
		defer s.Store.mu.Unlock()
		req, book, ok := s.lookupRequest(w, r)
		if !ok {
			return
		}

		isOwner := book != nil && book.owner == user
		if ownerOnly && !isOwner {
			writeJSON(w, http.StatusForbidden, jsonMap{"error": "Only owner can " + verb})
			return
		}
		if !ownerOnly && !isOwner && req.requester != user {
			writeJSON(w, http.StatusForbidden, jsonMap{"error": "Not allowed"})
			return
		}

		req.status = status
		if book != nil {
			switch status {
			case lending.StatusAccepted:
				book.book.Holder = req.requester
			case lending.StatusCompleted:
				book.book.Holder = book.owner
			}
		}
		writeJSON(w, http.StatusOK, jsonMap{"ok": true, "message": messageFor(status)})
	}
}

func messageFor(status lending.RequestStatus) string {
	switch status {
	case lending.StatusAccepted:
		return "Request accepted"
	case lending.StatusRejected:
		return "Request rejected"
	case lending.StatusReturnInitiated:
		return "Return initiated"
	case lending.StatusCompleted:
		return "Request completed"
	default:
		return ""
	}
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)

	s.Store.mu.Lock()
	defer s.Store.mu.Unlock()
	req, book, ok := s.lookupRequest(w, r)
	if !ok {
		return
	}
	if book == nil || book.owner != user {
		writeJSON(w, http.StatusForbidden, jsonMap{"error": "Only owner can transfer"})
		return
	}

	book.owner = req.requester
	book.book.Owner = req.requester
	book.book.Holder = req.requester
	book.book.PossessedSince = s.Store.now().UTC().Format("2006-01-02")
	req.status = lending.StatusCompleted
	writeJSON(w, http.StatusOK, jsonMap{"ok": true, "message": "Ownership transferred"})
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)

	s.Store.mu.Lock()
	defer s.Store.mu.Unlock()
	req, book, ok := s.lookupRequest(w, r)
	if !ok {
		return
	}

	isRequester := req.requester == user
	isOwner := book != nil && book.owner == user
	if !isRequester && !isOwner {
		writeJSON(w, http.StatusForbidden, jsonMap{"error": "Only requester or owner can delete request"})
		return
	}
	if isRequester && !isOwner {
		switch req.status {
		case lending.StatusOpen, lending.StatusRejected, lending.StatusCompleted:
		default:
			writeJSON(w, http.StatusForbidden, jsonMap{"error": "Requester can delete only while request is open or rejected or completed"})
			return
		}
	}

	delete(s.Store.chats, req.id)
	delete(s.Store.requests, req.id)
	writeJSON(w, http.StatusOK, jsonMap{"ok": true, "message": "Request deleted"})
}

func (s *Server) handleListChat(w http.ResponseWriter, r *http.Request) {
	if !s.chatAllowed(w, r) {
		return
	}
	id, _ := idParam(r)
	messages := s.Store.Messages(lending.RequestID(id))
	if messages == nil {
		messages = []lending.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleSendChat(w http.ResponseWriter, r *http.Request) {
	if !s.chatAllowed(w, r) {
		return
	}
	message := r.PostFormValue("message")
	if message == "" {
		writeJSON(w, http.StatusBadRequest, jsonMap{"error": "Message required"})
		return
	}
	id, _ := idParam(r)
	s.Store.AddMessage(lending.RequestID(id), s.currentUser(r), message, s.Store.now())
	writeJSON(w, http.StatusOK, jsonMap{"ok": true, "message": "Message sent"})
}

func (s *Server) chatAllowed(w http.ResponseWriter, r *http.Request) bool {
	user := s.currentUser(r)

	s.Store.mu.Lock()
	defer s.Store.mu.Unlock()
	req, book, ok := s.lookupRequest(w, r)
	if !ok {
		return false
	}
	if req.requester != user && (book == nil || book.owner != user) {
		writeJSON(w, http.StatusForbidden, jsonMap{"error": "Not allowed"})
		return false
	}
	return true
}
