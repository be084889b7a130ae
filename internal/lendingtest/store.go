package lendingtest

import (
	"sort"
	"sync"
	"time"

	"bookbank/internal/lending"
)

type bookRecord struct {
	book  lending.Book
	owner string
}

type requestRecord struct {
	id        lending.RequestID
	bookID    lending.BookID
	requester string
	status    lending.RequestStatus
}

// Store is the in-memory state behind the fake server.
type Store struct {
	mu       sync.Mutex
	books    map[lending.BookID]*bookRecord
	requests map[lending.RequestID]*requestRecord
	chats    map[lending.RequestID][]lending.ChatMessage
	users    map[string]credential

	nextBook    lending.BookID
	nextRequest lending.RequestID
	nextMessage int64
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		books:    make(map[lending.BookID]*bookRecord),
		requests: make(map[lending.RequestID]*requestRecord),
		chats:    make(map[lending.RequestID][]lending.ChatMessage),
		users:    make(map[string]credential),
		now:      time.Now,
	}
}

// AddUser registers a login. Only a salted hash of password is kept.
func (s *Store) AddUser(username, password string) error {
	cred, err := hashPassword(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = cred
	return nil
}

func (s *Store) checkPassword(username, password string) bool {
	s.mu.Lock()
	cred, ok := s.users[username]
	s.mu.Unlock()
	return ok && cred.matches(password)
}

// AddBook stores b owned and held by owner and returns its id.
func (s *Store) AddBook(b lending.Book, owner string) lending.BookID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBook++
	b.ID = s.nextBook
	b.Owner = owner
	b.Holder = owner
	if b.PossessedSince == "" {
		b.PossessedSince = s.now().UTC().Format("2006-01-02")
	}
	s.books[b.ID] = &bookRecord{book: b, owner: owner}
	return b.ID
}

// Book returns a copy of a stored book.
func (s *Store) Book(id lending.BookID) (lending.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.books[id]
	if !ok {
		return lending.Book{}, false
	}
	return rec.book, true
}

// Books returns every book ordered by id.
func (s *Store) Books() []lending.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	books := make([]lending.Book, 0, len(s.books))
	for _, rec := range s.books {
		books = append(books, rec.book)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books
}

// AddRequest opens a request by requester for a book and returns its id.
func (s *Store) AddRequest(bookID lending.BookID, requester string) lending.RequestID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addRequestLocked(bookID, requester)
}

func (s *Store) addRequestLocked(bookID lending.BookID, requester string) lending.RequestID {
	s.nextRequest++
	s.requests[s.nextRequest] = &requestRecord{
		id:        s.nextRequest,
		bookID:    bookID,
		requester: requester,
		status:    lending.StatusOpen,
	}
	return s.nextRequest
}

// RequestStatus returns a request's status and whether it exists.
func (s *Store) RequestStatus(id lending.RequestID) (lending.RequestStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.requests[id]
	if !ok {
		return "", false
	}
	return rec.status, true
}

// AddMessage appends a chat message with an explicit timestamp.
func (s *Store) AddMessage(id lending.RequestID, sender, text string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendMessageLocked(id, sender, text, at)
}

func (s *Store) appendMessageLocked(id lending.RequestID, sender, text string, at time.Time) {
	s.nextMessage++
	s.chats[id] = append(s.chats[id], lending.ChatMessage{
		ID:        s.nextMessage,
		Sender:    sender,
		Message:   text,
		CreatedAt: lending.Timestamp{Time: at},
	})
}

// Messages returns a request's chat in insertion order.
func (s *Store) Messages(id lending.RequestID) []lending.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]lending.ChatMessage(nil), s.chats[id]...)
}
