package lending

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultThumbnail is submitted when a new book has no thumbnail of its own.
const DefaultThumbnail = "default.png"

// PlaceholderImage is shown in place of a thumbnail that cannot be loaded.
const PlaceholderImage = "static/default.png"

// BookID identifies a book on the server.
type BookID int64

// RequestID identifies a loan request on the server.
type RequestID int64

// Book is the client's transient copy of a server-owned book.
type Book struct {
	ID             BookID `json:"id"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	Genre          string `json:"genre"`
	Condition      string `json:"condition"`
	Thumbnail      string `json:"thumbnail"`
	Holder         string `json:"holder"`
	Owner          string `json:"owner"`
	PossessedSince string `json:"possessed_since"`
}

// ChatMessage is one line of a request's chat thread.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	CreatedAt Timestamp `json:"created_at"`
}

// RequestStatus mirrors the states the server reports for a loan request.
// The client only displays them.
type RequestStatus string

const (
	StatusOpen            RequestStatus = "open"
	StatusAccepted        RequestStatus = "accepted"
	StatusRejected        RequestStatus = "rejected"
	StatusReturnInitiated RequestStatus = "return_initiated"
	StatusCompleted       RequestStatus = "completed"
)

// BookForm holds the fields of the add-book form.
type BookForm struct {
	Title     string
	Author    string
	Genre     string
	Condition string
	Thumbnail string
}

// Validate reports ErrMissingFields when title or condition is blank.
func (f BookForm) Validate() error {
	if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Condition) == "" {
		return ErrMissingFields
	}
	return nil
}

// Normalize returns the form as it is submitted.
func (f BookForm) Normalize() BookForm {
	if strings.TrimSpace(f.Thumbnail) == "" {
		f.Thumbnail = DefaultThumbnail
	}
	return f
}

// Fields lists the multipart form fields in submission order.
func (f BookForm) Fields() [][2]string {
	return [][2]string{
		{"title", f.Title},
		{"author", f.Author},
		{"genre", f.Genre},
		{"condition", f.Condition},
		{"thumbnail", f.Thumbnail},
	}
}

// Timestamp decodes the server's created_at values. A value without a zone
// offset is naive: its wall clock is shown as-is in every location, which is
// how a browser renders it. A value that cannot be parsed decodes to the zero
// time with Raw holding what the server sent.
type Timestamp struct {
	time.Time
	Naive bool
	Raw   string
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = Timestamp{Raw: string(data)}
		return nil
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		*t = Timestamp{Raw: s}
		return nil
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	if t.Naive {
		return json.Marshal(t.Format("2006-01-02T15:04:05.999999"))
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// Invalid reports whether the server sent a value that could not be parsed.
func (t Timestamp) Invalid() bool {
	return t.Raw != "" && t.IsZero()
}

// In returns the instant as a wall clock in loc. Naive values are returned unchanged.
func (t Timestamp) In(loc *time.Location) time.Time {
	if t.Naive || loc == nil {
		return t.Time
	}
	return t.Time.In(loc)
}

// ParseTimestamp accepts RFC 3339 and naive ISO-8601 values.
func ParseTimestamp(s string) (Timestamp, error) {
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: parsed}, nil
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: parsed, Naive: true}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognised timestamp %q", s)
}
