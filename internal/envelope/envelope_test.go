package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDecodeEnvelopePolicy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Result
	}{
		{"ok", 200, `{"ok":true,"message":"Book added successfully"}`, Success{Message: "Book added successfully"}},
		{"ok without message", 200, `{"ok":true}`, Success{}},
		{"ok false", 200, `{"ok":false,"error":"not found"}`, Failure{Status: 200, Error: "not found"}},
		{"missing ok", 200, `{"error":"Unauthorized"}`, Failure{Status: 200, Error: "Unauthorized"}},
		{"non-2xx with ok", 500, `{"ok":true,"message":"x"}`, Failure{Status: 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.status, []byte(tt.body), PolicyEnvelope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeStatusPolicy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Result
	}{
		{"message", 200, `{"message":"Request sent successfully"}`, Success{Message: "Request sent successfully"}},
		{"ok false is ignored", 200, `{"ok":false}`, Success{}},
		{"forbidden", 403, `{"error":"Only owner can accept"}`, Failure{Status: 403, Error: "Only owner can accept"}},
		{"not found empty object", 404, `{}`, Failure{Status: 404}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.status, []byte(tt.body), PolicyStatus)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRejectsUnreadableBodies(t *testing.T) {
	for _, body := range []string{"", "   ", "<html>oops</html>", `["a"]`} {
		_, err := Decode(200, []byte(body), PolicyStatus)
		assert.Error(t, err, "body %q", body)
	}

	_, err := Decode(200, []byte(`{}`), Policy(0))
	assert.Error(t, err)
}

func TestDecodeNon2xxIsNeverSuccess(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		status := rapid.OneOf(rapid.IntRange(100, 199), rapid.IntRange(300, 599)).Draw(t, "status")
		ok := rapid.Bool().Draw(t, "ok")
		msg := rapid.String().Draw(t, "message")
		p := rapid.SampledFrom([]Policy{PolicyStatus, PolicyEnvelope}).Draw(t, "policy")

		body, err := json.Marshal(map[string]interface{}{"ok": ok, "message": msg})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		got, err := Decode(status, body, p)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, isSuccess := got.(Success); isSuccess {
			t.Fatalf("status %d decoded as success under %s", status, p)
		}
	})
}

func TestFeedback(t *testing.T) {
	texts := Texts{
		Success:       "Book deleted successfully!",
		Failure:       "Failed to delete",
		FailurePrefix: "Error deleting book: ",
		Transport:     "Error deleting book",
	}

	assert.Equal(t, "Book deleted successfully!", texts.Feedback(Success{}, PolicyEnvelope))
	assert.Equal(t, "gone", texts.Feedback(Success{Message: "gone"}, PolicyEnvelope))
	assert.Equal(t, "Error deleting book: not found", texts.Feedback(Failure{Error: "not found"}, PolicyEnvelope))
	assert.Equal(t, "Error deleting book: unknown error", texts.Feedback(Failure{}, PolicyEnvelope))
	assert.Equal(t, "Only owner can accept", texts.Feedback(Failure{Error: "Only owner can accept"}, PolicyStatus))
	assert.Equal(t, "Failed to delete", texts.Feedback(Failure{Status: 500}, PolicyStatus))
	assert.Equal(t, "Error deleting book", texts.Feedback(nil, PolicyStatus))
}
