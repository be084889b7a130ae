package envelope

// Texts holds the user-facing strings for one endpoint.
type Texts struct {
	// Success is shown when a Success carries no message.
	Success string
	// Failure is shown when a status-policy Failure carries no error.
	Failure string
	// FailurePrefix is prepended to envelope-policy errors.
	FailurePrefix string
	// Transport is shown when the call or the decode fails.
	Transport string
}

const unknownError = "unknown error"

// Feedback returns the alert text for r under policy p.
func (t Texts) Feedback(r Result, p Policy) string {
	switch r := r.(type) {
	case Success:
		if r.Message != "" {
			return r.Message
		}
		return t.Success
	case Failure:
		if p == PolicyEnvelope {
			msg := r.Error
			if msg == "" {
				msg = unknownError
			}
			return t.FailurePrefix + msg
		}
		if r.Error != "" {
			return r.Error
		}
		return t.Failure
	default:
		return t.Transport
	}
}
