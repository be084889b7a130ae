package prompt

import "sync"

// Recorder is a scripted prompter. It keeps every alert and question and
// answers confirmations with Answer.
type Recorder struct {
	Answer bool

	mu        sync.Mutex
	alerts    []string
	questions []string
}

func NewRecorder(answer bool) *Recorder {
	return &Recorder{Answer: answer}
}

func (r *Recorder) Alert(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, message)
}

func (r *Recorder) Confirm(question string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions = append(r.questions, question)
	return r.Answer
}

func (r *Recorder) Alerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.alerts...)
}

func (r *Recorder) Questions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.questions...)
}
