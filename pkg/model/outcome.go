package model

// Status is the visible state of the most recent submission attempt.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "idle"
	}
}

// Outcome is the tagged RequestOutcome. Message is set for StatusSuccess and
// Payload for StatusFailure; both are zero otherwise.
type Outcome struct {
	Status  Status
	Message string
	Payload ErrorPayload
}

// Idle is the outcome before anything has been submitted.
func Idle() Outcome { return Outcome{Status: StatusIdle} }

// Pending marks a submission in flight.
func Pending() Outcome { return Outcome{Status: StatusPending} }

// Success records a completed submission and its confirmation message.
func Success(message string) Outcome {
	return Outcome{Status: StatusSuccess, Message: message}
}

// Failure records a failed submission with the payload to display.
func Failure(payload ErrorPayload) Outcome {
	return Outcome{Status: StatusFailure, Payload: payload}
}

// IsPending reports whether a submission is in flight.
func (o Outcome) IsPending() bool { return o.Status == StatusPending }

// Succeeded reports whether the last submission succeeded.
func (o Outcome) Succeeded() bool { return o.Status == StatusSuccess }

// Failed reports whether the last submission failed.
func (o Outcome) Failed() bool { return o.Status == StatusFailure }
