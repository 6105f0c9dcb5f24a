package call

import "time"

// Stats is a snapshot of one call, used for the end-of-call summary.
type Stats struct {
	Room         string
	Identity     string
	PeerIdentity string
	PeerID       string
	State        string

	StartedAt   time.Time
	ConnectedAt time.Time

	OffersSent            int
	AnswersSent           int
	RemoteAnswersApplied  int
	Renegotiations        int
	RenegotiationsDropped int
	RenegotiationAnswers  int
	CandidatesSent        int
	CandidatesReceived    int
	RemoteTracks          int
	Transports            int
	Errors                int
}

// Duration is how long the call has been connected.
func (s Stats) Duration(now time.Time) time.Duration {
	if s.ConnectedAt.IsZero() {
		return 0
	}
	return now.Sub(s.ConnectedAt)
}
