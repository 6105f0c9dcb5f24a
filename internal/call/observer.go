package call

// Observer is told about call progress. Methods are called from the call's
// Run goroutine and must not block.
type Observer interface {
	Joined(room, identity string)
	PeerJoined(identity, connectionID string)
	Calling(peer string)
	IncomingCall(peer string)
	Connected(peer string)
	StateChanged(state string)
	RemoteTrack(kind, codec string)
	Error(err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Joined(string, string)      {}
func (NopObserver) PeerJoined(string, string)  {}
func (NopObserver) Calling(string)             {}
func (NopObserver) IncomingCall(string)        {}
func (NopObserver) Connected(string)           {}
func (NopObserver) StateChanged(string)        {}
func (NopObserver) RemoteTrack(string, string) {}
func (NopObserver) Error(error)                {}
