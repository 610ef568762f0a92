package core

import "sync"

// RemoteStream collects remote tracks as they arrive. It is owned jointly
// with the media transport: teardown clears it but does not stop the tracks.
type RemoteStream struct {
	mu     sync.Mutex
	id     string
	tracks []RemoteTrack
}

func NewRemoteStream(id string) *RemoteStream {
	return &RemoteStream{id: id}
}

func (s *RemoteStream) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *RemoteStream) AddTrack(t RemoteTrack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.tracks {
		if have.ID() == t.ID() {
			return
		}
	}
	s.tracks = append(s.tracks, t)
}

func (s *RemoteStream) Tracks() []RemoteTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RemoteTrack, len(s.tracks))
	copy(out, s.tracks)
	return out
}

func (s *RemoteStream) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = nil
}
