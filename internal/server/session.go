package server

import "sync"

type dialogState int

const (
	stateIdle dialogState = iota
	stateBroadcastGroup
	stateBroadcastText
)

// session is what the bot remembers about a chat between updates.
type session struct {
	group          string
	state          dialogState
	broadcastGroup string
}

type sessions struct {
	mu     sync.Mutex
	byChat map[int64]*session
}

func newSessions() *sessions {
	return &sessions{byChat: make(map[int64]*session)}
}

func (ss *sessions) get(chatID int64) session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if s, ok := ss.byChat[chatID]; ok {
		return *s
	}
	return session{}
}

func (ss *sessions) update(chatID int64, fn func(*session)) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.byChat[chatID]
	if !ok {
		s = &session{}
		ss.byChat[chatID] = s
	}
	fn(s)
}

// endDialog drops a pending broadcast but keeps the chosen group.
func (ss *sessions) endDialog(chatID int64) {
	ss.update(chatID, func(s *session) {
		s.state = stateIdle
		s.broadcastGroup = ""
	})
}
