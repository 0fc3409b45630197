package player

// Player is a match participant: its identity, score, owned-thread list
// (oldest first, used by KillOldestThread), and the color the event
// surface reports alongside its threads.
type Player struct {
	ID      uint32
	Name    string
	Token   string
	Score   uint64
	Color   Color
	Threads []uint64
}

// Registry holds every player in a match. It has no lock of its own: a
// Registry is always reached through a scheduler.Scheduler, whose mutex
// already serializes every call into it.
type Registry struct {
	players    map[uint32]*Player
	usedColors []Color
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{players: make(map[uint32]*Player)}
}

// Add registers a new player, assigning it a color distinct from every
// player already registered. Adding an id that already exists is a no-op
// that reports false.
func (r *Registry) Add(id uint32, name, token string) bool {
	if _, exists := r.players[id]; exists {
		return false
	}
	color := nextColor(r.usedColors)
	r.usedColors = append(r.usedColors, color)
	r.players[id] = &Player{ID: id, Name: name, Token: token, Color: color}
	return true
}

// Get looks up a player by id.
func (r *Registry) Get(id uint32) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// AppendThread records threadID as owned by playerID, at the tail of its
// thread list. It is a no-op if playerID is unknown.
func (r *Registry) AppendThread(playerID uint32, threadID uint64) {
	if p, ok := r.players[playerID]; ok {
		p.Threads = append(p.Threads, threadID)
	}
}

// RemoveThread drops threadID from playerID's thread list, wherever it is.
func (r *Registry) RemoveThread(playerID uint32, threadID uint64) {
	p, ok := r.players[playerID]
	if !ok {
		return
	}
	for i, id := range p.Threads {
		if id == threadID {
			p.Threads = append(p.Threads[:i], p.Threads[i+1:]...)
			return
		}
	}
}

// OldestThread returns the id of playerID's longest-lived thread, the one
// KillOldestThread removes first.
func (r *Registry) OldestThread(playerID uint32) (uint64, bool) {
	p, ok := r.players[playerID]
	if !ok || len(p.Threads) == 0 {
		return 0, false
	}
	return p.Threads[0], true
}

// ThreadCount reports how many threads playerID currently owns.
func (r *Registry) ThreadCount(playerID uint32) int {
	p, ok := r.players[playerID]
	if !ok {
		return 0
	}
	return len(p.Threads)
}
