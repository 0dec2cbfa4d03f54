package registry

import "sync"

// Interner assigns dense uint32 IDs to content type UIDs so sets of types can
// be kept in bitmaps.
type Interner struct {
	mu    sync.Mutex
	ids   map[string]uint32
	names []string
}

func NewInterner() *Interner {
	return &Interner{ids: make(map[string]uint32)}
}

// ID returns the ID for uid, assigning the next one on first use.
func (in *Interner) ID(uid string) uint32 {
	in.mu.Lock()
	defer in.mu.Unlock()

	if id, ok := in.ids[uid]; ok {
		return id
	}
	id := uint32(len(in.names))
	in.ids[uid] = id
	in.names = append(in.names, uid)
	return id
}

// UID returns the UID for id, or "" if id was never assigned.
func (in *Interner) UID(id uint32) string {
	in.mu.Lock()
	defer in.mu.Unlock()

	if int(id) >= len(in.names) {
		return ""
	}
	return in.names[id]
}
