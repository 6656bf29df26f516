package user

// IDSet is an insertion-ordered set of ids. The zero value is ready to use.
type IDSet struct {
	ids  []string
	seen map[string]struct{}
}

func (s *IDSet) Add(id string) {
	if id == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *IDSet) Merge(other *IDSet) {
	for _, id := range other.ids {
		s.Add(id)
	}
}

func (s *IDSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *IDSet) Len() int {
	return len(s.ids)
}

// DeferredIDSets holds the ids queued during a run for bulk bookkeeping
// once the stream is exhausted.
type DeferredIDSets struct {
	NewUsers      IDSet
	DeletedUsers  IDSet
	UsersToStamp  IDSet
	LoginsToStamp IDSet
}

func (d *DeferredIDSets) Merge(other *DeferredIDSets) {
	d.NewUsers.Merge(&other.NewUsers)
	d.DeletedUsers.Merge(&other.DeletedUsers)
	d.UsersToStamp.Merge(&other.UsersToStamp)
	d.LoginsToStamp.Merge(&other.LoginsToStamp)
}
