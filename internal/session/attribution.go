package session

// StaleAfter is how long an issue with no recorded time survives.
const StaleAfter = 24 * 60 * 60

// Claim reassigns every unattributed chunk to key and returns the number
// claimed. If key is already active, the claimed duration is added to its
// total. Attributed chunks are never touched.
func (s *Session) Claim(key string) int {
	if key == "" {
		return 0
	}
	var claimed int
	var seconds int64
	for i := range s.Chunks {
		if s.Chunks[i].Issue.IsAttributed() {
			continue
		}
		s.Chunks[i].Issue = Attributed(key)
		seconds += s.Chunks[i].Duration()
		claimed++
	}
	if ai, ok := s.ActiveIssues[key]; ok && ai != nil {
		ai.TotalSeconds += seconds
	}
	return claimed
}

// PruneStale drops issues older than StaleAfter that carry no time and no
// chunks. It returns the removed keys.
func (s *Session) PruneStale(now int64) []string {
	return s.prune(func(key string, ai *ActiveIssue) bool {
		return now-ai.StartTime > StaleAfter
	})
}

// PruneGhosts drops paused issues that carry no time and no chunks.
func (s *Session) PruneGhosts() []string {
	return s.prune(func(key string, ai *ActiveIssue) bool {
		return ai.Paused
	})
}

func (s *Session) prune(match func(string, *ActiveIssue) bool) []string {
	var removed []string
	for _, key := range s.IssueKeys() {
		ai := s.ActiveIssues[key]
		if ai.TotalSeconds != 0 || s.chunkCount(key) > 0 || !match(key, ai) {
			continue
		}
		delete(s.ActiveIssues, key)
		if s.CurrentIssue.Is(key) {
			s.CurrentIssue = Unattributed
		}
		removed = append(removed, key)
	}
	return removed
}

func (s *Session) chunkCount(key string) int {
	var n int
	for _, c := range s.Chunks {
		if c.Issue.Is(key) {
			n++
		}
	}
	return n
}

// RemoveChunks drops chunks attributed to any of keys, plus unattributed
// chunks when dropUnattributed is set.
func (s *Session) RemoveChunks(keys map[string]bool, dropUnattributed bool) {
	kept := s.Chunks[:0]
	for _, c := range s.Chunks {
		key, ok := c.Issue.Key()
		if (ok && keys[key]) || (!ok && dropUnattributed) {
			continue
		}
		kept = append(kept, c)
	}
	s.Chunks = kept
}
