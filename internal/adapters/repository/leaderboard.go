package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/okian/ecomap/internal/domain/model"
	"github.com/okian/ecomap/pkg/metrics"
)

// Treap-based, in-memory Leaderboard.
//
// Ordering: points DESC, then participant id ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the
// leaderboard from best to worst. Every node carries its subtree size,
// which makes Rank O(log n) expected.

type node struct {
	id     string
	points int
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aPoints, aID) should appear before (bPoints, bID).
func less(aPoints int, aID string, bPoints int, bID string) bool {
	if aPoints != bPoints {
		return aPoints > bPoints
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n, nn *node) *node {
	if n == nil {
		nn.size = 1
		return nn
	}
	if less(nn.points, nn.id, n.points, n.id) {
		n.left = insert(n.left, nn)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, nn)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, points int) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.id == id && n.points == points:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, points)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, points)
		}
	case less(points, id, n.points, n.id):
		n.left = deleteNode(n.left, id, points)
	default:
		n.right = deleteNode(n.right, id, points)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes have strictly more than points.
func countAbove(n *node, points int) int {
	count := 0
	for n != nil {
		if n.points > points {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit nodes in rank order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

type member struct {
	node   *node
	name   string
	events int
}

// TreapLeaderboard implements Leaderboard.
type TreapLeaderboard struct {
	mu   sync.RWMutex
	root *node
	byID map[string]*member
	rng  *rand.Rand
	seed uint64
}

var _ Leaderboard = (*TreapLeaderboard)(nil)

// NewTreapLeaderboard constructs an empty leaderboard.
func NewTreapLeaderboard(opts ...Option) *TreapLeaderboard {
	l := &TreapLeaderboard{
		byID: make(map[string]*member),
		seed: uint64(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.rng = rand.New(rand.NewPCG(l.seed, l.seed^0x9e3779b97f4a7c15))
	return l
}

// Register adds or replaces a participant.
func (l *TreapLeaderboard) Register(_ context.Context, p model.Participant) error {
	if p.ID == "" {
		return fmt.Errorf("%w: id must not be empty", ErrInvalidMember)
	}
	if p.Points < 0 {
		return fmt.Errorf("participant %q: %w", p.ID, ErrInvalidPoints)
	}

	l.mu.Lock()
	if m, ok := l.byID[p.ID]; ok {
		l.root = deleteNode(l.root, p.ID, m.node.points)
	}
	name := p.Name
	if name == "" {
		name = p.ID
	}
	m := &member{node: &node{id: p.ID, points: p.Points, prio: l.rng.Uint64()}, name: name, events: p.Events}
	l.byID[p.ID] = m
	l.root = insert(l.root, m.node)
	count := len(l.byID)
	l.mu.Unlock()

	metrics.UpdateLeaderboardMembers(count)
	return nil
}

// Credit adds points for one joined event in O(log n) expected time.
func (l *TreapLeaderboard) Credit(_ context.Context, participantID string, points int) (Entry, error) {
	if points < 0 {
		return Entry{}, fmt.Errorf("participant %q: %w", participantID, ErrInvalidPoints)
	}

	l.mu.Lock()
	m, ok := l.byID[participantID]
	isNew := !ok
	if ok {
		l.root = deleteNode(l.root, participantID, m.node.points)
		m.node.points += points
		m.node.left, m.node.right = nil, nil
	} else {
		m = &member{node: &node{id: participantID, points: points, prio: l.rng.Uint64()}, name: participantID}
		l.byID[participantID] = m
	}
	m.events++
	l.root = insert(l.root, m.node)
	entry := l.entryLocked(m)
	count := len(l.byID)
	l.mu.Unlock()

	if isNew {
		metrics.UpdateLeaderboardMembers(count)
	}
	metrics.RecordRewardCredited(points)
	return entry, nil
}

// Rank returns the current rank of a participant. Participants with equal
// points share a rank.
func (l *TreapLeaderboard) Rank(_ context.Context, participantID string) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.byID[participantID]
	if !ok {
		return Entry{}, fmt.Errorf("participant %q: %w", participantID, ErrNotFound)
	}
	return l.entryLocked(m), nil
}

// TopN returns the top n entries.
func (l *TreapLeaderboard) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(l.byID)))
	collectTopN(l.root, n, &nodes)

	out := make([]Entry, len(nodes))
	for i, nd := range nodes {
		m := l.byID[nd.id]
		rank := i + 1
		if i > 0 && nd.points == nodes[i-1].points {
			rank = out[i-1].Rank
		}
		out[i] = Entry{Rank: rank, ParticipantID: nd.id, Name: m.name, Points: nd.points, Events: m.events}
	}
	return out, nil
}

// Standings returns the known participants among ids ordered like TopN, with
// competition ranks counted within that group. Unknown and repeated ids are
// skipped.
func (l *TreapLeaderboard) Standings(_ context.Context, ids []string) []Entry {
	l.mu.RLock()
	out := make([]Entry, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m, ok := l.byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Entry{ParticipantID: id, Name: m.name, Points: m.node.points, Events: m.events})
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return less(out[i].Points, out[i].ParticipantID, out[j].Points, out[j].ParticipantID)
	})
	for i := range out {
		out[i].Rank = i + 1
		if i > 0 && out[i].Points == out[i-1].Points {
			out[i].Rank = out[i-1].Rank
		}
	}
	return out
}

// Count returns the number of participants.
func (l *TreapLeaderboard) Count(_ context.Context) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}

func (l *TreapLeaderboard) entryLocked(m *member) Entry {
	return Entry{
		Rank:          countAbove(l.root, m.node.points) + 1,
		ParticipantID: m.node.id,
		Name:          m.name,
		Points:        m.node.points,
		Events:        m.events,
	}
}
