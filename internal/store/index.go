package store

import (
	"sort"
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
)

// lineRange is the [start, end) byte range of one journal line.
type lineRange struct {
	start int64
	end   int64
}

// nodeIndex accumulates one node's summary and the byte ranges of its
// lines, so NodeLog can read them back with file.ReadAt.
type nodeIndex struct {
	summary   NodeSummary
	lines     []lineRange
	lastAt    time.Duration
	hasLast   bool
	intervals time.Duration
	count     int
}

// fileIndex is updated by onAppend as each event is written.
type fileIndex struct {
	nodes       map[int]*nodeIndex
	events      int
	flashes     int
	commands    int
	errors      int
	lastMessage string
}

func newFileIndex() *fileIndex {
	return &fileIndex{nodes: make(map[int]*nodeIndex)}
}

// onAppend records an event written at lineOffset spanning lineLen bytes
// (trailing newline included). Swarm-level events carry a negative node id
// and only count toward the session totals.
func (idx *fileIndex) onAppend(ev firefly.Event, lineOffset, lineLen int64) {
	idx.events++
	if ev.Message != "" {
		idx.lastMessage = ev.Message
	}
	switch ev.Kind {
	case firefly.EventFlash:
		idx.flashes++
	case firefly.EventCommand, firefly.EventRemote:
		idx.commands++
	case firefly.EventError:
		idx.errors++
	}
	if ev.Node < 0 {
		return
	}

	n := idx.nodes[ev.Node]
	if n == nil {
		n = &nodeIndex{summary: NodeSummary{Node: ev.Node}}
		idx.nodes[ev.Node] = n
	}
	n.lines = append(n.lines, lineRange{start: lineOffset, end: lineOffset + lineLen})
	n.summary.SyncEnabled = ev.SyncEnabled

	s := &n.summary
	switch ev.Kind {
	case firefly.EventFlash:
		s.Flashes++
		if s.FirstFlash.IsZero() {
			s.FirstFlash = ev.Timestamp
		}
		s.LastFlash = ev.Timestamp
		if n.hasLast && ev.At > n.lastAt {
			n.intervals += ev.At - n.lastAt
			n.count++
			s.MeanInterval = n.intervals / time.Duration(n.count)
		}
		n.lastAt, n.hasLast = ev.At, true
	case firefly.EventNeighborFlash:
		s.NeighborFlashes++
	case firefly.EventCommand:
		s.Commands++
	case firefly.EventRemote:
		s.Remotes++
	case firefly.EventError:
		s.Errors++
	}
}

// summaries returns node summaries ordered by node id.
func (idx *fileIndex) summaries() []NodeSummary {
	out := make([]NodeSummary, 0, len(idx.nodes))
	for _, n := range idx.nodes {
		out = append(out, n.summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })
	return out
}
