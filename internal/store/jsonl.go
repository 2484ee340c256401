package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/logging"
)

// JSONL is a Store backed by an append-only JSONL file. Each line is a
// JSON-serialized firefly.Event.
//
// Session identity: "<unix-timestamp>-<pid>.jsonl", so names sort
// chronologically.
type JSONL struct {
	file      *os.File
	mu        sync.Mutex
	idx       *fileIndex
	sessionID string
	startedAt time.Time
	pos       int64 // current write position in the file
	fsync     bool
	log       *slog.Logger
}

// Option configures a JSONL journal.
type Option func(*JSONL)

// WithSync fsyncs the file after every Append.
func WithSync() Option { return func(j *JSONL) { j.fsync = true } }

// WithLogger reports skipped lines on read-back.
func WithLogger(l *slog.Logger) Option { return func(j *JSONL) { j.log = l } }

// NewJSONL creates the session journal in dir. dir is created with
// os.MkdirAll if it does not exist.
func NewJSONL(dir string, opts ...Option) (*JSONL, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: mkdir %q: %w", dir, err)
	}
	now := time.Now()
	sessionID := fmt.Sprintf("%d-%d", now.Unix(), os.Getpid())
	path := filepath.Join(dir, sessionID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	pos, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("store: seek: %w", err)
	}
	j := &JSONL{
		file:      f,
		idx:       newFileIndex(),
		sessionID: sessionID,
		startedAt: now,
		pos:       pos,
		log:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Path returns the journal file path.
func (j *JSONL) Path() string { return j.file.Name() }

// Append serializes ev as a JSON line and writes it to the file.
// It is safe to call from multiple goroutines.
func (j *JSONL) Append(ev firefly.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	lineOffset := j.pos
	if _, err := j.file.Write(data); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	if j.fsync {
		if err := j.file.Sync(); err != nil {
			return fmt.Errorf("store: sync: %w", err)
		}
	}
	lineLen := int64(len(data))
	j.pos += lineLen
	j.idx.onAppend(ev, lineOffset, lineLen)
	return nil
}

// Close closes the underlying file.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// Nodes returns per-node summaries ordered by node id.
func (j *JSONL) Nodes() ([]NodeSummary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.idx.summaries(), nil
}

// NodeLog returns every journaled event of one node, reading the file
// through the in-memory byte-offset index.
func (j *JSONL) NodeLog(node int) ([]firefly.Event, error) {
	j.mu.Lock()
	n, ok := j.idx.nodes[node]
	var lines []lineRange
	if ok {
		lines = append(lines, n.lines...)
	}
	j.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("store: node %d not found", node)
	}

	var events []firefly.Event
	for _, r := range lines {
		buf := make([]byte, r.end-r.start)
		if _, err := j.file.ReadAt(buf, r.start); err != nil {
			return nil, fmt.Errorf("store: read node %d: %w", node, err)
		}
		var ev firefly.Event
		if err := json.Unmarshal(buf, &ev); err != nil {
			j.log.Warn("skipping malformed journal line", "node", node, "offset", r.start, "err", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// SessionSummary returns totals for the current session.
func (j *JSONL) SessionSummary() (SessionSummary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.idx.session(j.sessionID, j.startedAt), nil
}

func (idx *fileIndex) session(id string, started time.Time) SessionSummary {
	return SessionSummary{
		SessionID:   id,
		StartedAt:   started,
		Nodes:       len(idx.nodes),
		Events:      idx.events,
		Flashes:     idx.flashes,
		Commands:    idx.commands,
		Errors:      idx.errors,
		LastMessage: idx.lastMessage,
	}
}

// ReadSession rebuilds the summaries of a finished journal file. Malformed
// lines are skipped.
func ReadSession(path string) (SessionSummary, []NodeSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return SessionSummary{}, nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	defer f.Close()

	idx := newFileIndex()
	var offset int64
	var first time.Time
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		n := int64(len(line)) + 1
		var ev firefly.Event
		if err := json.Unmarshal(line, &ev); err == nil {
			if first.IsZero() {
				first = ev.Timestamp
			}
			idx.onAppend(ev, offset, n)
		}
		offset += n
	}
	if err := sc.Err(); err != nil {
		return SessionSummary{}, nil, fmt.Errorf("store: scan %q: %w", path, err)
	}

	id := strings.TrimSuffix(filepath.Base(path), ".jsonl")
	return idx.session(id, first), idx.summaries(), nil
}

// Latest returns the newest journal in dir.
func Latest(dir string) (string, error) {
	files, err := journals(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("store: no journals in %q", dir)
	}
	return filepath.Join(dir, files[len(files)-1]), nil
}

// EnforceRetention removes the oldest journal files in dir, keeping at most
// maxKeep files. If maxKeep is 0, no files are removed. Returns nil if dir
// does not exist or is empty.
func EnforceRetention(dir string, maxKeep int) error {
	if maxKeep <= 0 {
		return nil
	}
	files, err := journals(dir)
	if err != nil {
		return err
	}
	toDelete := len(files) - maxKeep
	for i := 0; i < toDelete; i++ {
		path := filepath.Join(dir, files[i])
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: remove %q: %w", path, err)
		}
	}
	return nil
}

// journals lists journal file names in dir, oldest first.
func journals(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files) // timestamp-prefixed names sort chronologically
	return files, nil
}
