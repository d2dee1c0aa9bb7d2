package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"winnow/internal/apply"
	"winnow/internal/classify"
	"winnow/internal/extract"
	"winnow/internal/logging"
	"winnow/internal/page"
	"winnow/internal/settings"
)

// Decision is the per-tile outcome of a scan cycle. A decided tile is never
// resubmitted to the classifier until the decisions are invalidated.
type Decision int

const (
	DecisionUndecided Decision = iota
	DecisionShow
	DecisionSuppress
	DecisionDelete
)

func (d Decision) String() string {
	switch d {
	case DecisionShow:
		return "show"
	case DecisionSuppress:
		return "suppress"
	case DecisionDelete:
		return "delete"
	default:
		return "undecided"
	}
}

// DocumentFunc returns the session's current document. The caller owning the
// scanner serializes document swaps against scans, so the returned document
// stays stable for the duration of one cycle.
type DocumentFunc func() *page.Document

// SnapshotFunc reads one consistent settings snapshot for a cycle.
type SnapshotFunc func(ctx context.Context) (settings.Snapshot, error)

// Scanner owns the decided side-table and the single-flight guard for one
// page session. Construct with New; one scanner per session.
type Scanner struct {
	document DocumentFunc
	snapshot SnapshotFunc
	gateway  classify.Classifier
	logger   *slog.Logger

	inFlight atomic.Bool

	mu      sync.Mutex
	decided map[string]Decision
}

// New builds a scanner over a session document.
func New(document DocumentFunc, snapshot SnapshotFunc, gateway classify.Classifier, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		document: document,
		snapshot: snapshot,
		gateway:  gateway,
		logger:   logger.With(logging.String("component", "scanner")),
		decided:  make(map[string]Decision),
	}
}

// Invalidate clears every decision so the next cycle reconsiders all tiles.
// Called on any settings change and on navigation.
func (s *Scanner) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.decided) > 0 {
		s.logger.Debug("decisions invalidated", logging.Int("count", len(s.decided)))
	}
	s.decided = make(map[string]Decision)
}

// Decisions returns a copy of the decided side-table keyed by tile ID.
func (s *Scanner) Decisions() map[string]Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Decision, len(s.decided))
	for id, decision := range s.decided {
		out[id] = decision
	}
	return out
}

// Scan runs one cycle. Overlapping calls are skipped outright, never queued.
// A backend failure fails open: every tile in the attempted batch is decided
// show and the cycle ends without returning an error.
func (s *Scanner) Scan(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		cyclesSkippedTotal.Inc()
		s.logger.Debug("scan skipped, cycle in flight")
		return nil
	}
	defer s.inFlight.Store(false)

	started := time.Now()
	outcome, err := s.cycle(ctx)
	cycleDuration.Observe(time.Since(started).Seconds())
	cyclesTotal.WithLabelValues(outcome).Inc()
	return err
}

func (s *Scanner) cycle(ctx context.Context) (string, error) {
	doc := s.document()
	if doc == nil {
		return outcomeNoWork, nil
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return outcomeError, fmt.Errorf("settings snapshot: %w", err)
	}

	s.reclaim(doc)

	undecided := s.undecidedTiles(doc)
	if len(undecided) == 0 {
		return outcomeNoWork, nil
	}

	// Without excluded topics there is nothing to classify. Decide show so
	// the tiles are not re-extracted every cycle.
	if len(snap.Topics) == 0 {
		for _, tile := range undecided {
			s.decide(tile, DecisionShow)
		}
		return outcomeClean, nil
	}

	batch := make([]*page.Tile, 0, len(undecided))
	texts := make([]classify.TextItem, 0, len(undecided))
	for _, tile := range undecided {
		text, ok := extract.Context(tile)
		if !ok {
			// Extraction miss: the tile stays undecided and is retried
			// next cycle once the host has rendered its text.
			continue
		}
		texts = append(texts, classify.TextItem{
			ID:   fmt.Sprintf("t%d", len(texts)),
			Text: text,
		})
		batch = append(batch, tile)
	}
	if len(batch) == 0 {
		return outcomeNoWork, nil
	}

	topics := make([]classify.TopicItem, len(snap.Topics))
	for j, topic := range snap.Topics {
		topics[j] = classify.TopicItem{ID: fmt.Sprintf("p%d", j), Topic: topic}
	}

	tilesScannedTotal.Add(float64(len(batch)))
	matches, err := s.gateway.Classify(ctx, texts, topics)
	if err != nil {
		backendErrorsTotal.Inc()
		s.logger.Warn("classification batch failed, failing open",
			logging.Int("tiles", len(batch)),
			logging.Error(err))
		for _, tile := range batch {
			s.decide(tile, DecisionShow)
		}
		return outcomeFailOpen, nil
	}

	matchAction := DecisionSuppress
	if snap.DisplayAction == settings.DisplayDelete {
		matchAction = DecisionDelete
	}

	decisions := make([]Decision, len(batch))
	for i := range decisions {
		decisions[i] = DecisionShow
	}
	for _, match := range matches {
		i, ok := parseIndex(match.TextID, "t", len(batch))
		if !ok {
			s.logger.Warn("result references unknown text", logging.String("text_id", match.TextID))
			continue
		}
		if s.matchedAny(match.TopicIDs, len(topics)) {
			decisions[i] = matchAction
		}
	}

	matched := 0
	for i, tile := range batch {
		if decisions[i] != DecisionShow {
			matched++
		}
		s.decide(tile, decisions[i])
	}
	tilesMatchedTotal.Add(float64(matched))
	s.logger.Info("scan cycle complete",
		logging.Int("scanned", len(batch)),
		logging.Int("matched", matched),
		logging.Int("topics", len(topics)))
	return outcomeClean, nil
}

// decide applies the action and records the tile as decided. Failed and
// skipped-by-result tiles are recorded too, so a permanently failing backend
// never causes hot-loop retries.
func (s *Scanner) decide(tile *page.Tile, decision Decision) {
	switch decision {
	case DecisionSuppress:
		apply.Suppress(tile)
	case DecisionDelete:
		apply.Delete(tile)
	default:
		apply.Show(tile)
	}
	s.mu.Lock()
	s.decided[tile.ID()] = decision
	s.mu.Unlock()
}

func (s *Scanner) undecidedTiles(doc *page.Document) []*page.Tile {
	s.mu.Lock()
	defer s.mu.Unlock()
	var undecided []*page.Tile
	for _, tile := range doc.Tiles() {
		if _, ok := s.decided[tile.ID()]; !ok {
			undecided = append(undecided, tile)
		}
	}
	return undecided
}

// reclaim drops side-table entries whose tile the host has removed, so the
// table cannot grow without bound across long-lived feeds.
func (s *Scanner) reclaim(doc *page.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.decided {
		if tile := doc.TileByID(id); tile == nil || !tile.Attached() {
			delete(s.decided, id)
		}
	}
}

// matchedAny reports whether at least one topic ID resolves to a known topic.
// Out-of-range indices are ignored rather than failing the cycle.
func (s *Scanner) matchedAny(topicIDs []string, topicCount int) bool {
	matched := false
	for _, id := range topicIDs {
		if _, ok := parseIndex(id, "p", topicCount); ok {
			matched = true
		} else {
			s.logger.Warn("result references unknown topic", logging.String("topic_id", id))
		}
	}
	return matched
}

// parseIndex recovers the positional index from a synthetic ID such as "t3"
// or "p0" and bounds-checks it against the batch that was sent.
func parseIndex(id, prefix string, limit int) (int, bool) {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok {
		return 0, false
	}
	index, err := strconv.Atoi(rest)
	if err != nil || index < 0 || index >= limit {
		return 0, false
	}
	return index, true
}
