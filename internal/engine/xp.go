package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"compass/internal/logger"
	"compass/internal/storage"
)

const (
	// XPPerLevel is the flat level width.
	XPPerLevel = 100

	// TaskCompletionXP is granted for every todo->done transition, whatever
	// the quadrant.
	TaskCompletionXP = 10

	// HistoryLimit caps the retained XP history.
	HistoryLimit = 50
)

// LevelForXP returns floor(xp/100)+1. Negative XP counts as zero.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// LevelFloor is the cumulative XP at which level starts.
func LevelFloor(level int) int {
	if level <= 1 {
		return 0
	}
	return (level - 1) * XPPerLevel
}

// XPProgress feeds a progress bar for the current level.
type XPProgress struct {
	Current    int
	Required   int
	Percentage float64
}

func ProgressForXP(xp int) XPProgress {
	if xp < 0 {
		xp = 0
	}
	cur := xp - LevelFloor(LevelForXP(xp))
	return XPProgress{
		Current:    cur,
		Required:   XPPerLevel,
		Percentage: float64(cur) / float64(XPPerLevel) * 100,
	}
}

// LedgerPort is the persistence contract of the ledger.
type LedgerPort interface {
	LoadProgress(ctx context.Context) (storage.Progress, error)
	SaveProgress(ctx context.Context, p storage.Progress) error
}

// Ledger is the append-only XP history with its cumulative total.
type Ledger struct {
	mu   sync.Mutex
	repo LedgerPort
	p    storage.Progress
	now  func() time.Time
}

func NewLedger(ctx context.Context, repo LedgerPort, now func() time.Time) (*Ledger, error) {
	p, err := repo.LoadProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	// The stored level is derived data; trust the XP.
	p.Level = LevelForXP(p.XP)
	return &Ledger{repo: repo, p: p, now: now}, nil
}

// GainResult describes one ledger append.
type GainResult struct {
	Entry       storage.XPEntry
	XP          int
	LevelBefore int
	LevelAfter  int
	LevelUp     bool
}

// GainXP prepends an entry, trims history to HistoryLimit and adds amount to
// the total.
func (l *Ledger) GainXP(ctx context.Context, amount int, source string) (*GainResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := storage.XPEntry{
		ID:        uuid.NewString(),
		Amount:    amount,
		Source:    source,
		Timestamp: l.now(),
	}
	before := l.p.Level

	history := make([]storage.XPEntry, 0, len(l.p.History)+1)
	history = append(history, entry)
	history = append(history, l.p.History...)
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}
	l.p.History = history
	l.p.XP += amount
	l.p.Level = LevelForXP(l.p.XP)

	if err := l.repo.SaveProgress(ctx, l.p); err != nil {
		logger.Error("persist xp", err, zap.Int("xp", l.p.XP))
		return nil, fmt.Errorf("save progress: %w", err)
	}

	res := &GainResult{
		Entry:       entry,
		XP:          l.p.XP,
		LevelBefore: before,
		LevelAfter:  l.p.Level,
		LevelUp:     l.p.Level > before,
	}
	if res.LevelUp {
		logger.Info("level up", zap.Int("level", res.LevelAfter), zap.Int("xp", res.XP))
	}
	return res, nil
}

// HandleCompletion is the TaskStore listener granting the flat completion XP.
func (l *Ledger) HandleCompletion(ctx context.Context, ev CompletionEvent) (*GainResult, error) {
	return l.GainXP(ctx, TaskCompletionXP, "task:"+ev.Task.Title)
}

func (l *Ledger) XP() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.XP
}

func (l *Ledger) Level() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Level
}

func (l *Ledger) Progress() XPProgress {
	return ProgressForXP(l.XP())
}

// History returns entries newest first.
func (l *Ledger) History() []storage.XPEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]storage.XPEntry(nil), l.p.History...)
}

func (l *Ledger) reload(ctx context.Context) error {
	p, err := l.repo.LoadProgress(ctx)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	p.Level = LevelForXP(p.XP)
	l.mu.Lock()
	l.p = p
	l.mu.Unlock()
	return nil
}
