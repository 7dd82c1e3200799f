// Package session owns the single live game session. A Controller serializes
// every event behind one mutex, runs the generation pipeline in a goroutine,
// and drives the elapsed-time ticker while a puzzle is in play. Results from
// superseded pipelines and tickers are recognized by their epoch and dropped.
package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/spot-the-difference/internal/game"
	"github.com/fpang/spot-the-difference/internal/metrics"
)

// ContentProvider generates the level and both images for a puzzle.
type ContentProvider interface {
	GenerateLevelMetadata(ctx context.Context, theme string, d game.Difficulty) (*game.Level, error)
	GenerateBaseImage(ctx context.Context, prompt string) (*game.Image, error)
	GenerateModifiedImage(ctx context.Context, base *game.Image, instructions string) (*game.Image, error)
}

// Archiver stores completed puzzles.
type Archiver interface {
	Archive(ctx context.Context, s game.Session) error
}

// TickerFunc returns a channel firing every interval and a function that
// stops it.
type TickerFunc func(interval time.Duration) (<-chan time.Time, func())

func systemTicker(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

var (
	// ErrClosed is returned by every mutating call after Close.
	ErrClosed = errors.New("session controller is closed")
	// ErrNoHint is returned when every difference has been found.
	ErrNoHint = errors.New("no undiscovered differences left")
)

// Options tunes a Controller. Zero values select the defaults.
type Options struct {
	// StepTimeout bounds each provider call. Default 2 minutes.
	StepTimeout time.Duration
	// TickInterval is the elapsed-time resolution. Default 1 second.
	TickInterval time.Duration
	// HitRadius is the click tolerance in percent units.
	HitRadius float64
	Ticker    TickerFunc
	// NewAttemptID defaults to a random UUID.
	NewAttemptID func() string
	Metrics      *metrics.Emitter
	// Archiver receives every completed puzzle. Optional.
	Archiver       Archiver
	ArchiveTimeout time.Duration
	// Rand picks hints. It is only used under the controller lock.
	Rand *rand.Rand
}

func (o *Options) applyDefaults() {
	if o.StepTimeout <= 0 {
		o.StepTimeout = 2 * time.Minute
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.HitRadius <= 0 {
		o.HitRadius = game.DefaultHitRadius
	}
	if o.Ticker == nil {
		o.Ticker = systemTicker
	}
	if o.NewAttemptID == nil {
		o.NewAttemptID = uuid.NewString
	}
	if o.ArchiveTimeout <= 0 {
		o.ArchiveTimeout = 30 * time.Second
	}
}

// Controller is the handle to the one session a process serves.
type Controller struct {
	provider ContentProvider
	opts     Options

	mu       sync.Mutex
	session  game.Session
	epoch    uint64
	cancel   context.CancelFunc
	stopTick func()
	subs     map[int]chan game.Session
	nextSub  int
	closed   bool

	wg sync.WaitGroup
}

// New returns a controller holding an Idle session.
func New(p ContentProvider, opts Options) *Controller {
	opts.applyDefaults()
	return &Controller{
		provider: p,
		opts:     opts,
		session:  game.NewSession(),
		subs:     make(map[int]chan game.Session),
	}
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() game.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// Start begins generating a puzzle for theme and returns immediately. An
// attempt that is still generating is cancelled and its results discarded.
func (c *Controller) Start(theme string) (game.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.session.Clone(), ErrClosed
	}
	next, err := game.Apply(c.session, game.Start{Theme: theme, AttemptID: c.opts.NewAttemptID()})
	if err != nil {
		return c.session.Clone(), err
	}
	if c.session.Status.Generating() {
		log.Info().
			Str("supersededAttempt", c.session.AttemptID).
			Str("attemptId", next.AttemptID).
			Msg("Superseding in-flight generation")
	}
	c.teardownLocked()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.commitLocked(next)

	log.Info().
		Str("attemptId", next.AttemptID).
		Str("theme", next.Theme).
		Str("difficulty", next.Difficulty.String()).
		Msg("Generation started")

	c.wg.Add(1)
	go c.runPipeline(ctx, c.epoch, next)
	return next.Clone(), nil
}

// DifferenceFound marks id as found. Unknown or repeated ids are ignored.
func (c *Controller) DifferenceFound(id string) (game.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(game.DifferenceFound{ID: id})
}

// ClickResult reports the outcome of a click.
type ClickResult struct {
	Hit        bool
	Difference game.Difference
	Session    game.Session
}

// Click matches p against the undiscovered differences and applies a hit.
func (c *Controller) Click(p game.Point) (ClickResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ClickResult{Session: c.session.Clone()}, ErrClosed
	}
	if c.session.Status != game.StatusPlaying {
		return ClickResult{Session: c.session.Clone()}, game.ErrNotPlaying
	}
	d, ok := game.Match(p, c.session.Level.Differences, c.opts.HitRadius)
	if !ok {
		return ClickResult{Session: c.session.Clone()}, nil
	}
	next, err := c.applyLocked(game.DifferenceFound{ID: d.ID})
	if err != nil {
		return ClickResult{Session: next}, err
	}
	d.Found = true
	return ClickResult{Hit: true, Difference: d, Session: next}, nil
}

// Hint returns the position of a random undiscovered difference.
func (c *Controller) Hint() (game.Point, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Status != game.StatusPlaying {
		return game.Point{}, game.ErrNotPlaying
	}
	d, ok := game.PickHint(c.session.Level.Differences, c.opts.Rand)
	if !ok {
		return game.Point{}, ErrNoHint
	}
	return game.Point{X: d.X, Y: d.Y}, nil
}

// Reset abandons whatever is in progress and returns to Idle. It does
// nothing after Close.
func (c *Controller) Reset() game.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.session.Clone()
	}
	c.teardownLocked()
	next, _ := game.Apply(c.session, game.Reset{})
	c.commitLocked(next)
	return next.Clone()
}

// SetDifficulty selects the difficulty for the next Start.
func (c *Controller) SetDifficulty(d game.Difficulty) (game.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(game.SetDifficulty{Difficulty: d})
}

// Subscribe returns a channel that receives the current snapshot and then
// every change. Only the latest snapshot is kept for a slow reader. The
// returned function unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan game.Session, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan game.Session, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.session.Clone()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close stops the pipeline and ticker, closes all subscriptions and waits for
// background work, including pending archive writes, to finish.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.teardownLocked()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Controller) applyLocked(ev game.Event) (game.Session, error) {
	if c.closed {
		return c.session.Clone(), ErrClosed
	}
	next, err := game.Apply(c.session, ev)
	if err != nil {
		return c.session.Clone(), err
	}
	c.commitLocked(next)
	return next.Clone(), nil
}

// teardownLocked invalidates every goroutine started for the current epoch.
func (c *Controller) teardownLocked() {
	c.epoch++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.stopTickerLocked()
}

// commitLocked installs next and runs the side effects of the status change.
func (c *Controller) commitLocked(next game.Session) {
	prev := c.session
	if next == prev {
		return
	}
	c.session = next

	switch {
	case next.Status == game.StatusPlaying && prev.Status != game.StatusPlaying:
		c.startTickerLocked()
	case next.Status != game.StatusPlaying && prev.Status == game.StatusPlaying:
		c.stopTickerLocked()
	}
	if next.Status == game.StatusCompleted && prev.Status == game.StatusPlaying {
		c.completedLocked(next)
	}
	c.publishLocked(next)
}

func (c *Controller) publishLocked(s game.Session) {
	for _, ch := range c.subs {
		snap := s.Clone()
		select {
		case ch <- snap:
			continue
		default:
		}
		// Replace the stale snapshot the reader has not picked up yet.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (c *Controller) completedLocked(s game.Session) {
	log.Info().
		Str("attemptId", s.AttemptID).
		Str("theme", s.Theme).
		Int("elapsedSeconds", s.ElapsedSeconds).
		Msg("Puzzle completed")

	c.opts.Metrics.Record().
		Dimension("Difficulty", s.Difficulty.String()).
		Count("PuzzleCompleted").
		Metric("CompletionTime", float64(s.ElapsedSeconds), metrics.UnitSeconds).
		Property("attemptId", s.AttemptID).
		Flush()

	if c.opts.Archiver == nil {
		return
	}
	snap := s.Clone()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.ArchiveTimeout)
		defer cancel()
		if err := c.opts.Archiver.Archive(ctx, snap); err != nil {
			log.Warn().Err(err).Str("attemptId", snap.AttemptID).Msg("Failed to archive completed puzzle")
			return
		}
		log.Debug().Str("attemptId", snap.AttemptID).Msg("Completed puzzle archived")
	}()
}
