package session

import "github.com/fpang/spot-the-difference/internal/game"

// startTickerLocked starts counting seconds for the current epoch.
func (c *Controller) startTickerLocked() {
	c.stopTickerLocked()

	fire, stop := c.opts.Ticker(c.opts.TickInterval)
	done := make(chan struct{})
	epoch := c.epoch
	c.stopTick = func() {
		stop()
		close(done)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-done:
				return
			case <-fire:
				c.tick(epoch)
			}
		}
	}()
}

func (c *Controller) stopTickerLocked() {
	if c.stopTick != nil {
		c.stopTick()
		c.stopTick = nil
	}
}

// tick advances the elapsed time if epoch is still the live one and the
// puzzle is still in play. It reports whether a tick was applied.
func (c *Controller) tick(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch || c.session.Status != game.StatusPlaying {
		return false
	}
	_, err := c.applyLocked(game.Tick{})
	return err == nil
}
