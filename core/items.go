package core

import "github.com/signalsfoundry/signal-hunter/model"

// ItemTracker records the single usable item the player carries and the
// effects currently applied to them, in application order. It only keeps
// the books; what an item does is decided elsewhere.
type ItemTracker struct {
	held    *model.Item
	effects []*model.Item
}

// Receive replaces the held item. A nil item is ignored.
func (it *ItemTracker) Receive(item *model.Item) {
	if item == nil {
		return
	}
	it.held = item
}

// Affect appends an effect unconditionally. Duplicates are kept, there is
// no capacity limit, and a nil token is recorded like any other.
func (it *ItemTracker) Affect(item *model.Item) {
	it.effects = append(it.effects, item)
}

// Use clears the held item and returns it, or nil when nothing was held.
func (it *ItemTracker) Use() *model.Item {
	used := it.held
	it.held = nil
	return used
}

// Held returns the carried item, or nil.
func (it *ItemTracker) Held() *model.Item {
	return it.held
}

// Effects returns a copy of the active effects.
func (it *ItemTracker) Effects() []*model.Item {
	out := make([]*model.Item, len(it.effects))
	copy(out, it.effects)
	return out
}
