package packets

import "hearthlog.gg/internal/enums"

// GuessFriendlyPlayer infers which seat the observing client sits in, purely
// from early packet structure; the protocol never states it. attemptOld
// selects the cheap strategy older client builds allow; the current strategy
// always runs as fallback. The result is advisory: (0, false) means the log
// gave no answer, which callers must treat as a valid outcome rather than an
// error or a default.
func (t *PacketTree) GuessFriendlyPlayer(attemptOld bool) (int, bool) {
	if len(t.packets) < 2 {
		return 0, false
	}
	if attemptOld {
		if id, ok := t.friendlyFromDealtHand(); ok {
			return id, true
		}
	}
	return t.friendlyFromFirstReveal()
}

// friendlyFromDealtHand serves logs from builds that opened with a bare run
// of FULL_ENTITY packets dealing the starting hands. Within that run, the
// first hand entity with no card id is a card the observer cannot see, so it
// belongs to the opponent; with seats numbered 1 and 2, the friendly seat is
// controller%2+1. The scan stops at the first packet that is not FULL_ENTITY.
func (t *PacketTree) friendlyFromDealtHand() (int, bool) {
	for _, p := range t.packets[1:] {
		fe, ok := p.(*FullEntity)
		if !ok {
			break
		}
		if fe.CardID != "" {
			continue
		}
		tags := fe.Tags.Fold()
		if enums.Zone(tags[enums.TagZone]) != enums.ZoneHand {
			continue
		}
		if controller := tags[enums.TagController]; controller != 0 {
			return controller%2 + 1, true
		}
	}
	return 0, false
}

// friendlyFromFirstReveal finds the first SHOW_ENTITY revealing a card
// somewhere other than the board. Cards already in play are visible to both
// seats and prove nothing; anything else is only ever revealed to its owner,
// so its controller is the friendly seat directly. The walk covers nested
// block children in stream order because storage is flat: a block's children
// precede the block's following siblings.
func (t *PacketTree) friendlyFromFirstReveal() (int, bool) {
	for _, p := range t.packets[1:] {
		se, ok := p.(*ShowEntity)
		if !ok {
			continue
		}
		tags := se.Tags.Fold()
		if enums.Zone(tags[enums.TagZone]) == enums.ZonePlay {
			continue
		}
		if controller := tags[enums.TagController]; controller != 0 {
			return controller, true
		}
	}
	return 0, false
}
