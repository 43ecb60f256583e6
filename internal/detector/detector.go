package detector

import (
	"wanwatcher/internal/types"

	"github.com/google/uuid"
)

// Detect compares a freshly resolved snapshot against the stored state and
// classifies the result. A nil stored state means first run. Protocols are
// compared independently; a present-to-absent transition counts as changed,
// since losing connectivity is itself alert-worthy.
func Detect(current types.Snapshot, stored *types.State) types.ChangeEvent {
	event := types.ChangeEvent{
		ID:      uuid.NewString(),
		Current: current,
	}

	if stored == nil {
		event.Kind = types.EventFirstRun
		return event
	}

	event.Previous = stored

	for _, version := range []types.IPVersion{types.IPv4, types.IPv6} {
		if current.Addr(version) != stored.Addr(version) {
			event.ChangedProtocols = append(event.ChangedProtocols, version)
		}
	}

	if len(event.ChangedProtocols) == 0 {
		event.Kind = types.EventUnchanged
	} else {
		event.Kind = types.EventChanged
	}

	return event
}
