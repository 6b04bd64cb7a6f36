package sync

import "github.com/agrolabs/pasture/internal/domain"

// Side names the winning variant of a record pair.
type Side int

const (
	// SideLocal means the device's row wins.
	SideLocal Side = iota
	// SideRemote means the server's row wins.
	SideRemote
)

func (s Side) String() string {
	if s == SideLocal {
		return "local"
	}
	return "remote"
}

// Resolve decides which variant of a record survives. Last write wins by
// updated_at; on an exact tie the remote side wins, making the server
// authoritative under clock disagreement. A side that lacks the row loses
// unconditionally: that is first-write propagation, not a conflict. The
// winner replaces the loser's row wholesale; there is no field-level merge.
func Resolve(local, remote domain.Record) Side {
	switch {
	case local == nil:
		return SideRemote
	case remote == nil:
		return SideLocal
	case local.Updated().After(remote.Updated()):
		return SideLocal
	default:
		return SideRemote
	}
}
