// Package oplock implements the SMB2 opportunistic lock and lease
// engine: legacy per-open oplock levels, SMB2.1+ leases keyed by a
// client-generated 128-bit key, the break-notify/break-ack state
// machine, and a timeout scanner that force-revokes a break a client
// never acknowledges.
package oplock

import "fmt"

// Level is a legacy, per-open oplock level. [MS-SMB2] 2.2.13.2.6 /
// 2.2.14.1 "OplockLevel" field.
type Level uint8

const (
	LevelNone      Level = 0x00
	LevelII        Level = 0x01
	LevelExclusive Level = 0x08
	LevelBatch     Level = 0x09
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "None"
	case LevelII:
		return "LevelII"
	case LevelExclusive:
		return "Exclusive"
	case LevelBatch:
		return "Batch"
	default:
		return fmt.Sprintf("Level(0x%02x)", uint8(l))
	}
}

// LeaseState is a bitset of caching permissions a lease grants.
// [MS-SMB2] 2.2.13.2.8.
type LeaseState uint32

const (
	LeaseStateNone   LeaseState = 0x00
	LeaseStateRead   LeaseState = 0x01
	LeaseStateHandle LeaseState = 0x02
	LeaseStateWrite  LeaseState = 0x04
)

func (s LeaseState) HasRead() bool   { return s&LeaseStateRead != 0 }
func (s LeaseState) HasWrite() bool  { return s&LeaseStateWrite != 0 }
func (s LeaseState) HasHandle() bool { return s&LeaseStateHandle != 0 }

func (s LeaseState) String() string {
	if s == LeaseStateNone {
		return "None"
	}
	out := ""
	if s.HasRead() {
		out += "R"
	}
	if s.HasWrite() {
		out += "W"
	}
	if s.HasHandle() {
		out += "H"
	}
	return out
}

// validFileLeaseStates are the only combinations [MS-SMB2] allows on a
// file: Write and Handle alone are meaningless without Read.
var validFileLeaseStates = []LeaseState{
	LeaseStateNone,
	LeaseStateRead,
	LeaseStateRead | LeaseStateWrite,
	LeaseStateRead | LeaseStateHandle,
	LeaseStateRead | LeaseStateWrite | LeaseStateHandle,
}

// validDirectoryLeaseStates excludes Write entirely; a directory is
// never cached for writes.
var validDirectoryLeaseStates = []LeaseState{
	LeaseStateNone,
	LeaseStateRead,
	LeaseStateRead | LeaseStateHandle,
}

// IsValidFileLeaseState reports whether state is a combination [MS-SMB2]
// permits on a file.
func IsValidFileLeaseState(state LeaseState) bool {
	for _, v := range validFileLeaseStates {
		if v == state {
			return true
		}
	}
	return false
}

// IsValidDirectoryLeaseState reports whether state is a combination
// [MS-SMB2] permits on a directory.
func IsValidDirectoryLeaseState(state LeaseState) bool {
	for _, v := range validDirectoryLeaseStates {
		if v == state {
			return true
		}
	}
	return false
}

// Access mask bits relevant to the "attribute-only open" carve-out: an
// open whose desired access is limited to these bits never breaks an
// existing oplock. [MS-SMB2] 3.3.5.9.
const (
	FileReadAttributes  uint32 = 0x00000080
	FileWriteAttributes uint32 = 0x00000100
	Synchronize         uint32 = 0x00100000
)

// IsAttributeOnlyAccess reports whether desiredAccess only touches
// attribute/synchronize bits, never actual file data.
func IsAttributeOnlyAccess(desiredAccess uint32) bool {
	const dataBits = ^(FileReadAttributes | FileWriteAttributes | Synchronize)
	return desiredAccess&dataBits == 0
}

// BreakState is the per-open break-notify/break-ack state machine.
type BreakState uint8

const (
	NotBreaking BreakState = iota
	Breaking
)
