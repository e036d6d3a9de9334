package oplock

import "github.com/smbdfs/smbd/internal/smb2/handle"

// Notifier delivers unsolicited break notifications to a client over
// its connection. The dispatcher implements this by writing an
// SMB2_OPLOCK_BREAK (legacy) or SMB2_LEASE_BREAK (SMB2.1+) PDU with no
// matching request MessageId.
//
// Both methods are best-effort from the Manager's point of view: a
// notifier error is logged by the caller, not retried here, since the
// break timeout scanner already exists to force the break through if
// the client never acts on it.
type Notifier interface {
	NotifyOplockBreak(sessionID uint64, id handle.ID, newLevel Level) error
	NotifyLeaseBreak(sessionID uint64, leaseKey [16]byte, oldState, newState LeaseState) error
}

// NopNotifier discards every break notification. Useful for tests and
// for a manager instance that only tracks state without a live
// connection to notify (e.g. during durable-handle reconnect replay).
type NopNotifier struct{}

func (NopNotifier) NotifyOplockBreak(uint64, handle.ID, Level) error                { return nil }
func (NopNotifier) NotifyLeaseBreak(uint64, [16]byte, LeaseState, LeaseState) error { return nil }
