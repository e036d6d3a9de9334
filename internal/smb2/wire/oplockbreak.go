package wire

import "encoding/binary"

// OplockBreakAck is the 24-byte client acknowledgment of a server-sent
// oplock break notification. [MS-SMB2] 2.2.24
type OplockBreakAck struct {
	OplockLevel OplockLevel
	FileID      [16]byte
}

func ParseOplockBreakAck(body []byte) (*OplockBreakAck, error) {
	if len(body) < 24 {
		return nil, ErrMessageTooShort
	}
	return &OplockBreakAck{
		OplockLevel: OplockLevel(body[2]),
		FileID:      [16]byte(body[8:24]),
	}, nil
}

// OplockBreakResponse is the server's 24-byte reply to a client's
// break acknowledgment, echoing the level it settled on. [MS-SMB2] 2.2.25
type OplockBreakResponse struct {
	OplockLevel OplockLevel
	FileID      [16]byte
}

func (r *OplockBreakResponse) Encode() []byte {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint16(buf[0:2], 24)
	buf[2] = byte(r.OplockLevel)
	copy(buf[8:24], r.FileID[:])
	return buf
}

// OplockBreakNotification is the unsolicited 24-byte server->client
// message announcing a break; it shares the ack/response wire shape.
// [MS-SMB2] 2.2.23
type OplockBreakNotification struct {
	OplockLevel OplockLevel
	FileID      [16]byte
}

func (n *OplockBreakNotification) Encode() []byte {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint16(buf[0:2], 24)
	buf[2] = byte(n.OplockLevel)
	copy(buf[8:24], n.FileID[:])
	return buf
}

// LeaseBreakNotification is the server->client lease break message,
// a distinct 44-byte layout used instead of OplockBreakNotification
// when the handle holds a lease rather than a legacy oplock.
// [MS-SMB2] 2.2.23.2
type LeaseBreakNotification struct {
	NewEpoch    uint16
	Flags       uint32
	LeaseKey    [16]byte
	CurrentState LeaseState
	NewState    LeaseState
}

func (n *LeaseBreakNotification) Encode() []byte {
	buf := make([]byte, 44)
	binary.LittleEndian.PutUint16(buf[0:2], 44)
	binary.LittleEndian.PutUint16(buf[2:4], n.NewEpoch)
	binary.LittleEndian.PutUint32(buf[4:8], n.Flags)
	copy(buf[8:24], n.LeaseKey[:])
	binary.LittleEndian.PutUint32(buf[24:28], uint32(n.CurrentState))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(n.NewState))
	return buf
}

// LeaseBreakAck is the client's 36-byte reply to a lease break.
// [MS-SMB2] 2.2.24.1 variant for leases (SMB2_LEASE_ACK)
type LeaseBreakAck struct {
	LeaseKey   [16]byte
	LeaseState LeaseState
}

func ParseLeaseBreakAck(body []byte) (*LeaseBreakAck, error) {
	if len(body) < 36 {
		return nil, ErrMessageTooShort
	}
	return &LeaseBreakAck{
		LeaseKey:   [16]byte(body[8:24]),
		LeaseState: LeaseState(binary.LittleEndian.Uint32(body[24:28])),
	}, nil
}

// LeaseBreakResponse is the server's 36-byte reply to a lease break ack.
type LeaseBreakResponse struct {
	LeaseKey   [16]byte
	LeaseState LeaseState
}

func (r *LeaseBreakResponse) Encode() []byte {
	buf := make([]byte, 36)
	binary.LittleEndian.PutUint16(buf[0:2], 36)
	copy(buf[8:24], r.LeaseKey[:])
	binary.LittleEndian.PutUint32(buf[24:28], uint32(r.LeaseState))
	return buf
}
