package handlers

import (
	"context"
	"encoding/binary"

	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/oplock"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// OplockBreak implements the client's acknowledgment of a server-sent
// break notification, for both legacy oplocks and leases: the two
// share CommandOplockBreak on the wire and are told apart by their
// body's StructureSize (24 for SMB2_OPLOCK_BREAK, 36 for
// SMB2_LEASE_BREAK_ACK). [MS-SMB2] 3.3.5.22/3.3.5.23
func (d *Deps) OplockBreak(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	if len(body) < 24 {
		return nil, wire.StatusInvalidParameter
	}
	structSize := binary.LittleEndian.Uint16(body[0:2])
	if structSize == 36 {
		return d.leaseBreakAck(rc, body)
	}
	return d.oplockBreakAck(rc, body)
}

func (d *Deps) oplockBreakAck(rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	ack, err := wire.ParseOplockBreakAck(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	id := handle.ParseID(ack.FileID)
	of, lookupErr := rc.Conn.Handles.Lookup(id.Volatile)
	if lookupErr != nil {
		return nil, wire.StatusFileClosed
	}

	level := oplock.Level(ack.OplockLevel)
	if err := d.Oplocks.AcknowledgeOplockBreak(of.Path, id.Volatile, level); err != nil {
		return nil, wire.StatusInvalidOplockProtocol
	}
	of.OplockLevel = uint8(level)

	resp := &wire.OplockBreakResponse{OplockLevel: ack.OplockLevel, FileID: ack.FileID}
	return resp.Encode(), wire.StatusSuccess
}

func (d *Deps) leaseBreakAck(rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	ack, err := wire.ParseLeaseBreakAck(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	if err := d.Oplocks.AcknowledgeLeaseBreak(ack.LeaseKey, oplock.LeaseState(ack.LeaseState)); err != nil {
		return nil, wire.StatusInvalidOplockProtocol
	}

	resp := &wire.LeaseBreakResponse{LeaseKey: ack.LeaseKey, LeaseState: ack.LeaseState}
	return resp.Encode(), wire.StatusSuccess
}
