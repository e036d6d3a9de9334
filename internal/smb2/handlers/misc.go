package handlers

import (
	"context"
	"encoding/binary"

	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// Echo implements SMB2_ECHO: a bare keepalive round-trip. [MS-SMB2] 3.3.5.13
func (d *Deps) Echo(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	if _, err := wire.ParseEchoRequest(body); err != nil {
		return nil, wire.StatusInvalidParameter
	}
	resp := &wire.EchoResponse{}
	return resp.Encode(), wire.StatusSuccess
}

// Cancel implements SMB2_CANCEL. The client addresses the request to
// cancel by reusing its MessageID in the CANCEL header; a CANCEL for a
// request that already finished is a no-op, never an error. The
// dispatcher registers no request with the connection's
// CancelRegistry, so the lookup finds nothing and the named request
// runs to completion. [MS-SMB2] 3.3.5.16
func (d *Deps) Cancel(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	if _, err := wire.ParseCancelRequest(body); err != nil {
		return nil, wire.StatusInvalidParameter
	}
	rc.Conn.Cancel(rc.Header.MessageID)
	// CANCEL carries no response; the dispatcher never sends one back.
	return nil, wire.StatusSuccess
}

// Ioctl implements SMB2_IOCTL, limited to the FSCTLs this server needs
// to answer for clients to treat it as a well-behaved SMB2 share:
// VALIDATE_NEGOTIATE_INFO confirms the negotiated dialect/signing
// capabilities haven't been tampered with in transit, and
// PIPE_TRANSCEIVE carries one DCE/RPC round trip on a named-pipe
// handle. Every other FSCTL is refused rather than silently ignored.
// [MS-SMB2] 3.3.5.15
func (d *Deps) Ioctl(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseIoctlRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	switch req.CtlCode {
	case wire.FsctlValidateNegotiateInfo:
		return d.validateNegotiateInfo(rc, req)
	case wire.FsctlPipeTranceive:
		return d.pipeTransceive(rc, req)
	default:
		return nil, wire.StatusNotSupported
	}
}

// pipeTransceive answers FSCTL_PIPE_TRANSCEIVE: the combined
// write-then-read a client issues against a named pipe handle to carry
// one DCE/RPC PDU round trip per IOCTL, rather than separate WRITE and
// READ requests. [MS-SMB2] 3.3.5.15.2, [MS-FSCC] 2.3.48
func (d *Deps) pipeTransceive(rc *dispatch.RequestContext, req *wire.IoctlRequest) ([]byte, wire.Status) {
	id := handle.ParseID(req.FileID)
	of, lookupErr := rc.Conn.Handles.Lookup(id.Volatile)
	if lookupErr != nil {
		return nil, wire.StatusFileClosed
	}
	if !of.IsPipe {
		return nil, wire.StatusInvalidDeviceRequest
	}

	st, ok := d.Pipes.Get(id.Volatile)
	if !ok {
		return nil, wire.StatusFileClosed
	}
	out, err := st.Transact(req.Input, int(req.MaxOutputResponse))
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	resp := &wire.IoctlResponse{CtlCode: req.CtlCode, FileID: req.FileID, Output: out}
	return resp.Encode(), wire.StatusSuccess
}

// validateNegotiateInfo answers FSCTL_VALIDATE_NEGOTIATE_INFO with this
// server's own view of the negotiated parameters, so the client can
// detect a downgrade attack by comparing it against what it originally
// negotiated. [MS-SMB2] 3.3.5.15.7
func (d *Deps) validateNegotiateInfo(rc *dispatch.RequestContext, req *wire.IoctlRequest) ([]byte, wire.Status) {
	if len(req.Input) < 24 {
		return nil, wire.StatusInvalidParameter
	}
	dialect := rc.Conn.Dialect()
	caps := wire.CapLeasing | wire.CapLargeMTU | wire.CapDirectoryLeasing
	if dialect >= wire.Dialect0300 {
		caps |= wire.CapPersistentHandles | wire.CapMultiChannel
	}

	out := make([]byte, 24)
	binary.LittleEndian.PutUint32(out[0:4], uint32(caps))
	copy(out[4:20], d.ServerGUID[:])
	binary.LittleEndian.PutUint16(out[20:22], negotiateSigningEnabled)
	binary.LittleEndian.PutUint16(out[22:24], uint16(dialect))

	resp := &wire.IoctlResponse{CtlCode: req.CtlCode, FileID: req.FileID, Output: out}
	return resp.Encode(), wire.StatusSuccess
}
