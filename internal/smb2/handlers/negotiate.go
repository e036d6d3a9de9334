package handlers

import (
	"context"
	"time"

	"github.com/smbdfs/smbd/internal/logx"
	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// Negotiate bit positions for SessionSetupRequest/NegotiateResponse's
// SecurityMode field. [MS-SMB2] 2.2.3/2.2.4
const (
	negotiateSigningEnabled  = 0x0001
	negotiateSigningRequired = 0x0002
)

// Negotiate implements SMB2_NEGOTIATE: picks the highest dialect this
// server and the client both support and advertises its capabilities
// and size limits. [MS-SMB2] 3.3.5.3
func (d *Deps) Negotiate(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseNegotiateRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	chosen := wire.DialectNone
	for _, candidate := range wire.SupportedDialects {
		for _, offered := range req.Dialects {
			if offered == candidate {
				chosen = candidate
				break
			}
		}
		if chosen != wire.DialectNone {
			break
		}
	}
	if chosen == wire.DialectNone {
		logx.WarnCtx(ctx, "negotiate: no common dialect", "client", rc.Conn.RemoteAddr)
		return nil, wire.StatusNotSupported
	}
	rc.Conn.SetDialect(chosen)

	caps := wire.CapLeasing | wire.CapLargeMTU | wire.CapDirectoryLeasing
	if chosen >= wire.Dialect0300 {
		caps |= wire.CapPersistentHandles | wire.CapMultiChannel
	}

	resp := &wire.NegotiateResponse{
		SecurityMode:    negotiateSigningEnabled,
		DialectRevision: chosen,
		ServerGuid:      d.ServerGUID,
		Capabilities:    caps,
		MaxTransactSize: d.MaxTransactSize,
		MaxReadSize:     d.MaxReadSize,
		MaxWriteSize:    d.MaxWriteSize,
		SystemTime:      windowsTimestamp(time.Now()),
		ServerStartTime: windowsTimestamp(d.StartTime),
	}
	return resp.Encode(), wire.StatusSuccess
}
