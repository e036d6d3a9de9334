package dispatch

import (
	"context"
	"time"

	"github.com/smbdfs/smbd/internal/logx"
	"github.com/smbdfs/smbd/internal/smb2/session"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// CommandRecorder receives per-command timing and credit metrics.
// internal/metrics.Collector implements this.
type CommandRecorder interface {
	RecordCommand(command, status string, duration time.Duration)
	RecordCommandStart(command string)
	RecordCommandEnd(command string)
	RecordCreditsGranted(n uint16)
}

// Dispatcher runs the per-connection read loop's compound-request
// processing: header parsing, session/tree resolution, related-
// operation FileId carry-forward, per-sub-command signature
// verification, credit accounting, and response (re)assembly.
type Dispatcher struct {
	table    *Table
	sessions *session.Manager

	// Metrics is optional; nil disables recording.
	Metrics CommandRecorder
}

// NewDispatcher builds a Dispatcher over table (populated by
// internal/smb2/handlers at startup) and the server's shared session
// manager.
func NewDispatcher(table *Table, sessions *session.Manager) *Dispatcher {
	return &Dispatcher{table: table, sessions: sessions}
}

// pending is the intermediate state for one sub-command in a compound
// chain, before NextCommand offsets are back-filled and the chain is
// signed and concatenated.
type pending struct {
	header  *wire.Header
	body    []byte
	session *session.Session
}

// ProcessMessage handles one full SMB2 message as read off the wire
// (already de-framed from its NetBIOS session header), which may itself
// be a chain of compounded commands, and returns the complete response
// message ready for NetBIOS framing. Returns nil if the message could
// not be parsed at all (the caller should simply drop it; a conforming
// client never sends a truncated or malformed PDU).
func (d *Dispatcher) ProcessMessage(ctx context.Context, conn *Conn, message []byte) []byte {
	var (
		items          []pending
		lastSessionID  uint64
		lastTreeID     uint32
		lastFileID     [16]byte
		haveLastFileID bool
	)

	cur := message
	for len(cur) >= wire.HeaderSize {
		hdr, err := wire.ParseHeader(cur)
		if err != nil {
			logx.WarnCtx(ctx, "dispatch: malformed compound sub-command header", "error", err)
			break
		}

		var curFull, rest []byte
		if hdr.NextCommand > 0 && int(hdr.NextCommand) <= len(cur) {
			curFull = cur[:hdr.NextCommand]
			rest = cur[hdr.NextCommand:]
		} else {
			curFull = cur
			rest = nil
		}
		body, _ := wire.SplitCompound(hdr, curFull)

		if hdr.IsRelated() {
			if hdr.SessionID == 0 {
				hdr.SessionID = lastSessionID
			}
			if hdr.TreeID == 0 {
				hdr.TreeID = lastTreeID
			}
			if haveLastFileID {
				body = injectFileID(hdr.Command, body, lastFileID)
			}
		}

		sess, _ := d.sessions.GetSession(hdr.SessionID)
		if err := verifySignature(sess, hdr, curFull); err != nil {
			logx.WarnCtx(ctx, "dispatch: signature verification failed", "command", hdr.Command.String(), "error", err)
			items = append(items, pending{header: wire.NewResponseHeader(hdr, wire.StatusAccessDenied), body: nil, session: sess})
			break
		}

		respBody, status, createdFileID, hasCreated := d.invoke(ctx, conn, hdr, body, lastFileID, hdr.IsRelated() && haveLastFileID)

		// CANCEL is never answered and grants no credits. [MS-SMB2] 3.3.5.16
		if hdr.Command == wire.CommandCancel {
			cur = rest
			if len(rest) == 0 {
				break
			}
			continue
		}

		charge := hdr.CreditCharge
		if charge == 0 {
			charge = 1
		}
		grant := d.sessions.GrantCredits(hdr.SessionID, hdr.Credits, charge)
		if d.Metrics != nil {
			d.Metrics.RecordCreditsGranted(grant)
		}
		items = append(items, pending{header: wire.NewResponseHeaderWithCredits(hdr, status, grant), body: respBody, session: sess})

		lastSessionID = hdr.SessionID
		lastTreeID = hdr.TreeID
		if hasCreated {
			lastFileID = createdFileID
			haveLastFileID = true
		}

		cur = rest
		if len(rest) == 0 {
			break
		}
	}

	return assembleResponses(items)
}

// invoke resolves the command's dispatch entry (status if unknown),
// enforces its session/tree requirements, and runs the handler.
// Response credits are granted by ProcessMessage, not here.
func (d *Dispatcher) invoke(ctx context.Context, conn *Conn, hdr *wire.Header, body []byte, inheritedFileID [16]byte, hasInheritedFileID bool) (respBody []byte, status wire.Status, createdFileID [16]byte, hasCreated bool) {
	entry, ok := d.table.Lookup(hdr.Command)
	if !ok {
		return nil, wire.StatusNotImplemented, createdFileID, false
	}

	rc := &RequestContext{
		Header:    hdr,
		Conn:      conn,
		SessionID: hdr.SessionID,
		TreeID:    hdr.TreeID,
		Related:   hasInheritedFileID,
	}
	if hasInheritedFileID {
		rc.InheritedFileID = inheritedFileID
	}

	if entry.NeedsSession {
		if _, ok := d.sessions.GetSession(hdr.SessionID); !ok {
			return nil, wire.StatusUserSessionDeleted, createdFileID, false
		}
	}
	if entry.NeedsTree {
		sess, ok := d.sessions.GetSession(hdr.SessionID)
		if !ok {
			return nil, wire.StatusUserSessionDeleted, createdFileID, false
		}
		if _, ok := sess.GetTree(hdr.TreeID); !ok {
			return nil, wire.StatusNetworkNameDeleted, createdFileID, false
		}
	}

	d.sessions.RequestStarted(hdr.SessionID)
	defer d.sessions.RequestCompleted(hdr.SessionID)

	cmd := hdr.Command.String()
	if d.Metrics != nil {
		d.Metrics.RecordCommandStart(cmd)
		defer d.Metrics.RecordCommandEnd(cmd)
	}
	start := time.Now()
	respBody, status = entry.Handler(ctx, rc, body)
	if d.Metrics != nil {
		d.Metrics.RecordCommand(cmd, status.String(), time.Since(start))
	}
	return respBody, status, rc.CreatedFileID, rc.HasCreatedFileID
}

func verifySignature(sess *session.Session, hdr *wire.Header, full []byte) error {
	if hdr.SessionID == 0 || hdr.Command == wire.CommandNegotiate || hdr.Command == wire.CommandSessionSetup {
		return nil
	}
	if sess == nil {
		return nil
	}
	if !sess.ShouldVerify() {
		return nil
	}
	if !hdr.IsSigned() {
		return errSignatureRequired
	}
	if !sess.VerifyMessage(full) {
		return errSignatureMismatch
	}
	return nil
}

// assembleResponses back-fills each response's NextCommand offset,
// signs it if its session requires signing, 8-byte-aligns it, and
// concatenates the chain into one message body.
func assembleResponses(items []pending) []byte {
	if len(items) == 0 {
		return nil
	}

	raws := make([][]byte, len(items))
	for i, it := range items {
		raw := append(it.header.Encode(), it.body...)
		pad := (8 - len(raw)%8) % 8
		if pad > 0 {
			raw = append(raw, make([]byte, pad)...)
		}
		raws[i] = raw
	}

	for i := 0; i < len(raws)-1; i++ {
		items[i].header.NextCommand = uint32(len(raws[i]))
		copy(raws[i][:wire.HeaderSize], items[i].header.Encode())
	}

	for i, it := range items {
		if it.session != nil && it.session.ShouldSign() {
			it.session.SignMessage(raws[i])
		}
	}

	total := 0
	for _, r := range raws {
		total += len(r)
	}
	out := make([]byte, 0, total)
	for _, r := range raws {
		out = append(out, r...)
	}
	return out
}
