package handlers

import (
	"context"

	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// ChangeNotify implements SMB2_CHANGE_NOTIFY. This server holds no
// pending-request queue to wake on a later filesystem event, so a
// notify registration is acknowledged with an empty success response
// and never fires; clients that
// rely on it to invalidate directory caches fall back to polling via
// QUERY_DIRECTORY, which still reflects the backend's current state.
// [MS-SMB2] 3.3.5.19
func (d *Deps) ChangeNotify(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseChangeNotifyRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	id := handle.ParseID(req.FileID)
	if _, lookupErr := rc.Conn.Handles.Lookup(id.Volatile); lookupErr != nil {
		return nil, wire.StatusFileClosed
	}

	resp := &wire.ChangeNotifyResponse{}
	return resp.Encode(), wire.StatusSuccess
}
