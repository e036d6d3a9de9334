package handlers

import (
	"context"
	"net"

	"github.com/smbdfs/smbd/internal/registry"
	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/session"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// TreeConnect implements SMB2_TREE_CONNECT: resolves the share named in
// the request's UNC path against the registry, applies its host/user
// access policy, and attaches the result to the session as the newly
// allocated tree ID. [MS-SMB2] 3.3.5.7
func (d *Deps) TreeConnect(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseTreeConnectRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	shareName := session.ParseSharePath(req.Path)
	if shareName == "" {
		return nil, wire.StatusBadNetworkName
	}

	sess, ok := d.Sessions.GetSession(rc.SessionID)
	if !ok {
		return nil, wire.StatusUserSessionDeleted
	}

	host := rc.Conn.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	lookup := registry.ShareLookupAdapter{Registry: d.Registry}
	tc, status := d.Sessions.ConnectTree(rc.SessionID, shareName, host, sess.Username, sess.IsGuest, lookup)
	if !status.IsSuccess() {
		return nil, status
	}

	rc.Header.TreeID = tc.TreeID

	resp := &wire.TreeConnectResponse{
		ShareType:     wire.ShareType(tc.ShareType),
		ShareFlags:    0,
		Capabilities:  0,
		MaximalAccess: wire.AccessMask(tc.MaximalAccess),
	}
	return resp.Encode(), wire.StatusSuccess
}

// TreeDisconnect implements SMB2_TREE_DISCONNECT: drops the tree
// connect and every open handle still attached to it. [MS-SMB2] 3.3.5.8
func (d *Deps) TreeDisconnect(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	if _, err := wire.ParseTreeDisconnectRequest(body); err != nil {
		return nil, wire.StatusInvalidParameter
	}

	sess, ok := d.Sessions.GetSession(rc.SessionID)
	if !ok {
		return nil, wire.StatusUserSessionDeleted
	}

	for _, of := range rc.Conn.Handles.All() {
		if of.TreeID == rc.TreeID && of.SessionID == rc.SessionID {
			d.Oplocks.Detach(of.Path, of.ID.Volatile)
			rc.Conn.Handles.Close(of.ID.Volatile)
		}
	}

	sess.RemoveTree(rc.TreeID)

	resp := &wire.TreeDisconnectResponse{}
	return resp.Encode(), wire.StatusSuccess
}
