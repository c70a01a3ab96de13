// Package session tracks per-connection telemetry sessions.
//
// # Overview
//
// The Registry owns one Session per active client connection. A session
// moves through non-existent -> active -> ended; once ended its id is
// removed, so stale tracking calls silently no-op. Ending a session
// computes a Summary (duration, features used, interactions, errors,
// distinct mesh patterns) which is emitted on the session_end event and
// returned to the caller.
//
// # Usage Example
//
//	reg := session.NewRegistry(emit, metrics.ActiveSessions, nil)
//	id := reg.Start(event.PlatformInfo{OS: "ios", AppVersion: "2.4.0"})
//	reg.RecordFeature(id, "mesh_brush")
//	summary := reg.End(id, "user_quit") // second End(id, ...) returns nil
package session
