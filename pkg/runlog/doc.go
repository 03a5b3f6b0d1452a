// Package runlog records structured session events as JSON lines in a daily log file.
//
// Invariants:
// - One Log call appends exactly one newline-terminated JSON object.
// - Appends from one SessionLogger are serialized; the file is opened and closed per call.
// - Field order is timestamp, session_id, event, agent, data; agent and data are omitted when empty.
// - Payload values are passed through MakeJSONSafe, so payload content never fails encoding.
//
// Usage:
//
//	sl, _ := runlog.Create("./agentrunlog")
//	_ = sl.Log("session_start", "Agency", map[string]interface{}{"model": "gpt-5"})
//	fmt.Println(sl.Path())
package runlog
