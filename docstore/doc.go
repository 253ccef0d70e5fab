// Package docstore adapts MongoDB to the document store surface the write
// coordinator needs: per-document CRUD with optional session-scoped
// transactions. Operations run under a session observe its staged writes
// and become durable only when the session commits; Abort rolls back
// everything staged. Missing update and delete targets are reported as zero
// counts rather than errors.
package docstore
