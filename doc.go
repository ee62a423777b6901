// Package inboxsync implements the inbox-sync service which keeps the
// messaging dashboard's conversation view consistent with the platform
// backend.
//
// The service provides:
//   - Assistant send streams decoded from the platform's event protocol
//   - Optimistic transcript reconciliation (insert, remap, delta, finalize)
//   - Per-conversation stream cancellation
//   - A visibility-aware fallback poller for eventual consistency
//   - A pre-send compliance gate (permissions, opt-out, session window,
//     capability probe)
//   - JWT authentication via the workspace identity provider
package inboxsync
