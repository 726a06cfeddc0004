// Package session manages the client-side session and bearer-credential
// lifecycle for the clinical records application.
//
// Credential lifecycle:
//   - Credentials are opaque three-segment bearer tokens. The client never
//     holds key material, so claims are decoded without signature
//     verification; the records API is the sole verifier. A credential that
//     fails the structural check behaves exactly like an absent one.
//   - The Manager is the only writer of the credential store, the published
//     session, and the expiration scheduler. Login, logout, refresh, and
//     startup rehydration all funnel through its transition table, so no
//     observer can catch the system between a storage write and the matching
//     session update.
//
// Session state:
//   - SessionState publishes the (current user, authenticated) pair as one
//     atomic snapshot. Subscribers receive the current value immediately on
//     subscription and every change afterwards, so the two halves can never
//     be observed disagreeing.
//
// Expiration:
//   - ExpirationScheduler owns at most one pending sign-out slot. Arming
//     always cancels the previous slot first, applies the safety margin, and
//     fires eagerly when the credential is already inside the margin.
package session
