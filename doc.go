// Package session implements the session and access-control core for the
// Jobstack web frontend: who the current principal is, whether they are
// authenticated, and which areas of the application they may reach.
//
// Components:
//   - TokenStore persists credential material per role across process reloads
//     (cookie medium for the request-time gate, bun/sqlite for the process).
//   - Client is the stateless adapter for the external identity service; one
//     generic client covers every principal kind through a role-to-namespace
//     mapping instead of duplicated per-role call sites.
//   - Manager is the single constructible session state holder with explicit
//     Hydrating, Unauthenticated and Authenticated states. A persisted token
//     with no known principal never authenticates by itself.
//   - Actions composes Client and Manager: it runs login/registration flows
//     and feeds successful results into the session, and fans out best-effort
//     logout to every role while always clearing local state.
//   - VerificationFlow drives OTP code entry and the resend cooldown for both
//     email confirmation and password reset.
//   - Policy is the pure access-control evaluator shared by the request-time
//     gate (RequestGate, cookie-only) and the render-time guard (Guard, which
//     waits for hydration), so both sides always reach the same decision for
//     the same path, token presence and role.
package session
