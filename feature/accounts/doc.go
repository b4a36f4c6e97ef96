// Package accounts implements the tracked-account management feature.
//
// It owns the account table in both stores and wires them into the sync
// engine:
//  1. Local (SQLite): The authoritative on-device copy.
//  2. Remote (MySQL): The shared copy other devices reconcile against.
//
// # Components
//
//   - LocalStore / RemoteStore: GORM-backed adapters implementing the
//     core/reconcile store interfaces.
//   - Service: Registration, listing with resolved session status, and
//     sync triggering.
//   - Handler: Exposes HTTP endpoints for the dashboard.
//
// # HTTP Endpoints
//
//   - GET  /accounts         : List accounts with resolved session status.
//   - POST /accounts         : Register a new account.
//   - GET  /accounts/:phone  : Get one account with resolved status.
//   - POST /accounts/sync    : Trigger a reconciliation pass (?force=true).
package accounts
