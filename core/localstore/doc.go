// Package localstore handles the on-device persistent store.
//
// It opens a SQLite database on local disk through GORM, mirroring the
// shape of the remote database connection in core/database. The local store
// is the reconciler's LWW counterpart to the remote database: the dashboard
// keeps working against it while the remote side is unreachable, and the
// reconciler folds the two back together later.
package localstore
