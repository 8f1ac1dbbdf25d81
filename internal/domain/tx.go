package domain

import "context"

// RepoSet is the set of repositories bound to one transaction.
type RepoSet interface {
	Devices() DeviceRepository
	Returns() ReturnRepository
	Installations() InstallationRepository
	Activity() ActivityRepository
}

// UnitOfWork runs fn atomically: every write inside fn commits together or
// not at all. A state transition and its activity log append always share
// one unit of work — losing the log entry silently would break the audit
// trail, so a failed append aborts the whole operation.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx RepoSet) error) error
}
