package port

import "context"

// Repositories is the set of repositories bound to one transaction.
type Repositories struct {
	Clients    ClientRepository
	Tokens     TokenRepository
	Onboarding OnboardingRepository
	Documents  DocumentRepository
	Activity   ActivityRepository
}

// TxManager runs fn inside a database transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
