package uow

import "github.com/jackc/pgx/v5"

// Transaction exposes registered repositories bound to a single pgx
// transaction. Created by UnitOfWork.Do.
type Transaction struct {
	tx           pgx.Tx
	repositories map[RepositoryName]RepositoryFactory
}

func NewTransaction(tx pgx.Tx, repositories map[RepositoryName]RepositoryFactory) *Transaction {
	return &Transaction{
		tx:           tx,
		repositories: repositories,
	}
}

// Get returns a repository bound to the transaction or
// ErrRepositoryNotRegistered.
func (t *Transaction) Get(name RepositoryName) (Repository, error) {
	if repoFactory, ok := t.repositories[name]; ok {
		return repoFactory(t.tx), nil
	}
	return nil, ErrRepositoryNotRegistered
}
