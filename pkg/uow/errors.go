package uow

import "errors"

var (
	ErrRepositoryAlreadyRegistered = errors.New("repository already registered")
	ErrRepositoryNotRegistered     = errors.New("repository not registered")
	ErrInvalidRepositoryType       = errors.New("invalid repository type")
)
