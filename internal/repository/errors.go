package repository

import "errors"

var (
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrOptimisticLock  = errors.New("optimistic lock conflict: data was modified by another process")
	ErrLockNotAcquired = errors.New("lock is held by another process")
)
