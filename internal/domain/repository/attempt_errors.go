package repository

import "errors"

var (
	// ErrInProgressExists означает, что для пары (user_id, quiz_id) уже есть другая попытка in_progress.
	ErrInProgressExists = errors.New("another attempt is already in progress")
	// ErrStaleAttempt означает, что попытка уже отправлена или была перезапущена после чтения.
	ErrStaleAttempt = errors.New("attempt is no longer in progress")
)
