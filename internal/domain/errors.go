package domain

import "errors"

var (
	// ErrAlreadyOpen: у работника уже есть открытая запись.
	ErrAlreadyOpen = errors.New("attendance: worker already has an open record")
	ErrNotFound    = errors.New("attendance: not found")
	// ErrConflict: нарушение инварианта на уровне хранилища, например гонка при создании.
	ErrConflict   = errors.New("attendance: conflicting write")
	ErrValidation = errors.New("attendance: validation failed")
	// ErrPartialBatch: часть элементов пакета обработана с ошибкой.
	ErrPartialBatch = errors.New("attendance: batch partially failed")
)
