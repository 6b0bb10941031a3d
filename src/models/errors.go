package models

import "errors"

// Error kinds raised by the pipeline. Callers wrap them with context and
// match with errors.Is.
var (
	ErrIO       = errors.New("io error")
	ErrSchema   = errors.New("schema error")
	ErrFormat   = errors.New("format error")
	ErrCategory = errors.New("category error")
)
