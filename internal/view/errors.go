package view

import "errors"

var (
	ErrUnknownGroup  = errors.New("unknown group")
	ErrUnknownProxy  = errors.New("unknown proxy")
	ErrNotSelectable = errors.New("group does not accept manual selection")
)
