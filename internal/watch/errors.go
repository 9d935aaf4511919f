package watch

import "errors"

// Errors returned by the watcher.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("file is already being watched")
	ErrNotWatching     = errors.New("file is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
	ErrIsDirectory     = errors.New("path is a directory")
)
