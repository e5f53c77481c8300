package errors

import "fmt"

var (
	ErrHandlerPanic = fmt.Errorf("command handler panic")
	ErrWorkerPanic  = fmt.Errorf("worker panic")
)
