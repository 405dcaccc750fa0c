// Package a holds callback registrations the handoff analyzer must judge.
package a

import (
	"context"
	"time"
)

func armTimer(fire func()) *time.Timer {
	return time.AfterFunc(time.Second, fire) // want `callback of time\.AfterFunc runs off the worker thread`
}

func watchCancel(ctx context.Context, fire func()) func() bool {
	return context.AfterFunc(ctx, fire) // want `callback of context\.AfterFunc runs off the worker thread`
}

func pollsChannel() {
	_ = time.After(time.Second)
	t := time.NewTimer(time.Second)
	t.Stop()
}
