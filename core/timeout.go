package core

import (
	"fmt"
	"time"
)

// SpawnWithTimeout races task against a Sleep(d) timer. onComplete receives
// whichever finishes first: the task's own outcome, or Failure(ErrTimeout)
// when the timer wins. The loser is cancelled; its outcome is still
// delivered internally and then ignored.
//
// Each call occupies two pending slots, one for task and one for the timer,
// so it counts twice against BridgeConfig.MaxPending until both are
// delivered. With a single free slot it fails with ErrOverloaded.
//
// The returned handle belongs to task. Submission failures behave as in Spawn.
func SpawnWithTimeout[V any](b *Bridge, task Task[V], d time.Duration, onComplete func(Outcome[V])) (*TaskHandle, error) {
	// settled is only touched from callbacks, which all run on the UI context.
	settled := false
	var timer *TaskHandle

	settle := func(o Outcome[V]) {
		settled = true
		if onComplete != nil {
			onComplete(o)
		}
	}

	handle, err := Spawn(b, task, func(o Outcome[V]) {
		if settled {
			return
		}
		timer.Cancel()
		settle(o)
	})
	if err != nil {
		return nil, err
	}

	timerName := fmt.Sprintf("timeout(%s)", handle.Name())
	timer, err = Spawn(b, Sleep(d).Named(timerName), func(o Outcome[struct{}]) {
		if settled || !o.IsSuccess() {
			return
		}
		handle.Cancel()
		settle(Failure[V](ErrTimeout))
	})
	if err != nil {
		handle.Cancel()
		settle(Failure[V](err))
		return nil, err
	}
	return handle, nil
}
