package taskbridge_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	taskbridge "github.com/mochi-browser/taskbridge"
)

// ExampleSpawn demonstrates the spawn / poll cycle with only one import.
func ExampleSpawn() {
	b, err := taskbridge.NewBridge(taskbridge.Options{Backend: "threaded", Workers: 2})
	if err != nil {
		panic(err)
	}
	defer b.Shutdown()

	done := false
	taskbridge.Spawn(b, taskbridge.Func(func(ctx context.Context) (int, error) {
		return 6 * 7, nil
	}), func(o taskbridge.Outcome[int]) {
		fmt.Println(o)
		done = true
	})

	// The frame loop.
	for !done {
		b.Poll()
		time.Sleep(time.Millisecond)
	}

	// Output:
	// Success(42)
}

// ExampleSpawnWithTimeout demonstrates racing work against a timer.
func ExampleSpawnWithTimeout() {
	b, err := taskbridge.NewBridge(taskbridge.Options{Backend: "threaded", Workers: -1})
	if err != nil {
		panic(err)
	}
	defer b.Shutdown()

	slow := taskbridge.Func(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	done := false
	taskbridge.SpawnWithTimeout(b, slow, 10*time.Millisecond, func(o taskbridge.Outcome[string]) {
		fmt.Println(errors.Is(o.Err, taskbridge.ErrTimeout))
		done = true
	})

	for !done {
		b.Poll()
		time.Sleep(time.Millisecond)
	}

	// Output:
	// true
}

// ExampleSteps demonstrates incremental work on the cooperative backend.
func ExampleSteps() {
	b, err := taskbridge.NewBridge(taskbridge.Options{Backend: "cooperative"})
	if err != nil {
		panic(err)
	}
	defer b.Shutdown()

	sum, i := 0, 0
	task := taskbridge.Steps(func(ctx context.Context) (int, bool, error) {
		i++
		sum += i
		return sum, i == 10, nil
	})

	done := false
	taskbridge.Spawn(b, task, func(o taskbridge.Outcome[int]) {
		fmt.Println(o.Value)
		done = true
	})

	for !done {
		b.Poll()
		time.Sleep(time.Millisecond)
	}

	// Output:
	// 55
}
