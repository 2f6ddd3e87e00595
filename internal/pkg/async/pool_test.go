package async

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecuteCollectsAllResults(t *testing.T) {
	tasks := make([]Task, 0, 6)
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("task-%d", i)
		value := i
		tasks = append(tasks, Task{
			Name:    name,
			Execute: func() (any, error) { return value, nil },
		})
	}
	tasks = append(tasks, Task{
		Name:    "failing",
		Execute: func() (any, error) { return nil, errors.New("query failed") },
	})

	results := NewPool(3).Execute(context.Background(), tasks)

	assert.Len(t, results, 7)
	for i := 0; i < 6; i++ {
		result := results[fmt.Sprintf("task-%d", i)]
		assert.NoError(t, result.Err)
		assert.Equal(t, i, result.Data)
	}
	assert.Error(t, results["failing"].Err)
}

func TestExecuteCancelledMidFlight(t *testing.T) {
	before := runtime.NumGoroutine()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	slow := func() (any, error) {
		time.Sleep(50 * time.Millisecond)
		return nil, nil
	}
	tasks := []Task{
		{Name: "slow-a", Execute: slow},
		{Name: "slow-b", Execute: slow},
	}

	results := NewPool(2).Execute(ctx, tasks)
	assert.Less(t, len(results), 2)

	// Give in-flight tasks time to finish; their workers must exit instead
	// of blocking on the result channel nobody reads anymore.
	time.Sleep(200 * time.Millisecond)
	assert.LessOrEqual(t, runtime.NumGoroutine(), before+1)
}
