package batchutil

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFatalUnwraps(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := fmt.Errorf("write output: %w", &Fatal{Err: cause})

	var fatal *Fatal
	require.True(t, errors.As(err, &fatal))
	require.ErrorIs(t, err, cause)
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Sleep(ctx, time.Minute), context.Canceled)
}
