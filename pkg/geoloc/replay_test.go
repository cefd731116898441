package geoloc_test

import (
	"context"
	"testing"
	"time"

	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/geoloc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replayPath() []datastructure.Coordinate {
	return []datastructure.Coordinate{
		datastructure.NewCoordinate(12.9716, 77.5946),
		datastructure.NewCoordinate(12.9650, 77.6000),
		datastructure.NewCoordinate(12.9352, 77.6245),
	}
}

func TestReplayProviderCurrent(t *testing.T) {
	t.Run("returns first point", func(t *testing.T) {
		p := geoloc.NewReplayProvider(replayPath(), time.Millisecond)
		pos, err := p.Current(context.Background())
		require.NoError(t, err)
		assert.Equal(t, replayPath()[0], pos.Coord)
		assert.False(t, pos.At.IsZero())
	})

	t.Run("empty path is unavailable", func(t *testing.T) {
		p := geoloc.NewReplayProvider(nil, time.Millisecond)
		_, err := p.Current(context.Background())
		assert.ErrorIs(t, err, geoloc.ErrUnavailable)
	})
}

func TestReplayProviderWatch(t *testing.T) {
	t.Run("emits every point then closes", func(t *testing.T) {
		p := geoloc.NewReplayProvider(replayPath(), time.Millisecond)
		w, err := p.WatchPosition(context.Background())
		require.NoError(t, err)
		defer w.Stop()

		got := []datastructure.Coordinate{}
		for pos := range w.Samples {
			got = append(got, pos.Coord)
		}
		assert.Equal(t, replayPath(), got)
	})

	t.Run("stop ends the stream and is idempotent", func(t *testing.T) {
		p := geoloc.NewReplayProvider(replayPath(), 50*time.Millisecond)
		w, err := p.WatchPosition(context.Background())
		require.NoError(t, err)

		w.Stop()
		w.Stop()

		_, open := <-w.Samples
		assert.False(t, open)
	})
}
