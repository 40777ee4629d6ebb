package viewer

import (
	"fmt"
	"time"

	"github.com/Faultbox/icebox/internal/voxel"
)

// statsInterval is how often the title readout refreshes.
const statsInterval = 500 * time.Millisecond

// frameStats accumulates frame times between title refreshes.
type frameStats struct {
	since  time.Time
	frames int
	total  time.Duration

	avg time.Duration
	fps float64
}

func (s *frameStats) reset(now time.Time) {
	s.since = now
	s.frames = 0
	s.total = 0
}

// add records one frame. It reports true when a new readout is ready.
func (s *frameStats) add(now time.Time, dt time.Duration) bool {
	s.frames++
	s.total += dt

	elapsed := now.Sub(s.since)
	if elapsed < statsInterval {
		return false
	}
	s.avg = s.total / time.Duration(s.frames)
	s.fps = float64(s.frames) / elapsed.Seconds()
	s.reset(now)
	return true
}

func (s *frameStats) title(prefix string, scene *voxel.Result) string {
	ms := float64(s.avg.Microseconds()) / 1000
	if scene == nil {
		return fmt.Sprintf("%s | %.2f ms (%.0f fps)", prefix, ms, s.fps)
	}
	return fmt.Sprintf("%s | depth %d | %d nodes, %d leaves | %.2f ms (%.0f fps)",
		prefix, scene.Stats.MaxDepth, scene.Nodes, scene.Stats.Leaves, ms, s.fps)
}
