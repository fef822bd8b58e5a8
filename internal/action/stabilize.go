package action

import (
	"context"
	"fmt"
	"math"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// waitUntilStable advances the simulation one round at a time until no watched
// object moved more than StabilizeEpsilon between two consecutive snapshots,
// or until StabilizeMaxTicks rounds have passed. Cancelling ctx stops the poll.
func (s *Session) waitUntilStable(ctx context.Context, ids []state.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	prev := s.current
	for tick := range s.cfg.StabilizeMaxTicks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("wait for rest: %w", err)
		}
		snap, err := s.backend.Send(ctx)
		if err != nil {
			return fmt.Errorf("advance round: %w", err)
		}
		s.observe(snap)
		if snap.MaxDisplacement(prev, ids) < s.cfg.StabilizeEpsilon {
			s.logger.Debug("objects at rest", "objects", ids, "ticks", tick+1)
			return nil
		}
		prev = snap
	}
	stabilizeCapTotal.Inc()
	s.logger.Warn("rest poll hit tick cap", "objects", ids, "ticks", s.cfg.StabilizeMaxTicks)
	return nil
}

// levelingWristAngle returns the wrist X target that brings a held container's
// opening back to face up, given the container's world rotation.
func levelingWristAngle(q state.Quat) float64 {
	roll := math.Atan2(2*q.X*q.W-2*q.Y*q.Z, 1-2*q.X*q.X-2*q.Z*q.Z)
	x := -roll * 180 / math.Pi
	if x > 90 {
		x -= 180
	} else if x > 0 {
		x = -x
	}
	return x
}
