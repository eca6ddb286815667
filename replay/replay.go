// Package replay turns a recorded runner.Attempt into the frame sequence
// the server package steps through: the initial state, plus the state
// after each action in the attempt, in order.
package replay

import (
	"context"

	"taxi/runner"
	"taxi/server"
	"taxi/world"
)

// BuildFrames replays attempt.Actions against attempt.InitialState and
// returns every intermediate state, including the initial and final
// ones, so the viewer can step one-for-one through the recorded rollout.
func BuildFrames(w *world.World, attempt runner.Attempt) []world.State {
	frames := make([]world.State, 0, len(attempt.Actions)+1)
	state := attempt.InitialState
	frames = append(frames, state)

	for _, action := range attempt.Actions {
		_, state = state.ApplyAction(w, action)
		frames = append(frames, state)
	}

	return frames
}

// Serve starts the replay viewer for attempt at addr (e.g. ":8080") and
// blocks until the http server returns (normally, that means it errored;
// Ctrl-C/process exit is the expected way for a human to stop it).
func Serve(ctx context.Context, addr string, w *world.World, attempt runner.Attempt) error {
	frames := BuildFrames(w, attempt)

	s, err := server.NewServer(ctx, addr, w, frames)
	if err != nil {
		return err
	}

	return s.Serve()
}
