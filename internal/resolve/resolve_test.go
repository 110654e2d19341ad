package resolve

import (
	"context"

	"github.com/harrison/badgeforge/internal/models"
)

// fakeRunner satisfies CommandRunner for resolver tests without spawning
// processes. It records every invocation.
type fakeRunner struct {
	fn    func(argv []string) models.ProcessOutcome
	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, argv []string) models.ProcessOutcome {
	f.calls = append(f.calls, argv)
	if f.fn == nil {
		return models.ProcessOutcome{ExitCode: -1, Stderr: "no fake configured"}
	}
	return f.fn(argv)
}

func (f *fakeRunner) RunCombined(ctx context.Context, argv []string) models.ProcessOutcome {
	return f.Run(ctx, argv)
}
