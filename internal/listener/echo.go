package listener

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	printPattern = regexp.MustCompile(`^print\((['"])(.*)(['"])\)$`)
	sleepPattern = regexp.MustCompile(`^(?:time\.)?sleep\(([0-9]+(?:\.[0-9]+)?)\)$`)
	raisePattern = regexp.MustCompile(`^raise\s+(?:[A-Za-z_][A-Za-z0-9_]*\((['"])(.*)(['"])\)|(.*))$`)
)

// EchoExecutor understands a tiny subset of Python, enough to exercise
// clients without the real application:
//
//	print('text')   appends "text\n" to the output
//	sleep(seconds)  blocks, honouring cancellation
//	raise Err('m')  fails the command with "m"
//
// Blank lines, comments and any other statement are accepted and ignored.
type EchoExecutor struct{}

// Compile-time verification that EchoExecutor implements Executor.
var _ Executor = EchoExecutor{}

// Execute implements Executor.
func (EchoExecutor) Execute(ctx context.Context, code string) (string, error) {
	var out strings.Builder

	for line := range strings.SplitSeq(code, "\n") {
		for stmt := range strings.SplitSeq(line, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" || strings.HasPrefix(stmt, "#") {
				continue
			}

			if m := printPattern.FindStringSubmatch(stmt); m != nil && m[1] == m[3] {
				out.WriteString(m[2])
				out.WriteString("\n")

				continue
			}

			if m := sleepPattern.FindStringSubmatch(stmt); m != nil {
				secs, _ := strconv.ParseFloat(m[1], 64)

				timer := time.NewTimer(time.Duration(secs * float64(time.Second)))

				select {
				case <-ctx.Done():
					timer.Stop()

					return out.String(), ctx.Err()
				case <-timer.C:
				}

				continue
			}

			if m := raisePattern.FindStringSubmatch(stmt); m != nil {
				msg := m[2]
				if msg == "" {
					msg = strings.TrimSpace(m[4])
				}

				return "", errors.New(msg)
			}
		}
	}

	return out.String(), nil
}
