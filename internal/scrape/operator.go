package scrape

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// Operator is the human (or automated stand-in) that clears challenges the
// scraper cannot. ResolveChallenge blocks until the challenge is dealt
// with or the context is cancelled; it is the pipeline's only unbounded
// suspension point.
type Operator interface {
	ResolveChallenge(ctx context.Context, region string) error
}

// ConsoleOperator prompts on the terminal and waits for a keypress while
// the operator solves the challenge in the visible browser window.
type ConsoleOperator struct {
	in  io.Reader
	out io.Writer
}

func NewConsoleOperator(in io.Reader, out io.Writer) *ConsoleOperator {
	return &ConsoleOperator{in: in, out: out}
}

func (c *ConsoleOperator) ResolveChallenge(ctx context.Context, region string) error {
	fmt.Fprintf(c.out, "Challenge page shown for region %s. Solve it in the browser window, then press Enter to continue...\n", region)

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(c.in).ReadString('\n')
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read operator input: %w", err)
		}
		return nil
	}
}

// OperatorFunc adapts a function to the Operator interface.
type OperatorFunc func(ctx context.Context, region string) error

func (f OperatorFunc) ResolveChallenge(ctx context.Context, region string) error {
	return f(ctx, region)
}
