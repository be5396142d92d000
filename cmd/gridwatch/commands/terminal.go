package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"gridwatch-backend/services/collector"
)

// terminalEscalator asks the operator what to do when account
// discovery comes up empty.
type terminalEscalator struct{}

func (terminalEscalator) Ask(ctx context.Context) (collector.Choice, error) {
	fmt.Println("could not find any electricity accounts on the page")
	fmt.Println("  [r] retry discovery")
	fmt.Println("  [u] reload the page, then retry")
	fmt.Println("  [d] dump the page source for a look")
	fmt.Println("  [i] pause so you can inspect the browser")
	fmt.Println("  [q] give up")
	fmt.Print("> ")

	line, err := readLine(ctx)
	if err != nil {
		return "", err
	}
	return collector.Choice(strings.ToLower(line)), nil
}

// terminalCodePrompt relays the SMS verification code during a
// phone-code login.
type terminalCodePrompt struct{}

func (terminalCodePrompt) Code(ctx context.Context) (string, error) {
	fmt.Print("enter the verification code sent to your phone: ")
	return readLine(ctx)
}

// readLine reads one trimmed line off stdin without outliving the
// context.
func readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		ch <- result{strings.TrimSpace(line), err}
	}()
	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
