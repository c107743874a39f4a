package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Bounds for identifiers typed by hand when the list is unavailable.
const (
	MinManualID int64 = 100000
	MaxManualID int64 = 999999
)

// Session is the interactive menu loop. The identifier list is read through
// the client cache on every use, so its TTL bounds how stale the menu gets.
type Session struct {
	client *Client
	render *Renderer
	in     *bufio.Scanner
	out    io.Writer

	manual bool
}

// NewSession wires a session to the given streams.
func NewSession(c *Client, r *Renderer, in io.Reader, out io.Writer) *Session {
	return &Session{
		client: c,
		render: r,
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

// Run loads the identifier list, then serves the menu until the user quits
// or input ends.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "Credit scoring client (%s)\n", s.client.BaseURL())
	s.clients(ctx, true)

	for {
		s.menu()
		line, ok := s.prompt("Choose an option: ")
		if !ok {
			return nil
		}
		switch line {
		case "1":
			ids := s.clients(ctx, false)
			if ids == nil {
				s.render.Warn("Client list unavailable, enter identifiers manually.")
				continue
			}
			if err := s.render.Clients(ids); err != nil {
				return err
			}
		case "2":
			id, ok := s.askID(ctx)
			if !ok {
				continue
			}
			res, err := s.client.Predict(ctx, id)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				s.render.Error(err, s.client.BaseURL())
				continue
			}
			if err := s.render.Prediction(res); err != nil {
				return err
			}
		case "3":
			s.client.Refresh()
			s.clients(ctx, true)
		case "4", "q", "quit", "exit":
			fmt.Fprintln(s.out, "Bye.")
			return nil
		default:
			s.render.Warn("Invalid option, please try again.")
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// clients returns the identifier list, or nil when it cannot be fetched or
// is empty; nil switches the session to manual entry. The status is printed
// when report is set or when the session changes mode.
func (s *Session) clients(ctx context.Context, report bool) []int64 {
	ids, err := s.client.Clients(ctx)
	manual := err != nil || len(ids) == 0
	if report || manual != s.manual {
		switch {
		case err != nil:
			s.render.Error(err, s.client.BaseURL())
		case manual:
			s.render.Warn("No clients available.")
		default:
			fmt.Fprintf(s.out, "%d clients available.\n", len(ids))
		}
		if manual {
			fmt.Fprintf(s.out, "Manual entry enabled (%d to %d).\n", MinManualID, MaxManualID)
		}
	}
	s.manual = manual
	if manual {
		return nil
	}
	return ids
}

func (s *Session) menu() {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "1. List clients")
	fmt.Fprintln(s.out, "2. Score a client")
	fmt.Fprintln(s.out, "3. Refresh client list")
	fmt.Fprintln(s.out, "4. Quit")
}

func (s *Session) askID(ctx context.Context) (int64, bool) {
	ids := s.clients(ctx, false)
	line, ok := s.prompt("Client identifier: ")
	if !ok {
		return 0, false
	}
	if ids == nil {
		id, err := ParseManualID(line)
		if err != nil {
			s.render.Warn(err.Error())
			return 0, false
		}
		return id, true
	}

	id, err := strconv.ParseInt(line, 10, 64)
	if err != nil || !lo.Contains(ids, id) {
		s.render.Warn(fmt.Sprintf("%q is not in the client list.", line))
		return 0, false
	}
	return id, true
}

func (s *Session) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// ParseManualID parses a hand-typed identifier and checks its range.
func ParseManualID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidID, s)
	}
	if id < MinManualID || id > MaxManualID {
		return 0, fmt.Errorf("%w: %d is outside %d..%d", ErrInvalidID, id, MinManualID, MaxManualID)
	}
	return id, nil
}
