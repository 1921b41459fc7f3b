package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/memsim/sim"
)

const shellMenu = `
Choose an operation:
1 - Allocate process
2 - Free process
3 - Display memory
4 - Compact memory
5 - Exit
6 - Show statistics
`

// Session is the interactive menu loop. It reads commands from in, drives a Simulator and
// writes messages to out; every allocation decision is the Simulator's.
type Session struct {
	sim  *sim.Simulator
	in   *bufio.Scanner
	out  io.Writer
	echo bool // repeat each input line after its prompt
}

// NewSession creates a Session over s reading from in and writing to out.
func NewSession(s *sim.Simulator, in io.Reader, out io.Writer) *Session {
	return &Session{sim: s, in: bufio.NewScanner(in), out: out}
}

// Run loops over menu choices until the user exits or the input ends.
// Returns a non-nil error only if reading the input failed.
func (ss *Session) Run() error {
	for {
		fmt.Fprint(ss.out, shellMenu)
		choice, err := ss.prompt("Enter choice (1-6): ")
		if err != nil {
			return ss.finish(err)
		}
		switch choice {
		case "1":
			err = ss.allocate()
		case "2":
			err = ss.free()
		case "3":
			RenderBlocks(ss.out, ss.sim.Snapshot())
		case "4":
			fmt.Fprintln(ss.out, "Compacting memory...")
			moved := ss.sim.Compact()
			fmt.Fprintf(ss.out, "Compaction complete (%d block(s) moved).\n", moved)
		case "5":
			fmt.Fprintln(ss.out, "Exiting...")
			return nil
		case "6":
			RenderStats(ss.out, ss.sim.Stats())
		default:
			fmt.Fprintln(ss.out, "Invalid choice. Try again.")
		}
		if err != nil {
			return ss.finish(err)
		}
	}
}

func (ss *Session) allocate() error {
	owner, err := ss.promptPositive("Enter process ID: ")
	if err != nil {
		return err
	}
	size, err := ss.promptPositive("Enter process size: ")
	if err != nil {
		return err
	}
	def := ss.sim.Config().Strategy
	var strat sim.Strategy
	for {
		token, err := ss.prompt(fmt.Sprintf("Enter allocation strategy (first/best/worst) [%s]: ", def))
		if err != nil {
			return err
		}
		if token == "" {
			strat = def
			break
		}
		if strat, err = sim.ParseStrategy(token); err == nil {
			break
		}
		fmt.Fprintln(ss.out, "Invalid strategy. Try again.")
	}

	start, err := ss.sim.Allocate(sim.OwnerID(owner), size, strat)
	if err != nil {
		fmt.Fprintln(ss.out, describeError(sim.OwnerID(owner), size, err))
		return nil
	}
	fmt.Fprintf(ss.out, "Process P%d allocated at address %d.\n", owner, start)
	return nil
}

func (ss *Session) free() error {
	owner, err := ss.promptPositive("Enter process ID to free: ")
	if err != nil {
		return err
	}
	if err := ss.sim.Free(sim.OwnerID(owner)); err != nil {
		fmt.Fprintln(ss.out, describeError(sim.OwnerID(owner), 0, err))
		return nil
	}
	fmt.Fprintf(ss.out, "Process P%d deallocated.\n", owner)
	return nil
}

// prompt writes text and returns the next trimmed input line, or io.EOF when input ends.
func (ss *Session) prompt(text string) (string, error) {
	fmt.Fprint(ss.out, text)
	if !ss.in.Scan() {
		if err := ss.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := strings.TrimSpace(ss.in.Text())
	if ss.echo {
		fmt.Fprintln(ss.out, line)
	}
	return line, nil
}

// promptPositive re-prompts until the user enters a positive integer.
func (ss *Session) promptPositive(text string) (int64, error) {
	for {
		line, err := ss.prompt(text)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(line, 10, 64)
		if err == nil && n > 0 {
			return n, nil
		}
		fmt.Fprintln(ss.out, "Invalid input. Please enter a positive whole number.")
	}
}

func (ss *Session) finish(err error) error {
	if err == io.EOF {
		fmt.Fprintln(ss.out)
		return nil
	}
	return err
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive allocate/free/compact session on a single region",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := baseConfig()
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		cfg.CompactOnNoFit = shellCompactOnNoFit
		logrus.Infof("Starting shell with total size %d, default strategy %s", cfg.TotalSize, cfg.Strategy)

		session := NewSession(sim.NewSimulator(cfg), os.Stdin, os.Stdout)
		// piped input is not echoed by a terminal
		session.echo = !isTTY(os.Stdin)
		if err := session.Run(); err != nil {
			logrus.Fatalf("Reading input: %v", err)
		}
	},
}

var shellCompactOnNoFit bool

func init() {
	shellCmd.Flags().BoolVar(&shellCompactOnNoFit, "compact-on-no-fit", false, "Compact and retry when a request fails only because free space is fragmented")

	rootCmd.AddCommand(shellCmd)
}
