package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/profileimg"
	"github.com/trezcool/mahudhurio/services/upstream"
)

const (
	tokenEnvVar = "MAHUDHURIO_TOKEN"
	cellWidth   = 3
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	termWidthFunc    = stdoutWidth       // mockable

	errHelp = errors.New("help provided")
)

type calendarService interface {
	NewResolver() *profileimg.Resolver
	CalendarUsing(ctx context.Context, q attendance.CalendarQuery, r attendance.ImageResolver) (attendance.CalendarView, error)
}

type commandLine struct {
	attSvc     calendarService
	validate   *validator.Validate
	translator ut.Translator
	maxDays    int
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  calendar -group ID -from YYYY-MM-DD -to YYYY-MM-DD [-watch DURATION] - print a group's attendance calendar")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	calendarCmd := flag.NewFlagSet("calendar", flag.ExitOnError)
	calendarGroup := calendarCmd.Int("group", 0, "The group's ID.")
	calendarFrom := calendarCmd.String("from", "", "First day of the period, YYYY-MM-DD.")
	calendarTo := calendarCmd.String("to", "", "Last day of the period, YYYY-MM-DD.")
	calendarWatch := calendarCmd.Duration("watch", 0, "Re-fetch the calendar at this interval until interrupted.")
	calendarRefreshes := calendarCmd.Int("refreshes", 0, "With -watch, stop after printing this many calendars.")

	switch args[1] {
	case "calendar":
		if err := calendarCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *calendarGroup <= 0 {
			calendarCmd.Usage()
			return errHelp
		}
		q := attendance.CalendarQuery{GroupID: *calendarGroup, From: *calendarFrom, To: *calendarTo}
		if err := q.Validate(cli.validate, cli.maxDays); err != nil {
			return cli.validationError(err)
		}

		token, err := apiToken()
		if err != nil {
			return err
		}
		if token == "" {
			calendarCmd.Usage()
			return errHelp
		}
		ctx = upstream.WithToken(ctx, token)

		if *calendarWatch > 0 {
			return cli.watchCalendar(ctx, q, *calendarWatch, *calendarRefreshes)
		}
		view, err := cli.attSvc.CalendarUsing(ctx, q, cli.attSvc.NewResolver())
		if err != nil {
			return err
		}
		cli.printCalendar(view)
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

// apiToken reads the token from the environment, or prompts for it.
func apiToken() (string, error) {
	if token := core.CleanString(os.Getenv(tokenEnvVar)); token != "" {
		return token, nil
	}
	fmt.Print("Enter API token:")
	token, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return core.CleanString(string(token)), nil
}

// watchCalendar prints the calendar every interval until ctx is done, or refreshes calendars were printed.
// All refreshes share one image resolver: a slow refresh is superseded by the next one.
func (cli *commandLine) watchCalendar(ctx context.Context, q attendance.CalendarQuery, every time.Duration, refreshes int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resolver := cli.attSvc.NewResolver()
	views := make(chan attendance.CalendarView)
	errs := make(chan error, 1)

	refresh := func() {
		view, err := cli.attSvc.CalendarUsing(ctx, q, resolver)
		switch {
		case err == attendance.ErrSuperseded:
		case err != nil:
			select {
			case errs <- err:
			default:
			}
		default:
			select {
			case views <- view:
			case <-ctx.Done():
			}
		}
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	go refresh()

	var printed int
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case view := <-views:
			if printed > 0 {
				fmt.Fprintln(cli.out)
			}
			cli.printCalendar(view)
			printed++
			if refreshes > 0 && printed >= refreshes {
				return nil
			}
		case <-ticker.C:
			go refresh()
		}
	}
}

func (cli *commandLine) printCalendar(view attendance.CalendarView) {
	fmt.Fprint(cli.out, renderGrid(view, termWidthFunc()))
}

// renderGrid lays out the calendar as text, every line clipped to width when width > 0.
func renderGrid(view attendance.CalendarView, width int) string {
	lines := []string{
		fmt.Sprintf("Attendance of group %d from %s to %s", view.GroupID, view.From, view.To),
		"",
	}
	if len(view.Rows) == 0 {
		lines = append(lines, "No attendance recorded over this period.")
		return joinLines(lines, width)
	}

	nameWidth := len("Student")
	for _, row := range view.Rows {
		if n := len([]rune(row.Student.Name)); n > nameWidth {
			nameWidth = n
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s ", nameWidth, "")
	for _, seg := range view.Segments {
		w := seg.Len() * cellWidth
		fmt.Fprintf(&b, "%-*.*s", w, w-1, seg.Label())
	}
	lines = append(lines, b.String())

	b.Reset()
	fmt.Fprintf(&b, "%-*s ", nameWidth, "Student")
	for _, day := range view.Days() {
		fmt.Fprintf(&b, "%*d", cellWidth, day.Day)
	}
	fmt.Fprintf(&b, "%4s%4s%4s%4s%4s%5s", "P", "A", "L", "E", "-", "%")
	lines = append(lines, b.String())

	for _, row := range view.Rows {
		b.Reset()
		fmt.Fprintf(&b, "%-*s ", nameWidth, row.Student.Name)
		for _, cell := range row.Cells {
			fmt.Fprintf(&b, "%*s", cellWidth, cell)
		}
		s := row.Stats
		fmt.Fprintf(&b, "%4d%4d%4d%4d%4d%5s", s.Present, s.Absent, s.Late, s.Excused, s.NoData, fmt.Sprintf("%d%%", s.Percentage))
		lines = append(lines, b.String())
	}
	return joinLines(lines, width)
}

func joinLines(lines []string, width int) string {
	var b strings.Builder
	for _, line := range lines {
		if r := []rune(line); width > 0 && len(r) > width {
			line = string(r[:width])
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// validationError flattens a validation failure into a single readable error.
func (cli *commandLine) validationError(err error) error {
	var msgs []string
	switch vErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, fErr := range vErr {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fErr.Field(), fErr.Translate(cli.translator)))
		}
	case *core.ValidationError:
		for _, fErr := range vErr.Fields {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fErr.Field, fErr.Error))
		}
	default:
		return err
	}
	sort.Strings(msgs)
	return errors.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
}

// stdoutWidth is the terminal width of stdout, 0 when it is not a terminal.
func stdoutWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}
