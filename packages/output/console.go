package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/abdul-hamid-achik/jsoncall/packages/restcall"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatCall(r *CallReport) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	if f.verbose {
		status := "-"
		if r.StatusCode > 0 {
			status = fmt.Sprintf("%d %s", r.StatusCode, r.Status)
		}
		switch r.Outcome {
		case restcall.OutcomeSuccess:
			status = green(status)
		case restcall.OutcomeNoContent:
			status = yellow(status)
		default:
			status = red(status)
		}
		fmt.Fprintf(f.writer, "%s %s%s %s %s\n", bold(r.Verb), r.Host, r.Path, status, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))
	}

	switch r.Outcome {
	case restcall.OutcomeSuccess:
		f.writeDocument(r.Body)
	case restcall.OutcomeNoContent:
		if f.verbose {
			fmt.Fprintf(f.writer, "%s\n", yellow("(no content)"))
		}
	default:
		fmt.Fprintf(f.writer, "%s %s\n", red(r.Code.String()+":"), r.Message)
	}
}

func (f *ConsoleFormatter) writeDocument(body []byte) {
	if !gjson.ValidBytes(body) {
		// plain values selected by a query
		fmt.Fprintf(f.writer, "%s\n", body)
		return
	}
	out := pretty.Pretty(body)
	if !color.NoColor {
		out = pretty.Color(out, nil)
	}
	_, _ = f.writer.Write(out)
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}
