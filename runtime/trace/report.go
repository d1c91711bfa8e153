package trace

import (
	"errors"
	"io"

	"github.com/aledsdavies/syntaxalyser/runtime/parser"
)

// ReportHeader is the first line of every failure report
const ReportHeader = "Compilation Exception"

// WriteReport writes the failure report for a syntax error: the header
// line, then the chain outermost rule first. It writes nothing for a nil
// error or for errors that are not syntax errors and reports whether it
// wrote a report.
func WriteReport(w io.Writer, err error) (bool, error) {
	var se *parser.SyntaxError
	if !errors.As(err, &se) {
		return false, nil
	}
	if _, werr := io.WriteString(w, ReportHeader+"\n"+se.Trace()+"\n"); werr != nil {
		return true, werr
	}
	return true, nil
}
