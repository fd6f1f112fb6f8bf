package solver

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDisplayLineThrottled(t *testing.T) {
	assert := require.New(t)
	var buf bytes.Buffer
	s, _ := setupSolver(t, nil, WithLogger(zerolog.New(&buf)))
	buf.Reset()

	// the second periodic line falls inside the minimum interval
	s.printDisplayLine(SourceNone)
	s.printDisplayLine(SourceNone)
	assert.Equal(1, bytes.Count(buf.Bytes(), []byte("\n")))

	// lines carrying a solution source always print
	s.printDisplayLine(SourceHeuristic)
	assert.Equal(2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestDisplayLineEveryEvent(t *testing.T) {
	assert := require.New(t)
	var buf bytes.Buffer
	s, _ := setupSolver(t, nil, WithLogger(zerolog.New(&buf)), WithReportLevel(2))
	buf.Reset()

	s.printDisplayLine(SourceNone)
	s.printDisplayLine(SourceNone)
	assert.Equal(2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestDisplayLineSilent(t *testing.T) {
	assert := require.New(t)
	var buf bytes.Buffer
	s, _ := setupSolver(t, nil, WithLogger(zerolog.New(&buf)), WithReportLevel(0))
	buf.Reset()

	s.printDisplayLine(SourceNone)
	s.printDisplayLine(SourceHeuristic)
	assert.Zero(buf.Len())
}
