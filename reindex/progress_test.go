package reindex

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress_CountsToCompletion(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 100, 10)

	p.Begin()
	p.Add(25)
	p.Add(25)
	p.Add(50)

	assert.Greater(t, p.Elapsed(), time.Duration(0))
	assert.Contains(t, buf.String(), "100/100")
	assert.Contains(t, buf.String(), "100.0%")
}

func TestProgress_ThrottledByStep(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 1000, 100)
	p.Begin()

	p.Add(50)
	assert.Zero(t, buf.Len(), "below the step threshold, nothing prints")

	p.Add(50)
	assert.Positive(t, buf.Len(), "the line prints when the step is reached")

	buf.Reset()
	p.Add(30)
	assert.Zero(t, buf.Len(), "the threshold advances past the printed count")

	p.Add(170)
	assert.Positive(t, buf.Len(), "a large batch can cross several thresholds at once")
	assert.Contains(t, buf.String(), "300/1000")
}

func TestProgress_DoneCapsAndTerminatesLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 100, 10)

	p.Begin()
	p.Add(75)
	p.Done()

	out := buf.String()
	assert.Contains(t, out, "100/100", "Done forces the count to total")
	assert.True(t, strings.HasSuffix(out, "\n"), "Done ends the status line")
}

func TestProgress_AddPastTotalCaps(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 100, 10)

	p.Begin()
	p.Add(150)

	assert.Contains(t, buf.String(), "100/100")
	assert.NotContains(t, buf.String(), "150")
}

func TestProgress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 0, 10)

	p.Begin()
	p.Done()

	assert.Contains(t, buf.String(), "0/0")
	assert.Contains(t, buf.String(), "100.0%")
}

func TestProgress_InertBeforeBegin(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 100, 10)

	p.Add(10)
	p.Done()

	assert.Zero(t, buf.Len())
	assert.Zero(t, p.Elapsed())
}

func TestProgress_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 5000, 1000)

	p.Begin()
	p.Add(2500)
	p.Add(2500)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\r")
	require.NotEmpty(t, lines)
	last := lines[len(lines)-1]
	assert.Contains(t, last, "re-embedded 5000/5000")
	assert.Contains(t, last, "%")
	assert.Contains(t, last, "docs/s")
}
