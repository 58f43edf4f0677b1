package util

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSpace(buf.String()), "\n")
}

func TestLogProgress_Steps(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	progress := LogProgress(zerolog.New(buf), clock.NewMock(), DefaultProgressConfig("fetching", 100))

	for i := 0; i < 100; i++ {
		progress(1)
	}

	logged := lines(buf)
	assert.Len(t, logged, 11)
	assert.Contains(t, logged[0], "fetching 0.0%")
	assert.Contains(t, logged[5], "fetching 50.0%")
	assert.Contains(t, logged[10], "fetching 100.0%")
}

func TestLogProgress_LargeIncrement(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	progress := LogProgress(zerolog.New(buf), clock.NewMock(), DefaultProgressConfig("fetching", 100))

	progress(35)
	progress(-3)
	progress(0)

	logged := lines(buf)
	assert.Len(t, logged, 2)
	assert.Contains(t, logged[1], "fetching 35.0%")
}

func TestLogProgress_Idle(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	clk := clock.NewMock()
	progress := LogProgress(zerolog.New(buf), clk, DefaultProgressConfig("fetching", 1000))

	progress(1)
	assert.Len(t, lines(buf), 1)

	clk.Add(2 * time.Minute)
	progress(1)
	logged := lines(buf)
	assert.Len(t, logged, 2)
	assert.Contains(t, logged[1], `"done":2`)
}
