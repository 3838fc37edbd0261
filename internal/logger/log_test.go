package logger

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestBWLogger(t *testing.T) {
	t.Run("debug and sql output can be turned off", func(t *testing.T) {
		var buf bytes.Buffer
		lg := NewBWLogger(log.New(&buf, "", 0), false, false)

		lg.Debugf("listing %d keys", 3)
		lg.SQL("SELECT 1;")

		assert.Empty(t, buf.String())
	})

	t.Run("everything is printed when enabled", func(t *testing.T) {
		var buf bytes.Buffer
		lg := NewBWLogger(log.New(&buf, "", 0), true, true)

		lg.Debugf("listing %d keys", 3)
		lg.SQL("SELECT ?;", 1)
		lg.Successf("%s executed", "migrations/001_up.sql")
		lg.Error(errors.New("boom"))

		out := buf.String()
		assert.Contains(t, out, "s3mig debug: listing 3 keys")
		assert.Contains(t, out, "s3mig running sql: SELECT ?;\nquery parameters: {1}")
		assert.Contains(t, out, "s3mig: migrations/001_up.sql executed")
		assert.Contains(t, out, "s3mig error: boom")
	})
}

func TestColoredLogger(t *testing.T) {
	var buf bytes.Buffer
	lg := NewColorLogger(log.New(&buf, "", 0), true, false)

	lg.Debugf("hidden")
	lg.SQL("DROP TABLE t;")
	lg.Successf("done")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "DROP TABLE t;")
	assert.Contains(t, out, "s3mig: done")
}
