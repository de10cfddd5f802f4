package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewOutcomeClampsDuration(t *testing.T) {
	o := NewOutcome("C1", Processed, -time.Second, "/x")
	assert.Equal(t, time.Duration(0), o.Duration)
}

func TestOutcomeSeconds(t *testing.T) {
	o := NewOutcome("C1", Processed, 4216*time.Millisecond, "")
	assert.Equal(t, 4.22, o.Seconds())
	assert.Equal(t, 0.0, Outcome{}.Seconds())
}

func TestLogAppendOnly(t *testing.T) {
	l := NewLog()
	assert.Equal(t, 0, l.Len())

	l.Append(NewOutcome("A", Processed, time.Second, "a"))
	l.Append(NewOutcome("B", NotFound, time.Second, ""))

	got := l.Outcomes()
	assert.Len(t, got, 2)
	assert.Equal(t, ID("A"), got[0].ID)
	assert.Equal(t, ID("B"), got[1].ID)

	// the copy does not alias the log
	got[0].Status = Error
	assert.Equal(t, Processed, l.Outcomes()[0].Status)
}

func TestNilLog(t *testing.T) {
	var l *Log
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, l.Outcomes())
}

func TestIDs(t *testing.T) {
	ids := IDs("A", " A", "A")
	assert.Equal(t, []ID{"A", " A", "A"}, ids)
	assert.NotEqual(t, ids[0], ids[1], "no trimming")
	assert.True(t, ID("").IsZero())
}
