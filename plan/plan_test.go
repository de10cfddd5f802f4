package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/harvest/contract"
)

func TestNext(t *testing.T) {
	abcde := contract.IDs("A", "B", "C", "D", "E")

	tests := []struct {
		name     string
		full     []contract.ID
		last     contract.ID
		quantity int
		want     []contract.ID
	}{
		{"resume after marker", abcde, "C", 2, contract.IDs("D", "E")},
		{"fresh start", contract.IDs("A", "B", "C"), "", 2, contract.IDs("A", "B")},
		{"unknown marker restarts from top", abcde, "Z", 3, contract.IDs("A", "B", "C")},
		{"fewer remaining than quantity", abcde, "D", 10, contract.IDs("E")},
		{"marker is last element", abcde, "E", 5, []contract.ID{}},
		{"quantity larger than list", abcde, "", 100, abcde},
		{"zero quantity", abcde, "", 0, []contract.ID{}},
		{"negative quantity", abcde, "A", -1, []contract.ID{}},
		{"empty list", nil, "A", 5, []contract.ID{}},
		{"marker matched exactly, no trimming", abcde, " C", 1, contract.IDs("A")},
		{"duplicate marker uses first occurrence", contract.IDs("A", "B", "A", "C"), "A", 2, contract.IDs("B", "A")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.full, tt.last, tt.quantity))
		})
	}
}

// For any list and quantity >= 1 the plan length is min(quantity, remaining).
func TestNextLengthProperty(t *testing.T) {
	full := contract.IDs("A", "B", "C", "D", "E", "F", "G")
	markers := append([]contract.ID{"", "missing"}, full...)

	for _, last := range markers {
		for quantity := 1; quantity <= len(full)+2; quantity++ {
			got := Next(full, last, quantity)
			assert.Len(t, got, min(quantity, Remaining(full, last)), "last=%q quantity=%d", last, quantity)
			if idx, found := Position(full, last); found && len(got) > 0 {
				assert.Equal(t, full[idx+1], got[0])
			}
		}
	}
}

func TestNextDoesNotAlias(t *testing.T) {
	full := contract.IDs("A", "B", "C")
	got := Next(full, "", 2)
	got[0] = "X"
	assert.Equal(t, contract.ID("A"), full[0])
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		args   []string
		want   int
		wantOK bool
	}{
		{nil, DefaultQuantity, true},
		{[]string{"10"}, 10, true},
		{[]string{" 7 "}, 7, true},
		{[]string{"abc"}, DefaultQuantity, false},
		{[]string{"0"}, DefaultQuantity, false},
		{[]string{"-5"}, DefaultQuantity, false},
		{[]string{"1.5"}, DefaultQuantity, false},
	}
	for _, tt := range tests {
		got, ok := ParseQuantity(tt.args, DefaultQuantity)
		assert.Equal(t, tt.want, got, "%v", tt.args)
		assert.Equal(t, tt.wantOK, ok, "%v", tt.args)
	}
}
