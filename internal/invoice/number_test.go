package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "YW-0007", FormatNumber("YW", 7, 4))
	assert.Equal(t, "YW-0007", FormatNumber("YW", 7, 0))
	assert.Equal(t, "YW-12345", FormatNumber("YW", 12345, 4))
	assert.Equal(t, "invoice_YW-0007.pdf", Filename(FormatNumber("YW", 7, 4)))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		number string
		series string
		seq    int
		fails  bool
	}{
		{number: "YW-0007", series: "YW", seq: 7},
		{number: "YW-2024-0042", series: "YW", seq: 42},
		{number: "YW", fails: true},
		{number: "-0001", fails: true},
		{number: "YW-abc", fails: true},
	}
	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			series, seq, err := ParseNumber(tt.number)
			if tt.fails {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.series, series)
			assert.Equal(t, tt.seq, seq)
		})
	}
}

func TestFilenameSanitizes(t *testing.T) {
	assert.Equal(t, "invoice_YW_0001_.pdf", Filename("YW/0001\""))
}
