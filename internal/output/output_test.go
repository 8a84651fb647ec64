package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClipboard struct {
	copied []string
}

func (c *fakeClipboard) Copy(text string) error {
	c.copied = append(c.copied, text)
	return nil
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModePrint},
		{in: "print", want: ModePrint},
		{in: "copy", want: ModeCopy},
		{in: "file", want: ModeFile},
		{in: "exec", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriter_Write(t *testing.T) {
	var stdout bytes.Buffer
	clip := &fakeClipboard{}
	w := NewWriter().WithStdout(&stdout).WithClipboard(clip)

	require.NoError(t, w.Write("<h1>A</h1>", ModePrint, ""))
	assert.Equal(t, "<h1>A</h1>\n", stdout.String())

	require.NoError(t, w.Write("<em>b</em>", ModeCopy, ""))
	assert.Equal(t, []string{"<em>b</em>"}, clip.copied)

	file := filepath.Join(t.TempDir(), "out.html")
	require.NoError(t, w.Write("<br>", ModeFile, file))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "<br>", string(data))

	require.Error(t, w.Write("x", ModeFile, ""))
}
