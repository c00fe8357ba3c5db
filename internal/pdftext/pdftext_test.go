package pdftext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_RejectsNonPDFInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"plain text", []byte("isto não é um pdf")},
		{"html", []byte("<html><body>documento</body></html>")},
		{"truncated header", []byte("%PDF-1.7")},
		{"binary noise", []byte{0x00, 0xFF, 0x13, 0x37, 0x00, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Extract(tt.data)
			assert.Error(t, err)
			assert.Empty(t, text)
		})
	}
}

func TestExtract_ErrorMentionsCause(t *testing.T) {
	_, err := Extract([]byte("conteúdo qualquer"))
	assert.Error(t, err)
	assert.True(t,
		strings.Contains(err.Error(), "not a valid PDF") || strings.Contains(err.Error(), "empty document"),
		"unexpected error: %v", err)
}
