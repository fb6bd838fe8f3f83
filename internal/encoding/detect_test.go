package encoding_test

import (
	"bytes"
	"io"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/dunning/internal/encoding"
)

func readAll(t *testing.T, input []byte) string {
	t.Helper()

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "Timestamp,InvoiceID,Message\n2026-03-10 09:00:00,42,فاتورة مستحقة\n"
	assert.Equal(t, input, readAll(t, []byte(input)))
}

func TestNewUTF8Reader_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Timestamp,InvoiceID\n")...)
	assert.Equal(t, "Timestamp,InvoiceID\n", readAll(t, input))
}

func TestNewUTF8Reader_UTF16LE(t *testing.T) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("InvoiceID,Phone\n"))
	require.NoError(t, err)

	assert.Equal(t, "InvoiceID,Phone\n", readAll(t, encoded))
}

func TestNewUTF8Reader_Windows1256(t *testing.T) {
	want := "الفاتورة رقم 1001 مستحقة الدفع اليوم، يرجى السداد\n"

	encoded, err := charmap.Windows1256.NewEncoder().Bytes([]byte(want))
	require.NoError(t, err)

	got := readAll(t, encoded)
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "1001")
	assert.NotEqual(t, string(encoded), got)
}

func TestNewUTF8Reader_Latin1(t *testing.T) {
	// "Café;12,50\n" in Windows-1252, é = 0xE9.
	latin1 := []byte{'C', 'a', 'f', 0xE9, ';', '1', '2', ',', '5', '0', '\n'}

	// é sits at the same byte in both single-byte fallbacks.
	assert.Equal(t, "Café;12,50\n", readAll(t, latin1))
}
