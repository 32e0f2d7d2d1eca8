package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-lang/lumen/internal/token"
)

func TestDecodeBitsLiteralHex(t *testing.T) {
	require.Equal(t, []byte{0xff}, decodeBitsLiteral("FF", 16))
	require.Equal(t, []byte{0x0a}, decodeBitsLiteral("A", 16))
	require.Equal(t, []byte{0x01, 0x23}, decodeBitsLiteral("123", 16))
}

func TestDecodeBitsLiteralBinary(t *testing.T) {
	// decodeBitsLiteral parses the digit run as a single integer and
	// lays it out big-endian, right-aligned within its minimal byte
	// count — it does not left-pack bit-by-bit (that's
	// decodeWideDigits' job, used only once the value overflows 64 bits).
	require.Equal(t, []byte{0x0b}, decodeBitsLiteral("1011", 2))
	require.Equal(t, []byte{0x05}, decodeBitsLiteral("101", 2))
}

func TestDecodeBitsLiteralOctal(t *testing.T) {
	require.Equal(t, []byte{0x00, 0xff}, decodeBitsLiteral("377", 8))
}

func TestDecodeBytesLiteralForms(t *testing.T) {
	require.Equal(t, []byte("hi"), decodeBytesLiteral("hi", token.BYTES_STRING))
	require.Equal(t, []byte{0xde, 0xad}, decodeBytesLiteral("dead", token.BYTES_HEX))
	require.Equal(t, []byte{0b10100000}, decodeBytesLiteral("101", token.BYTES_BIN))
}
