package types

// Encoding selects the byte representation of a TextString when it crosses
// the native boundary.
type Encoding uint8

const (
	// EncodingUTF8 is the default: NUL-terminated UTF-8 bytes.
	EncodingUTF8 Encoding = iota
	// EncodingASCII rejects codepoints above 0x7F at marshal time.
	EncodingASCII
	// EncodingLatin1 maps codepoints through ISO 8859-1.
	EncodingLatin1
	// EncodingUTF16 produces NUL-terminated little-endian UTF-16 code units.
	EncodingUTF16
)

var encodingNames = [...]string{
	EncodingUTF8:   "utf8",
	EncodingASCII:  "ascii",
	EncodingLatin1: "latin1",
	EncodingUTF16:  "utf16",
}

func (e Encoding) String() string {
	if int(e) < len(encodingNames) {
		return encodingNames[e]
	}
	return "unknown"
}

// TerminatorWidth returns the width in bytes of one code unit, which is also
// the width of the NUL terminator the marshaller appends.
func (e Encoding) TerminatorWidth() int {
	if e == EncodingUTF16 {
		return 2
	}
	return 1
}
