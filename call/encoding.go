package call

import (
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/nativebind/native-runtime/errors"
	"github.com/nativebind/native-runtime/memory"
	"github.com/nativebind/native-runtime/types"
)

var (
	latin1Codec = charmap.ISO8859_1
	utf16Codec  = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
)

// encodeText produces the NUL-terminated native byte representation of s
// in the declared encoding.
func encodeText(s string, enc types.Encoding) ([]byte, error) {
	switch enc {
	case types.EncodingUTF8:
		return append([]byte(s), 0), nil

	case types.EncodingASCII:
		for i := 0; i < len(s); i++ {
			if s[i] >= 0x80 {
				e := errors.EncodingFailed("ascii", nil)
				e.Value = s
				return nil, e
			}
		}
		return append([]byte(s), 0), nil

	case types.EncodingLatin1:
		out, err := latin1Codec.NewEncoder().String(s)
		if err != nil {
			return nil, errors.EncodingFailed("latin1", err)
		}
		return append([]byte(out), 0), nil

	case types.EncodingUTF16:
		out, err := utf16Codec.NewEncoder().String(s)
		if err != nil {
			return nil, errors.EncodingFailed("utf16", err)
		}
		return append([]byte(out), 0, 0), nil
	}
	return nil, errors.EncodingFailed(enc.String(), nil)
}

// decodeText reads a NUL-terminated native string at addr and decodes it
// through the declared encoding. A null address yields ("", false).
func decodeText(addr uintptr, enc types.Encoding) (string, bool, error) {
	if addr == 0 {
		return "", false, nil
	}

	var raw []byte
	if enc.TerminatorWidth() == 2 {
		for off := uintptr(0); ; off += 2 {
			u := memory.ReadU16(addr + off)
			if u == 0 {
				break
			}
			raw = append(raw, byte(u), byte(u>>8))
		}
	} else {
		for off := uintptr(0); ; off++ {
			b := memory.ReadU8(addr + off)
			if b == 0 {
				break
			}
			raw = append(raw, b)
		}
	}

	switch enc {
	case types.EncodingUTF8, types.EncodingASCII:
		return string(raw), true, nil
	case types.EncodingLatin1:
		out, err := latin1Codec.NewDecoder().Bytes(raw)
		if err != nil {
			return "", false, errors.EncodingFailed("latin1", err)
		}
		return string(out), true, nil
	case types.EncodingUTF16:
		out, err := utf16Codec.NewDecoder().Bytes(raw)
		if err != nil {
			return "", false, errors.EncodingFailed("utf16", err)
		}
		return string(out), true, nil
	}
	return "", false, errors.EncodingFailed(enc.String(), nil)
}
