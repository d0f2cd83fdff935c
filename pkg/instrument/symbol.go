package instrument

import "fmt"

// Symbols pack into integers big-endian, first character in the most
// significant byte, zero-padded. The zero byte never occurs inside a valid
// symbol, so packing is bijective for symbols within the width limit.

func symbolByteOK(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '.' || b == '_' || b == '-'
}

func checkSymbol(sym string, maxLen int) error {
	if len(sym) == 0 || len(sym) > maxLen {
		return fmt.Errorf("%w: symbol %q must be 1-%d chars", ErrInvalidInstrumentFields, sym, maxLen)
	}
	for i := 0; i < len(sym); i++ {
		if !symbolByteOK(sym[i]) {
			return fmt.Errorf("%w: symbol %q has invalid byte %q", ErrInvalidInstrumentFields, sym, sym[i])
		}
	}
	return nil
}

// packSymbol64 packs a 1-8 char symbol into a u64.
func packSymbol64(sym string) (uint64, error) {
	if err := checkSymbol(sym, 8); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < len(sym); i++ {
		v |= uint64(sym[i]) << (8 * (7 - i))
	}
	return v, nil
}

// unpackSymbol64 reverses packSymbol64.
func unpackSymbol64(v uint64) string {
	var out [8]byte
	n := 0
	for i := 0; i < 8; i++ {
		b := byte(v >> (8 * (7 - i)))
		if b == 0 {
			break
		}
		out[i] = b
		n++
	}
	return string(out[:n])
}

// packSymbol32 packs a 1-4 char symbol into a u32.
func packSymbol32(sym string) (uint32, error) {
	if err := checkSymbol(sym, 4); err != nil {
		return 0, err
	}
	var v uint32
	for i := 0; i < len(sym); i++ {
		v |= uint32(sym[i]) << (8 * (3 - i))
	}
	return v, nil
}

func unpackSymbol32(v uint32) string {
	var out [4]byte
	n := 0
	for i := 0; i < 4; i++ {
		b := byte(v >> (8 * (3 - i)))
		if b == 0 {
			break
		}
		out[i] = b
		n++
	}
	return string(out[:n])
}

// packSymbol40 packs a 1-5 char symbol into the low 40 bits of a u64.
func packSymbol40(sym string) (uint64, error) {
	if err := checkSymbol(sym, 5); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < len(sym); i++ {
		v |= uint64(sym[i]) << (8 * (4 - i))
	}
	return v, nil
}

func unpackSymbol40(v uint64) string {
	var out [5]byte
	n := 0
	for i := 0; i < 5; i++ {
		b := byte(v >> (8 * (4 - i)))
		if b == 0 {
			break
		}
		out[i] = b
		n++
	}
	return string(out[:n])
}

// symbolHash11 folds a symbol into 11 bits for the option payload. Lossy.
func symbolHash11(sym string) uint16 {
	var h uint32 = 2166136261
	for i := 0; i < len(sym); i++ {
		h ^= uint32(sym[i])
		h *= 16777619
	}
	return uint16(h & 0x7FF)
}
