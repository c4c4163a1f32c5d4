package mac

import (
	"encoding/binary"
	"errors"
)

// Payload IE group identifiers.
const (
	IEGroupESDU        uint8 = 0x0
	IEGroupMLME        uint8 = 0x1
	IEGroupWiSUN       uint8 = 0x4
	IEGroupTermination uint8 = 0xF
)

const (
	ieHeaderLen    = 2
	ieLongMaxLen   = 0x07FF
	ieShortMaxLen  = 0xFF
	ieTypeLongBit  = 0x8000
	ieLongIDShift  = 11
	ieShortIDShift = 8
	ieLongIDMask   = 0x0F
	ieShortIDMask  = 0x7F
	ieShortLenMask = 0x00FF
	ieLongLenMask  = 0x07FF
)

// IE parsing errors.
var (
	ErrIETruncated = errors.New("payload IE truncated")
	ErrIEOverflow  = errors.New("payload IE count exceeds capacity")
	ErrIEType      = errors.New("payload IE has unexpected type")
	ErrIETooLong   = errors.New("payload IE content too long")
)

// IE is one parsed payload IE or sub-IE. Content aliases the parsed buffer.
type IE struct {
	ID      uint8
	Long    bool
	Content []byte
}

// ParseGroupIEs parses the payload group IEs of a frame into out and
// returns the filled prefix of out. Parsing stops at a termination IE.
// No memory is allocated; when out is too small ErrIEOverflow is returned
// together with the IEs parsed so far.
func ParseGroupIEs(payload []byte, out []IE) ([]IE, error) {
	return parseIEs(payload, out, true)
}

// ParseSubIEs parses the sub-IEs carried in a group IE's content.
func ParseSubIEs(content []byte, out []IE) ([]IE, error) {
	return parseIEs(content, out, false)
}

func parseIEs(p []byte, out []IE, group bool) ([]IE, error) {
	n := 0
	for len(p) > 0 {
		if len(p) < ieHeaderLen {
			return out[:n], ErrIETruncated
		}
		hdr := binary.LittleEndian.Uint16(p)
		long := hdr&ieTypeLongBit != 0

		var id uint8
		var length int
		if long {
			id = uint8(hdr>>ieLongIDShift) & ieLongIDMask
			length = int(hdr & ieLongLenMask)
		} else {
			id = uint8(hdr>>ieShortIDShift) & ieShortIDMask
			length = int(hdr & ieShortLenMask)
		}

		if group {
			if !long {
				return out[:n], ErrIEType
			}
			if id == IEGroupTermination {
				break
			}
		}

		p = p[ieHeaderLen:]
		if length > len(p) {
			return out[:n], ErrIETruncated
		}
		if n == len(out) {
			return out[:n], ErrIEOverflow
		}
		out[n] = IE{ID: id, Long: long, Content: p[:length:length]}
		n++
		p = p[length:]
	}
	return out[:n], nil
}

// AppendGroupIE appends a payload group IE with the given content.
func AppendGroupIE(dst []byte, group uint8, content []byte) ([]byte, error) {
	if len(content) > ieLongMaxLen {
		return dst, ErrIETooLong
	}
	hdr := uint16(ieTypeLongBit) | uint16(group&ieLongIDMask)<<ieLongIDShift | uint16(len(content))
	dst = binary.LittleEndian.AppendUint16(dst, hdr)
	return append(dst, content...), nil
}

// AppendSubIE appends a short or long sub-IE.
func AppendSubIE(dst []byte, id uint8, long bool, content []byte) ([]byte, error) {
	var hdr uint16
	if long {
		if len(content) > ieLongMaxLen {
			return dst, ErrIETooLong
		}
		hdr = ieTypeLongBit | uint16(id&ieLongIDMask)<<ieLongIDShift | uint16(len(content))
	} else {
		if len(content) > ieShortMaxLen {
			return dst, ErrIETooLong
		}
		hdr = uint16(id&ieShortIDMask)<<ieShortIDShift | uint16(len(content))
	}
	dst = binary.LittleEndian.AppendUint16(dst, hdr)
	return append(dst, content...), nil
}
