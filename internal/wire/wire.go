package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version   byte = 1
	kindEntry byte = 1
)

var (
	ErrCorrupt = errors.New("bucketcache: corrupt entry")
	magic4     = [...]byte{'B', 'K', 'T', 'C'}
)

// Entry is the stored document: the item metadata plus the codec payload.
type Entry struct {
	Mode           uint8
	Timeout        time.Duration
	CreatedAt      time.Time
	LastAccessedAt time.Time
	Key            string
	Region         string
	ValueType      string
	Payload        []byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// Encode frames e as:
//
//	magic(4) | ver(1) | kind(1) | mode(1) | timeout(i64 be) | created(i64 be) | accessed(i64 be)
//	keyLen(u16 be) | key | regionLen(u16 be) | region | typeLen(u16 be) | type
//	vlen(u32 be) | payload(vlen)
//
// Strings longer than 0xFFFF bytes are rejected.
func Encode(e Entry) ([]byte, error) {
	for _, s := range []string{e.Key, e.Region, e.ValueType} {
		if len(s) > 0xFFFF {
			return nil, errors.New("bucketcache: entry field too long")
		}
	}

	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 1 + 8*3 + 2*3 + len(e.Key) + len(e.Region) + len(e.ValueType) + 4 + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)
	buf.WriteByte(e.Mode)

	var u8 [8]byte
	var u4 [4]byte
	var u2 [2]byte

	for _, n := range []int64{int64(e.Timeout), unixNano(e.CreatedAt), unixNano(e.LastAccessedAt)} {
		binary.BigEndian.PutUint64(u8[:], uint64(n))
		buf.Write(u8[:])
	}

	for _, s := range []string{e.Key, e.Region, e.ValueType} {
		binary.BigEndian.PutUint16(u2[:], uint16(len(s)))
		buf.Write(u2[:])
		buf.WriteString(s)
	}

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])
	buf.Write(e.Payload)
	return buf.Bytes(), nil
}

// Decode parses a document produced by Encode. The returned payload aliases b.
func Decode(b []byte) (Entry, error) {
	const hdr = 4 + 1 + 1 + 1 + 8*3
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return Entry{}, ErrCorrupt
	}

	e := Entry{Mode: b[6]}
	off := 7

	e.Timeout = time.Duration(int64(binary.BigEndian.Uint64(b[off : off+8])))
	off += 8
	e.CreatedAt = fromUnixNano(int64(binary.BigEndian.Uint64(b[off : off+8])))
	off += 8
	e.LastAccessedAt = fromUnixNano(int64(binary.BigEndian.Uint64(b[off : off+8])))
	off += 8

	strs := [3]*string{&e.Key, &e.Region, &e.ValueType}
	for _, dst := range strs {
		if off+2 > len(b) {
			return Entry{}, ErrCorrupt
		}
		n := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if n > len(b)-off {
			return Entry{}, ErrCorrupt
		}
		*dst = string(b[off : off+n])
		off += n
	}

	if off+4 > len(b) {
		return Entry{}, ErrCorrupt
	}
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // exact: trailing bytes are corruption
		return Entry{}, ErrCorrupt
	}
	e.Payload = b[off : off+vlen]
	return e, nil
}
