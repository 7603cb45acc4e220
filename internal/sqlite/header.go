package sqlite

import (
	"bytes"
	"encoding/binary"
)

// SQLite database file header constants.
const (
	HeaderSize = 100

	maxEmbeddedPayloadFraction = 64
	minEmbeddedPayloadFraction = 32
	leafPayloadFraction        = 32
)

var headerMagic = []byte("SQLite format 3\x00")

// Text encodings declared in the file header. The core only reads UTF-8
// databases; the other two values are recognized but rejected at open time.
const (
	EncodingUTF8    = 1
	EncodingUTF16LE = 2
	EncodingUTF16BE = 3
)

// Header is the decoded 100-byte database file header.
type Header struct {
	PageSize      int // actual size in bytes; the raw value 1 means 65536
	WriteVersion  uint8
	ReadVersion   uint8
	ReservedBytes uint8
	ChangeCount   uint32
	PageCount     uint32
	FreelistHead  uint32
	FreelistPages uint32
	SchemaCookie  uint32
	SchemaFormat  uint32
	CacheSize     uint32
	LargestRoot   uint32
	TextEncoding  uint32
	UserVersion   uint32
	IncrVacuum    uint32
	ApplicationID uint32
	VersionValid  uint32
	LibVersion    uint32
}

// UsableSize is the portion of each page available to B-tree content.
func (h *Header) UsableSize() int {
	return h.PageSize - int(h.ReservedBytes)
}

// ParseHeader decodes and validates the database file header.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, newDatabaseError("parse_header", 0, ErrTruncated, map[string]interface{}{
			"have_bytes": len(b),
			"need_bytes": HeaderSize,
		})
	}
	if !bytes.Equal(b[:16], headerMagic) {
		return nil, headerFieldError("magic", string(b[:15]))
	}

	h := &Header{
		WriteVersion:  b[18],
		ReadVersion:   b[19],
		ReservedBytes: b[20],
		ChangeCount:   binary.BigEndian.Uint32(b[24:28]),
		PageCount:     binary.BigEndian.Uint32(b[28:32]),
		FreelistHead:  binary.BigEndian.Uint32(b[32:36]),
		FreelistPages: binary.BigEndian.Uint32(b[36:40]),
		SchemaCookie:  binary.BigEndian.Uint32(b[40:44]),
		SchemaFormat:  binary.BigEndian.Uint32(b[44:48]),
		CacheSize:     binary.BigEndian.Uint32(b[48:52]),
		LargestRoot:   binary.BigEndian.Uint32(b[52:56]),
		TextEncoding:  binary.BigEndian.Uint32(b[56:60]),
		UserVersion:   binary.BigEndian.Uint32(b[60:64]),
		IncrVacuum:    binary.BigEndian.Uint32(b[64:68]),
		ApplicationID: binary.BigEndian.Uint32(b[68:72]),
		VersionValid:  binary.BigEndian.Uint32(b[92:96]),
		LibVersion:    binary.BigEndian.Uint32(b[96:100]),
	}

	rawPageSize := binary.BigEndian.Uint16(b[16:18])
	switch {
	case rawPageSize == 1:
		h.PageSize = 65536
	case rawPageSize >= 512 && rawPageSize&(rawPageSize-1) == 0:
		h.PageSize = int(rawPageSize)
	default:
		return nil, headerFieldError("page_size", rawPageSize)
	}

	if h.WriteVersion != 1 && h.WriteVersion != 2 {
		return nil, headerFieldError("write_version", h.WriteVersion)
	}
	if h.ReadVersion != 1 && h.ReadVersion != 2 {
		return nil, headerFieldError("read_version", h.ReadVersion)
	}
	if b[21] != maxEmbeddedPayloadFraction {
		return nil, headerFieldError("max_embedded_payload_fraction", b[21])
	}
	if b[22] != minEmbeddedPayloadFraction {
		return nil, headerFieldError("min_embedded_payload_fraction", b[22])
	}
	if b[23] != leafPayloadFraction {
		return nil, headerFieldError("leaf_payload_fraction", b[23])
	}
	if h.SchemaFormat < 1 || h.SchemaFormat > 4 {
		return nil, headerFieldError("schema_format", h.SchemaFormat)
	}
	for i := 72; i < 92; i++ {
		if b[i] != 0 {
			return nil, headerFieldError("reserved_region", b[i])
		}
	}
	switch h.TextEncoding {
	case EncodingUTF8:
	case EncodingUTF16LE, EncodingUTF16BE:
		return nil, newDatabaseError("parse_header", 0, ErrUnsupportedTextEncoding, map[string]interface{}{
			"text_encoding": h.TextEncoding,
		})
	default:
		return nil, headerFieldError("text_encoding", h.TextEncoding)
	}

	return h, nil
}

func headerFieldError(field string, value interface{}) error {
	return newDatabaseError("parse_header", 0, ErrInvalidHeader, map[string]interface{}{
		"field": field,
		"value": value,
	})
}
