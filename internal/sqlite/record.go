package sqlite

// Record is one decoded cell payload: a flat list of typed column values.
type Record struct {
	Values []Value
}

// DecodeRecord decodes a record payload: a varint header size (inclusive of
// its own bytes), the serial types, then the packed value bytes.
//
// When aliasRowID is set and the first decoded value is NULL it is replaced
// by rowID. This mirrors SQLite's rowid-alias rule: a column declared
// INTEGER PRIMARY KEY stores NULL on disk and reads back as the row id. The
// substitution applies to table-leaf records only; index records pass
// aliasRowID=false.
func DecodeRecord(payload []byte, rowID int64, aliasRowID bool) (Record, error) {
	headerSize, n, err := ReadVarint(payload)
	if err != nil {
		return Record{}, err
	}
	if headerSize < uint64(n) || headerSize > uint64(len(payload)) {
		return Record{}, newDatabaseError("decode_record", 0, ErrInvalidRecord, map[string]interface{}{
			"header_size":  headerSize,
			"payload_size": len(payload),
		})
	}

	var types []uint64
	header := payload[n:headerSize]
	for len(header) > 0 {
		t, m, err := ReadVarint(header)
		if err != nil {
			return Record{}, err
		}
		types = append(types, t)
		header = header[m:]
	}

	values := make([]Value, 0, len(types))
	body := payload[headerSize:]
	for i, t := range types {
		width, err := serialTypeSize(t)
		if err != nil {
			return Record{}, err
		}
		if width > len(body) {
			return Record{}, newDatabaseError("decode_record", 0, ErrTruncated, map[string]interface{}{
				"value_index": i,
				"serial_type": t,
				"need_bytes":  width,
				"have_bytes":  len(body),
			})
		}
		v, err := decodeValue(t, body[:width])
		if err != nil {
			return Record{}, err
		}
		body = body[width:]
		if aliasRowID && i == 0 && v.IsNull() {
			v = IntValue(rowID)
		}
		values = append(values, v)
	}

	return Record{Values: values}, nil
}
