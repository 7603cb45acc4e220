package sqlite

import (
	"encoding/binary"
	"math"
	"sort"
)

// PageType is the B-tree page type byte at the start of the page header.
type PageType uint8

const (
	PageTypeInteriorIndex PageType = 0x02
	PageTypeInteriorTable PageType = 0x05
	PageTypeLeafIndex     PageType = 0x0a
	PageTypeLeafTable     PageType = 0x0d
)

const (
	leafPageHeaderSize     = 8
	interiorPageHeaderSize = 12
)

// PageHeader is the decoded 8- or 12-byte B-tree page header.
type PageHeader struct {
	Type            PageType
	FirstFreeblock  uint16
	CellCount       uint16
	ContentStart    int // cell content area start; the raw value 0 means 65536
	FragmentedBytes uint8
	RightMostChild  uint32 // interior pages only, 1-based page number
}

// Overflow describes payload bytes continued on an overflow chain.
type Overflow struct {
	Page    uint32 // first overflow page, 1-based
	Spilled int    // payload bytes not present in the cell
}

// TableLeafCell is one row of a table B-tree.
type TableLeafCell struct {
	RowID int64
	Rec   Record
}

// TableInteriorCell routes to the child subtree holding all rows with
// row id <= MaxRowID. The decoder appends a synthetic cell for the page's
// right-most child with MaxRowID = math.MaxInt64 so traversal needs no
// boundary special case.
type TableInteriorCell struct {
	Child    uint32 // 1-based page number
	MaxRowID int64
}

// IndexLeafCell is one index entry: the key column values and the row id of
// the referenced table row (stripped from the record's trailing value).
type IndexLeafCell struct {
	RowID int64
	Key   Record
}

// IndexInteriorCell routes to the child subtree of keys <= Key, and itself
// holds one index entry. The synthetic right-most cell has an empty Key,
// which searches treat as +infinity.
type IndexInteriorCell struct {
	Child uint32 // 1-based page number
	RowID int64
	Key   Record
}

// Page is a fully decoded B-tree page. Exactly the cell slice matching Type
// is populated.
type Page struct {
	Number int // 1-based
	Header PageHeader

	TableLeaves    []TableLeafCell
	TableInteriors []TableInteriorCell
	IndexLeaves    []IndexLeafCell
	IndexInteriors []IndexInteriorCell
}

// Type returns the page's B-tree page type.
func (p *Page) Type() PageType {
	return p.Header.Type
}

// DecodePage parses a raw page, already truncated to the usable page size.
// headerStart is 100 for page 1 and 0 otherwise; cell-pointer offsets are
// always relative to the page start.
func DecodePage(raw []byte, pageNo int, headerStart int) (*Page, error) {
	if len(raw) < headerStart+leafPageHeaderSize {
		return nil, newDatabaseError("decode_page", pageNo, ErrTruncated, map[string]interface{}{
			"page_bytes": len(raw),
		})
	}

	hdr := PageHeader{
		Type:            PageType(raw[headerStart]),
		FirstFreeblock:  binary.BigEndian.Uint16(raw[headerStart+1 : headerStart+3]),
		CellCount:       binary.BigEndian.Uint16(raw[headerStart+3 : headerStart+5]),
		FragmentedBytes: raw[headerStart+7],
	}
	hdr.ContentStart = int(binary.BigEndian.Uint16(raw[headerStart+5 : headerStart+7]))
	if hdr.ContentStart == 0 {
		hdr.ContentStart = 65536
	}

	headerSize := leafPageHeaderSize
	switch hdr.Type {
	case PageTypeLeafTable, PageTypeLeafIndex:
	case PageTypeInteriorTable, PageTypeInteriorIndex:
		headerSize = interiorPageHeaderSize
		if len(raw) < headerStart+interiorPageHeaderSize {
			return nil, newDatabaseError("decode_page", pageNo, ErrTruncated, map[string]interface{}{
				"page_bytes": len(raw),
			})
		}
		hdr.RightMostChild = binary.BigEndian.Uint32(raw[headerStart+8 : headerStart+12])
	default:
		return nil, newDatabaseError("decode_page", pageNo, ErrInvalidPageType, map[string]interface{}{
			"page_type": raw[headerStart],
		})
	}

	arrayStart := headerStart + headerSize
	arrayEnd := arrayStart + int(hdr.CellCount)*2
	if arrayEnd > len(raw) {
		return nil, newDatabaseError("decode_page", pageNo, ErrTruncated, map[string]interface{}{
			"cell_count": hdr.CellCount,
			"page_bytes": len(raw),
		})
	}
	offsets := make([]int, hdr.CellCount)
	for i := range offsets {
		o := int(binary.BigEndian.Uint16(raw[arrayStart+2*i : arrayStart+2*i+2]))
		if o < hdr.ContentStart || o >= len(raw) {
			return nil, newDatabaseError("decode_page", pageNo, ErrCellOffsetOutOfBounds, map[string]interface{}{
				"cell_index":    i,
				"offset":        o,
				"content_start": hdr.ContentStart,
				"page_bytes":    len(raw),
			})
		}
		offsets[i] = o
	}
	// Cells are carved off the tail of the page slice, so parse them in
	// descending offset order: each cell ends where the previous one began.
	sort.Sort(sort.Reverse(sort.IntSlice(offsets)))

	page := &Page{Number: pageNo, Header: hdr}
	limit := len(raw)
	for _, o := range offsets {
		cell := raw[o:limit]
		limit = o
		var err error
		switch hdr.Type {
		case PageTypeLeafTable:
			var c TableLeafCell
			if c, err = parseTableLeafCell(cell, pageNo); err == nil {
				page.TableLeaves = append(page.TableLeaves, c)
			}
		case PageTypeInteriorTable:
			var c TableInteriorCell
			if c, err = parseTableInteriorCell(cell, pageNo); err == nil {
				page.TableInteriors = append(page.TableInteriors, c)
			}
		case PageTypeLeafIndex:
			var c IndexLeafCell
			if c, err = parseIndexLeafCell(cell, pageNo); err == nil {
				page.IndexLeaves = append(page.IndexLeaves, c)
			}
		case PageTypeInteriorIndex:
			var c IndexInteriorCell
			if c, err = parseIndexInteriorCell(cell, pageNo); err == nil {
				page.IndexInteriors = append(page.IndexInteriors, c)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	switch hdr.Type {
	case PageTypeLeafTable:
		// Descending-offset parse order does not follow key order; rows on
		// a leaf are keyed by row id.
		sort.Slice(page.TableLeaves, func(i, j int) bool {
			return page.TableLeaves[i].RowID < page.TableLeaves[j].RowID
		})
	case PageTypeInteriorTable:
		page.TableInteriors = append(page.TableInteriors, TableInteriorCell{
			Child:    hdr.RightMostChild,
			MaxRowID: math.MaxInt64,
		})
		sort.Slice(page.TableInteriors, func(i, j int) bool {
			return page.TableInteriors[i].MaxRowID < page.TableInteriors[j].MaxRowID
		})
	case PageTypeLeafIndex:
		sort.Slice(page.IndexLeaves, func(i, j int) bool {
			return indexCellLess(page.IndexLeaves[i].Key, page.IndexLeaves[i].RowID,
				page.IndexLeaves[j].Key, page.IndexLeaves[j].RowID)
		})
	case PageTypeInteriorIndex:
		sort.Slice(page.IndexInteriors, func(i, j int) bool {
			return indexCellLess(page.IndexInteriors[i].Key, page.IndexInteriors[i].RowID,
				page.IndexInteriors[j].Key, page.IndexInteriors[j].RowID)
		})
		page.IndexInteriors = append(page.IndexInteriors, IndexInteriorCell{
			Child: hdr.RightMostChild,
		})
	}

	return page, nil
}

// indexCellLess orders index entries by first key column, breaking ties by
// row id, matching the on-disk collation for single-column indexes.
func indexCellLess(aKey Record, aRow int64, bKey Record, bRow int64) bool {
	if len(aKey.Values) > 0 && len(bKey.Values) > 0 {
		if c := Compare(aKey.Values[0], bKey.Values[0]); c != 0 {
			return c < 0
		}
	}
	return aRow < bRow
}

func parseTableLeafCell(b []byte, pageNo int) (TableLeafCell, error) {
	payloadSize, n, err := ReadVarint(b)
	if err != nil {
		return TableLeafCell{}, err
	}
	rowIDRaw, m, err := ReadVarint(b[n:])
	if err != nil {
		return TableLeafCell{}, err
	}
	rowID := int64(rowIDRaw)
	payload, err := cellPayload(b[n+m:], payloadSize, pageNo)
	if err != nil {
		return TableLeafCell{}, err
	}
	rec, err := DecodeRecord(payload, rowID, true)
	if err != nil {
		return TableLeafCell{}, err
	}
	return TableLeafCell{RowID: rowID, Rec: rec}, nil
}

func parseTableInteriorCell(b []byte, pageNo int) (TableInteriorCell, error) {
	if len(b) < 4 {
		return TableInteriorCell{}, newDatabaseError("parse_cell", pageNo, ErrTruncated, map[string]interface{}{
			"cell_bytes": len(b),
		})
	}
	child := binary.BigEndian.Uint32(b[:4])
	key, _, err := ReadVarint(b[4:])
	if err != nil {
		return TableInteriorCell{}, err
	}
	return TableInteriorCell{Child: child, MaxRowID: int64(key)}, nil
}

func parseIndexLeafCell(b []byte, pageNo int) (IndexLeafCell, error) {
	payloadSize, n, err := ReadVarint(b)
	if err != nil {
		return IndexLeafCell{}, err
	}
	payload, err := cellPayload(b[n:], payloadSize, pageNo)
	if err != nil {
		return IndexLeafCell{}, err
	}
	key, rowID, err := decodeIndexRecord(payload, pageNo)
	if err != nil {
		return IndexLeafCell{}, err
	}
	return IndexLeafCell{RowID: rowID, Key: key}, nil
}

func parseIndexInteriorCell(b []byte, pageNo int) (IndexInteriorCell, error) {
	if len(b) < 4 {
		return IndexInteriorCell{}, newDatabaseError("parse_cell", pageNo, ErrTruncated, map[string]interface{}{
			"cell_bytes": len(b),
		})
	}
	child := binary.BigEndian.Uint32(b[:4])
	payloadSize, n, err := ReadVarint(b[4:])
	if err != nil {
		return IndexInteriorCell{}, err
	}
	payload, err := cellPayload(b[4+n:], payloadSize, pageNo)
	if err != nil {
		return IndexInteriorCell{}, err
	}
	key, rowID, err := decodeIndexRecord(payload, pageNo)
	if err != nil {
		return IndexInteriorCell{}, err
	}
	return IndexInteriorCell{Child: child, RowID: rowID, Key: key}, nil
}

// cellPayload bounds a cell's record bytes. A declared payload size larger
// than the bytes left in the page means the record continues on an overflow
// chain; the engine records the descriptor and fails the query rather than
// decode a truncated record.
func cellPayload(b []byte, payloadSize uint64, pageNo int) ([]byte, error) {
	if payloadSize <= uint64(len(b)) {
		return b[:payloadSize], nil
	}
	if len(b) < 4 {
		return nil, newDatabaseError("parse_cell", pageNo, ErrTruncated, map[string]interface{}{
			"payload_size": payloadSize,
			"have_bytes":   len(b),
		})
	}
	ov := Overflow{
		Page:    binary.BigEndian.Uint32(b[len(b)-4:]),
		Spilled: int(payloadSize) - (len(b) - 4),
	}
	return nil, newDatabaseError("parse_cell", pageNo, ErrOverflowUnsupported, map[string]interface{}{
		"payload_size":  payloadSize,
		"overflow_page": ov.Page,
		"spilled_bytes": ov.Spilled,
	})
}

// decodeIndexRecord decodes an index payload and splits off the trailing
// row id, which must be an integer.
func decodeIndexRecord(payload []byte, pageNo int) (Record, int64, error) {
	rec, err := DecodeRecord(payload, 0, false)
	if err != nil {
		return Record{}, 0, err
	}
	if len(rec.Values) == 0 {
		return Record{}, 0, newDatabaseError("decode_index_record", pageNo, ErrInvalidRecord, map[string]interface{}{
			"reason": "index record has no values",
		})
	}
	last := rec.Values[len(rec.Values)-1]
	if last.Kind != KindInt {
		return Record{}, 0, newDatabaseError("decode_index_record", pageNo, ErrInvalidRecord, map[string]interface{}{
			"reason": "index record does not end in an integer row id",
		})
	}
	return Record{Values: rec.Values[:len(rec.Values)-1]}, last.Int, nil
}
