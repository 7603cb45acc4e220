package sqlite

import (
	"math"
	"sort"
)

// TableRow is one row produced by a table B-tree scan.
type TableRow struct {
	RowID int64
	Rec   Record
}

// ScanTable walks the table B-tree rooted at root and returns every row in
// ascending row id order. Traversal is iterative: interior pages expose
// their children sorted by upper-bound key (right-most sentinel included),
// so pushing them in reverse onto an explicit stack yields in-order.
func (db *DB) ScanTable(root int) ([]TableRow, error) {
	var rows []TableRow
	stack := []int{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		page, err := db.Page(n)
		if err != nil {
			return nil, err
		}
		switch page.Type() {
		case PageTypeLeafTable:
			for _, c := range page.TableLeaves {
				rows = append(rows, TableRow{RowID: c.RowID, Rec: c.Rec})
			}
		case PageTypeInteriorTable:
			for i := len(page.TableInteriors) - 1; i >= 0; i-- {
				stack = append(stack, int(page.TableInteriors[i].Child))
			}
		default:
			return nil, newDatabaseError("scan_table", n, ErrInvalidPageType, map[string]interface{}{
				"page_type": page.Header.Type,
			})
		}
	}
	return rows, nil
}

// ScanTableRows fetches exactly the rows with the given row ids, which must
// be sorted ascending. Only subtrees whose key window can contain a target
// are descended: interior cells carry the upper bound of each child, so a
// child covering (prev upper bound, own upper bound] is skipped when no
// target falls inside.
func (db *DB) ScanTableRows(root int, rowIDs []int64) ([]TableRow, error) {
	if len(rowIDs) == 0 {
		return nil, nil
	}

	var rows []TableRow
	type frame struct {
		page     int
		min, max int64 // inclusive row-id window of the subtree
	}
	stack := []frame{{page: root, min: rowIDs[0], max: math.MaxInt64}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		page, err := db.Page(f.page)
		if err != nil {
			return nil, err
		}
		switch page.Type() {
		case PageTypeLeafTable:
			for _, c := range page.TableLeaves {
				if c.RowID < f.min || c.RowID > f.max {
					continue
				}
				i := sort.Search(len(rowIDs), func(i int) bool { return rowIDs[i] >= c.RowID })
				if i < len(rowIDs) && rowIDs[i] == c.RowID {
					rows = append(rows, TableRow{RowID: c.RowID, Rec: c.Rec})
				}
			}
		case PageTypeInteriorTable:
			prev := f.min - 1
			var visit []frame
			for _, c := range page.TableInteriors {
				i := sort.Search(len(rowIDs), func(i int) bool { return rowIDs[i] > prev })
				if i < len(rowIDs) && rowIDs[i] <= c.MaxRowID {
					visit = append(visit, frame{page: int(c.Child), min: rowIDs[i], max: c.MaxRowID})
				}
				if c.MaxRowID == math.MaxInt64 {
					break
				}
				prev = c.MaxRowID
			}
			for i := len(visit) - 1; i >= 0; i-- {
				stack = append(stack, visit[i])
			}
		default:
			return nil, newDatabaseError("scan_table_rows", f.page, ErrInvalidPageType, map[string]interface{}{
				"page_type": page.Header.Type,
			})
		}
	}
	return rows, nil
}

// ProbeIndex returns the row ids of every index entry whose first key
// column equals key, sorted ascending. Interior cells are descended when
// their upper-bound key is >= the probe key, or unconditionally for the
// right-most sentinel (empty key, treated as +infinity); an interior cell
// whose own key equals the probe also contributes its row id directly.
// A NULL key matches nothing.
func (db *DB) ProbeIndex(root int, key Value) ([]int64, error) {
	if key.IsNull() {
		return nil, nil
	}

	var ids []int64
	stack := []int{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		page, err := db.Page(n)
		if err != nil {
			return nil, err
		}
		switch page.Type() {
		case PageTypeLeafIndex:
			for _, c := range page.IndexLeaves {
				if len(c.Key.Values) > 0 && Equal(c.Key.Values[0], key) {
					ids = append(ids, c.RowID)
				}
			}
		case PageTypeInteriorIndex:
			for i := len(page.IndexInteriors) - 1; i >= 0; i-- {
				c := page.IndexInteriors[i]
				sentinel := len(c.Key.Values) == 0
				if !sentinel && Compare(c.Key.Values[0], key) < 0 {
					continue
				}
				stack = append(stack, int(c.Child))
				if !sentinel && Equal(c.Key.Values[0], key) {
					ids = append(ids, c.RowID)
				}
			}
		default:
			return nil, newDatabaseError("probe_index", n, ErrInvalidPageType, map[string]interface{}{
				"page_type": page.Header.Type,
			})
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
