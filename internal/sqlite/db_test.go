package sqlite

import (
	"errors"
	"testing"

	"github.com/hgye/litescan/internal/testdb"
)

func TestOpenHeader(t *testing.T) {
	db := openFixture(t, testdb.UsersLeaf(t))
	h := db.Header()
	if h.PageSize != 4096 {
		t.Errorf("PageSize = %d, want 4096", h.PageSize)
	}
	if h.TextEncoding != EncodingUTF8 {
		t.Errorf("TextEncoding = %d, want UTF-8", h.TextEncoding)
	}
	if h.PageCount < 1 {
		t.Errorf("PageCount = %d", h.PageCount)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("does/not/exist.db"); !errors.Is(err, ErrIO) {
		t.Errorf("Open error = %v, want ErrIO", err)
	}
}

func TestPageBounds(t *testing.T) {
	db := openFixture(t, testdb.UsersLeaf(t))
	if _, err := db.Page(0); err == nil {
		t.Error("Page(0) succeeded, page numbers are 1-based")
	}
	if _, err := db.Page(int(db.Header().PageCount) + 1); err == nil {
		t.Error("Page past the page count succeeded")
	}
}

func TestPageCached(t *testing.T) {
	db := openFixture(t, testdb.UsersLeaf(t))
	p1, err := db.Page(1)
	if err != nil {
		t.Fatalf("Page(1): %v", err)
	}
	p2, err := db.Page(1)
	if err != nil {
		t.Fatalf("Page(1) again: %v", err)
	}
	if p1 != p2 {
		t.Error("Page(1) decoded twice, pages must be cached")
	}
}

// TestPageStructuralInvariants decodes every page of the interior fixture
// and checks the cell accounting: decoded cells match the header cell count,
// with interior pages gaining exactly the promoted right-most sentinel.
func TestPageStructuralInvariants(t *testing.T) {
	db := openFixture(t, testdb.UsersInterior(t))
	for n := 1; n <= int(db.Header().PageCount); n++ {
		page, err := db.Page(n)
		if errors.Is(err, ErrInvalidPageType) {
			continue // freelist or other non-B-tree page
		}
		if err != nil {
			t.Fatalf("Page(%d): %v", n, err)
		}
		count := int(page.Header.CellCount)
		switch page.Type() {
		case PageTypeLeafTable:
			if len(page.TableLeaves) != count {
				t.Errorf("page %d: %d cells decoded, header says %d", n, len(page.TableLeaves), count)
			}
		case PageTypeInteriorTable:
			if len(page.TableInteriors) != count+1 {
				t.Errorf("page %d: %d cells decoded, want %d + sentinel", n, len(page.TableInteriors), count)
			}
		case PageTypeLeafIndex:
			if len(page.IndexLeaves) != count {
				t.Errorf("page %d: %d cells decoded, header says %d", n, len(page.IndexLeaves), count)
			}
		case PageTypeInteriorIndex:
			if len(page.IndexInteriors) != count+1 {
				t.Errorf("page %d: %d cells decoded, want %d + sentinel", n, len(page.IndexInteriors), count)
			}
		}
	}
}
