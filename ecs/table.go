package ecs

import "unsafe"

// column is one component column of a table. Sized columns hold one element
// of stride size per row; tag columns stay empty.
type column struct {
	size uint32
	data []byte
}

// Table is the unique home of all entities whose component multiset equals
// its type. Column 0 stores the entity ids themselves, followed by one
// column per type element in canonical order.
type Table struct {
	id      uint64
	typ     Type
	columns []column
	count   int
}

func newTable(w *World, id uint64, typ Type) *Table {
	t := &Table{
		id:      id,
		typ:     typ,
		columns: make([]column, len(typ)+1),
	}
	t.columns[0].size = uint32(unsafe.Sizeof(Entity(0)))
	var prefab Entity
	for i, c := range typ {
		t.columns[i+1].size = w.ComponentSize(c)
		if c.IsInstanceOf() {
			// A table may hold at most one prefab link.
			if prefab != 0 {
				panic("ecs: table type holds more than one prefab")
			}
			prefab = c.Mask()
		}
	}
	return t
}

// Type returns the table's canonical type.
func (t *Table) Type() Type { return t.typ }

// Count returns the number of rows.
func (t *Table) Count() int { return t.count }

// Entity returns the id stored at row.
func (t *Table) Entity(row int) Entity {
	return *(*Entity)(t.ptr(0, row))
}

// Ptr returns a borrowed pointer to the row's data for component c, or nil
// for tags and for components the table does not store. The pointer is
// invalidated when the column reallocates.
func (t *Table) Ptr(c Entity, row int) unsafe.Pointer {
	idx := t.typ.IndexOf(c)
	if idx == -1 || row < 0 || row >= t.count {
		return nil
	}
	if t.columns[idx+1].size == 0 {
		return nil
	}
	return t.ptr(idx+1, row)
}

func (t *Table) ptr(col, row int) unsafe.Pointer {
	c := &t.columns[col]
	return unsafe.Pointer(&c.data[row*int(c.size)])
}

// insert appends a row for e and returns its index. Raises the world's
// resolve flag when any column storage moved, since borrowed reference
// pointers into this table are dangling from that point on.
func (t *Table) insert(w *World, e Entity) int {
	reallocd := false
	for i := range t.columns {
		col := &t.columns[i]
		if col.size == 0 {
			continue
		}
		old := unsafe.SliceData(col.data)
		col.data = append(col.data, make([]byte, col.size)...)
		if unsafe.SliceData(col.data) != old {
			reallocd = true
		}
	}
	row := t.count
	t.count++
	*(*Entity)(t.ptr(0, row)) = e
	if reallocd {
		w.notifyRealloc(t)
	}
	return row
}
