package mockapi

import (
	"sort"

	"github.com/kaia-invest/kaia-core/internal/model"
)

// table is an in-memory relation of wire records keyed by sequential ids.
// Callers hold Server.mu.
type table struct {
	next int64
	rows map[int64]model.Record
}

func newTable() *table {
	return &table{rows: make(map[int64]model.Record)}
}

func (t *table) insert(r model.Record) model.Record {
	t.next++
	r["id"] = t.next
	t.rows[t.next] = r
	return r
}

func (t *table) get(id int64) (model.Record, bool) {
	r, ok := t.rows[id]
	return r, ok
}

func (t *table) put(id int64, r model.Record) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	r["id"] = id
	t.rows[id] = r
	return true
}

func (t *table) delete(id int64) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

// list returns the rows matching keep in id order. A nil keep matches all.
func (t *table) list(keep func(model.Record) bool) []model.Record {
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		if r := t.rows[id]; keep == nil || keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (t *table) len() int { return len(t.rows) }

func page(rows []model.Record, limit, offset int) []model.Record {
	if offset > 0 {
		if offset >= len(rows) {
			return []model.Record{}
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
