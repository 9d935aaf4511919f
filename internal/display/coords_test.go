package display

import "testing"

func TestEditUnion(t *testing.T) {
	tests := []struct {
		name string
		e, o Edit
		want Edit
	}{
		{"empty first", Edit{}, Edit{2, 3, 4}, Edit{2, 3, 4}},
		{"empty second", Edit{2, 3, 4}, Edit{}, Edit{2, 3, 4}},
		{"disjoint after", Edit{2, 4, 5}, Edit{7, 8, 8}, Edit{2, 7, 8}},
		{"disjoint before", Edit{5, 6, 8}, Edit{1, 2, 2}, Edit{1, 6, 8}},
		{"overlapping", Edit{2, 4, 6}, Edit{3, 5, 5}, Edit{2, 4, 6}},
		{"nested", Edit{1, 5, 5}, Edit{2, 4, 2}, Edit{1, 5, 3}},
	}
	for _, tt := range tests {
		if got := tt.e.Union(tt.o); got != tt.want {
			t.Errorf("%s: %v.Union(%v): expected %v, got %v", tt.name, tt.e, tt.o, tt.want, got)
		}
	}
}

func TestEditDelta(t *testing.T) {
	e := Edit{Start: 3, OldEnd: 5, NewEnd: 4}
	if e.Delta() != -1 {
		t.Errorf("Delta: expected -1, got %d", e.Delta())
	}
	if e.IsEmpty() {
		t.Error("IsEmpty: expected false")
	}
	if !(Edit{Start: 2, OldEnd: 2, NewEnd: 2}).IsEmpty() {
		t.Error("IsEmpty: expected true for a zero edit")
	}
}

func TestPointCompare(t *testing.T) {
	tests := []struct {
		a, b DisplayPoint
		want int
	}{
		{DisplayPoint{1, 2}, DisplayPoint{1, 2}, 0},
		{DisplayPoint{1, 2}, DisplayPoint{1, 3}, -1},
		{DisplayPoint{2, 0}, DisplayPoint{1, 9}, 1},
	}
	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%v.Compare(%v): expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestRowCacheSplice(t *testing.T) {
	var c rowCache[int]
	c.reset(4)
	build := func(row uint32) int { return int(row) * 10 }
	for row := uint32(0); row < 4; row++ {
		c.get(row, build)
	}

	c.splice(Edit{Start: 1, OldEnd: 2, NewEnd: 3})
	want := []bool{true, false, false, true, true}
	for row, w := range want {
		if got := c.cached(uint32(row)); got != w {
			t.Errorf("cached(%d): expected %v, got %v", row, w, got)
		}
	}
	if got := c.get(3, build); got != 20 {
		t.Errorf("get(3): expected the shifted value 20, got %d", got)
	}
	if got := c.get(9, build); got != 90 {
		t.Errorf("get(9): expected 90, got %d", got)
	}
	if c.cached(9) {
		t.Error("cached(9): rows past the end are never cached")
	}
}
