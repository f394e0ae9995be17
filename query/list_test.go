package query

import (
	"testing"
)

func TestParseColumnsList(t *testing.T) {
	l, err := ParseColumns("a, b AS x, COUNT(*) c, t.*, 'lit' 'alias'")
	if err != nil {
		t.Fatalf("ParseColumns() error = %v", err)
	}

	wantAliases := []string{"", "x", "c", "", "alias"}
	if l.Len() != len(wantAliases) {
		t.Fatalf("Len() = %d, want %d", l.Len(), len(wantAliases))
	}
	for i, want := range wantAliases {
		if got := l.At(i).Alias; got != want {
			t.Errorf("item %d alias = %q, want %q", i, got, want)
		}
	}

	want := "a, b AS x, COUNT(*) AS c, t.*, 'lit' AS alias"
	if got := l.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseOrderByList(t *testing.T) {
	l, err := ParseOrderBy("a DESC, b, c asc")
	if err != nil {
		t.Fatalf("ParseOrderBy() error = %v", err)
	}

	wantDesc := []bool{true, false, false}
	if l.Len() != len(wantDesc) {
		t.Fatalf("Len() = %d, want %d", l.Len(), len(wantDesc))
	}
	for i, want := range wantDesc {
		if got := l.At(i).Desc; got != want {
			t.Errorf("item %d Desc = %v, want %v", i, got, want)
		}
	}
	if got := l.String(); got != "a DESC, b ASC, c ASC" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseGroupByList(t *testing.T) {
	l, err := ParseGroupBy("cat, YEAR(created), t.region")
	if err != nil {
		t.Fatalf("ParseGroupBy() error = %v", err)
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	if _, ok := l.At(1).(*Function); !ok {
		t.Errorf("item 1 is %T, want *Function", l.At(1))
	}
	if got := l.String(); got != "cat, YEAR(created), t.region" {
		t.Errorf("String() = %q", got)
	}
}

func TestListCursor(t *testing.T) {
	l := NewList[Node](&Field{Name: "a"}, &Field{Name: "b"}, &Field{Name: "c"})

	var seen []string
	for item, ok := l.Current(); ok; item, ok = l.Current() {
		seen = append(seen, item.String())
		l.Next()
	}
	if len(seen) != 3 || seen[0] != "a" || seen[2] != "c" {
		t.Errorf("iteration = %v, want [a b c]", seen)
	}
	if l.Next() {
		t.Error("Next() past the end should report false")
	}

	l.Rewind()
	l.Next()
	if item, _ := l.Current(); item.String() != "b" {
		t.Errorf("Current() after Rewind and Next = %v, want b", item)
	}
}

func TestListAppendRemove(t *testing.T) {
	l := NewList[Node]()
	l.Append(&Field{Name: "a"})
	l.Append(&Field{Name: "b"})
	l.Append(&Field{Name: "c"})

	l.Next()
	l.Next() // cursor on c
	if err := l.Remove(0); err != nil {
		t.Fatalf("Remove(0) error = %v", err)
	}
	if got := l.String(); got != "b, c" {
		t.Errorf("String() after Remove = %q, want %q", got, "b, c")
	}
	if item, ok := l.Current(); !ok || item.String() != "c" {
		t.Errorf("Current() after Remove = %v, want c", item)
	}

	if err := l.Remove(5); err == nil {
		t.Error("Remove(5) should fail")
	}
	if err := l.Remove(-1); err == nil {
		t.Error("Remove(-1) should fail")
	}
}

func TestNilList(t *testing.T) {
	var l *OrderByList
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
	if l.Items() != nil {
		t.Error("Items() of nil list should be nil")
	}
	if l.String() != "" {
		t.Errorf("String() = %q, want empty", l.String())
	}
}
