package filter

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"deepboot/internal/startup"
)

func genEntry() gopter.Gen {
	return gopter.CombineGens(
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(int(startup.TaskScheduler), int(startup.Service)),
		gen.Bool(),
		gen.AlphaString(),
	).Map(func(vals []interface{}) startup.Entry {
		return startup.Entry{
			Name:        vals[0].(string),
			Command:     vals[1].(string),
			Source:      startup.Source(vals[2].(int)),
			Enabled:     vals[3].(bool),
			Description: vals[4].(string),
		}
	})
}

func genFilter() gopter.Gen {
	return gopter.CombineGens(
		gen.AlphaString().Map(func(s string) string {
			if len(s) > 2 {
				return s[:2]
			}
			return s
		}),
		gen.SliceOfN(2, gen.IntRange(int(startup.TaskScheduler), int(startup.Service))),
		gen.IntRange(0, 2),
	).Map(func(vals []interface{}) Filter {
		f := Filter{SearchTerm: vals[0].(string)}
		for _, s := range vals[1].([]int) {
			f.Sources = append(f.Sources, startup.Source(s))
		}
		switch vals[2].(int) {
		case 1:
			f = f.OnlyEnabled()
		case 2:
			f = f.OnlyDisabled()
		}
		return f
	})
}

func properties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	return gopter.NewProperties(parameters)
}

func TestApply_Subset_Property(t *testing.T) {
	props := properties()

	props.Property("filtered view is an order-preserving subset of matching entries", prop.ForAll(
		func(entries []startup.Entry, f Filter) bool {
			got := Apply(entries, f)
			j := 0
			for _, e := range entries {
				if !f.Match(e) {
					continue
				}
				if j >= len(got) || got[j] != e {
					return false
				}
				j++
			}
			return j == len(got)
		},
		gen.SliceOf(genEntry()),
		genFilter(),
	))

	props.Property("search ignores case", prop.ForAll(
		func(entries []startup.Entry, term string) bool {
			upper := Apply(entries, Filter{}.WithSearch(strings.ToUpper(term)))
			lower := Apply(entries, Filter{}.WithSearch(strings.ToLower(term)))
			return reflect.DeepEqual(upper, lower)
		},
		gen.SliceOf(genEntry()),
		gen.AlphaString(),
	))

	props.TestingRun(t)
}

func TestSort_Idempotent_Property(t *testing.T) {
	props := properties()

	props.Property("sorting twice equals sorting once", prop.ForAll(
		func(entries []startup.Entry, k int) bool {
			key := SortKey(k)
			once := append([]startup.Entry(nil), entries...)
			Sort(once, key)
			twice := append([]startup.Entry(nil), once...)
			Sort(twice, key)
			return reflect.DeepEqual(once, twice)
		},
		gen.SliceOf(genEntry()),
		gen.IntRange(int(SortName), int(SortCommand)),
	))

	props.Property("status sort keeps relative order within each status", prop.ForAll(
		func(entries []startup.Entry) bool {
			sorted := append([]startup.Entry(nil), entries...)
			Sort(sorted, SortStatus)
			var enabled, disabled []startup.Entry
			for _, e := range entries {
				if e.Enabled {
					enabled = append(enabled, e)
				} else {
					disabled = append(disabled, e)
				}
			}
			want := append(enabled, disabled...)
			if len(want) == 0 {
				return len(sorted) == 0
			}
			return reflect.DeepEqual(sorted, want)
		},
		gen.SliceOf(genEntry()),
	))

	props.TestingRun(t)
}

func genTiedEntries() gopter.Gen {
	word := gen.OneConstOf("", "a", "a2", "b", "B", "foo.exe")
	return gen.SliceOf(gopter.CombineGens(word, word).Map(func(vals []interface{}) startup.Entry {
		return startup.Entry{Name: vals[0].(string), Command: vals[1].(string)}
	})).Map(func(entries []startup.Entry) []startup.Entry {
		for i := range entries {
			entries[i].Description = strconv.Itoa(i)
		}
		return entries
	})
}

// sortedStably reports whether field never decreases along sorted and
// entries with equal field keep their original positions' order.
func sortedStably(sorted []startup.Entry, field func(startup.Entry) string) bool {
	for i := 1; i < len(sorted); i++ {
		prev, cur := field(sorted[i-1]), field(sorted[i])
		if prev > cur {
			return false
		}
		if prev == cur {
			a, _ := strconv.Atoi(sorted[i-1].Description)
			b, _ := strconv.Atoi(sorted[i].Description)
			if a > b {
				return false
			}
		}
	}
	return true
}

func TestSort_OrdersByKey_Property(t *testing.T) {
	props := properties()

	props.Property("name sort is ascending and stable", prop.ForAll(
		func(entries []startup.Entry) bool {
			Sort(entries, SortName)
			return sortedStably(entries, func(e startup.Entry) string { return e.Name })
		},
		genTiedEntries(),
	))

	props.Property("command sort is ascending and stable", prop.ForAll(
		func(entries []startup.Entry) bool {
			Sort(entries, SortCommand)
			return sortedStably(entries, func(e startup.Entry) string { return e.Command })
		},
		genTiedEntries(),
	))

	props.TestingRun(t)
}

func TestSortByName(t *testing.T) {
	entries := []startup.Entry{{Name: "b"}, {Name: "a"}, {Name: "a2"}}
	Sort(entries, SortName)
	got := []string{entries[0].Name, entries[1].Name, entries[2].Name}
	if !reflect.DeepEqual(got, []string{"a", "a2", "b"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestSortByCommandKeepsTiesInInputOrder(t *testing.T) {
	entries := []startup.Entry{
		{Name: "z", Command: "b.exe"},
		{Name: "y", Command: "a.exe"},
		{Name: "x", Command: "b.exe"},
		{Name: "w", Command: "a.exe"},
	}
	Sort(entries, SortCommand)
	got := []string{entries[0].Name, entries[1].Name, entries[2].Name, entries[3].Name}
	if !reflect.DeepEqual(got, []string{"y", "w", "z", "x"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestEnabledDisabledAreMutuallyExclusive(t *testing.T) {
	f := Filter{}.OnlyEnabled().OnlyDisabled()
	if f.EnabledOnly || !f.DisabledOnly {
		t.Fatalf("OnlyDisabled must clear EnabledOnly: %+v", f)
	}
	f = f.OnlyEnabled()
	if !f.EnabledOnly || f.DisabledOnly {
		t.Fatalf("OnlyEnabled must clear DisabledOnly: %+v", f)
	}
}

func TestBuildersReturnCopies(t *testing.T) {
	base := Filter{}.WithSources(startup.Service)
	narrowed := base.WithSearch("foo").OnlyEnabled()
	if base.SearchTerm != "" || base.EnabledOnly {
		t.Fatalf("builder mutated receiver: %+v", base)
	}
	if !reflect.DeepEqual(narrowed.Sources, []startup.Source{startup.Service}) {
		t.Fatalf("sources lost: %+v", narrowed)
	}
	narrowed.Clear()
	if !narrowed.IsZero() {
		t.Fatalf("Clear left criteria: %+v", narrowed)
	}
}

func TestApplyMatchesDescriptionButNotMissingOne(t *testing.T) {
	entries := []startup.Entry{
		{Name: "Svc", Command: "svc.exe", Description: "Adobe helper"},
		{Name: "Other", Command: "other.exe"},
	}
	got := Apply(entries, Filter{SearchTerm: "ADOBE"})
	if len(got) != 1 || got[0].Name != "Svc" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestSortBySourceUsesLabel(t *testing.T) {
	entries := []startup.Entry{
		{Name: "t", Source: startup.TaskScheduler},
		{Name: "s", Source: startup.Service},
		{Name: "r", Source: startup.RegistryRun},
	}
	Sort(entries, SortSource)
	got := []string{entries[0].Name, entries[1].Name, entries[2].Name}
	// "Registry (Run)" < "Service" < "Task Scheduler"
	if !reflect.DeepEqual(got, []string{"r", "s", "t"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestParseSortKey(t *testing.T) {
	if k, err := ParseSortKey("Status"); err != nil || k != SortStatus {
		t.Fatalf("got %v %v", k, err)
	}
	if k, err := ParseSortKey("size"); err == nil || k != SortName {
		t.Fatalf("unknown key should fall back to name with error, got %v %v", k, err)
	}
}

func TestViewFiltersThenSorts(t *testing.T) {
	entries := []startup.Entry{
		{Name: "b", Enabled: true},
		{Name: "a", Enabled: false},
		{Name: "c", Enabled: true},
	}
	got := View(entries, Filter{}.OnlyEnabled(), SortName)
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "c" {
		t.Fatalf("unexpected view %+v", got)
	}
	if entries[0].Name != "b" {
		t.Fatal("View must not reorder its input")
	}
}
