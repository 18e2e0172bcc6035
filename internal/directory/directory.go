package directory

import (
	"strings"

	"github.com/eugenetan01/travel-aggregator/internal/models"
)

// Entry is a curated destination known without a network lookup.
type Entry struct {
	Code    string
	Name    string
	Capital string
	Region  models.Region
}

// seed is iterated in declaration order; the first matching entry wins, so
// reordering changes which of several similar names resolves.
var seed = []Entry{
	{Code: "JP", Name: "Japan", Capital: "Tokyo", Region: models.RegionAsia},
	{Code: "FR", Name: "France", Capital: "Paris", Region: models.RegionEurope},
	{Code: "IT", Name: "Italy", Capital: "Rome", Region: models.RegionEurope},
	{Code: "ES", Name: "Spain", Capital: "Madrid", Region: models.RegionEurope},
	{Code: "TH", Name: "Thailand", Capital: "Bangkok", Region: models.RegionAsia},
	{Code: "AU", Name: "Australia", Capital: "Canberra", Region: models.RegionOceania},
	{Code: "GB", Name: "United Kingdom", Capital: "London", Region: models.RegionEurope},
	{Code: "DE", Name: "Germany", Capital: "Berlin", Region: models.RegionEurope},
	{Code: "NZ", Name: "New Zealand", Capital: "Wellington", Region: models.RegionOceania},
	{Code: "CA", Name: "Canada", Capital: "Ottawa", Region: models.RegionAmericas},
}

// Directory is a read-only lookup over a fixed list of destinations.
// It is never mutated after construction and is safe for concurrent use.
type Directory struct {
	entries []Entry
}

// New returns the directory of popular destinations.
func New() *Directory {
	return NewWithEntries(seed)
}

// NewWithEntries builds a directory over entries, keeping their order.
func NewWithEntries(entries []Entry) *Directory {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return &Directory{entries: cp}
}

// FindByCode returns the entry whose code equals code, ignoring case.
func (d *Directory) FindByCode(code string) (Entry, bool) {
	code = strings.TrimSpace(code)
	for _, e := range d.entries {
		if strings.EqualFold(e.Code, code) {
			return e, true
		}
	}
	return Entry{}, false
}

// FindByName returns the first entry, in directory order, where the query is a
// case-insensitive substring of the entry name or the entry name is a substring
// of the query. Surrounding whitespace is ignored; an empty query never matches.
func (d *Directory) FindByName(query string) (Entry, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Entry{}, false
	}
	for _, e := range d.entries {
		name := strings.ToLower(e.Name)
		if strings.Contains(name, q) || strings.Contains(q, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of all entries in directory order.
func (d *Directory) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Codes returns all country codes in directory order.
func (d *Directory) Codes() []string {
	out := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e.Code)
	}
	return out
}

// Names returns up to n country names in directory order. n <= 0 returns all.
func (d *Directory) Names(n int) []string {
	if n <= 0 || n > len(d.entries) {
		n = len(d.entries)
	}
	out := make([]string, 0, n)
	for _, e := range d.entries[:n] {
		out = append(out, e.Name)
	}
	return out
}
