package linkage

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
)

// FieldCount is the number of ";"-separated fields in one payload line.
const FieldCount = 5

// ErrMalformedRecord is returned (wrapped in an INVALID_RECORD error) when a
// payload line does not have exactly [FieldCount] fields or lacks an ABI
// marker or object path. It indicates corrupt package database state.
var ErrMalformedRecord = errors.New("malformed linkage record")

// ABI is an opaque ABI class marker such as "X86_64". Sonames are only
// meaningful within one ABI class.
type ABI string

// Record is one direct-dependency fact about an ELF object, owned by exactly
// one package. Records are immutable after ingestion: callers must not
// modify the Needed slice.
type Record struct {
	ABI    ABI      `json:"abi" toml:"abi"`
	Object string   `json:"object" toml:"object"`
	Soname string   `json:"soname,omitempty" toml:"soname"` // empty for plain executables
	RPath  string   `json:"rpath,omitempty" toml:"rpath"`
	Needed []string `json:"needed,omitempty" toml:"needed"`
}

// IsLibrary reports whether the object advertises its own soname.
func (r Record) IsLibrary() bool { return r.Soname != "" }

// String renders the record back into its payload line form.
func (r Record) String() string {
	return strings.Join([]string{
		string(r.ABI), r.Object, r.Soname, r.RPath, strings.Join(r.Needed, ","),
	}, ";")
}

// Package is an installed package and the records it contributed, in
// payload order.
type Package struct {
	ID      string   `json:"id" toml:"name"`
	Records []Record `json:"records" toml:"object"`
}

// ParseRecords parses one package's NEEDED payload.
//
// The payload is newline-delimited; every non-blank line must have exactly
// five ";"-separated fields: ABI marker, object path, own soname, rpath and a
// comma-separated list of needed sonames. An empty payload yields no records
// and no error. A malformed line fails the whole payload with an
// INVALID_RECORD error naming the package and 1-based line number.
//
// Fields are taken as given, without trimming; only a trailing "\r" is
// stripped from each line and whitespace-only lines are skipped. Empty needed
// entries are dropped and duplicates are removed keeping the first occurrence.
func ParseRecords(pkg, payload string) ([]Record, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, nil
	}

	var records []Record
	for i, line := range strings.Split(payload, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			return nil, lgerrors.Wrap(lgerrors.ErrCodeInvalidRecord, err, "package %s: line %d", pkg, i+1)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseLine(line string) (Record, error) {
	fields := strings.Split(line, ";")
	if len(fields) != FieldCount {
		return Record{}, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedRecord, len(fields), FieldCount)
	}
	abi, obj := fields[0], fields[1]
	if abi == "" {
		return Record{}, fmt.Errorf("%w: empty ABI marker", ErrMalformedRecord)
	}
	if obj == "" {
		return Record{}, fmt.Errorf("%w: empty object path", ErrMalformedRecord)
	}
	return Record{
		ABI:    ABI(abi),
		Object: obj,
		Soname: fields[2],
		RPath:  fields[3],
		Needed: SplitNeeded(fields[4]),
	}, nil
}

// SplitNeeded splits a comma-separated soname list, dropping empty entries
// and later duplicates. It returns nil for an empty list.
func SplitNeeded(s string) []string {
	var out []string
	for _, so := range strings.Split(s, ",") {
		if so == "" || slices.Contains(out, so) {
			continue
		}
		out = append(out, so)
	}
	return out
}
