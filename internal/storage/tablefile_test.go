package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/d4l3k/messagediff"

	"DerivLex/internal/lexer"
	"DerivLex/internal/regex"
	"DerivLex/internal/scan"
)

func compileTable(t *testing.T) *scan.Table {
	t.Helper()
	lower := regex.Range('a', 'z')
	table, _, err := lexer.Compile([]lexer.Rule{
		{Name: "ws", Pattern: regex.Plus(regex.Literal(' ')), Skip: true},
		{Name: "kw", Pattern: regex.Alt(regex.LiteralString("if"), regex.LiteralString("else"), regex.LiteralString("for"))},
		{Name: "ident", Pattern: regex.Plus(lower)},
	})
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestTableFile_RoundTrip(t *testing.T) {
	table := compileTable(t)
	path := filepath.Join(t.TempDir(), "lexer"+TableFileExt)

	if err := WriteTableFile(path, table); err != nil {
		t.Fatal(err)
	}
	got, err := ReadTableFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff, equal := messagediff.PrettyDiff(table, got); !equal {
		t.Errorf("table differs after round trip:\n%s", diff)
	}

	tokens, err := scan.Tokens(got, []byte("if x else"))
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 3 || tokens[0].Rule != 1 || tokens[1].Rule != 2 {
		t.Errorf("tokens = %v", tokens)
	}
}

func TestEncodeTable_Compresses(t *testing.T) {
	table := compileTable(t)
	raw, err := table.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	data, err := EncodeTable(table)
	if err != nil {
		t.Fatal(err)
	}
	if data[5]&flagLZ4 == 0 {
		t.Skip("payload did not compress")
	}
	if len(data)-headerLen >= len(raw) {
		t.Errorf("compressed payload is %d bytes, raw %d", len(data)-headerLen, len(raw))
	}
}

func TestDecodeTable_Corrupt(t *testing.T) {
	data, err := EncodeTable(compileTable(t))
	if err != nil {
		t.Fatal(err)
	}

	clone := func() []byte { return append([]byte(nil), data...) }

	badMagic := clone()
	badMagic[0] = 'X'
	badVersion := clone()
	badVersion[4] = 7
	badFlags := clone()
	badFlags[5] = 0x80
	badSize := clone()
	badSize[9]++
	badChecksum := clone()
	if badChecksum[headerLen-1] == '0' {
		badChecksum[headerLen-1] = '1'
	} else {
		badChecksum[headerLen-1] = '0'
	}

	cases := map[string]struct {
		data []byte
		want error
	}{
		"short":    {data[:8], ErrBadTableFile},
		"magic":    {badMagic, ErrBadTableFile},
		"version":  {badVersion, ErrBadTableFile},
		"flags":    {badFlags, ErrBadTableFile},
		"size":     {badSize, ErrBadTableFile},
		"checksum": {badChecksum, ErrChecksumMismatch},
	}
	for name, c := range cases {
		if _, err := DecodeTable(c.data); !errors.Is(err, c.want) {
			t.Errorf("%s: err = %v, want %v", name, err, c.want)
		}
	}
}

func TestReadTableFile_Missing(t *testing.T) {
	_, err := ReadTableFile(filepath.Join(t.TempDir(), "missing"+TableFileExt))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}
