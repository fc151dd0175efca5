package workload

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseComponentsBasic(t *testing.T) {
	specs, err := ParseComponents("random(bernoulli,0.1,uniform,false,0,64),Mppn(4),trace(-)")
	if err != nil {
		t.Fatalf("ParseComponents: %v", err)
	}
	want := []ComponentSpec{
		{Name: "random", Opts: []string{"bernoulli", "0.1", "uniform", "false", "0", "64"}},
		{Name: "Mppn", Opts: []string{"4"}},
		{Name: "trace", Opts: []string{"-"}},
	}
	if !reflect.DeepEqual(specs, want) {
		t.Fatalf("got %+v, want %+v", specs, want)
	}
}

func TestParseComponentsCommentsAndQuotes(t *testing.T) {
	input := "# a leading comment\n" +
		"trace(\"my, file\") , # trailing comment\n" +
		"smc(128)\n"
	specs, err := ParseComponents(input)
	if err != nil {
		t.Fatalf("ParseComponents: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2: %+v", len(specs), specs)
	}
	if specs[0].Name != "trace" || specs[0].Opts[0] != "my, file" {
		t.Fatalf("quoted comma should survive unsplit: %+v", specs[0])
	}
	if specs[1].Name != "smc" || specs[1].Opts[0] != "128" {
		t.Fatalf("got %+v", specs[1])
	}
}

func TestParseComponentsReadsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stack.txt")
	if err := os.WriteFile(path, []byte("Mppn(2),packetize(1000,20,4,16)"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	specs, err := ParseComponents(path)
	if err != nil {
		t.Fatalf("ParseComponents: %v", err)
	}
	if len(specs) != 2 || specs[0].Name != "Mppn" || specs[1].Name != "packetize" {
		t.Fatalf("got %+v", specs)
	}
}

// A parsed component specifier re-serialized in canonical form and
// re-parsed yields an equal tree (property 13).
func TestParseComponentsRoundTrip(t *testing.T) {
	original := "random(bernoulli,0.1,uniform,false,0,64),Mppn(4),latency(3,2),trace(-,time)"

	first, err := ParseComponents(original)
	if err != nil {
		t.Fatalf("ParseComponents: %v", err)
	}

	canonical := FormatComponents(first)
	second, err := ParseComponents(canonical)
	if err != nil {
		t.Fatalf("ParseComponents (round trip): %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("round trip mismatch: %+v != %+v", first, second)
	}
}
