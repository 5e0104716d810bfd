package labeling

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/labelbench/pkg/errors"
	"github.com/matzehuels/labelbench/pkg/raster"
)

func mustImage(t *testing.T, rows [][]uint8) *raster.BinaryImage {
	t.Helper()
	img, err := raster.BinaryFromRows(rows)
	if err != nil {
		t.Fatalf("BinaryFromRows: %v", err)
	}
	return img
}

func TestBuiltinsLabelShapes(t *testing.T) {
	tests := []struct {
		name string
		rows [][]uint8
		want uint
	}{
		{"empty", [][]uint8{{0, 0}, {0, 0}}, 0},
		{"full", [][]uint8{{1, 1}, {1, 1}}, 1},
		{"diagonal is connected", [][]uint8{{1, 0}, {0, 1}}, 1},
		{"anti-diagonal is connected", [][]uint8{{0, 1}, {1, 0}}, 1},
		{"two blobs", [][]uint8{{1, 0, 1}, {1, 0, 1}}, 2},
		{"u shape merges", [][]uint8{{1, 0, 1}, {1, 0, 1}, {1, 1, 1}}, 1},
		{"w shape merges late", [][]uint8{{1, 0, 1, 0, 1}, {1, 0, 1, 0, 1}, {0, 1, 0, 1, 0}}, 1},
		{"isolated pixels", [][]uint8{{1, 0, 1}, {0, 0, 0}, {1, 0, 1}}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := mustImage(t, tt.rows)
			for name, fn := range map[string]LabelerFunc{"SAUF": SAUF, "BFS": BFS} {
				out, n := fn(img)
				if n != tt.want {
					t.Errorf("%s count = %d, want %d", name, n, tt.want)
				}
				if !out.Equal(raster.Canonical(out)) {
					t.Errorf("%s output is not canonical: %v", name, out.Labels)
				}
			}
		})
	}
}

func TestBuiltinsAgreeOnRandomImages(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 40; i++ {
		img := raster.NewBinaryImage(1+rng.Intn(20), 1+rng.Intn(20))
		for j := range img.Pix {
			if rng.Intn(2) == 0 {
				img.Pix[j] = 1
			}
		}
		before := append([]uint8(nil), img.Pix...)

		ref, rn := SAUF(img)
		got, gn := BFS(img)
		if !raster.Equivalent(ref, got, rn, gn) {
			t.Fatalf("BFS disagrees with SAUF on %dx%d image", img.Rows, img.Cols)
		}

		mn, counts := SAUFWithAccessCounts(img)
		if mn != rn {
			t.Errorf("SAUFWithAccessCounts count = %d, want %d", mn, rn)
		}
		if counts[SlotBinary] < uint64(len(img.Pix)) {
			t.Errorf("binary reads = %d, want at least %d", counts[SlotBinary], len(img.Pix))
		}
		if bn, _ := BFSWithAccessCounts(img); bn != rn {
			t.Errorf("BFSWithAccessCounts count = %d, want %d", bn, rn)
		}

		for j := range img.Pix {
			if img.Pix[j] != before[j] {
				t.Fatal("labeling modified the input image")
			}
		}
	}
}

func TestNullLabeler(t *testing.T) {
	img := mustImage(t, [][]uint8{{1, 0}, {0, 1}})
	out, n := Null.Label(img)
	if n != 0 {
		t.Errorf("Null count = %d, want 0", n)
	}
	if out.Rows != 2 || out.Cols != 2 {
		t.Errorf("Null output size = %dx%d, want 2x2", out.Rows, out.Cols)
	}
}

func TestAccessCountsTotal(t *testing.T) {
	c := AccessCounts{1, 2, 3, 4}
	if c.Total() != 10 {
		t.Errorf("Total() = %d, want 10", c.Total())
	}
}

func TestStripEscapes(t *testing.T) {
	tests := []struct{ in, want string }{
		{"SAUF", "SAUF"},
		{`CT\_OPT`, "CT_OPT"},
		{`a\\b\`, "ab"},
	}
	for _, tt := range tests {
		if got := StripEscapes(tt.in); got != tt.want {
			t.Errorf("StripEscapes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollapseEscapes(t *testing.T) {
	tests := []struct{ in, want string }{
		{"SAUF", "SAUF"},
		{`a\b`, `a\b`},
		{`a\\b`, `a\b`},
		{`a\\\b`, `a\\b`},
		{`a\\\\b`, `a\\b`},
	}
	for _, tt := range tests {
		if got := CollapseEscapes(tt.in); got != tt.want {
			t.Errorf("CollapseEscapes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveLabelers(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.WarnLevel})

	entries, err := Default().ResolveLabelers(
		[]string{"SAUF", "NOPE", "BFS"},
		[]string{"SAUF", "Nope", `B\_FS`},
		logger,
	)
	if err != nil {
		t.Fatalf("ResolveLabelers: %v", err)
	}
	if got := strings.Join(Names(entries), ","); got != `SAUF,B\_FS` {
		t.Errorf("resolved names = %q", got)
	}
	if out := buf.String(); !strings.Contains(out, "NOPE") || !strings.Contains(out, string(errors.ErrCodeAlgorithmNotFound)) {
		t.Errorf("expected an ALGORITHM_NOT_FOUND warning naming the unknown id, got %q", out)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		names []string
	}{
		{"empty", nil, nil},
		{"length mismatch", []string{"SAUF", "BFS"}, []string{"SAUF"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Default().ResolveLabelers(tt.ids, tt.names, nil)
			if !errors.Is(err, errors.ErrCodeConfigInvalid) {
				t.Errorf("ResolveLabelers err = %v, want CONFIG_INVALID", err)
			}
			_, err = Default().ResolveAccessCounters(tt.ids, tt.names, nil)
			if !errors.Is(err, errors.ErrCodeConfigInvalid) {
				t.Errorf("ResolveAccessCounters err = %v, want CONFIG_INVALID", err)
			}
		})
	}
}

func TestResolveAccessCounters(t *testing.T) {
	entries, err := Default().ResolveAccessCounters([]string{"SAUF_MEM", "SAUF"}, []string{"SAUF", "x"}, nil)
	if err != nil {
		t.Fatalf("ResolveAccessCounters: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "SAUF" {
		t.Errorf("entries = %+v, want only SAUF_MEM", entries)
	}
}

func TestRegistryIDs(t *testing.T) {
	r := NewRegistry()
	r.RegisterLabeler("b", Null)
	r.RegisterLabeler("a", Null)
	if got := strings.Join(r.LabelerIDs(), ","); got != "a,b" {
		t.Errorf("LabelerIDs() = %q, want a,b", got)
	}
	if _, ok := r.AccessCounter("a"); ok {
		t.Error("labeler ids must not resolve as access counters")
	}
}
