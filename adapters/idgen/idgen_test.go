package idgen_test

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/artpar/invoicer/adapters/idgen"
)

func TestUUID_New(t *testing.T) {
	g := idgen.UUID{Prefix: "inv_"}

	id := g.New()
	if !strings.HasPrefix(id, "inv_") {
		t.Fatalf("ID %s missing prefix", id)
	}

	// UUID v4 format: 8-4-4-4-12 hex chars
	uuidRegex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	if !uuidRegex.MatchString(strings.TrimPrefix(id, "inv_")) {
		t.Errorf("ID %s doesn't match UUID v4 format", id)
	}
}

func TestUUID_New_Unique(t *testing.T) {
	g := idgen.UUID{}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.New()
		if seen[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestSnowflake_New(t *testing.T) {
	g, err := idgen.NewSnowflake("pay_", 7)
	if err != nil {
		t.Fatalf("NewSnowflake: %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.New()
		if !strings.HasPrefix(id, "pay_") {
			t.Fatalf("ID %s missing prefix", id)
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestSnowflake_InvalidNode(t *testing.T) {
	if _, err := idgen.NewSnowflake("", 5000); err == nil {
		t.Error("expected error for node out of range")
	}
}

func TestNew_Strategy(t *testing.T) {
	tests := []struct {
		strategy string
		wantErr  bool
	}{
		{"", false},
		{"uuid", false},
		{"snowflake", false},
		{"ulid", true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			g, err := idgen.New(tt.strategy, "x_", 1)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.strategy, err, tt.wantErr)
			}
			if err == nil && !strings.HasPrefix(g.New(), "x_") {
				t.Error("generated ID missing prefix")
			}
		})
	}
}

func TestSequential_New(t *testing.T) {
	g := idgen.NewSequential("test_")

	for _, want := range []string{"test_1", "test_2", "test_3"} {
		if id := g.New(); id != want {
			t.Errorf("ID = %s, want %s", id, want)
		}
	}
}

func TestSequential_Reset(t *testing.T) {
	g := idgen.NewSequential("id_")

	g.New()
	g.New()
	g.Reset()

	if id := g.New(); id != "id_1" {
		t.Errorf("after reset ID = %s, want id_1", id)
	}
}

func TestSequential_ConcurrentAccess(t *testing.T) {
	g := idgen.NewSequential("c_")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := g.New()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 1000 {
		t.Errorf("expected 1000 unique IDs, got %d", len(seen))
	}
}
