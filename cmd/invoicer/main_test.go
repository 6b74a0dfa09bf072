package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseItem(t *testing.T) {
	tests := []struct {
		raw      string
		wantDesc string
		wantQty  string
		wantErr  bool
	}{
		{"Consulting:2:100", "Consulting", "2", false},
		{"Hosting: 12 : 9.99", "Hosting", "12", false},
		{"Rate: 10:30 slot:1:50", "Rate: 10:30 slot", "1", false},
		{"Consulting:2", "", "", true},
		{"Consulting:two:100", "", "", true},
		{"Consulting:2:abc", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			item, err := parseItem(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseItem error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if item.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", item.Description, tt.wantDesc)
			}
			if !item.Quantity.Equal(decimal.RequireFromString(tt.wantQty)) {
				t.Errorf("Quantity = %s, want %s", item.Quantity, tt.wantQty)
			}
		})
	}
}

func TestTotalsCommand(t *testing.T) {
	out, err := execute(t, "totals", "--item", "Consulting:2:100", "--tax", "10", "--discount", "5", "--cost", "150", "--paid", "50")
	if err != nil {
		t.Fatalf("totals error: %v", err)
	}

	for _, want := range []string{"$200.00", "$20.00", "$10.00", "$210.00", "$60.00", "$160.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNumberCommand(t *testing.T) {
	out, err := execute(t, "number", "--pattern", "INV-{YYYY}{MM}-{0000}", "--date", "2024-03-01", "--seq", "9", "--count", "2")
	if err != nil {
		t.Fatalf("number error: %v", err)
	}
	want := "INV-202403-0009\nINV-202403-0010\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoicer.yaml")
	if err := os.WriteFile(path, []byte("database:\n  driver: memory\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := execute(t, "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if !strings.Contains(out, "Configuration is valid.") {
		t.Errorf("output missing success line:\n%s", out)
	}

	if _, err := execute(t, "validate", "--config", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("validate with a missing file should fail")
	}
}
