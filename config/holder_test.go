package config_test

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/artpar/invoicer/config"
	"github.com/rs/zerolog"
)

func TestHolder_Get(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Invoicing.NumberPattern != "INV-{YYYY}-{0000}" {
		t.Errorf("NumberPattern = %s, want INV-{YYYY}-{0000}", got.Invoicing.NumberPattern)
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	newContent := `
invoicing:
  number_pattern: "{YY}{MM}{DD}-{####}"
  overdue_sweep_interval: 5m
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	cfg := h.Get()
	if cfg.Invoicing.NumberPattern != "{YY}{MM}{DD}-{####}" {
		t.Errorf("reloaded NumberPattern = %s", cfg.Invoicing.NumberPattern)
	}
	if cfg.Invoicing.OverdueSweepInterval != 5*time.Minute {
		t.Errorf("reloaded OverdueSweepInterval = %v, want 5m", cfg.Invoicing.OverdueSweepInterval)
	}
}

func TestHolder_OnChange(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var mu sync.Mutex
	var receivedCfg *config.Config

	h.OnChange(func(cfg *config.Config) {
		mu.Lock()
		receivedCfg = cfg
		mu.Unlock()
	})

	if err := os.WriteFile(path, []byte("invoicing:\n  currency: EUR\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if receivedCfg == nil {
		t.Fatal("OnChange callback was not called")
	}
	if receivedCfg.Invoicing.Currency != "EUR" {
		t.Errorf("callback received Currency = %s, want EUR", receivedCfg.Invoicing.Currency)
	}
}

func TestHolder_ReloadInvalidConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var failures int
	h.OnError(func(error) { failures++ })
	h.OnChange(func(*config.Config) { t.Error("OnChange called for invalid config") })

	if err := os.WriteFile(path, []byte("database:\n  driver: oracle\n"), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	if err := h.Reload(); err == nil {
		t.Error("Reload should fail for invalid config")
	}
	if failures != 1 {
		t.Errorf("OnError calls = %d, want 1", failures)
	}

	cfg := h.Get()
	if cfg.Invoicing.NumberPattern != "INV-{YYYY}-{0000}" {
		t.Errorf("should keep old config, got NumberPattern = %s", cfg.Invoicing.NumberPattern)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	changed := make(chan *config.Config, 8)
	h.OnChange(func(cfg *config.Config) {
		changed <- cfg
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	if err := os.WriteFile(path, []byte("invoicing:\n  default_due_days: 7\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("file watcher did not trigger reload")
	}

	// A single write may produce several events; wait for the last one to land.
	deadline := time.Now().Add(2 * time.Second)
	for h.Get().Invoicing.DefaultDueDays != 7 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := h.Get().Invoicing.DefaultDueDays; got != 7 {
		t.Errorf("after file watch, DefaultDueDays = %d, want 7", got)
	}
}

func TestHolder_StopTwice(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	h.WatchSignals()
	h.Stop()
	h.Stop()
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if h.Get() == nil {
					t.Error("concurrent Get returned nil")
				}
			}
		}()
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Reload()
		}()
	}

	wg.Wait()
}

func TestReloadableFields(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		want   []string
	}{
		{"reloadable", config.ReloadableFields(), []string{"invoicing.number_pattern", "invoicing.currency", "invoicing.default_due_days", "invoicing.overdue_sweep_interval", "logging.level"}},
		{"non-reloadable", config.NonReloadableFields(), []string{"server.port", "database", "secrets.key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.want {
				found := false
				for _, f := range tt.fields {
					if f == want {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("%s not listed", want)
				}
			}
		})
	}
}

func validConfig() string {
	return `
database:
  driver: "memory"

invoicing:
  number_pattern: "INV-{YYYY}-{0000}"
  currency: "USD"
`
}
