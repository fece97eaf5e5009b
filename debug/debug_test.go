package debug

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eau-tools/eau"
)

func TestLogToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	if err := EnableAt(path); err != nil {
		t.Fatal(err)
	}
	defer Disable()

	Log("convert", "read %d bytes", 42)
	var seen []error
	warn := Warner("import", func(err error) { seen = append(seen, err) })
	warn.Warnf(eau.ErrPrecisionLoss, "note %d clamped", 60)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	log := string(data)
	for _, want := range []string{"Debug logging started", "convert", "read 42 bytes", "import", "note 60 clamped"} {
		if !strings.Contains(log, want) {
			t.Errorf("log lacks %q:\n%s", want, log)
		}
	}
	if len(seen) != 1 || !errors.Is(seen[0], eau.ErrPrecisionLoss) {
		t.Errorf("forwarded warnings = %v", seen)
	}
	if Count("import") != 1 {
		t.Errorf("count = %d, want 1", Count("import"))
	}
}

func TestLogDisabled(t *testing.T) {
	Disable()
	Log("convert", "dropped")
	Warner("import", nil)(errors.New("dropped"))
	if Enabled() {
		t.Error("logging should be off")
	}
}
