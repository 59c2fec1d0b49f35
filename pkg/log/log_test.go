package log_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yeisme/mediavault/pkg/log"
)

func TestLoggerReturnsSharedInstance(t *testing.T) {
	l := log.Logger()
	if l == nil {
		t.Fatal("expected a logger")
	}

	if l != log.Logger() {
		t.Fatal("repeated calls must return the same logger")
	}

	// 级别方法可直接在返回值上链式调用
	l.Debug().Str("component", "log").Msg("logger ready")
}

func TestGinWriterBridgesToZerolog(t *testing.T) {
	buf := new(bytes.Buffer)
	l := zerolog.New(buf)

	w := log.NewGinWriter(&l, zerolog.WarnLevel)

	n, err := w.Write([]byte("gin output\n"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	if n != len("gin output\n") {
		t.Fatalf("short write: %d", n)
	}

	out := buf.String()
	if !strings.Contains(out, "gin output") || !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("unexpected log line: %s", out)
	}
}
