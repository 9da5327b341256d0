package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithOrderID(ctx, "order-123")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte("\"order_id\"")) {
		t.Fatalf("expected order_id to be preserved; entry=%s", buf.String())
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, WarnStack: true})
	ctx := context.Background()
	log.Warn(ctx, "stock below minimum")
	if !bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected stack when warn stack enabled")
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" DEBUG "); lvl != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %v", lvl)
	}
}

func TestLoggerDomainFieldsAndLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: buf})

	ctx := log.WithIngredientID(context.Background(), "ing-1")
	ctx = log.WithActorID(ctx, "staff-9")
	log.Debug(ctx, "suppressed")
	if buf.Len() != 0 {
		t.Fatalf("debug entry should be filtered at info level; entry=%s", buf.String())
	}

	log.Info(ctx, "restocked")
	for _, field := range []string{"\"ingredient_id\":\"ing-1\"", "\"actor_id\":\"staff-9\"", "\"service\":\"test\""} {
		if !bytes.Contains(buf.Bytes(), []byte(field)) {
			t.Fatalf("expected %s in entry=%s", field, buf.String())
		}
	}
}

func TestLoggerErrorTagsTypedErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	log.Error(context.Background(), "deduct rejected", pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough flour"))
	if !bytes.Contains(buf.Bytes(), []byte(`"error_code":"INSUFFICIENT_STOCK"`)) {
		t.Fatalf("expected error_code; entry=%s", buf.String())
	}
	if bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("domain rejections should not carry a stack; entry=%s", buf.String())
	}

	buf.Reset()
	log.Error(context.Background(), "commit failed", pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("conn reset"), "commit"))
	if !bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("dependency failures should carry a stack; entry=%s", buf.String())
	}
}
