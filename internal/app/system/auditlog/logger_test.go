package auditlog

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratasite/internal/app/store/audit"
	"github.com/dalemusser/stratasite/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(cfg Config) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return New(nil, zap.New(core), cfg), logs
}

func TestLog_NilLogger(t *testing.T) {
	var l *Logger
	l.Log(context.Background(), audit.Event{Category: audit.CategoryAuth})
}

func TestLog_DestinationBySetting(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		category string
		want     int
	}{
		{"auth all", Config{Auth: "all"}, audit.CategoryAuth, 1},
		{"auth log", Config{Auth: "log"}, audit.CategoryAuth, 1},
		{"auth off", Config{Auth: "off"}, audit.CategoryAuth, 0},
		{"auth db only", Config{Auth: "db"}, audit.CategoryAuth, 0},
		{"content follows admin", Config{Admin: "off"}, audit.CategoryContent, 0},
		{"quote follows admin", Config{Admin: "log"}, audit.CategoryQuote, 1},
		{"empty setting logs", Config{}, audit.CategoryAdmin, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, logs := observed(tt.cfg)
			l.Log(context.Background(), audit.Event{Category: tt.category, EventType: "x", Success: true})
			if got := logs.Len(); got != tt.want {
				t.Errorf("zap entries = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestContentEdited_Failure(t *testing.T) {
	l, logs := observed(Config{Admin: "log"})
	req := httptest.NewRequest("PATCH", "/admin/api/pages/home/sections/hero", nil)
	req.Header.Set("X-Real-IP", "10.0.0.9")

	l.ContentEdited(context.Background(), req, primitive.NewObjectID().Hex(), audit.EventSectionEdited, "home", "hero", errors.New("validation failed"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("zap entries = %d, want 1", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", entries[0].Level)
	}
	ctx := entries[0].ContextMap()
	if ctx["detail_section_id"] != "hero" || ctx["ip"] != "10.0.0.9" || ctx["failure_reason"] != "validation failed" {
		t.Errorf("fields = %v", ctx)
	}
}

func TestQuoteStatusChanged_StoresEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	l := New(store, zap.NewNop(), Config{Admin: "db"})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := httptest.NewRequest("POST", "/admin/api/quotes/x/status", nil)
	l.QuoteStatusChanged(ctx, req, primitive.NewObjectID().Hex(), 7, "pending", "reviewing", nil)

	events, err := store.Find(ctx, audit.Filter{Category: audit.CategoryQuote})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Details["number"] != "7" || events[0].Details["to"] != "reviewing" {
		t.Errorf("Details = %v", events[0].Details)
	}
	if events[0].ActorID == nil {
		t.Error("ActorID should be set")
	}
}

func TestParseDestination(t *testing.T) {
	for in, want := range map[string]Destination{"": All, "ALL": All, " db": ToDB, "log": ToLog, "off": Off} {
		got, err := ParseDestination(in)
		if err != nil || got != want {
			t.Errorf("ParseDestination(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseDestination("syslog"); err == nil {
		t.Error("ParseDestination(syslog) should fail")
	}
}

func TestLoginFailed_UsesForwardedClient(t *testing.T) {
	l, logs := observed(Config{Auth: "log"})
	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")

	l.LoginFailed(context.Background(), req, nil, audit.EventLoginFailedWrongPassword, "ayse@example.com", "wrong password")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("zap entries = %d, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["ip"] != "203.0.113.5" {
		t.Errorf("ip = %v, want first forwarded hop", ctx["ip"])
	}
	if ctx["detail_attempted_login_id"] != "ayse@example.com" {
		t.Errorf("fields = %v", ctx)
	}
}
