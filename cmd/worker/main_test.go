package main

import (
	"context"
	"strings"
	"testing"

	"github.com/tracemoney/tracemoney/internal/app"
	_ "github.com/tracemoney/tracemoney/internal/testing/guard"
)

func TestMainReturnsInTestMode(t *testing.T) {
	if !app.InTestMode() {
		t.Fatal("expected test mode")
	}
	main()
}

func TestRunReturnsConfigErrors(t *testing.T) {
	t.Setenv("SEC_USER_AGENT", "   ")
	err := run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected config error from run, got %v", err)
	}
}
