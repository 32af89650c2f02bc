package cmd

import "testing"

func TestBundleCommandRegistersFlags(t *testing.T) {
	if bundleCmd.Flags().Lookup("config") == nil {
		t.Error("bundle command should register --config")
	}
	if bundleCmd.Flags().Lookup("entry") == nil {
		t.Error("bundle command should register --entry")
	}
	if f := bundleCmd.Flags().Lookup("output"); f == nil {
		t.Error("bundle command should register --output")
	} else if f.Shorthand != "o" {
		t.Errorf("expected --output shorthand 'o', got %q", f.Shorthand)
	}
}

func TestBundleCommandAcceptsAtMostOneArg(t *testing.T) {
	if err := bundleCmd.Args(bundleCmd, []string{"a", "b"}); err == nil {
		t.Error("expected error for more than one positional argument")
	}
	if err := bundleCmd.Args(bundleCmd, []string{"pkg.main"}); err != nil {
		t.Errorf("expected single entry argument to be accepted: %v", err)
	}
}
