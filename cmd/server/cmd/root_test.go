package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedOutput string
		expectError    bool
	}{
		{
			name:           "help flag",
			args:           []string{"--help"},
			expectedOutput: "Local events server",
			expectError:    false,
		},
		{
			name:           "short help flag",
			args:           []string{"-h"},
			expectedOutput: "Local events server",
			expectError:    false,
		},
		{
			name:        "invalid flag",
			args:        []string{"--invalid-flag"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create a new root command for each test to avoid state pollution
			cmd := newRootCommand()

			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			output := buf.String()

			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error but got none")
				}
				if !strings.Contains(err.Error(), "unknown flag: --invalid-flag") {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !strings.Contains(output, tt.expectedOutput) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.expectedOutput, output)
			}
		})
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	cmd := newRootCommand()

	flags := []string{"log-level", "log-format", "api", "session"}
	for _, flag := range flags {
		if f := cmd.PersistentFlags().Lookup(flag); f == nil {
			t.Errorf("expected persistent flag %q to be defined", flag)
		}
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	cmd := newRootCommand()

	expectedCommands := []string{
		"serve", "version", "healthcheck", "migrate",
		"register", "login", "logout", "events",
		"rsvp", "cancel-rsvp", "attendees", "my-rsvps",
	}
	for _, cmdName := range expectedCommands {
		found := false
		for _, subCmd := range cmd.Commands() {
			if subCmd.Name() == cmdName {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q to be registered", cmdName)
		}
	}
}

func TestDefaultAPIURL(t *testing.T) {
	t.Setenv("LOCALEVENTS_API", "")
	if got := defaultAPIURL(); got != "http://localhost:5000/api" {
		t.Errorf("expected default API URL, got %s", got)
	}

	t.Setenv("LOCALEVENTS_API", "https://events.example.com/api")
	if got := defaultAPIURL(); got != "https://events.example.com/api" {
		t.Errorf("expected env API URL, got %s", got)
	}
}
