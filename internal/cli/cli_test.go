package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/echo.jsonc", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/echo.jsonc", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantErr    string
		wantCmd    Command
		wantHelp   bool
		wantPath   string
		wantServer string
	}{
		{
			name:     "help short flag",
			args:     []string{"-h"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:     "help long flag",
			args:     []string{"--help"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:     "version flag",
			args:     []string{"--version"},
			wantCmd:  CommandVersion,
			wantHelp: false,
		},
		{
			name:    "config after command",
			args:    []string{"whoami", "--config", "/tmp/cfg"},
			wantErr: "unexpected arguments after command",
		},
		{
			name:    "missing config path",
			args:    []string{"--config"},
			wantErr: "requires a path",
		},
		{
			name:    "missing server url",
			args:    []string{"--server"},
			wantErr: "requires a URL",
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: "unknown flag",
		},
		{
			name:    "unknown command",
			args:    []string{"bogus"},
			wantErr: "unknown command",
		},
		{
			name:    "extra args after command",
			args:    []string{"doctor", "extra"},
			wantErr: "unexpected arguments",
		},
		{
			name:     "valid login command",
			args:     []string{"login"},
			wantCmd:  CommandLogin,
			wantHelp: false,
		},
		{
			name:     "valid practice with config",
			args:     []string{"--config", "/tmp/cfg", "practice"},
			wantCmd:  CommandPractice,
			wantHelp: false,
			wantPath: "/tmp/cfg",
		},
		{
			name:       "server override before command",
			args:       []string{"--server", "https://echo.example.com", "practice"},
			wantCmd:    CommandPractice,
			wantHelp:   false,
			wantServer: "https://echo.example.com",
		},
		{
			name:     "valid record control command",
			args:     []string{"record"},
			wantCmd:  CommandRecord,
			wantHelp: false,
		},
		{
			name:     "valid status control command",
			args:     []string{"status"},
			wantCmd:  CommandStatus,
			wantHelp: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
			require.Equal(t, tc.wantServer, parsed.ServerURL)
		})
	}
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("echo")
	require.Contains(t, text, "practice")
	require.Contains(t, text, "login")
	require.Contains(t, text, "whoami")
	require.Contains(t, text, "doctor")
	require.Contains(t, text, "record")
	require.Contains(t, text, "quit")
	require.Contains(t, text, "--config PATH")
	require.Contains(t, text, "--server URL")
}

func TestIsControl(t *testing.T) {
	for _, cmd := range []Command{CommandStatus, CommandRecord, CommandStop, CommandFlip, CommandSay, CommandNext, CommandQuit} {
		require.True(t, IsControl(cmd), string(cmd))
	}
	for _, cmd := range []Command{CommandPractice, CommandLogin, CommandDoctor, CommandHelp} {
		require.False(t, IsControl(cmd), string(cmd))
	}
}
