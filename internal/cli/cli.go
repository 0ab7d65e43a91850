package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandPractice Command = "practice"
	CommandLogin    Command = "login"
	CommandRegister Command = "register"
	CommandWhoami   Command = "whoami"
	CommandDevices  Command = "devices"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
	CommandHelp     Command = "help"

	// Control commands forwarded to a live practice session.
	CommandStatus Command = "status"
	CommandRecord Command = "record"
	CommandStop   Command = "stop"
	CommandFlip   Command = "flip"
	CommandSay    Command = "say"
	CommandNext   Command = "next"
	CommandQuit   Command = "quit"
)

var validCommands = map[Command]struct{}{
	CommandPractice: {},
	CommandLogin:    {},
	CommandRegister: {},
	CommandWhoami:   {},
	CommandDevices:  {},
	CommandDoctor:   {},
	CommandVersion:  {},
	CommandHelp:     {},
	CommandStatus:   {},
	CommandRecord:   {},
	CommandStop:     {},
	CommandFlip:     {},
	CommandSay:      {},
	CommandNext:     {},
	CommandQuit:     {},
}

// IsControl reports whether cmd is forwarded to a running practice session.
func IsControl(cmd Command) bool {
	switch cmd {
	case CommandStatus, CommandRecord, CommandStop, CommandFlip, CommandSay, CommandNext, CommandQuit:
		return true
	default:
		return false
	}
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ServerURL  string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--server":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--server requires a URL")
			}
			parsed.ServerURL = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--server URL] <command>

Commands:
  practice  Start an interactive pronunciation practice session
  login     Authenticate and store the session credential
  register  Create an account and store the session credential
  whoami    Print the authenticated account
  devices   List available input devices
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Session control (forwarded to the running practice session):
  status    Print current session phase and progress
  record    Start recording the current prompt
  stop      Stop recording and submit for scoring
  flip      Toggle between prompt text and phonetic view
  say       Play the reference pronunciation
  next      Advance to the next prompt
  quit      End the practice session

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/echo/config.jsonc)
  --server URL    Override the configured server base URL
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
