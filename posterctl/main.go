// posterctl renders, analyzes and batch-exports posters without a device.
//
// Usage:
//
//	posterctl render [-state file] [-id poster] [-format png|jpg|pdf] -o <file>
//	posterctl analyze [-apply -state file] <image>
//	posterctl import -dir <mp3 dir> [-state file]
//	posterctl export-all -state <file> -out <dir> [-format png|jpg|pdf] [-workers n]
//	posterctl presets
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var errUsage = errors.New("usage")

func main() {
	if err := dispatch(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err != errUsage {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func dispatch(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return errUsage
	}
	env := &cli{stdout: stdout, stderr: stderr}
	switch args[0] {
	case "render":
		return env.runRender(args[1:])
	case "analyze":
		return env.runAnalyze(args[1:])
	case "import":
		return env.runImport(args[1:])
	case "export-all":
		return env.runExportAll(args[1:])
	case "presets":
		return env.runPresets(args[1:])
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `posterctl: offline poster tools

Commands:
  render      render the live or a saved poster from a state file
  analyze     print the colors derived from artwork
  import      read artist, album and tracks from tagged mp3 files
  export-all  export every saved poster in a state file
  presets     list paper and social size presets

Run "posterctl <command> -h" for the flags of a command.
`)
}
