// replay.go re-runs a session configuration's target program once,
// interactively, with a PTY attached — a capability the original analyzer
// never needed (it always drove the target unattended over the wire
// protocol) but a reasonable addition for inspecting one traced program by
// hand. Grounded on container/exec.go's execWithPTY: open /dev/ptmx,
// unlock and open the paired slave, hand the slave to the child as its
// stdio, put the caller's own terminal into raw mode, and pump bytes and
// window-size changes both ways until the child exits.
package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"unsafe"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"errtracer/config"
)

var replayCmd = &cobra.Command{
	Use:   "replay CONFIGFILE",
	Short: "Re-run a session's target program interactively under a PTY",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if len(cfg.Program) == 0 {
		return fmt.Errorf("configuration names no program to replay")
	}

	child := exec.Command(cfg.Program[0], cfg.Program[1:]...)
	return runWithPTY(child)
}

// runWithPTY mirrors execWithPTY: the same ptmx/pts open-unlock-open
// sequence, raw-mode toggling, and bidirectional copy loop, generalized
// from "attach to a running container" to "attach to any *exec.Cmd".
func runWithPTY(cmd *exec.Cmd) error {
	ptmx, err := os.OpenFile("/dev/ptmx", os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open /dev/ptmx: %w", err)
	}

	var ptyNum uint32
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, ptmx.Fd(), syscall.TIOCGPTN, uintptr(unsafe.Pointer(&ptyNum))); errno != 0 {
		return fmt.Errorf("get pty number: %v", errno)
	}
	var unlock int32
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, ptmx.Fd(), syscall.TIOCSPTLCK, uintptr(unsafe.Pointer(&unlock))); errno != 0 {
		return fmt.Errorf("unlock pty: %v", errno)
	}

	slavePath := fmt.Sprintf("/dev/pts/%d", ptyNum)
	slave, err := os.OpenFile(slavePath, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open slave pty %s: %w", slavePath, err)
	}
	defer slave.Close()

	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	var oldState *term.State
	stdinFd := int(os.Stdin.Fd())
	if term.IsTerminal(stdinFd) {
		oldState, err = term.MakeRaw(stdinFd)
		if err != nil {
			return fmt.Errorf("make terminal raw: %w", err)
		}
		defer term.Restore(stdinFd, oldState)

		copyTerminalSize(os.Stdin, ptmx)
		sigwinch := make(chan os.Signal, 1)
		signal.Notify(sigwinch, syscall.SIGWINCH)
		go func() {
			for range sigwinch {
				copyTerminalSize(os.Stdin, ptmx)
			}
		}()
		defer signal.Stop(sigwinch)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start replayed process: %w", err)
	}
	slave.Close()

	go io.Copy(ptmx, os.Stdin)
	outputDone := make(chan struct{})
	go func() {
		io.Copy(os.Stdout, ptmx)
		close(outputDone)
	}()

	err = cmd.Wait()
	ptmx.Close()
	<-outputDone

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return err
	}
	return nil
}

// copyTerminalSize copies the caller's terminal size onto the PTY master.
func copyTerminalSize(src, dst *os.File) {
	width, height, err := term.GetSize(int(src.Fd()))
	if err != nil {
		return
	}
	setTerminalSize(dst, width, height)
}

// winsize is the struct the TIOCSWINSZ ioctl expects.
type winsize struct {
	Row    uint16
	Col    uint16
	Xpixel uint16
	Ypixel uint16
}

func setTerminalSize(f *os.File, width, height int) {
	ws := winsize{Row: uint16(height), Col: uint16(width)}
	syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), syscall.TIOCSWINSZ, uintptr(unsafe.Pointer(&ws)))
}
