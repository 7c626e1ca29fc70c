package interfaces

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/multierr"
)

// checkTTY verifies path names a character device.
func checkTTY(path string) error {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("tty %q: %w", path, ErrNoSuchDevice)
	}
	if err != nil {
		return fmt.Errorf("tty %q: %w", path, err)
	}
	if fi.Mode()&os.ModeCharDevice == 0 {
		return fmt.Errorf("tty %q is not a character device: %w", path, ErrNoSuchDevice)
	}
	return nil
}

// slcandCommand builds the slcand invocation which attaches tty as ifname.
// slcand is kept in the foreground so we own its lifetime.
func slcandCommand(options *Options, tty, ifname string, bitrate uint32) (*exec.Cmd, error) {
	code, err := slcanBitrateCode(bitrate)
	if err != nil {
		return nil, err
	}
	path := options.slcandPath()
	qualifiedPath, err := exec.LookPath(path)
	switch {
	case err == nil: // SUCCESS - fall past switch
	case errors.Is(err, exec.ErrNotFound):
		return nil, fmt.Errorf("finding slcand binary %q: %w", path, errDriverNotFound)
	default:
		return nil, fmt.Errorf("finding slcand binary %q: %w", path, err)
	}

	args := []string{
		"-o", // open the channel on start
		"-c", // close the channel on exit
		"-f", // poll status flags
		"-F", // foreground
		"-s" + strconv.Itoa(code),
	}
	if options.SlcandExtraArgs != "" {
		a, err := shellquote.Split(options.SlcandExtraArgs)
		if err != nil {
			return nil, fmt.Errorf("parsing slcand extra args: %w", err)
		}
		args = append(args, a...)
	}
	args = append(args, tty, ifname)
	return exec.Command(qualifiedPath, args...), nil
}

func cmdExit(cmd *exec.Cmd) <-chan error {
	quit := make(chan error, 1)
	go func() {
		defer close(quit)
		quit <- cmd.Wait()
	}()
	return quit
}

// stopDriver signals a userspace driver to exit, killing it if it hasn't
// exited within driverShutdownTimeout.
func stopDriver(cmd *exec.Cmd, exit <-chan error, timeout time.Duration) error {
	process := cmd.Process
	if process == nil {
		return errors.New("userspace driver cmd.Process not set")
	}
	select {
	case <-exit:
		return nil // already gone
	default:
	}
	var errs error
	if err := process.Signal(syscall.SIGTERM); err != nil {
		errs = fmt.Errorf("signaling shutdown to userspace driver: %w", err)
		// fall through to KILL
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-t.C:
		if err := process.Kill(); err != nil {
			return multierr.Append(errs, fmt.Errorf("killing userspace driver: %w", err))
		}
		// discard exit status because it's likely wonky.
		<-exit
	case <-exit:
	}
	return errs
}
