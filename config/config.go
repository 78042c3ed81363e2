// Package config loads the harness's session configuration from a small
// key=value file, following the original analyzer's Configuration.cpp
// syntax line for line: one option per line, "#" starts a comment, the
// option name is everything before the first "=" (trailing spaces
// trimmed), the value is everything after it (leading spaces trimmed).
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"errtracer/catalog"
	"errtracer/protocol"
)

// Config holds one parsed session configuration.
type Config struct {
	// Program is the target executable and its arguments; Program[0] is
	// the path.
	Program []string

	ControlKind  protocol.ListKind
	ControlNames []string
	NotifyKind   protocol.ListKind
	NotifyNames  []string

	// Variants is the list of variant group names ("inval", "io", ...)
	// enabled for this session.
	Variants []string

	// Scheduler selects the scheduling strategy; only "bfs" is specified.
	Scheduler string

	// Aggregator selects the canonicalization strategy ("name" or
	// "base_param").
	Aggregator string

	// Subroutine is the minimum window size for jump detection; 1 (or
	// unset) disables jump detection.
	Subroutine int

	// Output selects the serialization format ("dot" or "json").
	Output string

	// Destination is the output file path.
	Destination string

	// Sandbox enables per-run process isolation when true. [DOMAIN]
	Sandbox bool
	// SandboxMemoryMax caps the sandboxed process's memory in bytes (0 =
	// unbounded). [DOMAIN]
	SandboxMemoryMax int64
	// SandboxPidsMax caps the number of tasks the sandboxed process may
	// fork (0 = unbounded). [DOMAIN]
	SandboxPidsMax int64

	// PreRunHook, PostRunHook and SessionEndHook are optional executables
	// invoked around each run / at session end, matching the teacher's
	// hooks.go JSON-on-stdin convention. [DOMAIN]
	PreRunHook    string
	PostRunHook   string
	SessionEndHook string
}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open configuration file: %w", err)
	}
	defer f.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		option, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: incorrect configuration file syntax", lineNum)
		}
		option = strings.TrimRight(option, " \t")
		value = strings.TrimLeft(value, " \t")
		if err := cfg.setOption(option, value); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read configuration file: %w", err)
	}
	return cfg, nil
}

func (c *Config) setOption(option, value string) error {
	switch option {
	case "program":
		c.Program = strings.Fields(value)
	case "control":
		kind, names, err := parseList(value)
		if err != nil {
			return err
		}
		for _, name := range names {
			if !catalog.IsControllable(name) {
				return fmt.Errorf("function %q is not controllable", name)
			}
		}
		c.ControlKind, c.ControlNames = kind, names
	case "notify":
		kind, names, err := parseList(value)
		if err != nil {
			return err
		}
		c.NotifyKind, c.NotifyNames = kind, names
	case "variants":
		for _, v := range strings.Split(value, ",") {
			if _, ok := catalog.LookupGroup(v); !ok {
				return fmt.Errorf("invalid variant group %q", v)
			}
			c.Variants = append(c.Variants, v)
		}
	case "scheduler":
		c.Scheduler = value
	case "aggregator":
		c.Aggregator = value
	case "subroutine":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("subroutine must be a number: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("minimal subroutine size must be greater than 0")
		}
		c.Subroutine = n
	case "output":
		c.Output = value
	case "destination":
		c.Destination = value
	case "sandbox":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("sandbox must be a boolean: %w", err)
		}
		c.Sandbox = b
	case "sandbox_memory_max":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("sandbox_memory_max must be a number: %w", err)
		}
		c.SandboxMemoryMax = n
	case "sandbox_pids_max":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("sandbox_pids_max must be a number: %w", err)
		}
		c.SandboxPidsMax = n
	case "pre_run_hook":
		c.PreRunHook = value
	case "post_run_hook":
		c.PostRunHook = value
	case "session_end_hook":
		c.SessionEndHook = value
	default:
		return fmt.Errorf("invalid option %q in configuration file", option)
	}
	return nil
}

// parseList parses an "all"/"none"/comma-separated-function-list value
// into a ListKind and, for the include case, the function names — also
// validating that every named function exists in the catalog.
func parseList(value string) (protocol.ListKind, []string, error) {
	switch strings.ToLower(value) {
	case "all":
		return protocol.ListAll, nil, nil
	case "none":
		return protocol.ListNone, nil, nil
	default:
		names := strings.Split(value, ",")
		for i, name := range names {
			names[i] = strings.TrimSpace(name)
			if !catalog.Exists(names[i]) {
				return 0, nil, fmt.Errorf("unknown function %q", names[i])
			}
		}
		return protocol.ListInclude, names, nil
	}
}

// HelpText is the original analyzer's --help message, adapted to this
// domain's option set.
const HelpText = `Dynamic analysis harness: drives a target program through every configured
error-injection variant and aggregates the observed calls into a control-flow graph.

Usage:
   errtracer run FILENAME
   errtracer --help

Otherwise starts analysis whose configuration is given in file FILENAME.

Configuration file syntax:
Each line contains one configuration option in the form:
   <option> = <value>
Lines starting with '#' are ignored.

Possible options with their value description:
   program - program to be analyzed (with all program parameters)

   control - list of functions to be controlled
             possible values: "all" - all functions
                              "none" - no functions
                              list of functions separated by ','

   notify  - list of functions only to observe their calling
             possible values: "all" - all functions
                              "none" - no functions
                              list of functions separated by ','

   variants - list of variant groups used for analysis
              possible variant groups:
                 inval - errors "bad file descriptor" (EBADF) and "invalid value" (EINVAL)
                 io - input-output error (EIO)
                 access - error in access rights (EACCES)
                 memory - errors "invalid pointer" (EFAULT) and "insufficient memory" (ENOMEM)
                 interrupt - interruption of the calls by external signal (EINTR)
                 path - errors in file path as parameter of the call
                 limits - errors of insufficient resource limits
                 permissions - errors of permissions of the filesystem
                 file - errors of file given as parameter of the call

   scheduler - algorithm of scheduling analysis
               possible values:
                  bfs - breadth-first search scheduler

   aggregator - type of calls aggregation
                possible values:
                  name - calls are aggregated by function name
                  base_param - calls are aggregated by function name and base parameter

   subroutine - minimal subroutine size (used for detecting jumps in tested program)
                must be greater than 0, 1 means no jump detection

   output - output type
            possible values:
              dot - source with graph for program dot
              json - graph in JSON notation

   destination - output file destination

   sandbox - "true" to run the target under per-run namespace/cgroup isolation

   sandbox_memory_max - memory limit in bytes for a sandboxed run (0 = unbounded)

   sandbox_pids_max - task count limit for a sandboxed run (0 = unbounded)

   pre_run_hook / post_run_hook / session_end_hook - optional executables invoked
              with a JSON summary on stdin around each run / at session end
`
