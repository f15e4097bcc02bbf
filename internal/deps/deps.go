package deps

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Requirement defines an external dependency the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ErrNotFound is returned when none of the candidate binaries resolve.
var ErrNotFound = errors.New("binary not found")

const probeTTL = 5 * time.Minute

// Prober resolves commands on PATH and remembers the answer for a few
// minutes, so the speech cascade and the dependency report do not repeat
// filesystem scans within one run.
type Prober struct {
	cache    *cache.Cache
	lookPath func(string) (string, error)
}

type probeResult struct {
	path string
	err  error
}

// NewProber constructs a prober backed by exec.LookPath.
func NewProber() *Prober {
	return &Prober{
		cache:    cache.New(probeTTL, 2*probeTTL),
		lookPath: exec.LookPath,
	}
}

var defaultProber = NewProber()

// Default returns the process-wide prober.
func Default() *Prober {
	return defaultProber
}

// LookPath resolves a command to an absolute path.
func (p *Prober) LookPath(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", fmt.Errorf("%w: command not configured", ErrNotFound)
	}
	if cached, ok := p.cache.Get(command); ok {
		res := cached.(probeResult)
		return res.path, res.err
	}
	path, err := p.lookPath(command)
	if err != nil {
		err = fmt.Errorf("%w: %q", ErrNotFound, command)
	}
	p.cache.SetDefault(command, probeResult{path: path, err: err})
	return path, err
}

// First returns the first candidate that resolves.
func (p *Prober) First(candidates ...string) (string, error) {
	for _, candidate := range candidates {
		if path, err := p.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: none of %s", ErrNotFound, strings.Join(candidates, ", "))
}

// Forget drops cached answers, e.g. after PATH changes in tests.
func (p *Prober) Forget() {
	p.cache.Flush()
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	return defaultProber.CheckBinaries(requirements)
}

// CheckBinaries evaluates the provided requirements using this prober.
func (p *Prober) CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := p.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
