package detector

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

var (
	// ErrTrackerScriptNotFound is returned when the hand tracker service script cannot be located.
	ErrTrackerScriptNotFound = errors.New("hand_tracker.py not found")
	// ErrTrackerNotReady is returned when the tracker process does not
	// report ready, usually because Python or MediaPipe is missing.
	ErrTrackerNotReady = errors.New("hand tracker did not start")
	// ErrTrackerExited is returned once the tracker process has died. The
	// detector does not respawn it.
	ErrTrackerExited = errors.New("hand tracker exited")
)

// idleShutdown is how long the tracker process may sit unused before it is stopped.
const idleShutdown = 30 * time.Second

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
// The process is stopped after idleShutdown without frames and started
// again by the next Detect. A process that dies, or fails to come up, is
// not restarted: every later Detect returns ErrTrackerExited.
type MediaPipeDetector struct {
	config Config
	script string
	python string

	mu     sync.Mutex
	proc   *trackerProcess
	timer  *time.Timer
	failed error
	spawns int
}

// NewMediaPipeDetector locates the tracker script and interpreter. Call
// Start to launch the process up front; otherwise the first Detect does.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := config.Script
	if script == "" {
		script = findFirst(searchPaths("scripts/hand_tracker.py"))
	} else if _, err := os.Stat(script); err != nil {
		script = ""
	}
	if script == "" {
		return nil, ErrTrackerScriptNotFound
	}

	python := config.Python
	if python == "" {
		python = findFirst(searchPaths("venv/bin/python"))
	}
	if python == "" {
		python = "python3"
	}
	if config.MaxHands <= 0 {
		config.MaxHands = DefaultConfig().MaxHands
	}
	if config.StartTimeout <= 0 {
		config.StartTimeout = DefaultConfig().StartTimeout
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		python: python,
	}, nil
}

// Start launches the tracker process and waits until it reports ready.
func (d *MediaPipeDetector) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startLocked()
}

func (d *MediaPipeDetector) startLocked() error {
	if d.failed != nil {
		return d.failed
	}
	if d.proc != nil {
		return nil
	}

	d.spawns++
	proc, err := startTracker(d.python, d.script, d.config.Args(), d.config.StartTimeout)
	if err != nil {
		d.failed = fmt.Errorf("%w: %w", ErrTrackerExited, err)
		return err
	}
	d.proc = proc
	return nil
}

// Spawns reports how many tracker processes have been launched.
func (d *MediaPipeDetector) Spawns() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.spawns
}

// Detect sends frame to the tracker and returns the hands it found.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.startLocked(); err != nil {
		return nil, err
	}

	hands, err := d.proc.roundTrip(buf.GetBytes())
	if err != nil {
		d.stopLocked()
		d.failed = fmt.Errorf("%w: %w", ErrTrackerExited, err)
		return nil, d.failed
	}
	d.armIdleTimer()

	if len(hands) > d.config.MaxHands {
		hands = hands[:d.config.MaxHands]
	}
	return hands, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *MediaPipeDetector) stopLocked() error {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.proc == nil {
		return nil
	}
	err := d.proc.stop()
	d.proc = nil
	return err
}

func (d *MediaPipeDetector) armIdleTimer() {
	if d.timer != nil {
		d.timer.Reset(idleShutdown)
		return
	}
	d.timer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		log.Println("Stopping idle hand tracker")
		d.stopLocked()
	})
}

// trackerProcess is one running hand_tracker.py.
type trackerProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// startTracker launches the script and waits for its ready line.
func startTracker(python, script string, args []string, timeout time.Duration) (*trackerProcess, error) {
	cmd := exec.Command(python, append([]string{script}, args...)...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrackerNotReady, err)
	}

	p := &trackerProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}
	if err := p.awaitReady(timeout); err != nil {
		p.cmd.Process.Kill()
		p.stop()
		return nil, err
	}
	log.Printf("Hand tracker started (pid %d)", cmd.Process.Pid)

	return p, nil
}

// awaitReady reads the tracker's {"ready": true} line.
func (p *trackerProcess) awaitReady(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		line, err := p.stdout.ReadBytes('\n')
		if err != nil {
			done <- fmt.Errorf("%w: %v", ErrTrackerNotReady, err)
			return
		}
		var msg struct {
			Ready bool `json:"ready"`
		}
		if err := json.Unmarshal(line, &msg); err != nil || !msg.Ready {
			done <- fmt.Errorf("%w: unexpected output %q", ErrTrackerNotReady, bytes.TrimSpace(line))
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		p.cmd.Process.Kill()
		<-done
		return fmt.Errorf("%w: no ready line after %s", ErrTrackerNotReady, timeout)
	}
}

func (p *trackerProcess) roundTrip(jpeg []byte) ([]HandLandmarks, error) {
	if err := writeFrame(p.stdin, jpeg); err != nil {
		return nil, err
	}
	return readResult(p.stdout)
}

func (p *trackerProcess) stop() error {
	p.stdin.Close()
	return p.cmd.Wait()
}

// writeFrame sends one JPEG as a 4-byte big-endian length and the bytes.
func writeFrame(w io.Writer, jpeg []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(jpeg)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(jpeg); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// wireHand is a hand as the tracker script reports it.
type wireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// readResult reads one JSON line of hands. Hands without a full set of
// landmarks are dropped.
func readResult(r *bufio.Reader) ([]HandLandmarks, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp struct {
		Hands []wireHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	hands := make([]HandLandmarks, 0, len(resp.Hands))
	for _, h := range resp.Hands {
		if len(h.Points) < NumLandmarks {
			continue
		}
		lm := HandLandmarks{Handedness: h.Handedness, Score: h.Score}
		copy(lm.Points[:], h.Points)
		hands = append(hands, lm)
	}
	return hands, nil
}

// searchPaths lists where a project-relative file may live: the working
// directory and its parents, next to the binary, and ~/.handbuilder.
func searchPaths(rel string) []string {
	paths := []string{rel, filepath.Join("..", rel), filepath.Join("..", "..", rel)}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), rel))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".handbuilder", rel))
	}
	return paths
}

// findFirst returns the absolute path of the first existing candidate.
func findFirst(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}
