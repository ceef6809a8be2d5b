package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hoplink/backend/internal/config"
	"github.com/hoplink/backend/internal/core/ports"
	"github.com/hoplink/backend/internal/domain"
	"github.com/hoplink/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Test doubles ====================

// fakeHost models one remote machine: which tools it has and how transfer
// commands behave on it.
type fakeHost struct {
	tools      map[string]string // executable name -> resolved path
	mkdirExit  int
	mkdirErr   error
	uploadHang bool
}

type fakeDialer struct {
	mu         sync.Mutex
	hosts      map[string]*fakeHost
	connectErr map[string]error

	// onTransfer handles anything that is not a probe, mkdir or rm.
	onTransfer func(host, cmd string, onStdout func(string)) (ports.ExecResult, error)

	execLog     []string          // "host: cmd"
	uploads     map[string]string // remote path -> content
	uploadModes map[string]os.FileMode
	removals    []string // paths passed to rm -f
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		hosts:       make(map[string]*fakeHost),
		connectErr:  make(map[string]error),
		uploads:     make(map[string]string),
		uploadModes: make(map[string]os.FileMode),
	}
}

func (d *fakeDialer) host(name string, tools ...string) *fakeHost {
	h := &fakeHost{tools: make(map[string]string)}
	for _, tool := range tools {
		h.tools[tool] = "/usr/bin/" + tool
	}
	d.hosts[name] = h
	return h
}

func (d *fakeDialer) Connect(ctx context.Context, ep ports.Endpoint) (ports.RemoteConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.connectErr[ep.Host]; err != nil {
		return nil, err
	}
	h, ok := d.hosts[ep.Host]
	if !ok {
		return nil, fmt.Errorf("unknown host %q", ep.Host)
	}
	return &fakeConn{dialer: d, hostName: ep.Host, host: h}, nil
}

func (d *fakeDialer) loggedCommands(host string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, entry := range d.execLog {
		if strings.HasPrefix(entry, host+": ") {
			out = append(out, strings.TrimPrefix(entry, host+": "))
		}
	}
	return out
}

type fakeConn struct {
	dialer   *fakeDialer
	hostName string
	host     *fakeHost
}

func (c *fakeConn) Exec(ctx context.Context, cmd string, onStdout func(line string)) (ports.ExecResult, error) {
	c.dialer.mu.Lock()
	c.dialer.execLog = append(c.dialer.execLog, c.hostName+": "+cmd)
	c.dialer.mu.Unlock()

	switch {
	case strings.HasPrefix(cmd, "command -v "):
		name := strings.TrimPrefix(cmd, "command -v ")
		if path, ok := c.host.tools[name]; ok {
			return ports.ExecResult{Stdout: path + "\n"}, nil
		}
		return ports.ExecResult{ExitCode: 1}, nil

	case strings.HasPrefix(cmd, "mkdir -p "):
		if c.host.mkdirErr != nil {
			return ports.ExecResult{}, c.host.mkdirErr
		}
		return ports.ExecResult{ExitCode: c.host.mkdirExit, Stderr: "mkdir: permission denied"}, nil

	case strings.HasPrefix(cmd, "rm -f "):
		path := strings.Trim(strings.TrimPrefix(cmd, "rm -f "), "'")
		c.dialer.mu.Lock()
		c.dialer.removals = append(c.dialer.removals, path)
		delete(c.dialer.uploads, path)
		c.dialer.mu.Unlock()
		return ports.ExecResult{}, nil

	default:
		handler := c.dialer.onTransfer
		if handler != nil {
			return handler(c.hostName, cmd, onStdout)
		}
		return ports.ExecResult{}, nil
	}
}

func (c *fakeConn) Upload(ctx context.Context, remotePath string, mode os.FileMode, content io.Reader) error {
	if c.host.uploadHang {
		<-ctx.Done()
		return fmt.Errorf("upload aborted: %w", ctx.Err())
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	c.dialer.mu.Lock()
	c.dialer.uploads[remotePath] = string(data)
	c.dialer.uploadModes[remotePath] = mode
	c.dialer.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error { return nil }

type fakeDirectory struct {
	endpoints map[uint]ports.Endpoint
	errs      map[uint]error
}

func (d *fakeDirectory) Resolve(ctx context.Context, id uint) (ports.Endpoint, error) {
	if err := d.errs[id]; err != nil {
		return ports.Endpoint{}, err
	}
	ep, ok := d.endpoints[id]
	if !ok {
		return ports.Endpoint{}, ErrConnectionNotFound
	}
	return ep, nil
}

// ==================== Harness ====================

const (
	sourceID = uint(1)
	targetA  = uint(2)
	targetB  = uint(3)
)

func newHarness(cfg config.TransferConfig) (*fakeDialer, *fakeDirectory, ports.TransferService) {
	dialer := newFakeDialer()
	directory := &fakeDirectory{
		endpoints: map[uint]ports.Endpoint{
			sourceID: {Host: "source", Port: 22, Username: "root", AuthKind: "password", Password: "src-secret"},
			targetA:  {Host: "target-a", Port: 22, Username: "deploy", AuthKind: "key", PrivateKey: "KEY-A"},
			targetB:  {Host: "target-b", Port: 2202, Username: "deploy", AuthKind: "key", PrivateKey: "KEY-B"},
		},
		errs: make(map[uint]error),
	}

	svc := NewTransferService(TransferServiceConfig{
		Dialer:    dialer,
		Directory: directory,
		Logger:    logger.NewNop(),
		Config:    cfg,
	})
	return dialer, directory, svc
}

func submitRequest(targets []uint, items []domain.TransferItem, tool domain.ToolPreference) domain.TransferRequest {
	return domain.TransferRequest{
		SourceID:  sourceID,
		Items:     items,
		TargetIDs: targets,
		DestDir:   "/srv/incoming",
		Tool:      tool,
	}
}

func waitTerminal(t *testing.T, svc ports.TransferService, taskID, owner string) *domain.TransferTask {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task := svc.Get(taskID, owner)
		require.NotNil(t, task)
		if task.Status.IsTerminal() {
			return task
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("task did not reach a terminal state in time")
	return nil
}

// ==================== Tests ====================

func TestSubmitExpandsCrossProduct(t *testing.T) {
	dialer, _, svc := newHarness(config.TransferConfig{})
	dialer.host("source", "rsync", "scp")
	dialer.host("target-a", "rsync")
	dialer.host("target-b", "rsync")

	items := []domain.TransferItem{
		{Path: "/data/a.tar", IsDir: false},
		{Path: "/data/logs", IsDir: true},
		{Path: "/data/b.tar", IsDir: false},
	}
	task, err := svc.Submit(context.Background(), submitRequest([]uint{targetA, targetB}, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)

	assert.Len(t, task.SubTasks, 6)
	assert.Equal(t, domain.TransferStatusQueued, task.Status)
	for _, st := range task.SubTasks {
		assert.Equal(t, task.ID, st.TaskID)
		assert.Equal(t, domain.SubTaskStatusQueued, st.Status)
	}

	// Targets are the outer loop of the expansion.
	assert.Equal(t, targetA, task.SubTasks[0].TargetID)
	assert.Equal(t, targetA, task.SubTasks[2].TargetID)
	assert.Equal(t, targetB, task.SubTasks[3].TargetID)

	final := waitTerminal(t, svc, task.ID, "alice")
	assert.Len(t, final.SubTasks, 6)
}

func TestSubmitRejectsEmptyRequest(t *testing.T) {
	_, _, svc := newHarness(config.TransferConfig{})

	_, err := svc.Submit(context.Background(), domain.TransferRequest{}, "alice")
	assert.Error(t, err)
}

func TestScenarioMirroringOnBothEnds(t *testing.T) {
	dialer, _, svc := newHarness(config.TransferConfig{})
	dialer.host("source", "rsync", "scp")
	dialer.host("target-a", "rsync")

	items := []domain.TransferItem{
		{Path: "/data/a.tar"},
		{Path: "/data/logs", IsDir: true},
	}
	task, err := svc.Submit(context.Background(), submitRequest([]uint{targetA}, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)

	final := waitTerminal(t, svc, task.ID, "alice")
	assert.Equal(t, domain.TransferStatusCompleted, final.Status)
	assert.Equal(t, 100, final.Progress)
	for _, st := range final.SubTasks {
		assert.Equal(t, domain.SubTaskStatusCompleted, st.Status)
		assert.Equal(t, "rsync", st.ToolUsed)
		assert.Equal(t, 100, st.Progress)
		assert.NotNil(t, st.StartedAt)
		assert.NotNil(t, st.FinishedAt)
	}
}

func TestScenarioFallbackToCopyTool(t *testing.T) {
	dialer, _, svc := newHarness(config.TransferConfig{})
	dialer.host("source", "rsync", "scp")
	dialer.host("target-a", "rsync")
	dialer.host("target-b") // no rsync on this target

	items := []domain.TransferItem{{Path: "/data/a.tar"}}
	task, err := svc.Submit(context.Background(), submitRequest([]uint{targetA, targetB}, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)

	final := waitTerminal(t, svc, task.ID, "alice")
	assert.Equal(t, domain.TransferStatusCompleted, final.Status)

	byTarget := map[uint]*domain.TransferSubTask{}
	for _, st := range final.SubTasks {
		byTarget[st.TargetID] = st
	}
	assert.Equal(t, "rsync", byTarget[targetA].ToolUsed)
	assert.Equal(t, "scp", byTarget[targetB].ToolUsed)
}

func TestScenarioNoUsableToolIsPartialFailure(t *testing.T) {
	dialer, _, svc := newHarness(config.TransferConfig{})
	dialer.host("source", "rsync") // no scp fallback
	dialer.host("target-a", "rsync")
	dialer.host("target-b")

	items := []domain.TransferItem{{Path: "/data/a.tar"}}
	task, err := svc.Submit(context.Background(), submitRequest([]uint{targetA, targetB}, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)

	final := waitTerminal(t, svc, task.ID, "alice")
	assert.Equal(t, domain.TransferStatusPartiallyCompleted, final.Status)

	byTarget := map[uint]*domain.TransferSubTask{}
	for _, st := range final.SubTasks {
		byTarget[st.TargetID] = st
	}
	assert.Equal(t, domain.SubTaskStatusCompleted, byTarget[targetA].Status)
	assert.Equal(t, domain.SubTaskStatusFailed, byTarget[targetB].Status)
	assert.Contains(t, byTarget[targetB].Message, "no usable transfer tool")
}

func TestScenarioMissingRelayHelperLeavesNoKeyBehind(t *testing.T) {
	dialer, directory, svc := newHarness(config.TransferConfig{})
	dialer.host("source", "rsync", "scp") // sshpass deliberately absent
	dialer.host("target-a", "rsync")

	directory.endpoints[targetA] = ports.Endpoint{
		Host: "target-a", Port: 22, Username: "deploy",
		AuthKind: "key", PrivateKey: "KEY-A", Passphrase: "hunter2",
	}

	items := []domain.TransferItem{{Path: "/data/a.tar"}}
	task, err := svc.Submit(context.Background(), submitRequest([]uint{targetA}, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)

	final := waitTerminal(t, svc, task.ID, "alice")
	assert.Equal(t, domain.TransferStatusFailed, final.Status)
	st := final.SubTasks[0]
	assert.Equal(t, domain.SubTaskStatusFailed, st.Status)
	assert.Contains(t, st.Message, "sshpass")

	// The planted key must be gone again.
	dialer.mu.Lock()
	defer dialer.mu.Unlock()
	assert.Empty(t, dialer.uploads)
	assert.Len(t, dialer.removals, 1)
}

func TestScenarioNonzeroExitCode(t *testing.T) {
	dialer, _, svc := newHarness(config.TransferConfig{})
	dialer.host("source", "rsync", "scp")
	dialer.host("target-a", "rsync")
	dialer.onTransfer = func(host, cmd string, onStdout func(string)) (ports.ExecResult, error) {
		return ports.ExecResult{ExitCode: 2, Stderr: "rsync: permission denied\n"}, nil
	}

	items := []domain.TransferItem{{Path: "/data/a.tar"}}
	task, err := svc.Submit(context.Background(), submitRequest([]uint{targetA}, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)

	final := waitTerminal(t, svc, task.ID, "alice")
	assert.Equal(t, domain.TransferStatusFailed, final.Status)
	st := final.SubTasks[0]
	assert.Equal(t, domain.SubTaskStatusFailed, st.Status)
	assert.Contains(t, st.Message, "exit code 2")
	assert.Contains(t, st.Message, "permission denied")
}

func TestScenarioCancelDrainsInFlight(t *testing.T) {
	dialer, directory, svc := newHarness(config.TransferConfig{MaxConcurrent: 2})
	dialer.host("source", "rsync", "scp")

	targets := make([]uint, 5)
	for i := range targets {
		id := uint(10 + i)
		host := fmt.Sprintf("target-%d", i)
		dialer.host(host, "rsync")
		directory.endpoints[id] = ports.Endpoint{Host: host, Port: 22, Username: "deploy", AuthKind: "key", PrivateKey: "K"}
		targets[i] = id
	}

	started := make(chan string, 5)
	release := make(chan struct{})
	dialer.onTransfer = func(host, cmd string, onStdout func(string)) (ports.ExecResult, error) {
		started <- host
		<-release
		return ports.ExecResult{}, nil
	}

	items := []domain.TransferItem{{Path: "/data/a.tar"}}
	task, err := svc.Submit(context.Background(), submitRequest(targets, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)

	// Wait for the two slots to fill.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatal("in-flight subtasks did not start")
		}
	}

	require.True(t, svc.Cancel(task.ID, "alice"))

	// The three queued subtasks flip immediately; the two in-flight ones
	// are still running.
	snapshot := svc.Get(task.ID, "alice")
	require.NotNil(t, snapshot)
	assert.Equal(t, domain.TransferStatusCancelling, snapshot.Status)
	cancelled := 0
	for _, st := range snapshot.SubTasks {
		if st.Status == domain.SubTaskStatusCancelled {
			cancelled++
		}
	}
	assert.Equal(t, 3, cancelled)

	// Cancelling again is a no-op beyond the first call.
	before := svc.Get(task.ID, "alice")
	assert.True(t, svc.Cancel(task.ID, "alice"))
	after := svc.Get(task.ID, "alice")
	assert.Equal(t, before.Status, after.Status)
	for i := range before.SubTasks {
		assert.Equal(t, before.SubTasks[i].Status, after.SubTasks[i].Status)
	}

	close(release)
	final := waitTerminal(t, svc, task.ID, "alice")
	assert.Equal(t, domain.TransferStatusCancelled, final.Status)

	completed := 0
	cancelled = 0
	for _, st := range final.SubTasks {
		switch st.Status {
		case domain.SubTaskStatusCompleted:
			completed++
		case domain.SubTaskStatusCancelled:
			cancelled++
		}
	}
	assert.Equal(t, 2, completed)
	assert.Equal(t, 3, cancelled)
}

func TestCancelUnknownOrForeignTask(t *testing.T) {
	dialer, _, svc := newHarness(config.TransferConfig{})
	dialer.host("source", "rsync", "scp")
	dialer.host("target-a", "rsync")

	assert.False(t, svc.Cancel("nope", "alice"))

	items := []domain.TransferItem{{Path: "/data/a.tar"}}
	task, err := svc.Submit(context.Background(), submitRequest([]uint{targetA}, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)

	assert.False(t, svc.Cancel(task.ID, "mallory"))
	assert.Nil(t, svc.Get(task.ID, "mallory"))
	waitTerminal(t, svc, task.ID, "alice")
}

func TestConcurrencyBound(t *testing.T) {
	dialer, directory, svc := newHarness(config.TransferConfig{MaxConcurrent: 2})
	dialer.host("source", "rsync", "scp")

	targets := make([]uint, 6)
	for i := range targets {
		id := uint(20 + i)
		host := fmt.Sprintf("target-%d", i)
		dialer.host(host, "rsync")
		directory.endpoints[id] = ports.Endpoint{Host: host, Port: 22, Username: "deploy", AuthKind: "key", PrivateKey: "K"}
		targets[i] = id
	}

	var mu sync.Mutex
	inFlight, peak := 0, 0
	dialer.onTransfer = func(host, cmd string, onStdout func(string)) (ports.ExecResult, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return ports.ExecResult{}, nil
	}

	items := []domain.TransferItem{{Path: "/data/a.tar"}}
	task, err := svc.Submit(context.Background(), submitRequest(targets, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)

	final := waitTerminal(t, svc, task.ID, "alice")
	assert.Equal(t, domain.TransferStatusCompleted, final.Status)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 2)
	assert.Greater(t, peak, 0)
}

func TestLaunchOrderFollowsSubmissionOrder(t *testing.T) {
	dialer, directory, svc := newHarness(config.TransferConfig{MaxConcurrent: 1})
	dialer.host("source", "rsync", "scp")

	targets := make([]uint, 4)
	for i := range targets {
		id := uint(30 + i)
		host := fmt.Sprintf("target-%d", i)
		dialer.host(host, "rsync")
		directory.endpoints[id] = ports.Endpoint{Host: host, Port: 22, Username: "deploy", AuthKind: "key", PrivateKey: "K"}
		targets[i] = id
	}

	// Transfer commands all run on the source control connection, so the
	// launch order shows up in the command text, not the connection host.
	var mu sync.Mutex
	var order []string
	dialer.onTransfer = func(host, cmd string, onStdout func(string)) (ports.ExecResult, error) {
		mu.Lock()
		order = append(order, cmd)
		mu.Unlock()
		return ports.ExecResult{}, nil
	}

	items := []domain.TransferItem{{Path: "/data/a.tar"}}
	task, err := svc.Submit(context.Background(), submitRequest(targets, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)
	waitTerminal(t, svc, task.ID, "alice")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 4)
	for i, cmd := range order {
		assert.Contains(t, cmd, fmt.Sprintf("@target-%d:", i))
	}
}

func TestControlConnectionFailureFailsWholeTask(t *testing.T) {
	dialer, _, svc := newHarness(config.TransferConfig{})
	dialer.host("target-a", "rsync")
	dialer.connectErr["source"] = fmt.Errorf("dial tcp: connection refused")

	items := []domain.TransferItem{{Path: "/data/a.tar"}, {Path: "/data/b.tar"}}
	task, err := svc.Submit(context.Background(), submitRequest([]uint{targetA}, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)

	final := waitTerminal(t, svc, task.ID, "alice")
	assert.Equal(t, domain.TransferStatusFailed, final.Status)
	for _, st := range final.SubTasks {
		assert.Equal(t, domain.SubTaskStatusFailed, st.Status)
		assert.Contains(t, st.Message, "control connection failed")
	}
}

func TestFixedToolPreferenceFailsWhenMissing(t *testing.T) {
	dialer, _, svc := newHarness(config.TransferConfig{})
	dialer.host("source", "rsync") // scp missing
	dialer.host("target-a", "rsync")

	items := []domain.TransferItem{{Path: "/data/a.tar"}}
	task, err := svc.Submit(context.Background(), submitRequest([]uint{targetA}, items, domain.ToolPreferenceScp), "alice")
	require.NoError(t, err)

	final := waitTerminal(t, svc, task.ID, "alice")
	assert.Equal(t, domain.TransferStatusFailed, final.Status)
	assert.Contains(t, final.SubTasks[0].Message, "scp not found on source host")
}

func TestDirectoryPreparationFailureFailsSubTask(t *testing.T) {
	dialer, _, svc := newHarness(config.TransferConfig{})
	dialer.host("source", "rsync", "scp")
	target := dialer.host("target-a", "rsync")
	target.mkdirExit = 1

	items := []domain.TransferItem{{Path: "/data/a.tar"}}
	task, err := svc.Submit(context.Background(), submitRequest([]uint{targetA}, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)

	final := waitTerminal(t, svc, task.ID, "alice")
	assert.Equal(t, domain.TransferStatusFailed, final.Status)
	assert.Contains(t, final.SubTasks[0].Message, "destination directory preparation failed")

	// Failure happened before any transfer command ran on the source.
	for _, cmd := range dialer.loggedCommands("source") {
		assert.False(t, strings.HasPrefix(cmd, "rsync"), "transfer should not have been attempted: %s", cmd)
		assert.False(t, strings.HasPrefix(cmd, "scp"), "transfer should not have been attempted: %s", cmd)
	}
}

func TestTerminalSubTaskStatusIsNeverOverwritten(t *testing.T) {
	dialer, _, svc := newHarness(config.TransferConfig{})
	dialer.host("source", "rsync", "scp")
	dialer.host("target-a", "rsync")

	items := []domain.TransferItem{{Path: "/data/a.tar"}}
	task, err := svc.Submit(context.Background(), submitRequest([]uint{targetA}, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)
	final := waitTerminal(t, svc, task.ID, "alice")

	concrete := svc.(*transferService)
	st := concrete.tasks[task.ID].task.SubTasks[0]
	changed := concrete.mutateSubTask(concrete.tasks[task.ID].task, st, func(st *domain.TransferSubTask) {
		st.Status = domain.SubTaskStatusQueued
	})
	assert.False(t, changed)
	assert.Equal(t, domain.SubTaskStatusCompleted, st.Status)
	assert.Equal(t, final.Status, svc.Get(task.ID, "alice").Status)
}

func TestRollupRoundTripFromSnapshots(t *testing.T) {
	dialer, _, svc := newHarness(config.TransferConfig{})
	dialer.host("source", "rsync") // target-b has no rsync and no scp fallback
	dialer.host("target-a", "rsync")
	dialer.host("target-b")

	items := []domain.TransferItem{{Path: "/data/a.tar"}}
	task, err := svc.Submit(context.Background(), submitRequest([]uint{targetA, targetB}, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)

	final := waitTerminal(t, svc, task.ID, "alice")
	assert.Equal(t, final.Status, rollupStatus(final.SubTasks))
	assert.Equal(t, final.Progress, overallProgress(final.SubTasks))
}

func TestProgressReportingFromMirroringTool(t *testing.T) {
	dialer, _, svc := newHarness(config.TransferConfig{})
	dialer.host("source", "rsync", "scp")
	dialer.host("target-a", "rsync")

	dialer.onTransfer = func(host, cmd string, onStdout func(string)) (ports.ExecResult, error) {
		for _, line := range []string{
			"    131,072  13%  128.00kB/s    0:00:07",
			"    655,360  65%  128.00kB/s    0:00:03",
			"  1,048,576 100%  128.00kB/s    0:00:00",
		} {
			onStdout(line)
		}
		return ports.ExecResult{}, nil
	}

	items := []domain.TransferItem{{Path: "/data/big.bin"}}
	task, err := svc.Submit(context.Background(), submitRequest([]uint{targetA}, items, domain.ToolPreferenceRsync), "alice")
	require.NoError(t, err)

	final := waitTerminal(t, svc, task.ID, "alice")
	assert.Equal(t, domain.TransferStatusCompleted, final.Status)
	assert.Equal(t, 100, final.SubTasks[0].Progress)
}

func TestListForOwnerFiltersTasks(t *testing.T) {
	dialer, _, svc := newHarness(config.TransferConfig{})
	dialer.host("source", "rsync", "scp")
	dialer.host("target-a", "rsync")

	items := []domain.TransferItem{{Path: "/data/a.tar"}}
	taskA, err := svc.Submit(context.Background(), submitRequest([]uint{targetA}, items, domain.ToolPreferenceAuto), "alice")
	require.NoError(t, err)
	taskB, err := svc.Submit(context.Background(), submitRequest([]uint{targetA}, items, domain.ToolPreferenceAuto), "bob")
	require.NoError(t, err)

	waitTerminal(t, svc, taskA.ID, "alice")
	waitTerminal(t, svc, taskB.ID, "bob")

	aliceTasks := svc.ListForOwner("alice")
	require.Len(t, aliceTasks, 1)
	assert.Equal(t, taskA.ID, aliceTasks[0].ID)
	assert.Empty(t, svc.ListForOwner("carol"))
}
