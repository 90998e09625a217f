//go:build linux
// +build linux

package state

import (
	"errors"
	"os"
	"testing"

	"winebox/internal/config"
	wberrors "winebox/pkg/errors"
	"winebox/pkg/idutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func testConfig(name string) *InstanceConfig {
	return &InstanceConfig{
		Name:       name,
		Mode:       config.ModeHeadless,
		Prefix:     "/opt/prefix_" + name,
		GameRoot:   "/opt/game",
		GameExe:    "DarkSoulsRemastered.exe",
		DesktopRes: "800x600",
		ColorDepth: 24,
		DisplayNum: 99,
		RuntimeDir: "/tmp/xdg",
	}
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)

	st, err := store.Create(idutil.GenerateID(), testConfig("dsr-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st.Status != StatusCreating {
		t.Errorf("status = %q, want creating", st.Status)
	}
	if st.Name != "dsr-1" {
		t.Errorf("name = %q", st.Name)
	}

	got, err := store.Get("dsr-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LaunchID != st.LaunchID {
		t.Errorf("launch id mismatch: %q vs %q", got.LaunchID, st.LaunchID)
	}

	cfg, err := LoadConfig(store.InstanceDir("dsr-1"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Prefix != "/opt/prefix_dsr-1" {
		t.Errorf("config prefix = %q", cfg.Prefix)
	}
}

func TestCreateRecyclesStoppedInstance(t *testing.T) {
	store := newTestStore(t)

	st, err := store.Create(idutil.GenerateID(), testConfig("dsr-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.SetStopped(0); err != nil {
		t.Fatalf("set stopped: %v", err)
	}

	// 同名实例已停止时重新创建应回收旧目录
	st2, err := store.Create(idutil.GenerateID(), testConfig("dsr-1"))
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if st2.LaunchID == st.LaunchID {
		t.Errorf("recreate reused launch id")
	}
	if st2.Status != StatusCreating {
		t.Errorf("status = %q", st2.Status)
	}
}

func TestCreateRejectsRunningInstance(t *testing.T) {
	store := newTestStore(t)

	st, err := store.Create(idutil.GenerateID(), testConfig("dsr-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// 用当前测试进程的 PID 模拟存活的实例
	if err := st.SetRunning(os.Getpid()); err != nil {
		t.Fatalf("set running: %v", err)
	}

	_, err = store.Create(idutil.GenerateID(), testConfig("dsr-1"))
	if !errors.Is(err, wberrors.ErrInstanceExists) {
		t.Fatalf("err = %v, want ErrInstanceExists", err)
	}
}

func TestOrphanCorrection(t *testing.T) {
	store := newTestStore(t)

	st, err := store.Create(idutil.GenerateID(), testConfig("dsr-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// PID 取一个几乎不可能存在的值
	if err := st.SetRunning(1 << 22); err != nil {
		t.Fatalf("set running: %v", err)
	}

	got, err := store.Get("dsr-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusStopped {
		t.Errorf("orphan not corrected: status = %q", got.Status)
	}
	if got.ExitCode == nil || *got.ExitCode != -1 {
		t.Errorf("orphan exit code = %v, want -1", got.ExitCode)
	}

	// 修正必须已落盘
	reloaded, err := LoadState(store.InstanceDir("dsr-1"))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != StatusStopped {
		t.Errorf("correction not persisted: %q", reloaded.Status)
	}
}

func TestLookupName(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"dsr-1", "dsr-2", "other"} {
		if _, err := store.Create(idutil.GenerateID(), testConfig(name)); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	// 精确匹配优先于前缀匹配
	if name, err := store.LookupName("dsr-1"); err != nil || name != "dsr-1" {
		t.Errorf("exact lookup = %q, %v", name, err)
	}

	// 唯一前缀
	if name, err := store.LookupName("ot"); err != nil || name != "other" {
		t.Errorf("prefix lookup = %q, %v", name, err)
	}

	// 歧义前缀
	if _, err := store.LookupName("dsr"); !errors.Is(err, wberrors.ErrAmbiguousName) {
		t.Errorf("ambiguous lookup err = %v", err)
	}

	// 不存在
	if _, err := store.LookupName("missing"); !errors.Is(err, wberrors.ErrInstanceNotFound) {
		t.Errorf("missing lookup err = %v", err)
	}
}

func TestList(t *testing.T) {
	store := newTestStore(t)

	running, err := store.Create(idutil.GenerateID(), testConfig("up"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := running.SetRunning(os.Getpid()); err != nil {
		t.Fatalf("set running: %v", err)
	}

	stopped, err := store.Create(idutil.GenerateID(), testConfig("down"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := stopped.SetStopped(1); err != nil {
		t.Fatalf("set stopped: %v", err)
	}

	states, err := store.List(false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(states) != 1 || states[0].Name != "up" {
		t.Errorf("list running = %v", names(states))
	}

	states, err = store.List(true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(states) != 2 {
		t.Errorf("list all = %v", names(states))
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	st, err := store.Create(idutil.GenerateID(), testConfig("dsr-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.SetRunning(os.Getpid()); err != nil {
		t.Fatalf("set running: %v", err)
	}

	if err := store.Delete("dsr-1"); !errors.Is(err, wberrors.ErrInstanceRunning) {
		t.Fatalf("delete running err = %v", err)
	}

	if err := store.ForceDelete("dsr-1"); err != nil {
		t.Fatalf("force delete: %v", err)
	}
	if store.Exists("dsr-1") {
		t.Errorf("instance still exists after force delete")
	}

	// 幂等
	if err := store.Delete("dsr-1"); err != nil {
		t.Errorf("delete missing: %v", err)
	}
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"dsr-1", "a", "Game.exe_run"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"", "-bad", ".hidden", "has space", "a/b"} {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) accepted", name)
		}
	}
}

func TestTryAcquireRunLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := TryAcquireRunLock(dir)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lock.Release()

	// flock 按打开文件表去重：同一进程再开一个描述符再锁会冲突
	if _, err := TryAcquireRunLock(dir); !errors.Is(err, wberrors.ErrInstanceLocked) {
		t.Fatalf("second acquire err = %v, want ErrInstanceLocked", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	lock2, err := TryAcquireRunLock(dir)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	lock2.Release()
}

func TestRunLockDoesNotBlockStateWrites(t *testing.T) {
	store := newTestStore(t)

	st, err := store.Create(idutil.GenerateID(), testConfig("dsr-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 启动期间持有运行锁，状态写入（内部走阻塞的状态锁）不得被它卡住
	runLock, err := TryAcquireRunLock(st.GetInstanceDir())
	if err != nil {
		t.Fatalf("run lock: %v", err)
	}
	defer runLock.Release()

	if err := st.SetRunning(os.Getpid()); err != nil {
		t.Fatalf("SetRunning under run lock: %v", err)
	}
	if err := st.SetStopped(0); err != nil {
		t.Fatalf("SetStopped under run lock: %v", err)
	}
}

func TestReload(t *testing.T) {
	store := newTestStore(t)

	st, err := store.Create(idutil.GenerateID(), testConfig("dsr-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	other, err := store.Get("dsr-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := other.SetRunning(os.Getpid()); err != nil {
		t.Fatalf("set running: %v", err)
	}

	if err := st.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if st.Status != StatusRunning || st.Pid != os.Getpid() {
		t.Errorf("reload missed update: %q pid %d", st.Status, st.Pid)
	}
	if st.GetInstanceDir() == "" {
		t.Errorf("reload dropped instance dir")
	}
}

func names(states []*InstanceState) []string {
	var out []string
	for _, st := range states {
		out = append(out, st.Name)
	}
	return out
}
