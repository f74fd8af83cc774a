package reconcile

import (
	"context"
	"fmt"
)

// fakePackageManager tracks installs and removals against an in-memory
// installed set, with per-package injected failures.
type fakePackageManager struct {
	installed    map[string]bool
	failInstall  map[string]error
	updateErr    error
	installHook  func(name string)
	installCalls []string
	removeCalls  []string
}

func newFakePackageManager(preInstalled ...string) *fakePackageManager {
	installed := make(map[string]bool)
	for _, name := range preInstalled {
		installed[name] = true
	}
	return &fakePackageManager{
		installed:   installed,
		failInstall: make(map[string]error),
	}
}

func (f *fakePackageManager) IsInstalled(ctx context.Context, name string) (bool, error) {
	return f.installed[name], nil
}

func (f *fakePackageManager) Install(ctx context.Context, name string) error {
	f.installCalls = append(f.installCalls, name)
	if f.installHook != nil {
		f.installHook(name)
	}
	if err := f.failInstall[name]; err != nil {
		return err
	}
	f.installed[name] = true
	return nil
}

func (f *fakePackageManager) Remove(ctx context.Context, name string) error {
	f.removeCalls = append(f.removeCalls, name)
	delete(f.installed, name)
	return nil
}

func (f *fakePackageManager) UpdateRepo(ctx context.Context) error {
	return f.updateErr
}

// fakeServiceManager keeps enablement and running state in memory.
type fakeServiceManager struct {
	enabled     map[string]bool
	running     map[string]bool
	startErr    map[string]error
	restartErr  map[string]error
	enableCalls []string
	startCalls  []string
	restarted   []string
}

func newFakeServiceManager() *fakeServiceManager {
	return &fakeServiceManager{
		enabled:    make(map[string]bool),
		running:    make(map[string]bool),
		startErr:   make(map[string]error),
		restartErr: make(map[string]error),
	}
}

func (f *fakeServiceManager) IsEnabledAtBoot(ctx context.Context, name string) (bool, error) {
	return f.enabled[name], nil
}

func (f *fakeServiceManager) EnableAtBoot(ctx context.Context, name string) error {
	f.enableCalls = append(f.enableCalls, name)
	f.enabled[name] = true
	return nil
}

func (f *fakeServiceManager) IsRunning(ctx context.Context, name string) (bool, error) {
	return f.running[name], nil
}

func (f *fakeServiceManager) Start(ctx context.Context, name string) error {
	f.startCalls = append(f.startCalls, name)
	if err := f.startErr[name]; err != nil {
		return err
	}
	f.running[name] = true
	return nil
}

func (f *fakeServiceManager) Restart(ctx context.Context, name string) error {
	f.restarted = append(f.restarted, name)
	if err := f.restartErr[name]; err != nil {
		return err
	}
	f.running[name] = true
	return nil
}

// fakeGroupManager keeps group membership in memory.
type fakeGroupManager struct {
	groups      map[string]map[string]bool
	createCalls []string
	addCalls    []string
}

func newFakeGroupManager(existing ...string) *fakeGroupManager {
	groups := make(map[string]map[string]bool)
	for _, name := range existing {
		groups[name] = make(map[string]bool)
	}
	return &fakeGroupManager{groups: groups}
}

func (f *fakeGroupManager) GroupExists(ctx context.Context, name string) (bool, error) {
	_, ok := f.groups[name]
	return ok, nil
}

func (f *fakeGroupManager) CreateGroup(ctx context.Context, name string) error {
	f.createCalls = append(f.createCalls, name)
	f.groups[name] = make(map[string]bool)
	return nil
}

func (f *fakeGroupManager) UserInGroup(ctx context.Context, userName, group string) (bool, error) {
	members, ok := f.groups[group]
	if !ok {
		return false, nil
	}
	return members[userName], nil
}

func (f *fakeGroupManager) AddUserToGroup(ctx context.Context, userName, group string) error {
	members, ok := f.groups[group]
	if !ok {
		return fmt.Errorf("group %s does not exist", group)
	}
	members[userName] = true
	f.addCalls = append(f.addCalls, userName+":"+group)
	return nil
}
