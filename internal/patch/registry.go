// Package patch 维护按名称注册的 patch
// 进程启动时注册好，任务按配置里的名称查找
package patch

import (
	"sort"
	"sync"

	"github.com/ecodeclub/ewatch/internal/task"
)

var _ task.PatchResolver = &Registry{}

type Registry struct {
	mux     sync.RWMutex
	patches map[string]task.Patch
}

func NewRegistry() *Registry {
	return &Registry{patches: make(map[string]task.Patch)}
}

// Default 注册了全部内置 patch 的 Registry
func Default() *Registry {
	r := NewRegistry()
	r.Register(NameReschedule, task.PatchFunc(Reschedule))
	r.Register(NameFollow, task.PatchFunc(Follow))
	r.Register(NameStop, task.PatchFunc(Stop))
	return r
}

// Register 同名的 patch 会被覆盖
func (r *Registry) Register(name string, p task.Patch) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.patches[name] = p
}

func (r *Registry) Lookup(name string) (task.Patch, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	p, ok := r.patches[name]
	return p, ok
}

func (r *Registry) Names() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	names := make([]string, 0, len(r.patches))
	for name := range r.patches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
