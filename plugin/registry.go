package plugin

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
)

// Registry 标签注册表
// 管理标签到处理器的映射，确保一个标签只绑定一个处理器
type Registry struct {
	mu sync.RWMutex

	// tags 标签名 -> 处理器
	tags map[string]TagHandler

	// handlers 处理器名 -> 处理器
	handlers map[string]TagHandler
}

// NewRegistry 创建新的注册表
func NewRegistry() *Registry {
	return &Registry{
		tags:     make(map[string]TagHandler),
		handlers: make(map[string]TagHandler),
	}
}

// Register 注册处理器
// 如果标签已被其他处理器注册，返回错误
func (r *Registry) Register(h TagHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := h.Name()

	// 检查处理器是否已注册
	if existing, ok := r.handlers[name]; ok {
		return fmt.Errorf("处理器 %q 已注册", existing.Name())
	}

	// 检查标签是否已被其他处理器绑定
	for _, tag := range h.Tags() {
		if existing, ok := r.tags[tag]; ok {
			return fmt.Errorf("标签 @%s 已被处理器 %q 绑定，无法被 %q 再次绑定",
				tag, existing.Name(), name)
		}
	}

	r.handlers[name] = h
	for _, tag := range h.Tags() {
		r.tags[tag] = h
	}

	return nil
}

// MustRegister 注册处理器，失败时 panic
func (r *Registry) MustRegister(h TagHandler) {
	if err := r.Register(h); err != nil {
		panic(err)
	}
}

// Unregister 取消注册处理器
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handlers[name]
	if !ok {
		return fmt.Errorf("处理器 %q 未注册", name)
	}

	for _, tag := range h.Tags() {
		delete(r.tags, tag)
	}
	delete(r.handlers, name)

	return nil
}

// GetByTag 根据标签名获取处理器
func (r *Registry) GetByTag(tag string) (TagHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.tags[tag]
	return h, ok
}

// GetByName 根据处理器名获取处理器
func (r *Registry) GetByName(name string) (TagHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[name]
	return h, ok
}

// Handlers 返回所有已注册的处理器
func (r *Registry) Handlers() []TagHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Values(r.handlers)
}

// Tags 返回所有已注册的标签
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Keys(r.tags)
}

// IsRegistered 检查标签是否已注册
func (r *Registry) IsRegistered(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tags[tag]
	return ok
}

// 全局注册表
var globalRegistry = NewRegistry()

// Global 返回全局注册表
func Global() *Registry {
	return globalRegistry
}

// Register 向全局注册表注册处理器
func Register(h TagHandler) error {
	return globalRegistry.Register(h)
}

// MustRegister 向全局注册表注册处理器，失败时 panic
func MustRegister(h TagHandler) {
	globalRegistry.MustRegister(h)
}
