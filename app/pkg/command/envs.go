package command

import (
	"fmt"
	"strings"
	"sync"
)

type Envs struct {
	kvs map[string]string
	mux *sync.RWMutex
}

func NewEnvs() *Envs {
	return &Envs{
		kvs: make(map[string]string),
		mux: &sync.RWMutex{},
	}
}

func NewEnvsBySliceKV(source []string) *Envs {
	res := NewEnvs()
	for _, v := range source {
		r := strings.SplitN(v, "=", 2)
		if len(r) == 2 {
			res.kvs[strings.Trim(r[0], " ")] = strings.Trim(r[1], " ")
		}
	}
	return res
}

func (e *Envs) SliceKV() []string {
	e.mux.RLock()
	defer e.mux.RUnlock()
	res := make([]string, 0, len(e.kvs))
	for k, v := range e.kvs {
		res = append(res, fmt.Sprintf("%s=%s", k, v))
	}
	return res
}

func (e *Envs) Add(k string, v any) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.kvs[k] = fmt.Sprintf("%v", v)
}

func (e *Envs) Get(k string) (string, bool) {
	e.mux.RLock()
	defer e.mux.RUnlock()
	v, ok := e.kvs[k]
	return v, ok
}

func (e *Envs) String() string {
	return strings.Join(e.SliceKV(), " ")
}

func (e *Envs) Empty() bool {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return len(e.kvs) == 0
}
