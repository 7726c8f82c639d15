package failinject

import (
	"fmt"
	"sync"

	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
)

func NewInjector() Injector {
	return &defaultInjector{failpoints: make(map[string]*defaultFailpoint)}
}

type Injector interface {
	RegisterFailpoint(name string) (Failpoint, error)
	GetFailpoint(name string) Failpoint
	Start() error
	Stop() error
}

type Failpoint interface {
	CheckFail() error
	SetFailAction(action FailAction)
	Deactivate()
}

type FailAction func() error

type defaultInjector struct {
	failpoints map[string]*defaultFailpoint
	lock       sync.Mutex
}

type defaultFailpoint struct {
	name       string
	active     common.AtomicBool
	failAction FailAction
}

func (i *defaultInjector) RegisterFailpoint(name string) (Failpoint, error) {
	i.lock.Lock()
	defer i.lock.Unlock()
	fp := &defaultFailpoint{
		name: name,
	}
	i.failpoints[name] = fp
	return fp, nil
}

func (i *defaultInjector) GetFailpoint(name string) Failpoint {
	i.lock.Lock()
	defer i.lock.Unlock()
	fp, ok := i.failpoints[name]
	if !ok {
		panic(fmt.Sprintf("no failpoint registered with name %s", name))
	}
	return fp
}

func (f *defaultFailpoint) CheckFail() error {
	if !f.active.Get() {
		return nil
	}
	if f.failAction == nil {
		return errors.Errorf("no fail action specfied for failpoint %s", f.name)
	}
	return f.failAction()
}

func (f *defaultFailpoint) SetFailAction(action FailAction) {
	f.active.Set(true)
	f.failAction = action
}

func (f *defaultFailpoint) Deactivate() {
	f.active.Set(false)
	f.failAction = nil
}

func (i *defaultInjector) Start() error {
	return i.registerFailpoints()
}

func (i *defaultInjector) Stop() error {
	return nil
}

func (i *defaultInjector) registerFailpoints() error {
	_, err := i.RegisterFailpoint("read_request_1")
	if err != nil {
		return err
	}
	_, err = i.RegisterFailpoint("cache_store_1")
	return err
}
