package remote

import (
	"errors"
	"sync"
)

// ErrControllerBusy is returned when a second operator tries to connect.
var ErrControllerBusy = errors.New("controller in use by another operator")

// operatorLock admits one operator at a time. Unlike sync.Mutex, a second
// Lock fails instead of waiting.
type operatorLock struct {
	lck   sync.Mutex
	inuse bool
}

func (l *operatorLock) Lock() error {
	l.lck.Lock()
	defer l.lck.Unlock()
	if l.inuse {
		return ErrControllerBusy
	}
	l.inuse = true
	return nil
}

func (l *operatorLock) Unlock() {
	l.lck.Lock()
	defer l.lck.Unlock()
	l.inuse = false
}
