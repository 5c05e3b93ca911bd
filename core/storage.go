package core

import (
	"fmt"
)

type Storager[K comparable, V any] interface {
	Put(k K, v V) error
	Get(k K) (V, error)
	Len() int
}

// GenericMemStore serializes all access through a single goroutine that
// owns the map.
type GenericMemStore[K comparable, V any] struct {
	putChan  chan *putRequest[K, V]
	readChan chan *getRequest[K, V]
	lenChan  chan chan int
	quitChan chan struct{}
	data     map[K]V
}

type putRequest[K comparable, V any] struct {
	key K
	val V
}

type getRequest[K comparable, V any] struct {
	key      K
	response chan<- *lookupResult[V]
}

type lookupResult[V any] struct {
	v      V
	exists bool
}

func NewGenericMemStore[K comparable, V any]() *GenericMemStore[K, V] {
	s := &GenericMemStore[K, V]{
		putChan:  make(chan *putRequest[K, V]),
		readChan: make(chan *getRequest[K, V]),
		lenChan:  make(chan chan int),
		quitChan: make(chan struct{}),
		data:     make(map[K]V),
	}

	go s.handleAccess()
	return s
}

func (s *GenericMemStore[K, V]) handleAccess() {
	for {
		select {
		case req := <-s.putChan:
			s.data[req.key] = req.val
		case req := <-s.readChan:
			v, ok := s.data[req.key]
			req.response <- &lookupResult[V]{
				v:      v,
				exists: ok,
			}
		case resp := <-s.lenChan:
			resp <- len(s.data)
		case <-s.quitChan:
			return
		}
	}
}

func (s *GenericMemStore[K, V]) Put(k K, v V) error {
	if s.closed() {
		return fmt.Errorf("store closed")
	}
	select {
	case s.putChan <- &putRequest[K, V]{key: k, val: v}:
		return nil
	case <-s.quitChan:
		return fmt.Errorf("store closed")
	}
}

func (s *GenericMemStore[K, V]) Get(k K) (V, error) {
	var empty V
	if s.closed() {
		return empty, fmt.Errorf("store closed")
	}
	respCh := make(chan *lookupResult[V], 1)
	req := &getRequest[K, V]{
		key:      k,
		response: respCh,
	}
	select {
	case s.readChan <- req:
	case <-s.quitChan:
		return empty, fmt.Errorf("store closed")
	}
	resp := <-respCh
	if !resp.exists {
		return empty, fmt.Errorf("key %v does not exist in store", k)
	}
	return resp.v, nil
}

func (s *GenericMemStore[K, V]) Len() int {
	if s.closed() {
		return 0
	}
	respCh := make(chan int, 1)
	select {
	case s.lenChan <- respCh:
		return <-respCh
	case <-s.quitChan:
		return 0
	}
}

func (s *GenericMemStore[K, V]) closed() bool {
	select {
	case <-s.quitChan:
		return true
	default:
		return false
	}
}

// Close stops the access goroutine. Later calls fail.
func (s *GenericMemStore[K, V]) Close() {
	close(s.quitChan)
}
