// Package objstore tracks the protocol objects that are alive on one
// side of a connection.
package objstore

import (
	"fmt"

	"deedles.dev/infolauncher/wire"
)

// Store maps object IDs to objects. IDs that are allocated locally
// start at the value given to New.
type Store struct {
	objects map[uint32]wire.Object
	nextID  uint32
}

func New(start uint32) *Store {
	return &Store{
		objects: make(map[uint32]wire.Object),
		nextID:  start,
	}
}

// Add inserts obj into the store, allocating a new ID for it if it
// doesn't already have one.
func (s *Store) Add(obj wire.Object) {
	id := obj.ID()
	if id == 0 {
		id = s.nextID
		obj.SetID(id)
		s.nextID++
	}

	s.objects[id] = obj
}

// Set inserts obj with an ID chosen by the peer.
func (s *Store) Set(id uint32, obj wire.Object) error {
	if _, ok := s.objects[id]; ok {
		return fmt.Errorf("object ID %v already in use", id)
	}

	obj.SetID(id)
	s.objects[id] = obj
	return nil
}

func (s *Store) Get(id uint32) wire.Object {
	return s.objects[id]
}

// Len returns the number of live objects.
func (s *Store) Len() int {
	return len(s.objects)
}

func (s *Store) Delete(id uint32) {
	obj := s.objects[id]
	delete(s.objects, id)
	if obj != nil {
		obj.Delete()
	}
}

// Dispatch routes msg to the object that it is addressed to.
func (s *Store) Dispatch(msg *wire.MessageBuffer) (wire.Object, error) {
	obj := s.objects[msg.Sender()]
	if obj == nil {
		return nil, wire.UnknownSenderIDError{Msg: msg}
	}

	return obj, obj.Dispatch(msg)
}
