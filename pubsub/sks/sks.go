/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package sks implements the Security Key Service collaborator: a
// per-security-group ring of past, current, and future symmetric keys,
// shared between a publisher and its subscribers through an atomic
// "get current key by id" lookup. Key distribution between a real SKS
// server and its clients — the GetSecurityKeys method, certificates,
// transport — is out of scope; this package only holds the keys once
// they exist.
package sks

import (
	"fmt"
	"sync"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
)

// Key is one symmetric key in a security group's ring, identified by its
// token id. The caller chooses the id; Rotate rejects only an id that is
// already in the ring.
type Key struct {
	ID   uint32
	Data []byte
}

// KeyStorage holds one security group's key ring: a bounded number of
// past keys and the current key (maxFuture bounds future keys, but Rotate
// never leaves one in the ring), mirroring the fixed-size ring the original SKS storage preallocates
// per security group. Lookups and rotation are safe for concurrent use
// by a publisher and a subscriber sharing the same group.
type KeyStorage struct {
	mu sync.RWMutex

	maxPast   int
	maxFuture int

	keys       []Key // past... current future..., current at currentIdx
	currentIdx int
}

// NewKeyStorage builds an empty ring sized for maxPast past keys and
// maxFuture future keys around whatever current key Rotate first installs.
func NewKeyStorage(maxPast, maxFuture int) *KeyStorage {
	return &KeyStorage{maxPast: maxPast, maxFuture: maxFuture}
}

// CurrentKey returns the ring's current key. It is an error to call this
// before the first Rotate.
func (s *KeyStorage) CurrentKey() (Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.keys) == 0 {
		return Key{}, pubsub.NewInvalidArgumentError("key storage has no current key")
	}
	return s.keys[s.currentIdx], nil
}

// KeyByID returns the key matching id, searching past, current, and
// future keys. This is the atomic "get current key by id" operation the
// Security Key Service must expose; a publisher and a subscriber that
// have drifted to adjacent tokens still resolve the same key material.
func (s *KeyStorage) KeyByID(id uint32) (Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.keys {
		if k.ID == id {
			return k, nil
		}
	}
	return Key{}, pubsub.NewInvalidArgumentError("no key with id %d in storage", id)
}

// Rotate advances the ring: newKey is appended and becomes the current
// key, and the previous current key becomes the newest past key. Past
// keys beyond maxPast are dropped. Rotate never leaves a future key in the
// ring: after every call the current key is the newest one. The first
// Rotate call on an empty ring simply installs newKey as current.
func (s *KeyStorage) Rotate(newKey Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.keys) == 0 {
		s.keys = []Key{newKey}
		s.currentIdx = 0
		return nil
	}
	for _, k := range s.keys {
		if k.ID == newKey.ID {
			return pubsub.NewInvalidArgumentError("key id %d already present in storage", newKey.ID)
		}
	}

	s.keys = append(s.keys, newKey)
	if s.currentIdx+1 < len(s.keys) {
		s.currentIdx++
	}

	pastCount := s.currentIdx
	if pastCount > s.maxPast {
		drop := pastCount - s.maxPast
		s.keys = s.keys[drop:]
		s.currentIdx -= drop
	}
	futureCount := len(s.keys) - s.currentIdx - 1
	if futureCount > s.maxFuture {
		s.keys = s.keys[:len(s.keys)-(futureCount-s.maxFuture)]
	}
	return nil
}

// Registry maps security group names to their KeyStorage, the relation
// a Security Key Service server holds between security groups and rings.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*KeyStorage
}

// NewRegistry builds an empty security-group registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*KeyStorage)}
}

// AddSecurityGroup installs a new, empty key ring under name. It is an
// error to add a group that already exists.
func (r *Registry) AddSecurityGroup(name string, maxPast, maxFuture int) (*KeyStorage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[name]; ok {
		return nil, pubsub.NewInvalidArgumentError("security group %q already exists", name)
	}
	ks := NewKeyStorage(maxPast, maxFuture)
	r.groups[name] = ks
	return ks, nil
}

// RemoveSecurityGroup deletes a group's key ring entirely.
func (r *Registry) RemoveSecurityGroup(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, name)
}

// SecurityGroup looks up a previously added group's key ring.
func (r *Registry) SecurityGroup(name string) (*KeyStorage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ks, ok := r.groups[name]
	if !ok {
		return nil, pubsub.NewInvalidArgumentError("no security group named %q", name)
	}
	return ks, nil
}

func (k Key) String() string {
	return fmt.Sprintf("Key{ID: %d, len(Data): %d}", k.ID, len(k.Data))
}
