// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package entity

import (
	"strconv"
	"strings"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
)

// NameKey returns a key whose leaf element has the given kind and name. If
// parent is not nil its path is prepended and its partition is reused.
func NameKey(kind, name string, parent *datastorepb.Key) *datastorepb.Key {
	return childKey(parent, &datastorepb.Key_PathElement{
		Kind:   kind,
		IdType: &datastorepb.Key_PathElement_Name{Name: name},
	})
}

// IDKey returns a key whose leaf element has the given kind and numeric ID.
func IDKey(kind string, id int64, parent *datastorepb.Key) *datastorepb.Key {
	return childKey(parent, &datastorepb.Key_PathElement{
		Kind:   kind,
		IdType: &datastorepb.Key_PathElement_Id{Id: id},
	})
}

// IncompleteKey returns a key with no ID or name. Datastore assigns an ID on
// insert, or one can be obtained through AllocateIDs.
func IncompleteKey(kind string, parent *datastorepb.Key) *datastorepb.Key {
	return childKey(parent, &datastorepb.Key_PathElement{Kind: kind})
}

func childKey(parent *datastorepb.Key, elem *datastorepb.Key_PathElement) *datastorepb.Key {
	k := &datastorepb.Key{}
	if parent != nil {
		k.PartitionId = parent.GetPartitionId()
		k.Path = append(k.Path, parent.GetPath()...)
	}
	k.Path = append(k.Path, elem)
	return k
}

func leaf(key *datastorepb.Key) (*datastorepb.Key_PathElement, error) {
	path := key.GetPath()
	if len(path) == 0 {
		return nil, &KeyError{msg: "Key has no path"}
	}
	return path[len(path)-1], nil
}

// Kind returns the kind of the key's leaf element.
func Kind(key *datastorepb.Key) (string, error) {
	l, err := leaf(key)
	if err != nil {
		return "", err
	}
	return l.GetKind(), nil
}

// Name returns the name of the key's leaf element, failing if the element is
// identified by a numeric ID or not identified at all.
func Name(key *datastorepb.Key) (string, error) {
	l, err := leaf(key)
	if err != nil {
		return "", err
	}
	n, ok := l.GetIdType().(*datastorepb.Key_PathElement_Name)
	if !ok {
		return "", &KeyError{msg: "Key has no name"}
	}
	return n.Name, nil
}

// ID returns the numeric ID of the key's leaf element.
func ID(key *datastorepb.Key) (int64, error) {
	l, err := leaf(key)
	if err != nil {
		return 0, err
	}
	id, ok := l.GetIdType().(*datastorepb.Key_PathElement_Id)
	if !ok {
		return 0, &KeyError{msg: "Key has no id"}
	}
	return id.Id, nil
}

// IsComplete reports whether every path element of key has an ID or name.
func IsComplete(key *datastorepb.Key) bool {
	if len(key.GetPath()) == 0 {
		return false
	}
	for _, e := range key.GetPath() {
		if e.GetIdType() == nil {
			return false
		}
	}
	return true
}

// KeyString encodes the path of key as a stable string, e.g.
// `Author:"tolkien"/Book:12`. The partition is not included.
func KeyString(key *datastorepb.Key) string {
	var b strings.Builder
	for i, e := range key.GetPath() {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(e.GetKind())
		b.WriteByte(':')
		switch id := e.GetIdType().(type) {
		case *datastorepb.Key_PathElement_Name:
			b.WriteString(strconv.Quote(id.Name))
		case *datastorepb.Key_PathElement_Id:
			b.WriteString(strconv.FormatInt(id.Id, 10))
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}
