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

// Package entity builds and reads Datastore entities.
//
// The Opt* accessors return ok=false when a property is absent and an error
// when it is present with another type. The Req* accessors additionally fail
// when the property is absent.
package entity

import (
	"fmt"
	"time"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"k8s.io/klog/v2"
)

// Decoder is implemented by Go types that can be populated from an entity.
type Decoder interface {
	FromEntity(e *datastorepb.Entity) error
}

// Encoder is implemented by Go types that can be stored as an entity.
type Encoder interface {
	ToEntity() (*datastorepb.Entity, error)
}

// Kinded is implemented by Go types stored under a fixed kind.
type Kinded interface {
	Kind() string
}

// ReqKey returns the key of e, checking that its leaf element has the given
// kind.
func ReqKey(e *datastorepb.Entity, kind string) (*datastorepb.Key, error) {
	key := e.GetKey()
	if key == nil {
		return nil, &ValueError{msg: "Missing Key"}
	}
	k, err := Kind(key)
	if err != nil {
		return nil, &ValueError{msg: err.Error()}
	}
	if k != kind {
		return nil, &ValueError{msg: fmt.Sprintf("Invalid Key Kind. Expected '%s'.", kind)}
	}
	return key, nil
}

func property(e *datastorepb.Entity, name string) (*datastorepb.Value, bool) {
	v, ok := e.GetProperties()[name]
	if !ok || v == nil || v.GetValueType() == nil {
		return nil, false
	}
	return v, true
}

// OptString returns the string property name.
func OptString(e *datastorepb.Entity, name string) (string, bool, error) {
	v, ok := property(e, name)
	if !ok {
		return "", false, nil
	}
	s, ok := v.GetValueType().(*datastorepb.Value_StringValue)
	if !ok {
		return "", false, wrongType(name, "a string")
	}
	return s.StringValue, true, nil
}

// ReqString returns the string property name, which must be present.
func ReqString(e *datastorepb.Entity, name string) (string, error) {
	s, ok, err := OptString(e, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", missingField(name)
	}
	return s, nil
}

// OptBool returns the boolean property name.
func OptBool(e *datastorepb.Entity, name string) (bool, bool, error) {
	v, ok := property(e, name)
	if !ok {
		return false, false, nil
	}
	b, ok := v.GetValueType().(*datastorepb.Value_BooleanValue)
	if !ok {
		return false, false, wrongType(name, "a boolean")
	}
	return b.BooleanValue, true, nil
}

// ReqBool returns the boolean property name, which must be present.
func ReqBool(e *datastorepb.Entity, name string) (bool, error) {
	b, ok, err := OptBool(e, name)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, missingField(name)
	}
	return b, nil
}

// OptInt returns the integer property name.
func OptInt(e *datastorepb.Entity, name string) (int64, bool, error) {
	v, ok := property(e, name)
	if !ok {
		return 0, false, nil
	}
	i, ok := v.GetValueType().(*datastorepb.Value_IntegerValue)
	if !ok {
		return 0, false, wrongType(name, "an integer")
	}
	return i.IntegerValue, true, nil
}

// ReqInt returns the integer property name, which must be present.
func ReqInt(e *datastorepb.Entity, name string) (int64, error) {
	i, ok, err := OptInt(e, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, missingField(name)
	}
	return i, nil
}

// OptTime returns the timestamp property name.
func OptTime(e *datastorepb.Entity, name string) (time.Time, bool, error) {
	v, ok := property(e, name)
	if !ok {
		return time.Time{}, false, nil
	}
	ts, ok := v.GetValueType().(*datastorepb.Value_TimestampValue)
	if !ok {
		return time.Time{}, false, wrongType(name, "a Timestamp")
	}
	if err := ts.TimestampValue.CheckValid(); err != nil {
		return time.Time{}, false, &ValueError{Field: name, msg: fmt.Sprintf("Field %s: %v", name, err)}
	}
	return ts.TimestampValue.AsTime(), true, nil
}

// ReqTime returns the timestamp property name, which must be present.
func ReqTime(e *datastorepb.Entity, name string) (time.Time, error) {
	t, ok, err := OptTime(e, name)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, missingField(name)
	}
	return t, nil
}

// OptStringArray returns the array property name, all of whose elements must
// be strings.
func OptStringArray(e *datastorepb.Entity, name string) ([]string, bool, error) {
	v, ok := property(e, name)
	if !ok {
		klog.V(2).Infof("No value found for field %q", name)
		return nil, false, nil
	}
	arr, ok := v.GetValueType().(*datastorepb.Value_ArrayValue)
	if !ok {
		return nil, false, wrongType(name, "an array")
	}
	out := make([]string, 0, len(arr.ArrayValue.GetValues()))
	for _, elem := range arr.ArrayValue.GetValues() {
		s, ok := elem.GetValueType().(*datastorepb.Value_StringValue)
		if !ok {
			return nil, false, wrongType(name, "a string")
		}
		out = append(out, s.StringValue)
	}
	return out, true, nil
}

// ReqStringArray returns the string array property name, which must be
// present.
func ReqStringArray(e *datastorepb.Entity, name string) ([]string, error) {
	ss, ok, err := OptStringArray(e, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, missingField(name)
	}
	return ss, nil
}
