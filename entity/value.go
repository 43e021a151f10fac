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
	"time"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// StringValue returns a string property value.
func StringValue(s string) *datastorepb.Value {
	return &datastorepb.Value{ValueType: &datastorepb.Value_StringValue{StringValue: s}}
}

// BoolValue returns a boolean property value.
func BoolValue(b bool) *datastorepb.Value {
	return &datastorepb.Value{ValueType: &datastorepb.Value_BooleanValue{BooleanValue: b}}
}

// IntValue returns an integer property value.
func IntValue(i int64) *datastorepb.Value {
	return &datastorepb.Value{ValueType: &datastorepb.Value_IntegerValue{IntegerValue: i}}
}

// DoubleValue returns a floating point property value.
func DoubleValue(f float64) *datastorepb.Value {
	return &datastorepb.Value{ValueType: &datastorepb.Value_DoubleValue{DoubleValue: f}}
}

// TimeValue returns a timestamp property value. Datastore stores timestamps
// with microsecond precision; finer precision is truncated by the server.
func TimeValue(t time.Time) *datastorepb.Value {
	return &datastorepb.Value{ValueType: &datastorepb.Value_TimestampValue{TimestampValue: timestamppb.New(t)}}
}

// KeyValue returns a property value referencing another entity.
func KeyValue(k *datastorepb.Key) *datastorepb.Value {
	return &datastorepb.Value{ValueType: &datastorepb.Value_KeyValue{KeyValue: k}}
}

// BlobValue returns a bytes property value.
func BlobValue(b []byte) *datastorepb.Value {
	return &datastorepb.Value{ValueType: &datastorepb.Value_BlobValue{BlobValue: b}}
}

// NullValue returns a null property value.
func NullValue() *datastorepb.Value {
	return &datastorepb.Value{ValueType: &datastorepb.Value_NullValue{NullValue: structpb.NullValue_NULL_VALUE}}
}

// EntityValue returns a property value holding an embedded entity.
func EntityValue(e *datastorepb.Entity) *datastorepb.Value {
	return &datastorepb.Value{ValueType: &datastorepb.Value_EntityValue{EntityValue: e}}
}

// ArrayValue returns an array property value.
func ArrayValue(vals ...*datastorepb.Value) *datastorepb.Value {
	return &datastorepb.Value{ValueType: &datastorepb.Value_ArrayValue{
		ArrayValue: &datastorepb.ArrayValue{Values: vals},
	}}
}

// StringArrayValue returns an array property value of strings.
func StringArrayValue(ss []string) *datastorepb.Value {
	vals := make([]*datastorepb.Value, 0, len(ss))
	for _, s := range ss {
		vals = append(vals, StringValue(s))
	}
	return ArrayValue(vals...)
}
